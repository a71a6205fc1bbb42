// Package config handles importer configuration loading.
package config

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds replay and resampling settings.
type ImportConfig struct {
	RecordingFPS  float64 `yaml:"recording_fps"` // 0 = auto-detect
	TargetFPS     float64 `yaml:"target_fps"`
	StartFrame    int     `yaml:"start_frame"`
	ClearExisting bool    `yaml:"clear_existing"`
	Grouping      bool    `yaml:"hierarchical_grouping"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			RecordingFPS:  0,
			TargetFPS:     30,
			StartFrame:    0,
			ClearExisting: false,
			Grouping:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
