package anim

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/meshport/meshport/pkg/recording"
)

// ErrAmbiguousFrameRate is returned when frame-rate auto-detection finds
// no usable keyframe spacing. It is surfaced to the caller, never guessed
// around.
var ErrAmbiguousFrameRate = errors.New("ambiguous recording frame rate")

// Options configure resampling onto the output frame grid.
type Options struct {
	RecordingFPS float64 // nominal recording sample rate, 0 = auto-detect
	TargetFPS    float64 // output frame rate
	StartFrame   int     // output frame offset
}

// Sample is one (output frame, value) pair.
type Sample struct {
	Frame int
	Value Value
}

// SampledTrack is a track resampled onto the uniform output grid.
type SampledTrack struct {
	Path     recording.Path
	Property string
	Samples  []Sample
}

// Result carries every resampled track plus the effective rates and the
// overall output frame range.
type Result struct {
	Tracks       []SampledTrack
	StartFrame   int
	EndFrame     int
	RecordingFPS float64
	TargetFPS    float64
}

// Resample evaluates every track in the frozen set on the uniform output
// frame grid. The set must be frozen; per-track work fans out across
// workers since each track only reads shared immutable state.
func Resample(set *Set, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TargetFPS <= 0 {
		return nil, fmt.Errorf("target frame rate must be positive, got %g", opts.TargetFPS)
	}
	if opts.RecordingFPS < 0 {
		return nil, fmt.Errorf("recording frame rate must not be negative, got %g", opts.RecordingFPS)
	}

	tracks := set.Tracks()

	recFPS := opts.RecordingFPS
	if recFPS == 0 {
		detected, err := detectFPS(tracks)
		if err != nil {
			return nil, err
		}
		recFPS = detected
		log.Info("auto-detected recording frame rate", zap.Float64("fps", recFPS))
	}

	res := &Result{
		StartFrame:   opts.StartFrame,
		EndFrame:     opts.StartFrame,
		RecordingFPS: recFPS,
		TargetFPS:    opts.TargetFPS,
	}
	if len(tracks) == 0 {
		return res, nil
	}

	// All tracks share an absolute time base from t=0, so every track
	// covers the full recording duration.
	var endSeconds float64
	for _, tr := range tracks {
		if len(tr.Keys) == 0 {
			continue
		}
		last := trackSeconds(tr, recFPS, tr.Keys[len(tr.Keys)-1].Time)
		if last > endSeconds {
			endSeconds = last
		}
	}

	frameCount := int(math.Ceil(endSeconds*opts.TargetFPS)) + 1
	res.EndFrame = opts.StartFrame + frameCount - 1

	res.Tracks = make([]SampledTrack, len(tracks))

	workers := runtime.NumCPU()
	if workers > len(tracks) {
		workers = len(tracks)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res.Tracks[i] = resampleTrack(tracks[i], recFPS, opts, frameCount)
			}
		}()
	}
	for i := range tracks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	log.Debug("resampled tracks",
		zap.Int("tracks", len(tracks)),
		zap.Int("frames", frameCount),
		zap.Float64("duration_seconds", endSeconds))

	return res, nil
}

// trackSeconds maps a track-local timestamp onto the shared time axis.
// Clip tracks carry their own rate, offset by their activation time.
func trackSeconds(tr *Track, recFPS, t float64) float64 {
	fps := tr.FPS
	if fps == 0 {
		fps = recFPS
	}
	return tr.Offset/recFPS + t/fps
}

// detectFPS returns the reciprocal of the median inter-keyframe delta
// across all tracks that depend on the recording rate.
func detectFPS(tracks []*Track) (float64, error) {
	var deltas []float64
	needed := false
	for _, tr := range tracks {
		if tr.FPS != 0 {
			continue
		}
		needed = true
		for i := 1; i < len(tr.Keys); i++ {
			d := tr.Keys[i].Time - tr.Keys[i-1].Time
			if d > 0 {
				deltas = append(deltas, d)
			}
		}
	}

	if !needed {
		// Every track carries its own rate; the recording rate is moot.
		return 1, nil
	}
	if len(deltas) == 0 {
		return 0, fmt.Errorf("%w: no usable inter-keyframe spacing", ErrAmbiguousFrameRate)
	}

	sort.Float64s(deltas)
	var median float64
	mid := len(deltas) / 2
	if len(deltas)%2 == 1 {
		median = deltas[mid]
	} else {
		median = (deltas[mid-1] + deltas[mid]) / 2
	}
	if median <= 0 {
		return 0, fmt.Errorf("%w: zero median spacing", ErrAmbiguousFrameRate)
	}
	return 1 / median, nil
}

// resampleTrack evaluates one track at every output frame.
func resampleTrack(tr *Track, recFPS float64, opts Options, frameCount int) SampledTrack {
	out := SampledTrack{
		Path:     tr.Path,
		Property: tr.Property,
		Samples:  make([]Sample, 0, frameCount),
	}
	if len(tr.Keys) == 0 {
		return out
	}

	// Keyframe times on the shared seconds axis, computed once.
	secs := make([]float64, len(tr.Keys))
	for i := range tr.Keys {
		secs[i] = trackSeconds(tr, recFPS, tr.Keys[i].Time)
	}

	for frame := 0; frame < frameCount; frame++ {
		t := float64(frame) / opts.TargetFPS
		out.Samples = append(out.Samples, Sample{
			Frame: opts.StartFrame + frame,
			Value: evaluate(tr, secs, t),
		})
	}
	return out
}

// evaluate returns the track value at time t (seconds). Before the first
// keyframe the first value holds; after the last, the last value. Step
// tracks hold the nearest preceding keyframe.
func evaluate(tr *Track, secs []float64, t float64) Value {
	idx := sort.SearchFloat64s(secs, t)

	if idx == 0 {
		return tr.Keys[0].Value
	}
	if idx == len(secs) {
		return tr.Keys[len(secs)-1].Value
	}

	if tr.Interp == InterpStep {
		if secs[idx] == t {
			return tr.Keys[idx].Value
		}
		return tr.Keys[idx-1].Value
	}

	t0, t1 := secs[idx-1], secs[idx]
	k0, k1 := tr.Keys[idx-1].Value, tr.Keys[idx].Value
	if t1 == t0 {
		return k1
	}
	frac := float32((t - t0) / (t1 - t0))
	return k0.Interpolate(k1, frac)
}
