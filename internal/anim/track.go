package anim

import (
	"fmt"
	"sort"

	"github.com/meshport/meshport/pkg/recording"
)

// TransformProperty names the implicit channel fed by timestamped
// set_transform commands.
const TransformProperty = "transform"

// Interpolation selects how a track is evaluated between keyframes.
type Interpolation uint8

const (
	InterpLinear Interpolation = iota
	InterpStep
)

// Keyframe is one (time, value) pair. Time is in the track's time base.
type Keyframe struct {
	Time  float64
	Value Value
}

// Track is the ordered keyframe sequence of one (path, property)
// channel.
type Track struct {
	Path     recording.Path
	Property string
	Interp   Interpolation
	Keys     []Keyframe

	// FPS overrides the recording sample rate for clip-owned tracks
	// (0 = use the recording rate). Offset shifts the clip's internal
	// time base to its activation time, in recording-frame units.
	FPS    float64
	Offset float64
}

type channelKey struct {
	path     recording.Path
	property string
}

// Set accumulates tracks during replay. It is owned by the interpreter
// until Freeze, after which it is read-only.
type Set struct {
	tracks map[channelKey]*Track
	frozen bool
}

// NewSet returns an empty track set.
func NewSet() *Set {
	return &Set{tracks: make(map[channelKey]*Track)}
}

// Append adds a keyframe to the (path, property) channel, creating the
// track on first use. Discrete values force step interpolation.
func (s *Set) Append(path recording.Path, property string, time float64, value Value) {
	s.mustBeMutable()
	key := channelKey{path, property}
	tr, ok := s.tracks[key]
	if !ok {
		interp := InterpLinear
		if value.Discrete() {
			interp = InterpStep
		}
		tr = &Track{Path: path, Property: property, Interp: interp}
		s.tracks[key] = tr
	}
	tr.Keys = append(tr.Keys, Keyframe{Time: time, Value: value})
}

// DeleteSubtree drops every in-progress track rooted at or below prefix.
func (s *Set) DeleteSubtree(prefix recording.Path) {
	s.mustBeMutable()
	for key := range s.tracks {
		if key.path.HasPrefix(prefix) {
			delete(s.tracks, key)
		}
	}
}

// ClipTrackPath resolves a clip-relative track path against the clip's
// attach path.
func ClipTrackPath(attach, rel recording.Path) recording.Path {
	if rel.IsRoot() {
		return attach
	}
	return recording.NormalizePath(string(attach) + string(rel))
}

// ApplyClip attaches a complete animation clip below the attach path,
// superseding inline tracks accumulated for the same channels. Tracks
// that cannot be coerced are reported through badTrack and skipped.
func (s *Set) ApplyClip(attach recording.Path, clip *recording.Clip, badTrack func(recording.Path, string, error)) {
	s.mustBeMutable()
	for _, ct := range clip.Tracks {
		path := ClipTrackPath(attach, ct.Path)

		if len(ct.Times) != len(ct.Values) {
			badTrack(path, ct.Property, fmt.Errorf("%d times vs %d values", len(ct.Times), len(ct.Values)))
			continue
		}

		tr := &Track{
			Path:     path,
			Property: ct.Property,
			Interp:   InterpLinear,
			FPS:      clip.FPS,
			Offset:   clip.Start,
		}
		if ct.Interpolation == "step" {
			tr.Interp = InterpStep
		}

		ok := true
		for i, raw := range ct.Values {
			v, err := CoerceValue(raw, ct.Property)
			if err != nil {
				badTrack(path, ct.Property, fmt.Errorf("key %d: %w", i, err))
				ok = false
				break
			}
			if v.Discrete() {
				tr.Interp = InterpStep
			}
			tr.Keys = append(tr.Keys, Keyframe{Time: ct.Times[i], Value: v})
		}
		if !ok {
			continue
		}

		s.tracks[channelKey{path, ct.Property}] = tr
	}
}

// Tracks returns all tracks ordered by path then property.
func (s *Set) Tracks() []*Track {
	out := make([]*Track, 0, len(s.tracks))
	for _, tr := range s.tracks {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Property < out[j].Property
	})
	return out
}

// Len returns the number of channels.
func (s *Set) Len() int {
	return len(s.tracks)
}

// Freeze marks the set read-only; resampling may begin.
func (s *Set) Freeze() {
	s.frozen = true
	for _, tr := range s.tracks {
		sortKeys(tr)
	}
}

func sortKeys(tr *Track) {
	sort.SliceStable(tr.Keys, func(i, j int) bool {
		return tr.Keys[i].Time < tr.Keys[j].Time
	})
}

func (s *Set) mustBeMutable() {
	if s.frozen {
		panic("anim: mutating frozen track set")
	}
}
