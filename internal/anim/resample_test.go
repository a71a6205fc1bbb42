package anim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmath "github.com/meshport/meshport/pkg/math"
	"github.com/meshport/meshport/pkg/recording"
)

func frozenSet(fill func(*Set)) *Set {
	s := NewSet()
	fill(s)
	s.Freeze()
	return s
}

func TestResampleLinearUpsampling(t *testing.T) {
	// Two transform keys one recording frame apart, doubled to 2 fps:
	// the midpoint frame lands halfway between the keys.
	s := frozenSet(func(s *Set) {
		s.Append("/box", TransformProperty, 0, TransformValue(mmath.Translate(1, 0, 0)))
		s.Append("/box", TransformProperty, 1, TransformValue(mmath.Translate(2, 0, 0)))
	})

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 2}, nil)
	require.NoError(t, err)

	require.Len(t, res.Tracks, 1)
	samples := res.Tracks[0].Samples
	require.Len(t, samples, 3)
	assert.Equal(t, 0, res.StartFrame)
	assert.Equal(t, 2, res.EndFrame)

	assert.InDelta(t, 1.0, samples[0].Value.Position.X, 0.001)
	assert.InDelta(t, 1.5, samples[1].Value.Position.X, 0.001)
	assert.InDelta(t, 2.0, samples[2].Value.Position.X, 0.001)

	for i, smp := range samples {
		assert.Equal(t, i, smp.Frame)
	}
}

func TestResampleHoldsOutsideKeyRange(t *testing.T) {
	// First key at t=1: frame 0 holds the first value, frames past the
	// last key hold the last.
	s := frozenSet(func(s *Set) {
		s.Append("/box", "intensity", 1, NumberValue(10))
		s.Append("/box", "intensity", 2, NumberValue(20))
	})

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 1}, nil)
	require.NoError(t, err)

	samples := res.Tracks[0].Samples
	require.Len(t, samples, 3)
	assert.InDelta(t, 10, samples[0].Value.Number, 0.001)
	assert.InDelta(t, 10, samples[1].Value.Number, 0.001)
	assert.InDelta(t, 20, samples[2].Value.Number, 0.001)
}

func TestResampleStepTrack(t *testing.T) {
	s := frozenSet(func(s *Set) {
		s.Append("/box", "visible", 0, BoolValue(true))
		s.Append("/box", "visible", 2, BoolValue(false))
	})

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 2}, nil)
	require.NoError(t, err)

	samples := res.Tracks[0].Samples
	require.Len(t, samples, 5)
	assert.True(t, samples[0].Value.Bool)
	assert.True(t, samples[1].Value.Bool)  // t=0.5, holds preceding key
	assert.True(t, samples[3].Value.Bool)  // t=1.5
	assert.False(t, samples[4].Value.Bool) // t=2, exact key
}

func TestResampleSlerpsRotations(t *testing.T) {
	q0 := mmath.QuatIdentity()
	q1 := mmath.Quat{Z: 0.7071068, W: 0.7071068} // 90 degrees about Z

	s := frozenSet(func(s *Set) {
		s.Append("/box", "quaternion", 0, QuatValue(q0))
		s.Append("/box", "quaternion", 1, QuatValue(q1))
	})

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 2}, nil)
	require.NoError(t, err)

	mid := res.Tracks[0].Samples[1].Value.Quat
	// Halfway is a 45 degree rotation about Z.
	assert.InDelta(t, 0.3826834, mid.Z, 0.001)
	assert.InDelta(t, 0.9238795, mid.W, 0.001)
}

func TestResampleAutoDetectsFrameRate(t *testing.T) {
	// Keys spaced 0.5 recording frames apart: the median spacing detects
	// a 2 fps recording rate, so t=1 lands at 0.5 seconds.
	s := frozenSet(func(s *Set) {
		s.Append("/box", "intensity", 0, NumberValue(0))
		s.Append("/box", "intensity", 0.5, NumberValue(5))
		s.Append("/box", "intensity", 1, NumberValue(10))
	})

	res, err := Resample(s, Options{TargetFPS: 2}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 2, res.RecordingFPS, 0.001)
	samples := res.Tracks[0].Samples
	require.Len(t, samples, 2)
	assert.InDelta(t, 0, samples[0].Value.Number, 0.001)
	assert.InDelta(t, 10, samples[1].Value.Number, 0.001)
}

func TestResampleAmbiguousFrameRate(t *testing.T) {
	s := frozenSet(func(s *Set) {
		s.Append("/box", "intensity", 1, NumberValue(10))
	})

	_, err := Resample(s, Options{TargetFPS: 30}, nil)
	assert.ErrorIs(t, err, ErrAmbiguousFrameRate)
}

func TestResampleClipOwnTimeBase(t *testing.T) {
	// A clip track with its own rate and activation offset: keys at clip
	// times 0 and 2 at 2 fps, offset by 1 recording frame, cover seconds
	// 1 through 2.
	s := NewSet()
	clip := &recording.Clip{
		FPS:   2,
		Start: 1,
		Tracks: []recording.ClipTrack{{
			Path:     "/arm",
			Property: "intensity",
			Times:    []float64{0, 2},
			Values:   []any{0.0, 10.0},
		}},
	}
	s.ApplyClip("/robot", clip, func(p recording.Path, prop string, err error) {
		t.Fatalf("unexpected bad track %s.%s: %v", p, prop, err)
	})
	s.Freeze()

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 1}, nil)
	require.NoError(t, err)

	samples := res.Tracks[0].Samples
	require.Len(t, samples, 3)
	assert.InDelta(t, 0, samples[0].Value.Number, 0.001)  // before activation, holds first
	assert.InDelta(t, 0, samples[1].Value.Number, 0.001)  // t=1, first key
	assert.InDelta(t, 10, samples[2].Value.Number, 0.001) // t=2, last key
}

func TestResampleStartFrameOffset(t *testing.T) {
	s := frozenSet(func(s *Set) {
		s.Append("/box", "intensity", 0, NumberValue(0))
		s.Append("/box", "intensity", 1, NumberValue(10))
	})

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 1, StartFrame: 100}, nil)
	require.NoError(t, err)

	assert.Equal(t, 100, res.StartFrame)
	assert.Equal(t, 101, res.EndFrame)
	samples := res.Tracks[0].Samples
	require.Len(t, samples, 2)
	assert.Equal(t, 100, samples[0].Frame)
	assert.Equal(t, 101, samples[1].Frame)
}

func TestResampleEmptySet(t *testing.T) {
	res, err := Resample(frozenSet(func(*Set) {}), Options{RecordingFPS: 1, TargetFPS: 30}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Tracks)
	assert.Equal(t, res.StartFrame, res.EndFrame)
}

func TestResampleRejectsBadRates(t *testing.T) {
	s := frozenSet(func(s *Set) {
		s.Append("/box", "intensity", 0, NumberValue(0))
	})

	_, err := Resample(s, Options{TargetFPS: 0}, nil)
	assert.Error(t, err)

	_, err = Resample(s, Options{RecordingFPS: -1, TargetFPS: 30}, nil)
	assert.Error(t, err)
}

func TestResampleManyTracks(t *testing.T) {
	// More tracks than workers, each with a distinct value ramp, to check
	// results land in the right slots.
	s := NewSet()
	for i := 0; i < 64; i++ {
		path := recording.Path("/n").Child(string(rune('a' + i%26))).Child(string(rune('a' + i/26)))
		s.Append(path, "intensity", 0, NumberValue(float64(i)))
		s.Append(path, "intensity", 1, NumberValue(float64(i+100)))
	}
	s.Freeze()

	res, err := Resample(s, Options{RecordingFPS: 1, TargetFPS: 1}, nil)
	require.NoError(t, err)
	require.Len(t, res.Tracks, 64)

	want := s.Tracks()
	for i, tr := range res.Tracks {
		assert.Equal(t, want[i].Path, tr.Path)
		require.Len(t, tr.Samples, 2)
		assert.Equal(t, want[i].Keys[0].Value.Number, tr.Samples[0].Value.Number)
		assert.Equal(t, want[i].Keys[1].Value.Number, tr.Samples[1].Value.Number)
	}
}
