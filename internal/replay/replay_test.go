package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshport/meshport/internal/anim"
	mmath "github.com/meshport/meshport/pkg/math"
	"github.com/meshport/meshport/pkg/recording"
)

func boxObject() *recording.Object {
	return &recording.Object{
		Geometry:  &recording.Geometry{Kind: recording.GeometryBox, Width: 1, Height: 1, Depth: 1},
		Material:  recording.DefaultMaterial(),
		Transform: mmath.Identity(),
	}
}

func transformCmd(path recording.Path, m mmath.Mat4) recording.Command {
	return recording.Command{Kind: recording.KindSetTransform, Path: path, Transform: &m}
}

func TestRunBuildsGraph(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/robot/body", Object: boxObject()},
		transformCmd("/robot/body", mmath.Translate(1, 2, 3)),
	}, nil)

	assert.Empty(t, res.Diagnostics)
	assert.True(t, res.Graph.Frozen())

	node, ok := res.Graph.Lookup("/robot/body")
	require.True(t, ok)
	assert.False(t, node.IsGroup())
	assert.Equal(t, mmath.Translate(1, 2, 3), node.Transform)

	// Synthesized ancestor is a bare group.
	robot, ok := res.Graph.Lookup("/robot")
	require.True(t, ok)
	assert.True(t, robot.IsGroup())
}

func TestRunStreamOrderWins(t *testing.T) {
	// The later command wins regardless of timestamps.
	a := transformCmd("/box", mmath.Translate(1, 0, 0))
	a.Time, a.HasTime = 5, true
	b := transformCmd("/box", mmath.Translate(2, 0, 0))
	b.Time, b.HasTime = 1, true

	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/box", Object: boxObject()},
		a,
		b,
	}, nil)

	node, _ := res.Graph.Lookup("/box")
	assert.Equal(t, mmath.Translate(2, 0, 0), node.Transform)
}

func TestTimestampedTransformsBecomeKeyframes(t *testing.T) {
	a := transformCmd("/box", mmath.Translate(1, 0, 0))
	a.Time, a.HasTime = 0, true
	b := transformCmd("/box", mmath.Translate(2, 0, 0))
	b.Time, b.HasTime = 1, true
	plain := transformCmd("/box", mmath.Translate(9, 0, 0))

	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/box", Object: boxObject()},
		a,
		b,
		plain, // no timestamp, pose only
	}, nil)

	require.Equal(t, 1, res.Tracks.Len())
	tr := res.Tracks.Tracks()[0]
	assert.Equal(t, anim.TransformProperty, tr.Property)
	assert.Len(t, tr.Keys, 2)
}

func TestDeleteDoesNotResurrect(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/box", Object: boxObject()},
		{Kind: recording.KindDelete, Path: "/box"},
		transformCmd("/box", mmath.Translate(1, 0, 0)),
	}, nil)

	_, ok := res.Graph.Lookup("/box")
	assert.False(t, ok)

	require.Len(t, res.Diagnostics, 1)
	assert.ErrorIs(t, res.Diagnostics[0].Err, ErrUnknownPath)
	assert.Equal(t, 2, res.Diagnostics[0].Index)
}

func TestDeleteDropsTracks(t *testing.T) {
	a := transformCmd("/robot/arm", mmath.Translate(1, 0, 0))
	a.Time, a.HasTime = 0, true

	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/robot/arm", Object: boxObject()},
		a,
		{Kind: recording.KindDelete, Path: "/robot"},
	}, nil)

	assert.Equal(t, 0, res.Tracks.Len())
	assert.Empty(t, res.Diagnostics)
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindDelete, Path: "/nothing"},
	}, nil)

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 1, res.Graph.Len())
}

func TestCreatePreservesChildren(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/robot/arm", Object: boxObject()},
		{Kind: recording.KindCreateObject, Path: "/robot", Object: boxObject()},
	}, nil)

	robot, ok := res.Graph.Lookup("/robot")
	require.True(t, ok)
	assert.False(t, robot.IsGroup())

	_, ok = res.Graph.Lookup("/robot/arm")
	assert.True(t, ok)
	assert.Len(t, res.Graph.Children(robot), 1)
}

func TestSetPropertySynthesizesNode(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindSetProperty, Path: "/lamp", Property: "visible", Value: false},
	}, nil)

	node, ok := res.Graph.Lookup("/lamp")
	require.True(t, ok)

	v, ok := node.Properties["visible"].(anim.Value)
	require.True(t, ok)
	assert.Equal(t, anim.ValueBool, v.Kind)
	assert.False(t, v.Bool)
}

func TestTimestampedPropertyBecomesKeyframe(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindSetProperty, Path: "/lamp", Property: "intensity", Value: 0.5, Time: 1, HasTime: true},
	}, nil)

	require.Equal(t, 1, res.Tracks.Len())
	tr := res.Tracks.Tracks()[0]
	assert.Equal(t, "intensity", tr.Property)
	require.Len(t, tr.Keys, 1)
	assert.InDelta(t, 0.5, tr.Keys[0].Value.Number, 0.001)
}

func TestInvalidPayloadsAreSkipped(t *testing.T) {
	res := Run([]recording.Command{
		{Kind: recording.KindCreateObject, Path: "/a"},                       // no object
		{Kind: recording.KindSetTransform, Path: "/b"},                       // no matrix
		{Kind: recording.KindSetProperty, Path: "/c", Value: 1.0},            // no property name
		{Kind: recording.KindSetProperty, Path: "/d", Property: "p", Value: "x"}, // uncoercible
		{Kind: recording.KindSetAnimation, Path: "/e"},                       // no clip
		{Kind: recording.KindUnknown, Path: "/f", RawType: "refresh"},
	}, nil)

	require.Len(t, res.Diagnostics, 6)
	for i, d := range res.Diagnostics {
		assert.ErrorIs(t, d.Err, ErrInvalidCommandPayload, "diagnostic %d", i)
		assert.Equal(t, i, d.Index)
	}

	// Nothing was created by the skipped commands.
	assert.Equal(t, 1, res.Graph.Len())
}

func TestSetAnimationAttachesClip(t *testing.T) {
	res := Run([]recording.Command{
		{
			Kind: recording.KindSetAnimation,
			Path: "/robot",
			Clip: &recording.Clip{
				FPS: 30,
				Tracks: []recording.ClipTrack{{
					Path:          "/arm",
					Property:      "position",
					Interpolation: "linear",
					Times:         []float64{0, 1},
					Values:        []any{[]any{1.0, 0.0, 0.0}, []any{2.0, 0.0, 0.0}},
				}},
			},
		},
	}, nil)

	assert.Empty(t, res.Diagnostics)

	// Clip channels synthesize their target nodes.
	_, ok := res.Graph.Lookup("/robot/arm")
	assert.True(t, ok)

	require.Equal(t, 1, res.Tracks.Len())
	tr := res.Tracks.Tracks()[0]
	assert.Equal(t, recording.Path("/robot/arm"), tr.Path)
	assert.Equal(t, 30.0, tr.FPS)
}

func TestSetAnimationBadTrackDiagnosed(t *testing.T) {
	res := Run([]recording.Command{
		{
			Kind: recording.KindSetAnimation,
			Path: "/robot",
			Clip: &recording.Clip{
				Tracks: []recording.ClipTrack{{
					Path:     "/arm",
					Property: "position",
					Times:    []float64{0, 1},
					Values:   []any{[]any{1.0, 0.0, 0.0}}, // length mismatch
				}},
			},
		},
	}, nil)

	require.Len(t, res.Diagnostics, 1)
	assert.ErrorIs(t, res.Diagnostics[0].Err, ErrInvalidCommandPayload)
	assert.Equal(t, 0, res.Tracks.Len())
}

func TestRunDeterministic(t *testing.T) {
	cmds := []recording.Command{
		{Kind: recording.KindCreateObject, Path: "/robot/body", Object: boxObject()},
		{Kind: recording.KindSetProperty, Path: "/robot/body", Property: "visible", Value: true},
		{Kind: recording.KindDelete, Path: "/robot/body"},
		{Kind: recording.KindCreateObject, Path: "/robot/body", Object: boxObject()},
	}

	a := Run(cmds, nil)
	b := Run(cmds, nil)

	assert.Equal(t, a.Graph.Len(), b.Graph.Len())
	assert.Equal(t, a.Tracks.Len(), b.Tracks.Len())
	assert.Equal(t, len(a.Diagnostics), len(b.Diagnostics))

	// Rebuilt node carries no stale property.
	node, ok := a.Graph.Lookup("/robot/body")
	require.True(t, ok)
	assert.Empty(t, node.Properties)
}
