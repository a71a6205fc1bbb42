// Package replay applies a decoded command sequence to a scene graph,
// accumulating animation tracks along the way.
package replay

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshport/meshport/internal/anim"
	"github.com/meshport/meshport/internal/scene"
	"github.com/meshport/meshport/pkg/recording"
)

// Interpretation-time errors. Offending commands are skipped and logged;
// the replay continues, since recordings may contain harmless redundant
// or stale commands.
var (
	ErrUnknownPath           = errors.New("unknown path")
	ErrInvalidCommandPayload = errors.New("invalid command payload")
)

// Diagnostic records one skipped command.
type Diagnostic struct {
	Index int // position in the command stream
	Path  recording.Path
	Err   error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("command %d (%s): %v", d.Index, d.Path, d.Err)
}

// Result is the frozen outcome of a full replay: the read-only graph,
// the accumulated tracks, and every skipped-command diagnostic.
type Result struct {
	Graph       *scene.Graph
	Tracks      *anim.Set
	Diagnostics []Diagnostic
}

// Run replays commands in strict stream order against a fresh graph.
// Timestamps are animation metadata only; they never reorder commands.
// The returned graph and track set are frozen.
func Run(cmds []recording.Command, log *zap.Logger) *Result {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Result{
		Graph:  scene.NewGraph(),
		Tracks: anim.NewSet(),
	}

	for i := range cmds {
		if err := r.apply(i, &cmds[i]); err != nil {
			r.Diagnostics = append(r.Diagnostics, Diagnostic{Index: i, Path: cmds[i].Path, Err: err})
			log.Warn("skipping command",
				zap.Int("index", i),
				zap.String("path", string(cmds[i].Path)),
				zap.Error(err))
		}
	}

	// Freeze point: the graph and tracks become read-only snapshots
	// before any resampling starts.
	r.Graph.Freeze()
	r.Tracks.Freeze()

	log.Info("replay finished",
		zap.Int("commands", len(cmds)),
		zap.Int("nodes", r.Graph.Len()),
		zap.Int("tracks", r.Tracks.Len()),
		zap.Int("skipped", len(r.Diagnostics)))

	return r
}

func (r *Result) apply(index int, cmd *recording.Command) error {
	switch cmd.Kind {
	case recording.KindCreateObject:
		return r.applyCreate(cmd)
	case recording.KindSetTransform:
		return r.applySetTransform(cmd)
	case recording.KindSetProperty:
		return r.applySetProperty(cmd)
	case recording.KindDelete:
		r.applyDelete(cmd)
		return nil
	case recording.KindSetAnimation:
		return r.applySetAnimation(index, cmd)
	default:
		return fmt.Errorf("%w: unrecognized type %q", ErrInvalidCommandPayload, cmd.RawType)
	}
}

// applyCreate creates the node (synthesizing missing ancestors) or
// replaces its geometry, material and transform wholesale. Children of
// an existing node are preserved.
func (r *Result) applyCreate(cmd *recording.Command) error {
	if cmd.Object == nil {
		return fmt.Errorf("%w: set_object without object", ErrInvalidCommandPayload)
	}
	node := r.Graph.Ensure(cmd.Path)
	node.Geometry = cmd.Object.Geometry
	node.Material = cmd.Object.Material
	node.Transform = cmd.Object.Transform
	return nil
}

// applySetTransform updates the node's local transform. Absent paths are
// skipped rather than synthesized: a transform must not resurrect a
// deleted subtree.
func (r *Result) applySetTransform(cmd *recording.Command) error {
	if cmd.Transform == nil {
		return fmt.Errorf("%w: set_transform without 4x4 matrix", ErrInvalidCommandPayload)
	}
	node, ok := r.Graph.Lookup(cmd.Path)
	if !ok {
		return ErrUnknownPath
	}
	node.Transform = *cmd.Transform
	if cmd.HasTime {
		r.Tracks.Append(cmd.Path, anim.TransformProperty, cmd.Time, anim.TransformValue(*cmd.Transform))
	}
	return nil
}

// applySetProperty updates the named property, synthesizing the node if
// absent (properties may legally arrive before geometry).
func (r *Result) applySetProperty(cmd *recording.Command) error {
	if cmd.Property == "" {
		return fmt.Errorf("%w: set_property without property name", ErrInvalidCommandPayload)
	}
	value, err := anim.CoerceValue(cmd.Value, cmd.Property)
	if err != nil {
		return fmt.Errorf("%w: property %q: %v", ErrInvalidCommandPayload, cmd.Property, err)
	}

	node := r.Graph.Ensure(cmd.Path)
	node.Properties[cmd.Property] = value
	if cmd.HasTime {
		r.Tracks.Append(cmd.Path, cmd.Property, cmd.Time, value)
	}
	return nil
}

// applyDelete removes the subtree and its in-progress tracks. Deleting
// an absent path is a no-op, not an error.
func (r *Result) applyDelete(cmd *recording.Command) {
	removed := r.Graph.Delete(cmd.Path)
	if len(removed) > 0 {
		r.Tracks.DeleteSubtree(cmd.Path)
	}
}

// applySetAnimation attaches a complete clip, superseding inline tracks
// on the channels it names.
func (r *Result) applySetAnimation(index int, cmd *recording.Command) error {
	if cmd.Clip == nil {
		return fmt.Errorf("%w: set_animation without clip", ErrInvalidCommandPayload)
	}

	attach := r.Graph.Ensure(cmd.Path).Path

	r.Tracks.ApplyClip(attach, cmd.Clip, func(path recording.Path, property string, err error) {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Index: index,
			Path:  path,
			Err:   fmt.Errorf("%w: clip track %q: %v", ErrInvalidCommandPayload, property, err),
		})
	})

	// Clip channels may target paths never touched by other commands.
	for _, ct := range cmd.Clip.Tracks {
		r.Graph.Ensure(anim.ClipTrackPath(attach, ct.Path))
	}
	return nil
}
