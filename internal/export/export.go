// Package export walks a finished scene graph and resampled tracks and
// emits them through a host scene interface.
package export

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/meshport/meshport/internal/anim"
	"github.com/meshport/meshport/internal/replay"
	"github.com/meshport/meshport/internal/scene"
	mmath "github.com/meshport/meshport/pkg/math"
	"github.com/meshport/meshport/pkg/recording"
)

// Handle identifies an object created in the host scene. Handles remain
// valid for the builder's lifetime.
type Handle int

// Host is the scene interface of the target application. All calls are
// synchronous and non-reentrant; the builder guarantees parents are
// created before their children are attached.
type Host interface {
	// Clear removes pre-existing host content.
	Clear() error
	// CreateObject materializes a geometry-bearing object.
	CreateObject(name string, geom *recording.Geometry, mat *recording.Material) (Handle, error)
	// CreateGroup materializes an empty container node.
	CreateGroup(name string) (Handle, error)
	// SetParent attaches child under parent.
	SetParent(child, parent Handle) error
	// SetTransform sets the object's static local transform.
	SetTransform(h Handle, m mmath.Mat4) error
	// SetProperty sets a named object property.
	SetProperty(h Handle, name string, value anim.Value) error
	// InsertKeyframe inserts one animation key on a property channel.
	InsertKeyframe(h Handle, property string, frame int, value anim.Value) error
}

// Options configure the emission.
type Options struct {
	// ClearExisting wipes host content before building.
	ClearExisting bool
	// Grouping mirrors the path hierarchy with nested host containers.
	// When off, only geometry-bearing and animated nodes are created,
	// unparented, with their world transform baked in.
	Grouping bool
}

// Summary reports what was emitted.
type Summary struct {
	Objects    int
	Groups     int
	Keyframes  int
	StartFrame int
	EndFrame   int
}

// Build emits the frozen graph and resampled tracks into the host,
// top-down so parents always exist before their children. Host errors
// halt emission and are propagated verbatim; whatever was already
// materialized stays in place.
func Build(host Host, res *replay.Result, sampled *anim.Result, opts Options, log *zap.Logger) (*Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if opts.ClearExisting {
		if err := host.Clear(); err != nil {
			return nil, fmt.Errorf("clearing host scene: %w", err)
		}
	}

	tracksByPath := make(map[recording.Path][]anim.SampledTrack)
	for _, tr := range sampled.Tracks {
		tracksByPath[tr.Path] = append(tracksByPath[tr.Path], tr)
	}

	summary := &Summary{
		StartFrame: sampled.StartFrame,
		EndFrame:   sampled.EndFrame,
	}
	handles := make(map[recording.Path]Handle)

	// Pass 1: objects and hierarchy, parents before children.
	err := res.Graph.Walk(func(n *scene.Node) error {
		if n.Path.IsRoot() {
			return nil
		}
		if n.IsGroup() && !opts.Grouping && len(tracksByPath[n.Path]) == 0 {
			return nil
		}

		var (
			h   Handle
			err error
		)
		if n.IsGroup() {
			h, err = host.CreateGroup(n.Path.Name())
			summary.Groups++
		} else {
			h, err = host.CreateObject(n.Path.Name(), n.Geometry, n.Material)
			summary.Objects++
		}
		if err != nil {
			return fmt.Errorf("creating %s: %w", n.Path, err)
		}
		handles[n.Path] = h

		if opts.Grouping {
			if parent, ok := handles[n.Path.Parent()]; ok {
				if err := host.SetParent(h, parent); err != nil {
					return fmt.Errorf("attaching %s: %w", n.Path, err)
				}
			}
			if err := host.SetTransform(h, n.Transform); err != nil {
				return fmt.Errorf("posing %s: %w", n.Path, err)
			}
		} else {
			world, _ := res.Graph.WorldTransform(n.Path)
			if err := host.SetTransform(h, world); err != nil {
				return fmt.Errorf("posing %s: %w", n.Path, err)
			}
		}

		for _, name := range sortedPropertyNames(n.Properties) {
			if v, ok := n.Properties[name].(anim.Value); ok {
				if err := host.SetProperty(h, name, v); err != nil {
					return fmt.Errorf("setting %s.%s: %w", n.Path, name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	// Pass 2: keyframes, in the same top-down order.
	err = res.Graph.Walk(func(n *scene.Node) error {
		h, ok := handles[n.Path]
		if !ok {
			return nil
		}
		for _, tr := range tracksByPath[n.Path] {
			for _, s := range tr.Samples {
				if err := host.InsertKeyframe(h, tr.Property, s.Frame, s.Value); err != nil {
					return fmt.Errorf("keyframing %s.%s at frame %d: %w", n.Path, tr.Property, s.Frame, err)
				}
				summary.Keyframes++
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	log.Info("scene built",
		zap.Int("objects", summary.Objects),
		zap.Int("groups", summary.Groups),
		zap.Int("keyframes", summary.Keyframes),
		zap.Int("start_frame", summary.StartFrame),
		zap.Int("end_frame", summary.EndFrame))

	return summary, nil
}

func sortedPropertyNames(props map[string]any) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
