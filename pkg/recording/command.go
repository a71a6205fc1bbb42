// Package recording decodes recorded meshcat visualization sessions into
// an ordered sequence of scene mutation commands.
package recording

import (
	"fmt"

	mmath "github.com/meshport/meshport/pkg/math"
)

// CommandKind identifies one of the closed set of mutation operations.
type CommandKind uint8

const (
	KindCreateObject CommandKind = iota // create or wholesale-replace an object
	KindSetTransform                    // update a node's local transform
	KindSetProperty                     // update a named property
	KindDelete                          // remove a subtree
	KindSetAnimation                    // attach a complete animation clip

	// KindUnknown marks a structurally valid record whose type string is
	// not recognized. The interpreter skips it with a diagnostic.
	KindUnknown CommandKind = 255
)

// String returns a human-readable command kind name.
func (k CommandKind) String() string {
	switch k {
	case KindCreateObject:
		return "set_object"
	case KindSetTransform:
		return "set_transform"
	case KindSetProperty:
		return "set_property"
	case KindDelete:
		return "delete"
	case KindSetAnimation:
		return "set_animation"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Command is one replayable mutation from the recorded stream.
// Commands are totally ordered by arrival sequence; Time is animation
// metadata, never a reordering key.
type Command struct {
	Kind CommandKind
	Path Path

	// Time is the recording timestamp in recording-frame units.
	// Valid only when HasTime is set.
	Time    float64
	HasTime bool

	Object    *Object     // KindCreateObject
	Transform *mmath.Mat4 // KindSetTransform
	Property  string      // KindSetProperty
	Value     any         // KindSetProperty
	Clip      *Clip       // KindSetAnimation

	// RawType preserves the wire type string of unknown records.
	RawType string
}

// Object is the payload of a create-or-replace command.
type Object struct {
	Geometry  *Geometry
	Material  *Material
	Transform mmath.Mat4
}

// Clip is a named, self-contained set of recorded animation tracks with
// its own time base.
type Clip struct {
	Name   string
	FPS    float64 // clip-internal sample rate, 0 = unknown
	Start  float64 // activation time in recording-frame units
	Tracks []ClipTrack
}

// ClipTrack is one (relative path, property) channel inside a clip.
type ClipTrack struct {
	Path          Path   // relative to the clip's attach path
	Property      string // e.g. "position", "quaternion", "scale", "visible"
	Interpolation string // "linear" or "step"
	Times         []float64
	Values        []any
}
