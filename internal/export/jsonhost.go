package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/meshport/meshport/internal/anim"
	mmath "github.com/meshport/meshport/pkg/math"
	"github.com/meshport/meshport/pkg/recording"
)

// JSONHost is a Host that materializes the scene as a JSON document,
// used by the CLI as the default export target. Rotations are written in
// (w, x, y, z) component order.
type JSONHost struct {
	objects []*jsonObject
}

type jsonObject struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind"` // "group" or geometry kind
	Geometry  *jsonGeometry  `json:"geometry,omitempty"`
	Material  *jsonMaterial  `json:"material,omitempty"`
	Transform []float32      `json:"transform"`
	Parent    int            `json:"parent"` // index, -1 = unparented
	Props     map[string]any `json:"properties,omitempty"`
	Keys      []jsonKeyframe `json:"keyframes,omitempty"`
}

type jsonGeometry struct {
	Width        float32   `json:"width,omitempty"`
	Height       float32   `json:"height,omitempty"`
	Depth        float32   `json:"depth,omitempty"`
	Radius       float32   `json:"radius,omitempty"`
	RadiusTop    float32   `json:"radiusTop,omitempty"`
	RadiusBottom float32   `json:"radiusBottom,omitempty"`
	Positions    []float32 `json:"positions,omitempty"`
	Normals      []float32 `json:"normals,omitempty"`
	UVs          []float32 `json:"uvs,omitempty"`
	Indices      []uint32  `json:"indices,omitempty"`
}

type jsonMaterial struct {
	Color       [4]float32 `json:"color"`
	Opacity     float32    `json:"opacity"`
	Wireframe   bool       `json:"wireframe,omitempty"`
	DoubleSided bool       `json:"doubleSided,omitempty"`
	Transparent bool       `json:"transparent,omitempty"`
}

type jsonKeyframe struct {
	Property string `json:"property"`
	Frame    int    `json:"frame"`
	Value    any    `json:"value"`
}

// NewJSONHost returns an empty JSON scene host.
func NewJSONHost() *JSONHost {
	return &JSONHost{}
}

// Clear implements Host.
func (h *JSONHost) Clear() error {
	h.objects = nil
	return nil
}

// CreateObject implements Host.
func (h *JSONHost) CreateObject(name string, geom *recording.Geometry, mat *recording.Material) (Handle, error) {
	obj := &jsonObject{
		Name:      name,
		Kind:      "mesh",
		Transform: identitySlice(),
		Parent:    -1,
	}
	if geom != nil {
		obj.Kind = geom.Kind.String()
		obj.Geometry = &jsonGeometry{
			Width:        geom.Width,
			Height:       geom.Height,
			Depth:        geom.Depth,
			Radius:       geom.Radius,
			RadiusTop:    geom.RadiusTop,
			RadiusBottom: geom.RadiusBottom,
			Positions:    geom.Positions,
			Normals:      geom.Normals,
			UVs:          geom.UVs,
			Indices:      geom.Indices,
		}
	}
	if mat != nil {
		obj.Material = &jsonMaterial{
			Color:       mat.Color,
			Opacity:     mat.Opacity,
			Wireframe:   mat.Wireframe,
			DoubleSided: mat.DoubleSided,
			Transparent: mat.Transparent,
		}
	}
	h.objects = append(h.objects, obj)
	return Handle(len(h.objects) - 1), nil
}

// CreateGroup implements Host.
func (h *JSONHost) CreateGroup(name string) (Handle, error) {
	h.objects = append(h.objects, &jsonObject{
		Name:      name,
		Kind:      "group",
		Transform: identitySlice(),
		Parent:    -1,
	})
	return Handle(len(h.objects) - 1), nil
}

// SetParent implements Host.
func (h *JSONHost) SetParent(child, parent Handle) error {
	obj, err := h.object(child)
	if err != nil {
		return err
	}
	if _, err := h.object(parent); err != nil {
		return err
	}
	obj.Parent = int(parent)
	return nil
}

// SetTransform implements Host.
func (h *JSONHost) SetTransform(handle Handle, m mmath.Mat4) error {
	obj, err := h.object(handle)
	if err != nil {
		return err
	}
	arr := m.Array()
	obj.Transform = arr[:]
	return nil
}

// SetProperty implements Host.
func (h *JSONHost) SetProperty(handle Handle, name string, value anim.Value) error {
	obj, err := h.object(handle)
	if err != nil {
		return err
	}
	if obj.Props == nil {
		obj.Props = make(map[string]any)
	}
	obj.Props[name] = encodeValue(value)
	return nil
}

// InsertKeyframe implements Host.
func (h *JSONHost) InsertKeyframe(handle Handle, property string, frame int, value anim.Value) error {
	obj, err := h.object(handle)
	if err != nil {
		return err
	}
	obj.Keys = append(obj.Keys, jsonKeyframe{
		Property: property,
		Frame:    frame,
		Value:    encodeValue(value),
	})
	return nil
}

// WriteTo serializes the scene document.
func (h *JSONHost) WriteTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Objects []*jsonObject `json:"objects"`
	}{Objects: h.objects})
}

// Len returns the number of materialized objects.
func (h *JSONHost) Len() int {
	return len(h.objects)
}

func (h *JSONHost) object(handle Handle) (*jsonObject, error) {
	if int(handle) < 0 || int(handle) >= len(h.objects) {
		return nil, fmt.Errorf("invalid handle %d", handle)
	}
	return h.objects[int(handle)], nil
}

func identitySlice() []float32 {
	arr := mmath.Identity().Array()
	return arr[:]
}

// encodeValue flattens a Value for JSON. Quaternions move from the
// recording's (x,y,z,w) order to (w,x,y,z).
func encodeValue(v anim.Value) any {
	switch v.Kind {
	case anim.ValueNumber:
		return v.Number
	case anim.ValueBool:
		return v.Bool
	case anim.ValueVec3:
		return v.Vec3.Array()
	case anim.ValueVec4:
		return v.Vec4
	case anim.ValueQuat:
		return wxyz(v.Quat)
	case anim.ValueTransform:
		return map[string]any{
			"position": v.Position.Array(),
			"rotation": wxyz(v.Rotation),
			"scale":    v.Scale.Array(),
		}
	default:
		return nil
	}
}

func wxyz(q mmath.Quat) [4]float32 {
	return [4]float32{q.W, q.X, q.Y, q.Z}
}
