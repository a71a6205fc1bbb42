package recording

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	mmath "github.com/meshport/meshport/pkg/math"
)

// Wire-level record shapes. One msgpack map per command, identified by
// its "type" field.
type wireCommand struct {
	Type       string          `msgpack:"type"`
	Path       string          `msgpack:"path"`
	Time       *float64        `msgpack:"time,omitempty"`
	Object     *wireObject     `msgpack:"object,omitempty"`
	Matrix     []float32       `msgpack:"matrix,omitempty"`
	Property   string          `msgpack:"property,omitempty"`
	Value      any             `msgpack:"value,omitempty"`
	Animations []wireAnimation `msgpack:"animations,omitempty"`
}

type wireObject struct {
	Geometry *wireGeometry `msgpack:"geometry,omitempty"`
	Material *wireMaterial `msgpack:"material,omitempty"`
	Matrix   []float32     `msgpack:"matrix,omitempty"`
}

type wireGeometry struct {
	Type         string    `msgpack:"type"`
	Width        float32   `msgpack:"width,omitempty"`
	Height       float32   `msgpack:"height,omitempty"`
	Depth        float32   `msgpack:"depth,omitempty"`
	Radius       float32   `msgpack:"radius,omitempty"`
	RadiusTop    float32   `msgpack:"radiusTop,omitempty"`
	RadiusBottom float32   `msgpack:"radiusBottom,omitempty"`
	Positions    []float32 `msgpack:"positions,omitempty"`
	Normals      []float32 `msgpack:"normals,omitempty"`
	UVs          []float32 `msgpack:"uvs,omitempty"`
	Indices      []uint32  `msgpack:"indices,omitempty"`
}

type wireMaterial struct {
	Color       []float32 `msgpack:"color,omitempty"`
	Opacity     *float32  `msgpack:"opacity,omitempty"`
	Wireframe   bool      `msgpack:"wireframe,omitempty"`
	DoubleSided bool      `msgpack:"doubleSided,omitempty"`
	Transparent bool      `msgpack:"transparent,omitempty"`
}

type wireAnimation struct {
	Path string   `msgpack:"path"`
	Clip wireClip `msgpack:"clip"`
}

type wireClip struct {
	Name   string      `msgpack:"name,omitempty"`
	FPS    float64     `msgpack:"fps,omitempty"`
	Start  float64     `msgpack:"start,omitempty"`
	Tracks []wireTrack `msgpack:"tracks"`
}

type wireTrack struct {
	Path          string    `msgpack:"path,omitempty"`
	Property      string    `msgpack:"property"`
	Interpolation string    `msgpack:"interpolation,omitempty"`
	Times         []float64 `msgpack:"times"`
	Values        []any     `msgpack:"values"`
}

// Decode extracts the payload from container bytes and decodes it into
// an ordered command sequence. It is a pure transform: on failure no
// partial result is returned.
func Decode(data []byte) ([]Command, error) {
	payload, err := ExtractPayload(data)
	if err != nil {
		return nil, err
	}
	return DecodePayload(payload)
}

// DecodeFile decodes a recording container from disk.
func DecodeFile(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	return Decode(data)
}

// DecodePayload decodes a raw msgpack command stream.
func DecodePayload(payload []byte) ([]Command, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))

	var cmds []Command
	for i := 0; ; i++ {
		var wc wireCommand
		err := dec.Decode(&wc)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: command %d cut short", ErrTruncatedPayload, i)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: command %d: %v", ErrMalformedContainer, i, err)
		}
		cmds = append(cmds, convertCommand(&wc))
	}
	return cmds, nil
}

// convertCommand maps a wire record onto a typed Command. Semantic
// problems (unknown type, bad matrix shape) are preserved for the
// interpreter to skip-and-log rather than failing the whole decode.
func convertCommand(wc *wireCommand) Command {
	cmd := Command{Path: NormalizePath(wc.Path)}
	if wc.Time != nil {
		cmd.Time = *wc.Time
		cmd.HasTime = true
	}

	switch wc.Type {
	case "set_object":
		cmd.Kind = KindCreateObject
		if wc.Object != nil {
			cmd.Object = convertObject(wc.Object)
		}
	case "set_transform":
		cmd.Kind = KindSetTransform
		if m, ok := mmath.FromSlice(wc.Matrix); ok {
			cmd.Transform = &m
		}
	case "set_property":
		cmd.Kind = KindSetProperty
		cmd.Property = wc.Property
		cmd.Value = wc.Value
	case "delete":
		cmd.Kind = KindDelete
	case "set_animation":
		cmd.Kind = KindSetAnimation
		if len(wc.Animations) > 0 {
			cmd.Clip = convertClip(&wc.Animations[0])
			// The attach path rides on the animation entry.
			cmd.Path = NormalizePath(wc.Animations[0].Path)
		}
	default:
		cmd.Kind = KindUnknown
		cmd.RawType = wc.Type
	}

	return cmd
}

func convertObject(wo *wireObject) *Object {
	obj := &Object{Transform: mmath.Identity()}
	if m, ok := mmath.FromSlice(wo.Matrix); ok {
		obj.Transform = m
	}
	if wo.Geometry != nil {
		obj.Geometry = convertGeometry(wo.Geometry)
	}
	if wo.Material != nil {
		obj.Material = convertMaterial(wo.Material)
	}
	return obj
}

func convertGeometry(wg *wireGeometry) *Geometry {
	g := &Geometry{
		Width:        wg.Width,
		Height:       wg.Height,
		Depth:        wg.Depth,
		Radius:       wg.Radius,
		RadiusTop:    wg.RadiusTop,
		RadiusBottom: wg.RadiusBottom,
		Positions:    wg.Positions,
		Normals:      wg.Normals,
		UVs:          wg.UVs,
		Indices:      wg.Indices,
	}

	switch wg.Type {
	case "BoxGeometry":
		g.Kind = GeometryBox
	case "SphereGeometry":
		g.Kind = GeometrySphere
	case "CylinderGeometry":
		g.Kind = GeometryCylinder
	case "PlaneGeometry":
		g.Kind = GeometryPlane
	default:
		g.Kind = GeometryMesh
	}
	return g
}

func convertMaterial(wm *wireMaterial) *Material {
	m := DefaultMaterial()
	switch len(wm.Color) {
	case 3:
		m.Color = [4]float32{wm.Color[0], wm.Color[1], wm.Color[2], 1}
	case 4:
		m.Color = [4]float32{wm.Color[0], wm.Color[1], wm.Color[2], wm.Color[3]}
	}
	if wm.Opacity != nil {
		m.Opacity = *wm.Opacity
	}
	m.Wireframe = wm.Wireframe
	m.DoubleSided = wm.DoubleSided
	m.Transparent = wm.Transparent
	return m
}

func convertClip(wa *wireAnimation) *Clip {
	clip := &Clip{
		Name:  wa.Clip.Name,
		FPS:   wa.Clip.FPS,
		Start: wa.Clip.Start,
	}
	for _, wt := range wa.Clip.Tracks {
		interp := wt.Interpolation
		if interp == "" {
			interp = "linear"
		}
		clip.Tracks = append(clip.Tracks, ClipTrack{
			Path:          NormalizePath(wt.Path),
			Property:      wt.Property,
			Interpolation: interp,
			Times:         wt.Times,
			Values:        wt.Values,
		})
	}
	return clip
}
