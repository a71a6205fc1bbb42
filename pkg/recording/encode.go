package recording

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodePayload encodes commands back into a msgpack stream. The format
// is symmetric with DecodePayload, so geometry buffers survive a decode/
// re-encode round trip bit-for-bit.
func EncodePayload(cmds []Command) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	for i := range cmds {
		wc, err := deconvertCommand(&cmds[i])
		if err != nil {
			return nil, fmt.Errorf("encoding command %d: %w", i, err)
		}
		if err := enc.Encode(wc); err != nil {
			return nil, fmt.Errorf("encoding command %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func deconvertCommand(cmd *Command) (*wireCommand, error) {
	wc := &wireCommand{
		Type: cmd.Kind.String(),
		Path: string(cmd.Path),
	}
	if cmd.HasTime {
		t := cmd.Time
		wc.Time = &t
	}

	switch cmd.Kind {
	case KindCreateObject:
		if cmd.Object != nil {
			wc.Object = deconvertObject(cmd.Object)
		}
	case KindSetTransform:
		if cmd.Transform != nil {
			m := cmd.Transform.Array()
			wc.Matrix = m[:]
		}
	case KindSetProperty:
		wc.Property = cmd.Property
		wc.Value = cmd.Value
	case KindDelete:
		// Path only.
	case KindSetAnimation:
		if cmd.Clip != nil {
			wc.Animations = []wireAnimation{deconvertClip(cmd.Path, cmd.Clip)}
		}
	default:
		return nil, fmt.Errorf("cannot encode command kind %q", cmd.RawType)
	}
	return wc, nil
}

func deconvertObject(obj *Object) *wireObject {
	m := obj.Transform.Array()
	wo := &wireObject{Matrix: m[:]}

	if g := obj.Geometry; g != nil {
		wo.Geometry = &wireGeometry{
			Width:        g.Width,
			Height:       g.Height,
			Depth:        g.Depth,
			Radius:       g.Radius,
			RadiusTop:    g.RadiusTop,
			RadiusBottom: g.RadiusBottom,
			Positions:    g.Positions,
			Normals:      g.Normals,
			UVs:          g.UVs,
			Indices:      g.Indices,
		}
		switch g.Kind {
		case GeometryBox:
			wo.Geometry.Type = "BoxGeometry"
		case GeometrySphere:
			wo.Geometry.Type = "SphereGeometry"
		case GeometryCylinder:
			wo.Geometry.Type = "CylinderGeometry"
		case GeometryPlane:
			wo.Geometry.Type = "PlaneGeometry"
		default:
			wo.Geometry.Type = "BufferGeometry"
		}
	}

	if m := obj.Material; m != nil {
		opacity := m.Opacity
		wo.Material = &wireMaterial{
			Color:       m.Color[:],
			Opacity:     &opacity,
			Wireframe:   m.Wireframe,
			DoubleSided: m.DoubleSided,
			Transparent: m.Transparent,
		}
	}
	return wo
}

func deconvertClip(attach Path, clip *Clip) wireAnimation {
	wa := wireAnimation{
		Path: string(attach),
		Clip: wireClip{
			Name:  clip.Name,
			FPS:   clip.FPS,
			Start: clip.Start,
		},
	}
	for _, t := range clip.Tracks {
		wa.Clip.Tracks = append(wa.Clip.Tracks, wireTrack{
			Path:          string(t.Path),
			Property:      t.Property,
			Interpolation: t.Interpolation,
			Times:         t.Times,
			Values:        t.Values,
		})
	}
	return wa
}
