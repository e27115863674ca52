package scene

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/contactscan/spatialmath"
	"go.viam.com/contactscan/utils"
)

// File is the on-disk description of an AnimatedScene.
type File struct {
	FPS         FrameRate           `json:"fps"`
	FrameStart  int                 `json:"frame_start"`
	FrameEnd    int                 `json:"frame_end"`
	Collections map[string][]string `json:"collections"`
	Objects     []ObjectFile        `json:"objects"`
}

// ObjectFile describes one object of a scene file.
type ObjectFile struct {
	Name          string         `json:"name"`
	Kind          Kind           `json:"kind"`
	ContactMargin *float64       `json:"contact_margin"`
	Geometry      GeometryFile   `json:"geometry"`
	Keyframes     []KeyframeFile `json:"keyframes"`
	Hidden        []FrameSpan    `json:"hidden"`
}

// GeometryFile describes an object's local surface. Type is one of sphere, box, ply or none.
type GeometryFile struct {
	Type     string  `json:"type"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments"`
	Rings    int     `json:"rings"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	// File is a PLY path, relative to the scene file.
	File string `json:"file"`
}

// KeyframeFile is the file form of a Keyframe.
type KeyframeFile struct {
	Frame    float64           `json:"frame"`
	Position *[3]float64       `json:"position"`
	Rotation *spatialmath.R4AA `json:"rotation"`
	Scale    *[3]float64       `json:"scale"`
}

const (
	defaultSphereSegments = 24
	defaultSphereRings    = 12
)

// LoadFile reads a JSON or TOML scene file, chosen by extension.
func LoadFile(path string) (*AnimatedScene, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(bytes.NewReader(data), utils.Ext(path), filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "loading scene %q", path)
	}
	return s, nil
}

// Load reads a scene in the given format ("json" or "toml"). PLY paths are resolved against baseDir.
func Load(r io.Reader, format, baseDir string) (*AnimatedScene, error) {
	raw, err := utils.ReadAttributes(r, format)
	if err != nil {
		return nil, err
	}
	var f File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &f, ErrorUnused: true})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "error decoding scene")
	}
	return f.Build(baseDir)
}

// Validate checks the file for errors that would make the scene unusable.
func (f *File) Validate() error {
	var errs error
	if f.FPS.Num <= 0 || f.FPS.Den < 0 {
		errs = multierr.Append(errs, errors.Errorf("fps must be positive, got %d/%d", f.FPS.Num, f.FPS.Den))
	}
	if f.FrameEnd < f.FrameStart {
		errs = multierr.Append(errs, errors.Errorf("frame_end %d precedes frame_start %d", f.FrameEnd, f.FrameStart))
	}
	known := map[string]bool{}
	for i, obj := range f.Objects {
		if obj.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("object %d has no name", i))
		}
		known[obj.Name] = true
	}
	for c, names := range f.Collections {
		for _, n := range names {
			if !known[n] {
				errs = multierr.Append(errs, errors.Errorf("collection %q references unknown object %q", c, n))
			}
		}
	}
	return errs
}

// Build constructs the scene the file describes.
func (f *File) Build(baseDir string) (*AnimatedScene, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s := NewAnimatedScene(f.FPS, f.FrameStart, f.FrameEnd)
	membership := map[string][]string{}
	for c, names := range f.Collections {
		s.DefineCollection(c)
		for _, n := range names {
			membership[n] = append(membership[n], c)
		}
	}
	for _, of := range f.Objects {
		obj, err := of.toObject(baseDir)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", of.Name)
		}
		if err := s.AddObject(obj, membership[of.Name]...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (of *ObjectFile) toObject(baseDir string) (AnimatedObject, error) {
	mesh, err := of.Geometry.mesh(of.Name, baseDir)
	if err != nil {
		return AnimatedObject{}, err
	}
	obj := AnimatedObject{
		Config: ObjectConfig{Name: of.Name, Kind: of.Kind, ContactMargin: of.ContactMargin},
		Hidden: of.Hidden,
	}
	if mesh != nil {
		obj.Geometry = MeshDataFromMesh(mesh)
	}
	for _, kf := range of.Keyframes {
		k := Keyframe{Frame: kf.Frame, Rotation: kf.Rotation}
		if kf.Position != nil {
			k.Position = &r3.Vector{X: kf.Position[0], Y: kf.Position[1], Z: kf.Position[2]}
		}
		if kf.Scale != nil {
			k.Scale = &r3.Vector{X: kf.Scale[0], Y: kf.Scale[1], Z: kf.Scale[2]}
		}
		obj.Keyframes = append(obj.Keyframes, k)
	}
	return obj, nil
}

func (g *GeometryFile) mesh(label, baseDir string) (*spatialmath.Mesh, error) {
	switch g.Type {
	case "", "none":
		return nil, nil
	case "sphere":
		segments, rings := g.Segments, g.Rings
		if segments == 0 {
			segments = defaultSphereSegments
		}
		if rings == 0 {
			rings = defaultSphereRings
		}
		return spatialmath.NewSphereMesh(g.Radius, segments, rings, label)
	case "box":
		return spatialmath.NewBoxMesh(r3.Vector{X: g.X, Y: g.Y, Z: g.Z}, label)
	case "ply":
		path, err := utils.ExpandHomeDir(g.File)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return spatialmath.NewMeshFromPLYFile(path)
	default:
		return nil, errors.Errorf("unknown geometry type %q", g.Type)
	}
}
