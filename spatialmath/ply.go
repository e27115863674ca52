package spatialmath

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// NewMeshFromPLYFile loads an ASCII PLY file into a mesh labeled with the file's base name.
func NewMeshFromPLYFile(path string) (*Mesh, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := NewMeshFromPLY(f, label)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return m, nil
}

// NewMeshFromPLY reads an ASCII PLY stream. Vertices need x, y and z properties; faces may be
// listed under either vertex_indices or vertex_index and are fan-triangulated.
func NewMeshFromPLY(r io.Reader, label string) (m *Mesh, err error) {
	// goply panics on malformed input rather than returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			m = nil
			err = errors.Errorf("malformed ply data: %v", rec)
		}
	}()
	ply := goply.New(r)

	vertexElems := ply.Elements("vertex")
	vertices := make([]r3.Vector, 0, len(vertexElems))
	for i := range vertexElems {
		x, errX := plyFloat(vertexElems[i].Property("x"))
		y, errY := plyFloat(vertexElems[i].Property("y"))
		z, errZ := plyFloat(vertexElems[i].Property("z"))
		if errX != nil || errY != nil || errZ != nil {
			return nil, errors.Errorf("vertex %d does not have numeric x, y, z properties", i)
		}
		vertices = append(vertices, r3.Vector{X: x, Y: y, Z: z})
	}

	faceElems := ply.Elements("face")
	polygons := make([][]int, 0, len(faceElems))
	for i := range faceElems {
		raw := faceElems[i].Property("vertex_indices")
		if raw == nil {
			raw = faceElems[i].Property("vertex_index")
		}
		list, ok := raw.([]interface{})
		if !ok {
			return nil, errors.Errorf("face %d has no vertex index list", i)
		}
		poly := make([]int, 0, len(list))
		for _, v := range list {
			idx, err := plyInt(v)
			if err != nil {
				return nil, errors.Wrapf(err, "face %d", i)
			}
			poly = append(poly, idx)
		}
		polygons = append(polygons, poly)
	}
	return NewMeshFromPolygons(vertices, polygons, label)
}

// plyFloat and plyInt accept any of goply's numeric property types. A missing property is an error.
func plyFloat(v interface{}) (float64, error) {
	if v == nil {
		return 0, errors.New("missing property")
	}
	return cast.ToFloat64E(v)
}

func plyInt(v interface{}) (int, error) {
	if v == nil {
		return 0, errors.New("missing index")
	}
	return cast.ToIntE(v)
}
