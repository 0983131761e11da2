package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/stage/pkg/math3d"
)

// ErrNoGeometry is returned when a file holds no triangle primitives.
var ErrNoGeometry = errors.New("no triangle geometry")

// GLTFLoader loads glTF and GLB files.
type GLTFLoader struct {
	// CalculateNormals fills in smooth normals for primitives without them.
	CalculateNormals bool
}

// NewGLTFLoader creates a loader with normal generation enabled.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{CalculateNormals: true}
}

// LoadGLB loads every mesh of a glTF/GLB file merged into one.
func LoadGLB(path string) (*Mesh, error) {
	meshes, err := NewGLTFLoader().LoadMeshes(path)
	if err != nil {
		return nil, err
	}
	merged := NewMesh(filepath.Base(path))
	for _, m := range meshes {
		merged.Append(m)
	}
	return merged, nil
}

// LoadGLBMeshes loads a glTF/GLB file keeping one Mesh per glTF mesh.
func LoadGLBMeshes(path string) ([]*Mesh, error) {
	return NewGLTFLoader().LoadMeshes(path)
}

// LoadMeshes returns one Mesh per glTF mesh that has triangle geometry.
func (l *GLTFLoader) LoadMeshes(path string) ([]*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var out []*Mesh
	for i, gm := range doc.Meshes {
		name := gm.Name
		if name == "" {
			name = fmt.Sprintf("%s.%d", stem, i)
		}
		mesh := NewMesh(name)
		if err := l.readMesh(doc, gm, mesh); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", name, err)
		}
		if mesh.TriangleCount() == 0 {
			continue
		}
		if l.CalculateNormals && !mesh.HasNormals() {
			mesh.CalculateSmoothNormals()
		}
		mesh.CalculateBounds()
		out = append(out, mesh)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
	}
	return out, nil
}

// readMesh appends the triangle primitives of gm to mesh.
func (l *GLTFLoader) readMesh(doc *gltf.Document, gm *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		base := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: vec3f(p)}
			if i < len(normals) {
				v.Normal = vec3f(normals[i])
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{V: [3]int{
				base + int(indices[i]),
				base + int(indices[i+1]),
				base + int(indices[i+2]),
			}}
			if f.V[0] >= len(mesh.Vertices) || f.V[1] >= len(mesh.Vertices) || f.V[2] >= len(mesh.Vertices) {
				return fmt.Errorf("index out of range in primitive")
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}
	return nil
}

func vec3f(v [3]float32) math3d.Vec3 {
	return math3d.V3(float64(v[0]), float64(v[1]), float64(v[2]))
}
