package mesh

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/utils"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
	Hex
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tet", "Hex"}[e]
}

// Topology is the reference cell of the element type, its sides define the local face numbering
func (e ElementType) Topology() *topology.CellTopology {
	switch e {
	case Line:
		return topology.LineTopology
	case Triangle:
		return topology.TriangleTopology
	case Quad:
		return topology.QuadrilateralTopology
	case Tet:
		return topology.TetrahedronTopology
	case Hex:
		return topology.HexahedronTopology
	}
	panic(fmt.Errorf("unknown element type %d", int(e)))
}

// Face represents a face of an element
type Face struct {
	Vertices        []int // Sorted vertex indices
	Element         int   // Parent element
	LocalID         int   // Local face ID within element
	Neighbor        int   // Element on the other side, -1 on the boundary
	NeighborLocalID int   // Local face ID within the neighbor, -1 on the boundary
}

// Mesh represents a complete unstructured mesh with all connectivity
type Mesh struct {
	// Geometry
	Dim      int
	Vertices [][]float64 // Vertex coordinates [nvertices][Dim]

	// Element data
	Elements     [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element
	ElementTags  []int         // Physical group/tag for each element

	// Connectivity (built during initialization)
	EToE [][]int // Element to element connectivity [nelems][nfaces_per_elem]
	EToF [][]int // Element to neighbor's local face [nelems][nfaces_per_elem]

	// Face data
	Faces        []Face         // All unique faces in mesh
	FaceMap      map[string]int // Map from sorted vertex string to face ID
	BoundaryTags map[int]string // Boundary condition tags

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int
}

// NewMesh creates a new mesh and builds connectivity
func NewMesh() *Mesh {
	return &Mesh{
		FaceMap:      make(map[string]int),
		BoundaryTags: make(map[int]string),
	}
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".neu":
		return ReadGambitNeutral(filename)
	case ".su2":
		return ReadSU2(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() {
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[string]int)

	for elemID := 0; elemID < m.NumElements; elemID++ {
		faceVertices := GetElementFaces(m.ElementTypes[elemID], m.Elements[elemID])

		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localFaceID, faceVerts := range faceVertices {
			sorted := make([]int, len(faceVerts))
			copy(sorted, faceVerts)
			sort.Ints(sorted)
			key := fmt.Sprintf("%v", sorted)

			if faceID, exists := m.FaceMap[key]; exists {
				// Face already exists - this is an interior face
				face := &m.Faces[faceID]
				if face.Neighbor >= 0 {
					panic(fmt.Errorf("face %v is shared by more than two elements", sorted))
				}
				face.Neighbor, face.NeighborLocalID = elemID, localFaceID
				m.EToE[elemID][localFaceID] = face.Element
				m.EToE[face.Element][face.LocalID] = elemID
				m.EToF[elemID][localFaceID] = face.LocalID
				m.EToF[face.Element][face.LocalID] = localFaceID
			} else {
				m.FaceMap[key] = len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices:        sorted,
					Element:         elemID,
					LocalID:         localFaceID,
					Neighbor:        -1,
					NeighborLocalID: -1,
				})
			}
		}
	}

	m.NumFaces = len(m.Faces)
}

/*
ConnectPeriodic joins the boundary face localA of element elemA with the boundary face localB of elemB. The two faces
stay distinct in the face list, the second one is folded into the first.
*/
func (m *Mesh) ConnectPeriodic(elemA, localA, elemB, localB int) (err error) {
	if m.EToE[elemA][localA] >= 0 || m.EToE[elemB][localB] >= 0 {
		return fmt.Errorf("periodic faces %d/%d and %d/%d must both be boundary faces", elemA, localA, elemB, localB)
	}
	var fA, fB = -1, -1
	for i, f := range m.Faces {
		switch {
		case f.Element == elemA && f.LocalID == localA:
			fA = i
		case f.Element == elemB && f.LocalID == localB:
			fB = i
		}
	}
	if fA < 0 || fB < 0 {
		return fmt.Errorf("periodic faces %d/%d and %d/%d not found", elemA, localA, elemB, localB)
	}
	m.EToE[elemA][localA], m.EToF[elemA][localA] = elemB, localB
	m.EToE[elemB][localB], m.EToF[elemB][localB] = elemA, localA
	m.Faces[fA].Neighbor, m.Faces[fA].NeighborLocalID = elemB, localB
	m.Faces[fB].Neighbor, m.Faces[fB].NeighborLocalID = -2, -2 // folded into fA
	return
}

// GetElementFaces returns the face vertices for each element type in the local order of its topology
func GetElementFaces(elemType ElementType, vertices []int) (faces [][]int) {
	for _, side := range elemType.Topology().Sides {
		face := make([]int, len(side))
		for i, n := range side {
			face[i] = vertices[n]
		}
		faces = append(faces, face)
	}
	return
}

// ElementType returns the single element type of the mesh, mixed meshes are an error
func (m *Mesh) ElementType() (et ElementType, err error) {
	if m.NumElements == 0 {
		return et, fmt.Errorf("mesh has no elements")
	}
	et = m.ElementTypes[0]
	for i, t := range m.ElementTypes {
		if t != et {
			return et, fmt.Errorf("mixed element types: element 0 is %s, element %d is %s", et, i, t)
		}
	}
	return
}

// CellNodes gathers the vertex coordinates of cells into a (C,N,Dim) array
func (m *Mesh) CellNodes(cells []int) (nodes utils.Array) {
	var N int
	if len(cells) > 0 {
		N = len(m.Elements[cells[0]])
	}
	nodes = utils.NewArray("node_coordinates", len(cells), N, m.Dim)
	for c, e := range cells {
		for n, v := range m.Elements[e] {
			copy(nodes.Slab(c, n), m.Vertices[v][:m.Dim])
		}
	}
	return
}

// Orient renumbers the vertices of every inverted element so that its reference map has a positive Jacobian
func (m *Mesh) Orient() (flipped int) {
	for e, verts := range m.Elements {
		var (
			ct = m.ElementTypes[e].Topology()
			D  = ct.Dim
			dN = make([]float64, ct.NodeCount()*D)
			J  = make([]float64, D*D)
		)
		ct.BasisGrad(ct.Centroid(), dN)
		for n, v := range verts {
			for i := 0; i < D; i++ {
				for j := 0; j < D; j++ {
					J[i*D+j] += m.Vertices[v][i] * dN[n*D+j]
				}
			}
		}
		if utils.Det(J, D) >= 0 {
			continue
		}
		flipped++
		ReverseOrientation(m.ElementTypes[e], verts)
	}
	return
}

// ReverseOrientation renumbers the local vertices of an element so that its reference map changes handedness
func ReverseOrientation(et ElementType, verts []int) {
	switch et {
	case Line:
		verts[0], verts[1] = verts[1], verts[0]
	case Triangle, Tet:
		verts[1], verts[2] = verts[2], verts[1]
	case Quad:
		verts[1], verts[3] = verts[3], verts[1]
	case Hex:
		verts[1], verts[3] = verts[3], verts[1]
		verts[5], verts[7] = verts[7], verts[5]
	}
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Dimension: %d\n", m.Dim)
	fmt.Fprintf(w, "  Vertices: %d\n", m.NumVertices)
	fmt.Fprintf(w, "  Elements: %d\n", m.NumElements)
	fmt.Fprintf(w, "  Faces: %d\n", m.NumFaces)

	// Count element types
	typeCounts := make(map[ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}
	fmt.Fprintf(w, "  Element types:\n")
	for t := Line; t <= Hex; t++ {
		if count := typeCounts[t]; count > 0 {
			fmt.Fprintf(w, "    %s: %d\n", t, count)
		}
	}

	// Count boundary faces
	boundaryFaces := 0
	for i := 0; i < m.NumElements; i++ {
		for _, neighbor := range m.EToE[i] {
			if neighbor < 0 {
				boundaryFaces++
			}
		}
	}
	fmt.Fprintf(w, "  Boundary faces: %d\n", boundaryFaces)
}
