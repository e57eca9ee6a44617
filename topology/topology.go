package topology

import (
	"fmt"
)

type Shape uint8

const (
	Point Shape = iota
	Line
	Triangle
	Quadrilateral
	Tetrahedron
	Hexahedron
)

func (s Shape) String() string {
	return [...]string{"Point", "Line", "Triangle", "Quadrilateral", "Tetrahedron", "Hexahedron"}[s]
}

/*
CellTopology describes a reference cell with a linear nodal basis:
  - Point:         the single node 0
  - Line:          [-1,1]
  - Triangle:      (0,0),(1,0),(0,1)
  - Quadrilateral: [-1,1]^2, nodes counter-clockwise from (-1,-1)
  - Tetrahedron:   (0,0,0),(1,0,0),(0,1,0),(0,0,1)
  - Hexahedron:    [-1,1]^3, bottom face counter-clockwise from (-1,-1,-1), then the top face

Sides are the subcells of dimension Dim-1, listed so that the reference side map has an outward normal:
in 2D (t_y,-t_x) of the side tangent points out, in 3D the cross product of the two side tangents points out.
*/
type CellTopology struct {
	Shape    Shape
	Dim      int
	Vertices [][]float64 // Reference vertex coordinates [NumNodes][Dim]
	Sides    [][]int     // Local nodes of each side
	Edges    [][2]int    // Local nodes of each edge (the sides in 2D)
}

var (
	PointTopology = &CellTopology{
		Shape:    Point,
		Dim:      0,
		Vertices: [][]float64{{}},
	}
	LineTopology = &CellTopology{
		Shape:    Line,
		Dim:      1,
		Vertices: [][]float64{{-1}, {1}},
		Sides:    [][]int{{0}, {1}},
		Edges:    [][2]int{{0, 1}},
	}
	TriangleTopology = &CellTopology{
		Shape:    Triangle,
		Dim:      2,
		Vertices: [][]float64{{0, 0}, {1, 0}, {0, 1}},
		Sides:    [][]int{{0, 1}, {1, 2}, {2, 0}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 0}},
	}
	QuadrilateralTopology = &CellTopology{
		Shape:    Quadrilateral,
		Dim:      2,
		Vertices: [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		Sides:    [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	}
	TetrahedronTopology = &CellTopology{
		Shape:    Tetrahedron,
		Dim:      3,
		Vertices: [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Sides:    [][]int{{0, 1, 3}, {1, 2, 3}, {0, 3, 2}, {0, 2, 1}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}},
	}
	HexahedronTopology = &CellTopology{
		Shape: Hexahedron,
		Dim:   3,
		Vertices: [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		},
		Sides: [][]int{
			{0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {0, 4, 7, 3}, {0, 3, 2, 1}, {4, 5, 6, 7},
		},
		Edges: [][2]int{
			{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7},
		},
	}
)

func New(shape Shape) *CellTopology {
	switch shape {
	case Point:
		return PointTopology
	case Line:
		return LineTopology
	case Triangle:
		return TriangleTopology
	case Quadrilateral:
		return QuadrilateralTopology
	case Tetrahedron:
		return TetrahedronTopology
	case Hexahedron:
		return HexahedronTopology
	}
	panic(fmt.Errorf("unknown shape %d", shape))
}

func (ct *CellTopology) Name() string { return ct.Shape.String() }
func (ct *CellTopology) Dimension() int { return ct.Dim }
func (ct *CellTopology) NodeCount() int { return len(ct.Vertices) }
func (ct *CellTopology) SideCount() int { return len(ct.Sides) }
func (ct *CellTopology) EdgeCount() int { return len(ct.Edges) }
func (ct *CellTopology) SideNodes(side int) []int { return ct.Sides[side] }

// SideTopology returns the reference topology of a side, sides of a Line are Points
func (ct *CellTopology) SideTopology(side int) *CellTopology {
	if side < 0 || side >= len(ct.Sides) {
		panic(fmt.Errorf("side %d out of range for %s with %d sides", side, ct.Name(), len(ct.Sides)))
	}
	switch len(ct.Sides[side]) {
	case 1:
		return PointTopology
	case 2:
		return LineTopology
	case 3:
		return TriangleTopology
	case 4:
		return QuadrilateralTopology
	}
	panic(fmt.Errorf("unsupported side with %d nodes", len(ct.Sides[side])))
}

// Basis evaluates the nodal basis at the reference point ref into N[NodeCount]
func (ct *CellTopology) Basis(ref, N []float64) {
	switch ct.Shape {
	case Point:
		N[0] = 1
	case Line:
		N[0], N[1] = 0.5*(1-ref[0]), 0.5*(1+ref[0])
	case Triangle:
		N[0], N[1], N[2] = 1-ref[0]-ref[1], ref[0], ref[1]
	case Tetrahedron:
		N[0], N[1], N[2], N[3] = 1-ref[0]-ref[1]-ref[2], ref[0], ref[1], ref[2]
	case Quadrilateral, Hexahedron:
		scale := 1. / float64(int(1)<<ct.Dim)
		for n, v := range ct.Vertices {
			N[n] = scale
			for d := 0; d < ct.Dim; d++ {
				N[n] *= 1 + v[d]*ref[d]
			}
		}
	}
}

// BasisGrad evaluates the reference gradient of the nodal basis into dN[NodeCount*Dim], node major
func (ct *CellTopology) BasisGrad(ref, dN []float64) {
	switch ct.Shape {
	case Point:
	case Line:
		dN[0], dN[1] = -0.5, 0.5
	case Triangle:
		copy(dN, []float64{-1, -1, 1, 0, 0, 1})
	case Tetrahedron:
		copy(dN, []float64{-1, -1, -1, 1, 0, 0, 0, 1, 0, 0, 0, 1})
	case Quadrilateral, Hexahedron:
		scale := 1. / float64(int(1)<<ct.Dim)
		for n, v := range ct.Vertices {
			for d := 0; d < ct.Dim; d++ {
				g := scale * v[d]
				for dd := 0; dd < ct.Dim; dd++ {
					if dd != d {
						g *= 1 + v[dd]*ref[dd]
					}
				}
				dN[n*ct.Dim+d] = g
			}
		}
	}
}

/*
MapSideToCell embeds the side-reference point sideRef into the cell reference frame, the subcell embedding map.
Edges use the [-1,1] line, triangular faces the unit triangle and quadrilateral faces [-1,1]^2.
*/
func (ct *CellTopology) MapSideToCell(side int, sideRef, cellRef []float64) {
	var (
		vs = ct.Sides[side]
	)
	switch len(vs) {
	case 1:
		copy(cellRef, ct.Vertices[vs[0]])
	case 2:
		va, vb := ct.Vertices[vs[0]], ct.Vertices[vs[1]]
		for d := 0; d < ct.Dim; d++ {
			cellRef[d] = 0.5*(va[d]+vb[d]) + 0.5*sideRef[0]*(vb[d]-va[d])
		}
	case 3:
		va, vb, vc := ct.Vertices[vs[0]], ct.Vertices[vs[1]], ct.Vertices[vs[2]]
		for d := 0; d < ct.Dim; d++ {
			cellRef[d] = va[d] + sideRef[0]*(vb[d]-va[d]) + sideRef[1]*(vc[d]-va[d])
		}
	case 4:
		va, vb, vc, vd := ct.Vertices[vs[0]], ct.Vertices[vs[1]], ct.Vertices[vs[2]], ct.Vertices[vs[3]]
		for d := 0; d < ct.Dim; d++ {
			cellRef[d] = 0.5*(va[d]+vc[d]) + 0.5*sideRef[0]*(vb[d]-va[d]) + 0.5*sideRef[1]*(vd[d]-va[d])
		}
	}
}

// SideTangents returns the reference-space derivatives of the side embedding, Dim-1 vectors of length Dim
func (ct *CellTopology) SideTangents(side int) (T [][]float64) {
	var (
		vs = ct.Sides[side]
	)
	diff := func(a, b int, scale float64) (t []float64) {
		t = make([]float64, ct.Dim)
		for d := range t {
			t[d] = scale * (ct.Vertices[b][d] - ct.Vertices[a][d])
		}
		return
	}
	switch len(vs) {
	case 2:
		T = [][]float64{diff(vs[0], vs[1], 0.5)}
	case 3:
		T = [][]float64{diff(vs[0], vs[1], 1), diff(vs[0], vs[2], 1)}
	case 4:
		T = [][]float64{diff(vs[0], vs[1], 0.5), diff(vs[0], vs[3], 0.5)}
	}
	return
}

// SideNormalSign is the outward direction of the sides of a Line, -1 at node 0 and +1 at node 1
func (ct *CellTopology) SideNormalSign(side int) float64 {
	if ct.Vertices[ct.Sides[side][0]][0] < 0 {
		return -1
	}
	return 1
}

// Centroid is the reference-space average of the vertices
func (ct *CellTopology) Centroid() (c []float64) {
	c = make([]float64, ct.Dim)
	for _, v := range ct.Vertices {
		for d := range c {
			c[d] += v[d]
		}
	}
	for d := range c {
		c[d] /= float64(len(ct.Vertices))
	}
	return
}

// SidesOfEdge returns the two sides of a 3D cell sharing edge e
func (ct *CellTopology) SidesOfEdge(e int) (sides [2]int) {
	var (
		a, b = ct.Edges[e][0], ct.Edges[e][1]
		n    int
	)
	sides = [2]int{-1, -1}
	for s, vs := range ct.Sides {
		var hasA, hasB bool
		for _, v := range vs {
			hasA = hasA || v == a
			hasB = hasB || v == b
		}
		if hasA && hasB && n < 2 {
			sides[n] = s
			n++
		}
	}
	return
}

// EdgesOfNode lists the edges incident to a vertex, each with the opposite vertex
func (ct *CellTopology) EdgesOfNode(node int) (edges []int) {
	for e, ed := range ct.Edges {
		if ed[0] == node || ed[1] == node {
			edges = append(edges, e)
		}
	}
	return
}

// SidesOfNode lists the sides containing a vertex
func (ct *CellTopology) SidesOfNode(node int) (sides []int) {
	for s, vs := range ct.Sides {
		for _, v := range vs {
			if v == node {
				sides = append(sides, s)
				break
			}
		}
	}
	return
}
