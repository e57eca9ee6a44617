package workset

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/notargets/quadgeom/connectivity"
	"github.com/notargets/quadgeom/mesh"
	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/utils"
)

/*
LocalMeshPartition is a batch of mesh cells with their vertices and the faces between them. The owned cells come
first, in the order they were requested, followed by the virtual cells. Faces towards cells outside the batch are
boundary faces of the partition.
*/
type LocalMeshPartition struct {
	ElementType     mesh.ElementType
	Topology        *topology.CellTopology
	Cells           []int       // Mesh element of each owned cell
	NumOwnedCells   int
	NumVirtualCells int
	Vertices        utils.Array // (C,N,D), owned then virtual
	Faces           *connectivity.FaceConnectivity
}

/*
NewLocalMeshPartition gathers the cells of m into a partition. With virtual set, every face on the mesh boundary gets
a virtual neighbour, the mirror image of its owned cell across the plane of the face, renumbered to keep a positive
Jacobian.
*/
func NewLocalMeshPartition(m *mesh.Mesh, cells []int, virtual bool) (p *LocalMeshPartition, err error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("partition needs at least one cell")
	}
	local := make(map[int]int, len(cells))
	for c, e := range cells {
		if e < 0 || e >= m.NumElements {
			return nil, fmt.Errorf("cell %d out of range [0,%d)", e, m.NumElements)
		}
		if _, dup := local[e]; dup {
			return nil, fmt.Errorf("cell %d listed twice", e)
		}
		if m.ElementTypes[e] != m.ElementTypes[cells[0]] {
			return nil, fmt.Errorf("mixed element types in partition: %s and %s",
				m.ElementTypes[cells[0]], m.ElementTypes[e])
		}
		local[e] = c
	}
	p = &LocalMeshPartition{
		ElementType:   m.ElementTypes[cells[0]],
		Cells:         append([]int(nil), cells...),
		NumOwnedCells: len(cells),
	}
	p.Topology = p.ElementType.Topology()
	nSides := p.Topology.SideCount()

	type boundarySlot struct{ cell, side int }
	var virtuals []boundarySlot
	if virtual {
		for c, e := range cells {
			for f := 0; f < nSides; f++ {
				if m.EToE[e][f] < 0 {
					virtuals = append(virtuals, boundarySlot{c, f})
				}
			}
		}
	}
	p.NumVirtualCells = len(virtuals)

	var (
		numCells = p.NumCells()
		owned    = m.CellNodes(cells)
		N        = owned.Extent(1)
		D        = owned.Extent(2)
	)
	p.Vertices = utils.NewArray("cell_vertices", numCells, N, D)
	copy(p.Vertices.Data, owned.Data)
	p.Faces = connectivity.NewFaceConnectivity(numCells, nSides)

	for c, e := range cells {
		for f := 0; f < nSides; f++ {
			if p.Faces.SubcellForCell(c, f) >= 0 {
				continue
			}
			var (
				nbr, nf    = m.EToE[e][f], m.EToF[e][f]
				cn, inPart = local[nbr]
			)
			switch {
			case nbr >= 0 && inPart:
				_, err = p.Faces.AddFace(c, f, cn, nf)
			case nbr < 0 && virtual:
				// Added with their virtual cells below
				continue
			default:
				_, err = p.Faces.AddFace(c, f, -1, -1)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	for i, slot := range virtuals {
		vc := p.NumOwnedCells + i
		vf := p.mirrorCell(slot.cell, slot.side, vc)
		if _, err = p.Faces.AddFace(slot.cell, slot.side, vc, vf); err != nil {
			return nil, err
		}
		p.Faces.SetVirtual(vc, true)
	}
	return
}

// NumCells counts owned and virtual cells
func (p *LocalMeshPartition) NumCells() int { return p.NumOwnedCells + p.NumVirtualCells }

/*
mirrorCell writes the reflection of cell across the plane of its side into virtual cell vc and returns the local side
of vc that lies on that plane.
*/
func (p *LocalMeshPartition) mirrorCell(cell, side, vc int) (vside int) {
	var (
		ct      = p.Topology
		D       = ct.Dim
		N       = ct.NodeCount()
		sNodes  = ct.Sides[side]
		n, ctr  = p.sidePlane(cell, side)
		renum   = make([]int, N)
		inPlane = append([]int(nil), sNodes...)
	)
	for k := range renum {
		renum[k] = k
	}
	mesh.ReverseOrientation(p.ElementType, renum)
	for k, src := range renum {
		var (
			x   = p.Vertices.Slab(cell, src)
			y   = p.Vertices.Slab(vc, k)
			dst float64
		)
		for d := 0; d < D; d++ {
			dst += (x[d] - ctr[d]) * n[d]
		}
		for d := 0; d < D; d++ {
			y[d] = x[d] - 2*dst*n[d]
		}
	}
	sort.Ints(inPlane)
	for f, vs := range ct.Sides {
		mapped := make([]int, len(vs))
		for i, k := range vs {
			mapped[i] = renum[k]
		}
		sort.Ints(mapped)
		if slices.Equal(mapped, inPlane) {
			return f
		}
	}
	panic(fmt.Errorf("no side of the mirrored %s matches side %d", ct.Name(), side))
}

// sidePlane is the unit normal and centroid of a side, quadrilateral sides use the normal of their diagonals
func (p *LocalMeshPartition) sidePlane(cell, side int) (n, ctr []float64) {
	var (
		ct = p.Topology
		D  = ct.Dim
		vs = ct.Sides[side]
		x  = func(i int) []float64 { return p.Vertices.Slab(cell, vs[i]) }
	)
	ctr = make([]float64, D)
	for i := range vs {
		for d := 0; d < D; d++ {
			ctr[d] += x(i)[d] / float64(len(vs))
		}
	}
	diff := func(a, b []float64) (v [3]float64) {
		for d := 0; d < D; d++ {
			v[d] = b[d] - a[d]
		}
		return
	}
	var n3 [3]float64
	switch D {
	case 1:
		n3[0] = 1
	case 2:
		t := diff(x(0), x(1))
		n3[0], n3[1] = t[1], -t[0]
	case 3:
		if len(vs) == 3 {
			n3 = utils.Cross3(diff(x(0), x(1)), diff(x(0), x(2)))
		} else {
			n3 = utils.Cross3(diff(x(0), x(2)), diff(x(1), x(3)))
		}
	}
	nrm := math.Sqrt(utils.Dot3(n3, n3))
	n = make([]float64, D)
	for d := range n {
		n[d] = n3[d] / nrm
	}
	return
}
