package cubature

import (
	"fmt"
	"math"

	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/utils"
)

/*
Control volume cubatures live on the median dual of the cell: every vertex owns the region bounded by the edge
midpoints, the side centroids and the cell centroid around it. The points are physical, computed per cell from the
node coordinates (C,N,D), so there is no reference rule to share between cells.
*/

func checkControlVolume(ct *topology.CellTopology, nodes utils.Array, numCells int) (err error) {
	switch {
	case ct.Dim < 1 || ct.Dim > 3:
		err = fmt.Errorf("control volume cubature needs a 1D, 2D or 3D topology, have %s", ct.Name())
	case nodes.Rank() != 3 || nodes.Extent(1) != ct.NodeCount() || nodes.Extent(2) != ct.Dim:
		err = fmt.Errorf("control volume node coordinates %v do not match %s", nodes.Dims(), ct.Name())
	case numCells > nodes.Extent(0):
		err = fmt.Errorf("control volume cubature for %d cells, only %d have coordinates", numCells, nodes.Extent(0))
	}
	return
}

// NumControlVolumePoints is the node count for volume rules and the edge count for side rules
func NumControlVolumePoints(ct *topology.CellTopology, sideRule bool) int {
	if sideRule {
		if ct.Dim == 1 {
			return 1
		}
		return ct.EdgeCount()
	}
	return ct.NodeCount()
}

// ControlVolume returns the centre (C,N,D) and measure (C,N) of the sub-control volume of each node
func ControlVolume(ct *topology.CellTopology, nodes utils.Array, numCells int) (points, weights utils.Array, err error) {
	if err = checkControlVolume(ct, nodes, numCells); err != nil {
		return
	}
	var (
		Nn, D = ct.NodeCount(), ct.Dim
	)
	points = utils.NewArray("cv_points", numCells, Nn, D)
	weights = utils.NewArray("cv_weights", numCells, Nn)
	var sub *topology.CellTopology
	switch D {
	case 2:
		sub = topology.QuadrilateralTopology
	case 3:
		sub = topology.HexahedronTopology
	}
	var subRule Rule
	if sub != nil {
		if subRule, err = Default(sub, 3); err != nil {
			return
		}
	}
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			g := newCellGeom(ct, nodes, c)
			for n := 0; n < Nn; n++ {
				var verts [][]float64
				switch D {
				case 1:
					verts = [][]float64{g.x[n], g.centroid}
				case 2:
					next, prev := (n+1)%Nn, (n+Nn-1)%Nn
					verts = [][]float64{g.x[n], g.mid(n, next), g.centroid, g.mid(prev, n)}
				case 3:
					verts = g.subHex(n)
				}
				copy(points.Slab(c, n), average(verts))
				if D == 1 {
					weights.Set(math.Abs(verts[1][0]-verts[0][0]), c, n)
				} else {
					weights.Set(subcellMeasure(sub, subRule, verts), c, n)
				}
			}
		}
	})
	return
}

/*
ControlVolumeSide returns the centre (C,E,D) of the interior sub-control face crossing each cell edge, and its area
weighted normal (C,E,D) pointing from the sub-volume of the edge's first node to that of its second node.
*/
func ControlVolumeSide(ct *topology.CellTopology, nodes utils.Array, numCells int) (points, normals utils.Array, err error) {
	if err = checkControlVolume(ct, nodes, numCells); err != nil {
		return
	}
	var (
		Ne, D = NumControlVolumePoints(ct, true), ct.Dim
	)
	points = utils.NewArray("cv_side_points", numCells, Ne, D)
	normals = utils.NewArray("cv_side_normals", numCells, Ne, D)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			g := newCellGeom(ct, nodes, c)
			for e := 0; e < Ne; e++ {
				var (
					a, b = ct.Edges[e][0], ct.Edges[e][1]
					m    = g.mid(a, b)
					pt   = points.Slab(c, e)
					nrm  = normals.Slab(c, e)
				)
				switch D {
				case 1:
					pt[0] = m[0]
					nrm[0] = 1
					if g.x[b][0] < g.x[a][0] {
						nrm[0] = -1
					}
				case 2:
					s := []float64{g.centroid[0] - m[0], g.centroid[1] - m[1]}
					copy(pt, average([][]float64{m, g.centroid}))
					nrm[0], nrm[1] = s[1], -s[0]
					if nrm[0]*(g.x[b][0]-g.x[a][0])+nrm[1]*(g.x[b][1]-g.x[a][1]) < 0 {
						nrm[0], nrm[1] = -nrm[0], -nrm[1]
					}
				case 3:
					sides := ct.SidesOfEdge(e)
					f1, f2 := g.sideCentroid(sides[0]), g.sideCentroid(sides[1])
					copy(pt, average([][]float64{m, f1, g.centroid, f2}))
					area := quadAreaVector(m, f1, g.centroid, f2)
					edge := [3]float64{g.x[b][0] - g.x[a][0], g.x[b][1] - g.x[a][1], g.x[b][2] - g.x[a][2]}
					if utils.Dot3(area, edge) < 0 {
						area = [3]float64{-area[0], -area[1], -area[2]}
					}
					copy(nrm, area[:])
				}
			}
		}
	})
	return
}

// ControlVolumeBoundary returns the centre (C,Ns,D) and measure (C,Ns) of the part of side owned by each side node
func ControlVolumeBoundary(ct *topology.CellTopology, nodes utils.Array, numCells, side int) (points, weights utils.Array, err error) {
	if err = checkControlVolume(ct, nodes, numCells); err != nil {
		return
	}
	if side < 0 || side >= ct.SideCount() {
		err = fmt.Errorf("control volume boundary side %d out of range for %s", side, ct.Name())
		return
	}
	var (
		vs, D = ct.Sides[side], ct.Dim
		Ns    = len(vs)
	)
	points = utils.NewArray("cv_boundary_points", numCells, Ns, D)
	weights = utils.NewArray("cv_boundary_weights", numCells, Ns)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			g := newCellGeom(ct, nodes, c)
			for i, v := range vs {
				switch D {
				case 1:
					copy(points.Slab(c, i), g.x[v])
					weights.Set(1, c, i)
				case 2:
					m := g.mid(vs[0], vs[1])
					copy(points.Slab(c, i), average([][]float64{g.x[v], m}))
					weights.Set(distance(g.x[v], m), c, i)
				case 3:
					var (
						next, prev = vs[(i+1)%Ns], vs[(i+Ns-1)%Ns]
						quad       = [][]float64{g.x[v], g.mid(v, next), g.sideCentroid(side), g.mid(prev, v)}
					)
					copy(points.Slab(c, i), average(quad))
					area := quadAreaVector(quad[0], quad[1], quad[2], quad[3])
					weights.Set(math.Sqrt(utils.Dot3(area, area)), c, i)
				}
			}
		}
	})
	return
}

type cellGeom struct {
	ct       *topology.CellTopology
	x        [][]float64
	centroid []float64
}

func newCellGeom(ct *topology.CellTopology, nodes utils.Array, cell int) (g cellGeom) {
	g = cellGeom{ct: ct, x: make([][]float64, ct.NodeCount())}
	for n := range g.x {
		g.x[n] = nodes.Slab(cell, n)
	}
	g.centroid = average(g.x)
	return
}

func (g cellGeom) mid(a, b int) []float64 {
	return average([][]float64{g.x[a], g.x[b]})
}

func (g cellGeom) sideCentroid(side int) []float64 {
	vs := g.ct.Sides[side]
	pts := make([][]float64, len(vs))
	for i, v := range vs {
		pts[i] = g.x[v]
	}
	return average(pts)
}

// subHex is the hexahedral sub-control volume of node n in a 3D cell
func (g cellGeom) subHex(n int) [][]float64 {
	var (
		edges = g.ct.EdgesOfNode(n)
		other = make([]int, len(edges))
		m     = make([][]float64, len(edges))
	)
	for i, e := range edges {
		other[i] = g.ct.Edges[e][0]
		if other[i] == n {
			other[i] = g.ct.Edges[e][1]
		}
		m[i] = g.mid(n, other[i])
	}
	face := func(i, j int) []float64 {
		for _, s := range g.ct.SidesOfNode(n) {
			var hasI, hasJ bool
			for _, v := range g.ct.Sides[s] {
				hasI = hasI || v == other[i]
				hasJ = hasJ || v == other[j]
			}
			if hasI && hasJ {
				return g.sideCentroid(s)
			}
		}
		panic(fmt.Errorf("no side of %s contains node %d with neighbours %d and %d", g.ct.Name(), n, other[i], other[j]))
	}
	return [][]float64{
		g.x[n], m[0], face(0, 1), m[1],
		m[2], face(0, 2), g.centroid, face(1, 2),
	}
}

// subcellMeasure integrates |det J| of the sub-cell mapping of verts with the given rule
func subcellMeasure(sub *topology.CellTopology, rule Rule, verts [][]float64) (meas float64) {
	var (
		D   = sub.Dim
		Nn  = sub.NodeCount()
		dN  = make([]float64, Nn*D)
		jac = make([]float64, D*D)
	)
	for p := 0; p < rule.NumPoints(); p++ {
		sub.BasisGrad(rule.Points.Slab(p), dN)
		for i := range jac {
			jac[i] = 0
		}
		for n := 0; n < Nn; n++ {
			for d := 0; d < D; d++ {
				for k := 0; k < D; k++ {
					jac[d*D+k] += verts[n][d] * dN[n*D+k]
				}
			}
		}
		meas += math.Abs(utils.Det(jac, D)) * rule.Weights.Data[p]
	}
	return
}

// quadAreaVector is half the cross product of the diagonals of the quadrilateral a,b,c,d
func quadAreaVector(a, b, c, d []float64) [3]float64 {
	var (
		d1 = [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		d2 = [3]float64{d[0] - b[0], d[1] - b[1], d[2] - b[2]}
	)
	cr := utils.Cross3(d1, d2)
	return [3]float64{0.5 * cr[0], 0.5 * cr[1], 0.5 * cr[2]}
}

func average(pts [][]float64) (avg []float64) {
	avg = make([]float64, len(pts[0]))
	for _, p := range pts {
		for d := range avg {
			avg[d] += p[d]
		}
	}
	for d := range avg {
		avg[d] /= float64(len(pts))
	}
	return
}

func distance(a, b []float64) float64 {
	var sum float64
	for d := range a {
		sum += (a[d] - b[d]) * (a[d] - b[d])
	}
	return math.Sqrt(sum)
}
