package cubature

import (
	"fmt"
	"math"

	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/utils"
)

// Rule is a reference-space cubature, Points is (P,Dim) and Weights is (P)
type Rule struct {
	Topology *topology.CellTopology
	Degree   int
	Points   utils.Array
	Weights  utils.Array
}

func (r Rule) NumPoints() int { return r.Weights.Extent(0) }

func newRule(ct *topology.CellTopology, degree int, pts [][]float64, w []float64) (r Rule) {
	r = Rule{
		Topology: ct,
		Degree:   degree,
		Points:   utils.NewArray("cub_points", len(w), ct.Dim),
		Weights:  utils.NewArray("cub_weights", len(w)),
	}
	for p := range w {
		copy(r.Points.Slab(p), pts[p])
		r.Weights.Data[p] = w[p]
	}
	return
}

/*
Default returns a cubature on the reference topology that integrates polynomials of total degree <= degree exactly.
Points get the single unit weight node rule, lines Gauss-Legendre, quadrilaterals and hexahedra tensor products,
triangles fully symmetric rules at every degree, tetrahedra symmetric rules at low degree and collapsed
Gauss-Jacobi products above.
*/
func Default(ct *topology.CellTopology, degree int) (r Rule, err error) {
	if degree < 0 {
		err = fmt.Errorf("negative cubature degree %d for %s", degree, ct.Name())
		return
	}
	switch ct.Shape {
	case topology.Point:
		r = NodeRule()
	case topology.Line, topology.Quadrilateral, topology.Hexahedron:
		r = tensorRule(ct, degree)
	case topology.Triangle:
		r = triangleRule(degree)
	case topology.Tetrahedron:
		r = tetrahedronRule(degree)
	default:
		err = fmt.Errorf("no cubature for topology %s", ct.Name())
	}
	return
}

// NodeRule is the 0-D rule, one point with unit weight
func NodeRule() Rule {
	return newRule(topology.PointTopology, 0, [][]float64{{}}, []float64{1})
}

func gaussLegendre(degree int) (x, w []float64) {
	return JacobiGQ(0, 0, degree/2)
}

func tensorRule(ct *topology.CellTopology, degree int) Rule {
	var (
		x, w1 = gaussLegendre(degree)
		n     = len(x)
		Np    = 1
	)
	for d := 0; d < ct.Dim; d++ {
		Np *= n
	}
	pts := make([][]float64, Np)
	w := make([]float64, Np)
	for p := 0; p < Np; p++ {
		pts[p] = make([]float64, ct.Dim)
		w[p] = 1
		// First coordinate varies fastest
		ind := p
		for d := 0; d < ct.Dim; d++ {
			i := ind % n
			ind /= n
			pts[p][d] = x[i]
			w[p] *= w1[i]
		}
	}
	return newRule(ct, degree, pts, w)
}

// triangleOrbit is a barycentric point with the weight, relative to unit area, of each of its distinct permutations
type triangleOrbit struct {
	L      [3]float64
	Weight float64
}

// Fully symmetric Dunavant triangle rules keyed by degree
var triangleOrbits = map[int][]triangleOrbit{
	1: {
		{[3]float64{1. / 3., 1. / 3., 1. / 3.}, 1},
	},
	2: {
		{[3]float64{2. / 3., 1. / 6., 1. / 6.}, 1. / 3.},
	},
	4: {
		{[3]float64{0.108103018168070, 0.445948490915965, 0.445948490915965}, 0.223381589678011},
		{[3]float64{0.816847572980458, 0.091576213509771, 0.091576213509771}, 0.109951743655322},
	},
	5: {
		{[3]float64{1. / 3., 1. / 3., 1. / 3.}, 0.225},
		{[3]float64{0.059715871789770, 0.470142064105115, 0.470142064105115}, 0.132394152788506},
		{[3]float64{0.797426985353087, 0.101286507323456, 0.101286507323456}, 0.125939180544827},
	},
	6: {
		{[3]float64{0.501426509658179, 0.249286745170910, 0.249286745170910}, 0.116786275726379},
		{[3]float64{0.873821971016996, 0.063089014491502, 0.063089014491502}, 0.050844906370207},
		{[3]float64{0.053145049844817, 0.310352451033784, 0.636502499121399}, 0.082851075618374},
	},
}

// barycentric permutations, the first three cover every distinct image of an (a,b,b) orbit
var triangleSymmetries = [6][3]int{{0, 1, 2}, {1, 0, 2}, {2, 1, 0}, {0, 2, 1}, {1, 2, 0}, {2, 0, 1}}

const orbitTol = 1.e-14

/*
triangleRule returns a rule whose point set is invariant under the vertex permutations of the triangle, so two cells
sharing a triangular face see the same physical points whatever their local vertex order. Degrees without a table
symmetrize the collapsed rule.
*/
func triangleRule(degree int) Rule {
	var key int
	switch {
	case degree <= 1:
		key = 1
	case degree == 2:
		key = 2
	case degree <= 4:
		key = 4
	case degree <= 6:
		key = degree
	default:
		return symmetrizeTriangleRule(collapsedTriangleRule(degree))
	}
	var (
		pts [][]float64
		w   []float64
	)
	for _, orbit := range triangleOrbits[key] {
		var images [][]float64
		for _, perm := range triangleSymmetries {
			x := []float64{orbit.L[perm[1]], orbit.L[perm[2]]}
			if findPoint(images, x) < 0 {
				images = append(images, x)
			}
		}
		for _, x := range images {
			pts = append(pts, x)
			w = append(w, 0.5*orbit.Weight)
		}
	}
	return newRule(topology.TriangleTopology, degree, pts, w)
}

// symmetrizeTriangleRule averages r over the six vertex permutations, coincident images merge their weights
func symmetrizeTriangleRule(r Rule) Rule {
	var (
		pts [][]float64
		w   []float64
	)
	for p := 0; p < r.NumPoints(); p++ {
		var (
			x  = r.Points.Slab(p)
			L  = [3]float64{1 - x[0] - x[1], x[0], x[1]}
			wp = r.Weights.Data[p] / 6
		)
		for _, perm := range triangleSymmetries {
			y := []float64{L[perm[1]], L[perm[2]]}
			if i := findPoint(pts, y); i >= 0 {
				w[i] += wp
				continue
			}
			pts = append(pts, y)
			w = append(w, wp)
		}
	}
	return newRule(r.Topology, r.Degree, pts, w)
}

func findPoint(pts [][]float64, x []float64) int {
	for i, y := range pts {
		if math.Abs(x[0]-y[0]) < orbitTol && math.Abs(x[1]-y[1]) < orbitTol {
			return i
		}
	}
	return -1
}

// collapsedTriangleRule maps the square through x = (1+a)(1-b)/4, y = (1+b)/2, the (1-b) factor goes into the Jacobi weight
func collapsedTriangleRule(degree int) Rule {
	var (
		a, wa = gaussLegendre(degree)
		b, wb = JacobiGQ(1, 0, degree/2)
		pts   [][]float64
		w     []float64
	)
	for j := range b {
		for i := range a {
			pts = append(pts, []float64{0.25 * (1 + a[i]) * (1 - b[j]), 0.5 * (1 + b[j])})
			w = append(w, wa[i]*wb[j]/8)
		}
	}
	return newRule(topology.TriangleTopology, degree, pts, w)
}

func tetrahedronRule(degree int) Rule {
	ct := topology.TetrahedronTopology
	if degree <= 2 {
		var (
			r, s, t, wt = symmetricTetCubature(degree)
			pts         = make([][]float64, len(wt))
			w           = make([]float64, len(wt))
		)
		// [-1,1] reference tet to the unit tet
		for p := range wt {
			pts[p] = []float64{0.5 * (r[p] + 1), 0.5 * (s[p] + 1), 0.5 * (t[p] + 1)}
			w[p] = wt[p] / 8
		}
		return newRule(ct, degree, pts, w)
	}
	return collapsedTetrahedronRule(degree)
}

/*
symmetricTetCubature returns symmetric points and weights on the tetrahedron with vertices at
(-1,-1,-1), (1,-1,-1), (-1,1,-1), (-1,-1,1), the weights sum to the volume 4/3
*/
func symmetricTetCubature(degree int) (r, s, t []float64, w []float64) {
	switch degree {
	case 0, 1:
		// Centroid, barycentric (1/4, 1/4, 1/4, 1/4)
		r = []float64{-1.0 + 2.0*0.25}
		s = []float64{-1.0 + 2.0*0.25}
		t = []float64{-1.0 + 2.0*0.25}
		w = []float64{4.0 / 3.0}
	default:
		// Barycentric coordinates: (a,b,b,b), (b,a,b,b), (b,b,a,b), (b,b,b,a)
		a := 0.58541019662496845446
		b := 0.13819660112501051518
		r = []float64{-1.0 + 2.0*a, -1.0 + 2.0*b, -1.0 + 2.0*b, -1.0 + 2.0*b}
		s = []float64{-1.0 + 2.0*b, -1.0 + 2.0*a, -1.0 + 2.0*b, -1.0 + 2.0*b}
		t = []float64{-1.0 + 2.0*b, -1.0 + 2.0*b, -1.0 + 2.0*a, -1.0 + 2.0*b}
		w = []float64{1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0}
	}
	return
}

// collapsedTetrahedronRule uses x = (1+a)(1-b)(1-c)/8, y = (1+b)(1-c)/4, z = (1+c)/2
func collapsedTetrahedronRule(degree int) Rule {
	var (
		a, wa = gaussLegendre(degree)
		b, wb = JacobiGQ(1, 0, degree/2)
		c, wc = JacobiGQ(2, 0, degree/2)
		pts   [][]float64
		w     []float64
	)
	for k := range c {
		for j := range b {
			for i := range a {
				pts = append(pts, []float64{
					0.125 * (1 + a[i]) * (1 - b[j]) * (1 - c[k]),
					0.25 * (1 + b[j]) * (1 - c[k]),
					0.5 * (1 + c[k]),
				})
				w = append(w, wa[i]*wb[j]*wc[k]/64)
			}
		}
	}
	return newRule(topology.TetrahedronTopology, degree, pts, w)
}
