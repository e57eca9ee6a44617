package mapping

import (
	"fmt"
	"math"

	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/utils"
)

/*
The reference to physical map of a cell is the nodal interpolation x(r) = sum_n x_n N_n(r) of its node
coordinates (C,N,D). Reference points are either shared by all cells (P,D) or given per cell (C,P,D).
Jacobians are stored row major per point, Jac(c,p,i,j) = dx_i/dr_j.
*/

func refPoint(refPts utils.Array, c, p int) []float64 {
	if refPts.Rank() == 2 {
		return refPts.Slab(p)
	}
	return refPts.Slab(c, p)
}

func numRefPoints(refPts utils.Array) int {
	if refPts.Rank() == 2 {
		return refPts.Extent(0)
	}
	return refPts.Extent(1)
}

func checkNodes(nodes utils.Array, ct *topology.CellTopology, numCells int) {
	if nodes.Rank() != 3 || nodes.Extent(1) != ct.NodeCount() || nodes.Extent(2) != ct.Dim || nodes.Extent(0) < numCells {
		panic(fmt.Errorf("node coordinates %v do not describe %d %s cells", nodes.Dims(), numCells, ct.Name()))
	}
}

// MapToPhysicalFrame writes x(r) for every (cell, point) into phys (C,P,D)
func MapToPhysicalFrame(phys, refPts, nodes utils.Array, ct *topology.CellTopology, numCells int) {
	checkNodes(nodes, ct, numCells)
	var (
		Np = numRefPoints(refPts)
		Nn = ct.NodeCount()
		D  = ct.Dim
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		N := make([]float64, Nn)
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				ct.Basis(refPoint(refPts, c, p), N)
				x := phys.Slab(c, p)
				for d := 0; d < D; d++ {
					x[d] = 0
				}
				for n := 0; n < Nn; n++ {
					xn := nodes.Slab(c, n)
					for d := 0; d < D; d++ {
						x[d] += N[n] * xn[d]
					}
				}
			}
		}
	})
}

// SetJacobian writes dx_i/dr_j for every (cell, point) into jac (C,P,D,D)
func SetJacobian(jac, refPts, nodes utils.Array, ct *topology.CellTopology, numCells int) {
	checkNodes(nodes, ct, numCells)
	var (
		Np = numRefPoints(refPts)
		Nn = ct.NodeCount()
		D  = ct.Dim
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		dN := make([]float64, Nn*D)
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				ct.BasisGrad(refPoint(refPts, c, p), dN)
				cellJacobian(jac.Slab(c, p), dN, nodes, c, Nn, D)
			}
		}
	})
}

func cellJacobian(J, dN []float64, nodes utils.Array, c, Nn, D int) {
	for i := range J {
		J[i] = 0
	}
	for n := 0; n < Nn; n++ {
		xn := nodes.Slab(c, n)
		for i := 0; i < D; i++ {
			for j := 0; j < D; j++ {
				J[i*D+j] += xn[i] * dN[n*D+j]
			}
		}
	}
}

// SetJacobianInv inverts each (D,D) block of jac (C,P,D,D)
func SetJacobianInv(jacInv, jac utils.Array, numCells int) {
	var (
		Np = jac.Extent(1)
		D  = jac.Extent(2)
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				utils.Inverse(jac.Slab(c, p), jacInv.Slab(c, p), D)
			}
		}
	})
}

// SetJacobianDet writes det of each (D,D) block of jac (C,P,D,D) into jacDet (C,P)
func SetJacobianDet(jacDet, jac utils.Array, numCells int) {
	var (
		Np = jac.Extent(1)
		D  = jac.Extent(2)
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				jacDet.Set(utils.Det(jac.Slab(c, p), D), c, p)
			}
		}
	})
}

const (
	newtonMaxIter = 25
	newtonTol     = 1.e-13
)

/*
MapToReferenceFrame inverts the cell map with Newton iterations started at the reference centroid, writing the
reference coordinates of phys (C,P,D) into ref (C,P,D).
*/
func MapToReferenceFrame(ref, phys, nodes utils.Array, ct *topology.CellTopology, numCells int) (err error) {
	checkNodes(nodes, ct, numCells)
	var (
		Np = phys.Extent(1)
		Nn = ct.NodeCount()
		D  = ct.Dim
	)
	return utils.ParallelForErr(numCells, func(kMin, kMax int) error {
		var (
			N   = make([]float64, Nn)
			dN  = make([]float64, Nn*D)
			J   = make([]float64, D*D)
			res = make([]float64, D)
		)
		for c := kMin; c < kMax; c++ {
			// Length scale for the convergence test
			var h float64
			for n := 1; n < Nn; n++ {
				h = math.Max(h, distance(nodes.Slab(c, n), nodes.Slab(c, 0)))
			}
			if h == 0 {
				h = 1
			}
			for p := 0; p < Np; p++ {
				var (
					r         = ref.Slab(c, p)
					target    = phys.Slab(c, p)
					converged bool
				)
				copy(r, ct.Centroid())
				for iter := 0; iter < newtonMaxIter; iter++ {
					ct.Basis(r, N)
					for d := 0; d < D; d++ {
						res[d] = -target[d]
					}
					for n := 0; n < Nn; n++ {
						xn := nodes.Slab(c, n)
						for d := 0; d < D; d++ {
							res[d] += N[n] * xn[d]
						}
					}
					if utils.Norm(res) <= newtonTol*h {
						converged = true
						break
					}
					ct.BasisGrad(r, dN)
					cellJacobian(J, dN, nodes, c, Nn, D)
					utils.Solve(J, res, D)
					for d := 0; d < D; d++ {
						r[d] -= res[d]
					}
				}
				if !converged {
					return fmt.Errorf("inverse map of point %v in cell %d did not converge", target, c)
				}
			}
		}
		return nil
	})
}

func distance(a, b []float64) float64 {
	var sum float64
	for d := range a {
		sum += (a[d] - b[d]) * (a[d] - b[d])
	}
	return math.Sqrt(sum)
}
