package measure

import (
	"math"

	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/utils"
)

// ComputeCellMeasure sets wm(c,p) = |det J(c,p)| w(p)
func ComputeCellMeasure(wm, jacDet, weights utils.Array, numCells int) {
	Np := jacDet.Extent(1)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				wm.Set(math.Abs(jacDet.At(c, p))*weights.Data[p], c, p)
			}
		}
	})
}

/*
ComputeEdgeMeasure sets wm(c,p) = |J t| w(p) for a side of a 2D cell, where t is the reference tangent of the side.
The physical tangents J t are left in scratch (C,P,D).
*/
func ComputeEdgeMeasure(wm, jac, weights utils.Array, ct *topology.CellTopology, side int, scratch utils.Array, numCells int) {
	tangentMeasure(wm, jac, weights, ct, side, scratch, numCells, 1)
}

/*
ComputeFaceMeasure sets wm(c,p) = |J t_u x J t_v| w(p) for a side of a 3D cell. The physical face normals
J t_u x J t_v are left in scratch (C,P,D).
*/
func ComputeFaceMeasure(wm, jac, weights utils.Array, ct *topology.CellTopology, side int, scratch utils.Array, numCells int) {
	tangentMeasure(wm, jac, weights, ct, side, scratch, numCells, 2)
}

func tangentMeasure(wm, jac, weights utils.Array, ct *topology.CellTopology, side int, scratch utils.Array, numCells, nt int) {
	var (
		T  = ct.SideTangents(side)
		Np = jac.Extent(1)
		D  = ct.Dim
	)
	if len(T) != nt {
		panic("side tangents do not match the measure being computed")
	}
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				v := scratch.Slab(c, p)
				physicalSideVector(v, jac.Slab(c, p), T, D)
				wm.Set(utils.Norm(v)*weights.Data[p], c, p)
			}
		}
	})
}

// physicalSideVector is J t for edges and J t_u x J t_v for faces
func physicalSideVector(v, J []float64, T [][]float64, D int) {
	var tp [2][3]float64
	for k, t := range T {
		for i := 0; i < D; i++ {
			for j := 0; j < D; j++ {
				tp[k][i] += J[i*D+j] * t[j]
			}
		}
	}
	if len(T) == 1 {
		copy(v, tp[0][:D])
		return
	}
	cr := utils.Cross3(tp[0], tp[1])
	copy(v, cr[:D])
}

/*
PhysicalSideNormals writes the outward, non-normalized side normals (C,P,D) of a 2D or 3D cell. In 2D the normal is
the physical tangent J t turned clockwise, (t_y, -t_x), in 3D it is J t_u x J t_v. Its length is the side measure
density.
*/
func PhysicalSideNormals(normals, jac utils.Array, ct *topology.CellTopology, side, numCells int) {
	var (
		T  = ct.SideTangents(side)
		Np = jac.Extent(1)
		D  = ct.Dim
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				n := normals.Slab(c, p)
				physicalSideVector(n, jac.Slab(c, p), T, D)
				if D == 2 {
					n[0], n[1] = n[1], -n[0]
				}
			}
		}
	})
}

// NormalizeNormals scales each normal (C,P,D) to unit length, zero normals stay zero
func NormalizeNormals(normals utils.Array, numCells int) {
	Np := normals.Extent(1)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				n := normals.Slab(c, p)
				if nrm := utils.Norm(n); nrm > 0 {
					for d := range n {
						n[d] /= nrm
					}
				}
			}
		}
	})
}

/*
MetricTensors computes the covariant metric g_ij = sum_a J_ia J_ja (C,P,D,D), its inverse the contravariant metric,
and the Frobenius norm of the contravariant metric (C,P).
*/
func MetricTensors(cov, contra, normContra, jac utils.Array, numCells int) {
	var (
		Np = jac.Extent(1)
		D  = jac.Extent(2)
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				var (
					J  = jac.Slab(c, p)
					g  = cov.Slab(c, p)
					gi = contra.Slab(c, p)
				)
				for i := 0; i < D; i++ {
					for j := 0; j < D; j++ {
						g[i*D+j] = 0
						for a := 0; a < D; a++ {
							g[i*D+j] += J[i*D+a] * J[j*D+a]
						}
					}
				}
				utils.Inverse(g, gi, D)
				var sum float64
				for _, val := range gi[:D*D] {
					sum += val * val
				}
				normContra.Set(math.Sqrt(sum), c, p)
			}
		}
	})
}
