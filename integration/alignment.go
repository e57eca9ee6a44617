package integration

import (
	"fmt"
	"math"

	"github.com/notargets/quadgeom/connectivity"
	"github.com/notargets/quadgeom/utils"
)

const (
	alignmentTol    = 1.e-12 // squared plane distance relative to the face size
	parallelNormTol = 1.e-8
	antiparallelTol = 1.e-2
)

/*
alignSurfacePoints reorders the points of side 1 of every shared face so that point i of both cells is the same
physical point. Both faces are projected onto a plane through their own centroid, spanned by the tangent and binormal
of side 0, or for faces whose normals are not antiparallel (periodic pairs) by n0 x n1 and n0 + n1. Faces are
independent, each touches its own point range of cell_1, so they are aligned in parallel.
*/
func (v *Values) alignSurfacePoints(faces connectivity.SubcellConnectivity) error {
	vc, _ := faces.(connectivity.VirtualCells)
	return utils.ParallelForErr(faces.NumSubcells(), func(kMin, kMax int) error {
		for face := kMin; face < kMax; face++ {
			if err := v.alignFace(face, faces, vc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (v *Values) alignFace(face int, faces connectivity.SubcellConnectivity, vc connectivity.VirtualCells) (err error) {
	var (
		r     = v.Rule
		D     = r.SpatialDimension
		Ppf   = r.PointsPerFace()
		cell0 = faces.CellForSubcell(face, 0)
		cell1 = faces.CellForSubcell(face, 1)
	)
	if cell1 < 0 {
		return
	}
	if vc != nil && (vc.IsVirtual(cell0) || vc.IsVirtual(cell1)) {
		return
	}
	var (
		off0 = r.PointOffset(faces.LocalSubcellForSubcell(face, 0))
		off1 = r.PointOffset(faces.LocalSubcellForSubcell(face, 1))
		ip   = v.IPCoordinates
		x    = func(c, p int) (x3 [3]float64) {
			copy(x3[:], ip.Slab(c, p)[:D])
			return
		}
		xc0, xc1 [3]float64
		r2       float64
	)
	first := x(cell0, off0)
	for fp := 0; fp < Ppf; fp++ {
		x0, x1 := x(cell0, off0+fp), x(cell1, off1+fp)
		var dx2 float64
		for d := 0; d < 3; d++ {
			xc0[d] += x0[d]
			xc1[d] += x1[d]
			dx2 += (x0[d] - first[d]) * (x0[d] - first[d])
		}
		r2 = math.Max(r2, dx2)
	}
	for d := 0; d < 3; d++ {
		xc0[d] /= float64(Ppf)
		xc1[d] /= float64(Ppf)
	}
	if r2 == 0 {
		r2 = 1
	}

	var (
		R0     = v.SurfaceRotationMatrices.Slab(cell0, off0)
		R1     = v.SurfaceRotationMatrices.Slab(cell1, off1)
		n0, n1 [3]float64
		t, b   [3]float64
	)
	copy(n0[:], R0[0:3])
	copy(t[:], R0[3:6])
	copy(b[:], R0[6:9])
	copy(n1[:], R1[0:3])
	if utils.Dot3(n0, n0) == 0 || utils.Dot3(n1, n1) == 0 {
		// Degenerate geometry has no frame to align in
		return
	}
	n01 := utils.Dot3(n0, n1)
	if math.Abs(n01-1) < parallelNormTol {
		// TODO: a 180 degree periodic pair presents parallel normals and is indistinguishable from a degenerate
		// pair here, both keep their computed order until the periodic transform is passed in with the connectivity.
		return
	}
	if math.Abs(n01+1) > antiparallelTol {
		t = utils.Cross3(n0, n1)
		for i, tn := 0, math.Sqrt(utils.Dot3(t, t)); i < 3; i++ {
			t[i] /= tn
		}
		for i := 0; i < 3; i++ {
			b[i] = n0[i] + n1[i]
		}
		for i, bn := 0, math.Sqrt(utils.Dot3(b, b)); i < 3; i++ {
			b[i] /= bn
		}
	}

	project := func(xp, xc [3]float64) (p [2]float64) {
		for d := 0; d < 3; d++ {
			xp[d] -= xc[d]
		}
		return [2]float64{utils.Dot3(xp, t), utils.Dot3(xp, b)}
	}
	order := make([]int, Ppf)
	for fp1 := 0; fp1 < Ppf; fp1++ {
		var (
			p1    = project(x(cell1, off1+fp1), xc1)
			found bool
		)
		for fp0 := 0; fp0 < Ppf; fp0++ {
			p0 := project(x(cell0, off0+fp0), xc0)
			dp2 := (p0[0]-p1[0])*(p0[0]-p1[0]) + (p0[1]-p1[1])*(p0[1]-p1[1])
			if dp2/r2 < alignmentTol {
				order[fp1] = fp0
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: face %d, point %d of cell %d has no match in cell %d",
				ErrAlignment, face, fp1, cell1, cell0)
		}
	}
	if err = permutePoints(cell1, off1, order, v.perCellArrays()...); err != nil {
		return fmt.Errorf("%w: face %d: %v", ErrAlignment, face, err)
	}
	return
}
