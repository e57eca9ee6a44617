package measure

import (
	"math"

	"github.com/notargets/quadgeom/utils"
)

/*
NormalToRotationMatrix builds the orthonormal frame (normal, tangent, binormal) from a unit normal. The tangent is
the y axis projected onto the tangent plane, or the x axis when the normal is within ~25 degrees of y, and the
binormal is normal x tangent. The frame depends only on the normal, so both cells sharing a face derive the same
tangent. A zero normal gives a zero frame.
*/
func NormalToRotationMatrix(n [3]float64) (R [3][3]float64) {
	if utils.Dot3(n, n) == 0 {
		return
	}
	t := [3]float64{0, 1, 0}
	if math.Abs(utils.Dot3(n, t)) > 0.9 {
		t = [3]float64{1, 0, 0}
	}
	nt := utils.Dot3(n, t)
	for i := range t {
		t[i] -= nt * n[i]
	}
	tn := math.Sqrt(utils.Dot3(t, t))
	for i := range t {
		t[i] /= tn
	}
	R[0], R[1], R[2] = n, t, utils.Cross3(n, t)
	return
}

// SetRotationMatrices fills rot (C,P,3,3) from the unit normals (C,P,D), padding the normal with zeros to 3D
func SetRotationMatrices(rot, normals utils.Array, numCells int) {
	var (
		Np = normals.Extent(1)
		D  = normals.Extent(2)
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < Np; p++ {
				SetRotationMatrix(rot, c, p, padNormal(normals.Slab(c, p), D))
			}
		}
	})
}

func SetRotationMatrix(rot utils.Array, c, p int, n [3]float64) {
	R := NormalToRotationMatrix(n)
	r := rot.Slab(c, p)
	for i := 0; i < 3; i++ {
		copy(r[3*i:3*i+3], R[i][:])
	}
}

func padNormal(n []float64, D int) (n3 [3]float64) {
	copy(n3[:], n[:D])
	return
}
