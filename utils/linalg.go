package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Det computes the determinant of the dim x dim row-major matrix A
func Det(A []float64, dim int) float64 {
	switch dim {
	case 0:
		return 1
	case 1:
		return A[0]
	case 2:
		return A[0]*A[3] - A[1]*A[2]
	case 3:
		return A[0]*(A[4]*A[8]-A[5]*A[7]) -
			A[1]*(A[3]*A[8]-A[5]*A[6]) +
			A[2]*(A[3]*A[7]-A[4]*A[6])
	default:
		var lu mat.LU
		lu.Factorize(mat.NewDense(dim, dim, append([]float64{}, A...)))
		return lu.Det()
	}
}

/*
Inverse writes the inverse of the dim x dim row-major matrix A into Ainv. A singular matrix is not an error at this
level, the result is then filled with Inf/NaN values the same way a closed form division would produce them.
*/
func Inverse(A, Ainv []float64, dim int) {
	switch dim {
	case 0:
		return
	case 1:
		Ainv[0] = 1 / A[0]
	case 2:
		oodet := 1 / (A[0]*A[3] - A[1]*A[2])
		Ainv[0], Ainv[1] = A[3]*oodet, -A[1]*oodet
		Ainv[2], Ainv[3] = -A[2]*oodet, A[0]*oodet
	case 3:
		oodet := 1 / Det(A, 3)
		Ainv[0] = (A[4]*A[8] - A[5]*A[7]) * oodet
		Ainv[1] = (A[2]*A[7] - A[1]*A[8]) * oodet
		Ainv[2] = (A[1]*A[5] - A[2]*A[4]) * oodet
		Ainv[3] = (A[5]*A[6] - A[3]*A[8]) * oodet
		Ainv[4] = (A[0]*A[8] - A[2]*A[6]) * oodet
		Ainv[5] = (A[2]*A[3] - A[0]*A[5]) * oodet
		Ainv[6] = (A[3]*A[7] - A[4]*A[6]) * oodet
		Ainv[7] = (A[1]*A[6] - A[0]*A[7]) * oodet
		Ainv[8] = (A[0]*A[4] - A[1]*A[3]) * oodet
	default:
		var (
			inv mat.Dense
		)
		if err := inv.Inverse(mat.NewDense(dim, dim, append([]float64{}, A...))); err != nil {
			for i := range Ainv[:dim*dim] {
				Ainv[i] = math.NaN()
			}
			return
		}
		copy(Ainv, inv.RawMatrix().Data)
	}
}

// Solve solves the dim x dim system A x = b in place of b
func Solve(A, b []float64, dim int) {
	if dim <= 3 {
		var (
			Ainv [9]float64
			x    [3]float64
		)
		Inverse(A, Ainv[:], dim)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				x[i] += Ainv[i*dim+j] * b[j]
			}
		}
		copy(b, x[:dim])
		return
	}
	var (
		x mat.VecDense
	)
	if err := x.SolveVec(mat.NewDense(dim, dim, append([]float64{}, A...)), mat.NewVecDense(dim, append([]float64{}, b...))); err != nil {
		for i := range b[:dim] {
			b[i] = math.NaN()
		}
		return
	}
	copy(b, x.RawVector().Data)
}

func Norm(v []float64) (nrm float64) {
	for _, val := range v {
		nrm += val * val
	}
	return math.Sqrt(nrm)
}
