package utils

import (
	"fmt"
	"strings"
)

/*
Array is a dense, row-major multi-dimensional array of float64 values, the storage used for every
(cell, point[, dim[, dim]]) quantity. The last index varies fastest, so a (C,P,D) array stores the D
components of a point contiguously and the points of one cell contiguously.
*/
type Array struct {
	Data    []float64
	dims    []int
	strides []int
	name    string
}

func NewArray(name string, dims ...int) (A Array) {
	var (
		size = 1
	)
	for _, d := range dims {
		if d < 0 {
			panic(fmt.Errorf("negative extent in array %s: %v", name, dims))
		}
		size *= d
	}
	A = Array{
		Data:    make([]float64, size),
		dims:    append([]int{}, dims...),
		strides: make([]int, len(dims)),
		name:    name,
	}
	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		A.strides[i] = stride
		stride *= dims[i]
	}
	return
}

func (A Array) Name() string { return A.name }
func (A Array) Rank() int { return len(A.dims) }
func (A Array) Dims() []int { return A.dims }
func (A Array) Size() int { return len(A.Data) }
func (A Array) IsEmpty() bool { return A.dims == nil }
func (A Array) Extent(i int) int { return A.dims[i] }
func (A Array) Stride(i int) int { return A.strides[i] }
func (A Array) Index(I ...int) (k int) {
	if len(I) != len(A.dims) {
		panic(fmt.Errorf("array %s has rank %d, indexed with %d indices", A.name, len(A.dims), len(I)))
	}
	for i, ind := range I {
		if ind < 0 || ind >= A.dims[i] {
			panic(fmt.Errorf("index out of bounds in array %s: index %v, dims %v", A.name, I, A.dims))
		}
		k += ind * A.strides[i]
	}
	return
}

func (A Array) At(I ...int) float64 { return A.Data[A.Index(I...)] }
func (A Array) Set(val float64, I ...int) { A.Data[A.Index(I...)] = val }
func (A Array) Add(val float64, I ...int) { A.Data[A.Index(I...)] += val }

// Slab returns the contiguous storage behind the leading indices I, e.g. the D components of point (c,p).
func (A Array) Slab(I ...int) []float64 {
	var (
		k, n = 0, len(I)
	)
	if n > len(A.dims) {
		panic(fmt.Errorf("array %s has rank %d, slab requested with %d indices", A.name, len(A.dims), n))
	}
	for i, ind := range I {
		if ind < 0 || ind >= A.dims[i] {
			panic(fmt.Errorf("index out of bounds in array %s: index %v, dims %v", A.name, I, A.dims))
		}
		k += ind * A.strides[i]
	}
	var length int
	if n > 0 {
		length = A.strides[n-1]
	} else {
		length = len(A.Data)
	}
	return A.Data[k : k+length]
}

func (A Array) Fill(val float64) {
	for i := range A.Data {
		A.Data[i] = val
	}
}

func (A Array) Zero() { A.Fill(0) }

// DeepCopy copies B into A, the extents must agree
func (A Array) DeepCopy(B Array) {
	if !SameDims(A.dims, B.dims) {
		panic(fmt.Errorf("deep copy of %s %v into %s %v: extents differ", B.name, B.dims, A.name, A.dims))
	}
	copy(A.Data, B.Data)
}

func (A Array) Copy() (R Array) {
	R = NewArray(A.name, A.dims...)
	copy(R.Data, A.Data)
	return
}

// SwapPoints exchanges the data of points p1 and p2 of cell, for arrays shaped (C,P,...)
func (A Array) SwapPoints(cell, p1, p2 int) {
	if p1 == p2 {
		return
	}
	var (
		s1 = A.Slab(cell, p1)
		s2 = A.Slab(cell, p2)
	)
	for i := range s1 {
		s1[i], s2[i] = s2[i], s1[i]
	}
}

// SwapRows exchanges the leading-index rows r1 and r2, for arrays shaped (P,...)
func (A Array) SwapRows(r1, r2 int) {
	if r1 == r2 {
		return
	}
	var (
		s1 = A.Slab(r1)
		s2 = A.Slab(r2)
	)
	for i := range s1 {
		s1[i], s2[i] = s2[i], s1[i]
	}
}

func (A Array) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%v", A.name, A.dims)
	if len(A.Data) <= 64 {
		fmt.Fprintf(&sb, " = %v", A.Data)
	}
	return sb.String()
}

func SameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
