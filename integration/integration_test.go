package integration

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/quadgeom/connectivity"
	"github.com/notargets/quadgeom/mapping"
	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/types"
	"github.com/notargets/quadgeom/utils"
)

const tol = 1.e-12

func cellNodes(cells ...[][]float64) (A utils.Array) {
	var (
		C, N, D = len(cells), len(cells[0]), len(cells[0][0])
	)
	A = utils.NewArray("nodes", C, N, D)
	for c := range cells {
		for n := range cells[c] {
			copy(A.Slab(c, n), cells[c][n])
		}
	}
	return
}

// mapVertices places the reference vertices of ct through f
func mapVertices(ct *topology.CellTopology, f func(v []float64) []float64) (x [][]float64) {
	for _, v := range ct.Vertices {
		x = append(x, f(v))
	}
	return
}

func newValues(t *testing.T, ct *topology.CellTopology, worksetSize int, kind types.IntegrationType, order int, side ...int) *Values {
	desc, err := NewDescriptor(kind, order, side...)
	require.NoError(t, err)
	rule, err := NewRule(desc, ct, worksetSize, 0)
	require.NoError(t, err)
	return NewValues(rule)
}

func matMul(A, B []float64, D int) (C []float64) {
	C = make([]float64, D*D)
	for i := 0; i < D; i++ {
		for j := 0; j < D; j++ {
			for k := 0; k < D; k++ {
				C[i*D+j] += A[i*D+k] * B[k*D+j]
			}
		}
	}
	return
}

func identity(D int) (I []float64) {
	I = make([]float64, D*D)
	for i := 0; i < D; i++ {
		I[i*D+i] = 1
	}
	return
}

// assertInverses checks that Jac/JacInv and Covariant/Contravariant are inverse pairs at every point
func assertInverses(t *testing.T, v *Values) {
	var (
		D = v.Rule.SpatialDimension
		I = identity(D)
	)
	for c := 0; c < v.NumCells(); c++ {
		for p := 0; p < v.Rule.NumPoints; p++ {
			assert.InDeltaSlice(t, I, matMul(v.Jac.Slab(c, p), v.JacInv.Slab(c, p), D), 1.e-10)
			assert.InDeltaSlice(t, I, matMul(v.Covariant.Slab(c, p), v.Contravariant.Slab(c, p), D), 1.e-10)
			var frob float64
			for _, g := range v.Contravariant.Slab(c, p) {
				frob += g * g
			}
			assert.InDelta(t, math.Sqrt(frob), v.NormContravariant.At(c, p), 1.e-10)
		}
	}
}

// assertConsistentPoints re-maps the reference coordinates of every point and compares with the stored coordinates
func assertConsistentPoints(t *testing.T, v *Values) {
	var (
		r    = v.Rule
		phys = utils.NewArray("check", r.WorksetSize, r.NumPoints, r.SpatialDimension)
		jac  = utils.NewArray("check_jac", r.WorksetSize, r.NumPoints, r.SpatialDimension, r.SpatialDimension)
	)
	mapping.MapToPhysicalFrame(phys, v.RefIPCoordinates, v.NodeCoordinates, r.Topology, v.NumCells())
	mapping.SetJacobian(jac, v.RefIPCoordinates, v.NodeCoordinates, r.Topology, v.NumCells())
	for c := 0; c < v.NumCells(); c++ {
		assert.InDeltaSlice(t, v.IPCoordinates.Slab(c), phys.Slab(c), 1.e-12)
		assert.InDeltaSlice(t, v.Jac.Slab(c), jac.Slab(c), 1.e-12)
	}
}

func TestDescriptor(t *testing.T) {
	d, err := NewDescriptor(types.INT_Side, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "SIDE(order=2,side=1)", d.String())
	d2, err := NewDescriptor(types.INT_Side, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, d.Key(), d2.Key())
	d3, err := NewDescriptor(types.INT_Side, 2, 2)
	require.NoError(t, err)
	assert.NotEqual(t, d.Key(), d3.Key())
	v, err := NewDescriptor(types.INT_Volume, 4)
	require.NoError(t, err)
	assert.Equal(t, -1, v.Side)
	assert.Equal(t, "VOLUME(order=4)", v.String())

	for _, bad := range []struct {
		kind  types.IntegrationType
		order int
		side  []int
	}{
		{types.INT_Side, 2, nil},
		{types.INT_CVBoundary, 0, []int{-1}},
		{types.INT_Volume, 2, []int{0}},
		{types.INT_Surface, -1, nil},
		{types.INT_None, 0, nil},
	} {
		_, err = NewDescriptor(bad.kind, bad.order, bad.side...)
		assert.True(t, errors.Is(err, ErrConfiguration), "%v", bad)
	}
}

func TestNewRule(t *testing.T) {
	tests := []struct {
		name      string
		ct        *topology.CellTopology
		kind      types.IntegrationType
		order     int
		side      []int
		numPoints int
	}{
		{"triangle volume", topology.TriangleTopology, types.INT_Volume, 2, nil, 3},
		{"quad side", topology.QuadrilateralTopology, types.INT_Side, 3, []int{1}, 2},
		{"line side", topology.LineTopology, types.INT_Side, 4, []int{0}, 1},
		{"triangle surface", topology.TriangleTopology, types.INT_Surface, 2, nil, 6},
		{"hex surface", topology.HexahedronTopology, types.INT_Surface, 3, nil, 24},
		{"line surface", topology.LineTopology, types.INT_Surface, 5, nil, 2},
		{"quad cv volume", topology.QuadrilateralTopology, types.INT_CVVolume, 0, nil, 4},
		{"hex cv side", topology.HexahedronTopology, types.INT_CVSide, 0, nil, 12},
		{"hex cv boundary", topology.HexahedronTopology, types.INT_CVBoundary, 0, []int{2}, 4},
		{"tet cv boundary", topology.TetrahedronTopology, types.INT_CVBoundary, 0, []int{1}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := NewDescriptor(tt.kind, tt.order, tt.side...)
			require.NoError(t, err)
			r, err := NewRule(desc, tt.ct, 7, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.numPoints, r.NumPoints)
			assert.Equal(t, tt.ct.Dim, r.SpatialDimension)
			assert.Equal(t, 7, r.WorksetSize)
			if tt.kind == types.INT_Surface {
				assert.Equal(t, tt.ct.SideCount(), r.NumFaces)
				assert.Equal(t, r.NumPoints, r.PointOffset(r.NumFaces))
				assert.Equal(t, r.NumPoints/r.NumFaces, r.PointsPerFace())
			}
			if desc.Kind.HasSide() {
				require.NotNil(t, r.SideTopology)
				assert.Equal(t, tt.ct.Dim-1, r.SideTopology.Dim)
			}
		})
	}

	surf, _ := NewDescriptor(types.INT_Surface, 2)
	_, err := NewRule(surf, topology.TriangleTopology, 1, 4)
	assert.True(t, errors.Is(err, ErrConfiguration))
	side, _ := NewDescriptor(types.INT_Side, 2, 3)
	_, err = NewRule(side, topology.TriangleTopology, 1, 0)
	assert.True(t, errors.Is(err, ErrConfiguration))
	vol, _ := NewDescriptor(types.INT_Volume, 2)
	_, err = NewRule(vol, topology.PointTopology, 1, 0)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewRule(vol, nil, 1, 0)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestVolumeValues(t *testing.T) {
	tests := []struct {
		name  string
		ct    *topology.CellTopology
		nodes [][]float64
		order int
		exact float64
	}{
		{"line", topology.LineTopology, [][]float64{{1}, {4}}, 3, 3},
		{"triangle", topology.TriangleTopology, [][]float64{{0, 0}, {2, 0.5}, {0.5, 3}}, 2, 2.875},
		{"quad", topology.QuadrilateralTopology, [][]float64{{0, 0}, {2, 0}, {3, 1}, {1, 1}}, 2, 2},
		{"tet", topology.TetrahedronTopology, [][]float64{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}, {0, 0, 1}}, 3, 1},
		{"hex", topology.HexahedronTopology, mapVertices(topology.HexahedronTopology, func(v []float64) []float64 {
			return []float64{v[0] + 1, 1.5 * (v[1] + 1), 0.5 * (v[2] + 1)}
		}), 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValues(t, tt.ct, 3, types.INT_Volume, tt.order)
			nodes := cellNodes(tt.nodes, tt.nodes)
			require.NoError(t, v.Evaluate(nodes, -1, nil))
			assert.True(t, v.Valid())
			assert.Equal(t, 2, v.NumCells())
			assert.InDelta(t, 2*tt.exact, v.TotalMeasure(), 1.e-12)
			assert.InDelta(t, tt.exact, floats.Sum(v.WeightedMeasure.Slab(1)), 1.e-12)
			// Affine cells have a constant Jacobian
			for p := 1; p < v.Rule.NumPoints; p++ {
				assert.InDeltaSlice(t, v.Jac.Slab(0, 0), v.Jac.Slab(0, p), tol)
			}
			assert.InDeltaSlice(t, v.CubPoints.Data, v.RefIPCoordinates.Slab(1), 0)
			assert.Equal(t, v.DynCubWeights.Data, v.CubWeights.Data)
			assertInverses(t, v)
			assertConsistentPoints(t, v)
		})
	}
}

func TestSideValues(t *testing.T) {
	var (
		tri = [][]float64{{0, 0}, {3, 0}, {0, 4}}
		tet = [][]float64{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}, {0, 0, 1}}
		hex = mapVertices(topology.HexahedronTopology, func(v []float64) []float64 {
			return []float64{v[0] + 1, 1.5 * (v[1] + 1), 0.5 * (v[2] + 1)}
		})
	)
	tests := []struct {
		name    string
		ct      *topology.CellTopology
		nodes   [][]float64
		side    int
		measure float64
		normal  []float64
	}{
		{"triangle bottom", topology.TriangleTopology, tri, 0, 3, []float64{0, -1}},
		{"triangle hypotenuse", topology.TriangleTopology, tri, 1, 5, []float64{0.8, 0.6}},
		{"triangle left", topology.TriangleTopology, tri, 2, 4, []float64{-1, 0}},
		{"tet base", topology.TetrahedronTopology, tet, 3, 3, []float64{0, 0, -1}},
		{"tet xz", topology.TetrahedronTopology, tet, 0, 1, []float64{0, -1, 0}},
		{"hex front", topology.HexahedronTopology, hex, 0, 2, []float64{0, -1, 0}},
		{"hex top", topology.HexahedronTopology, hex, 5, 6, []float64{0, 0, 1}},
		{"hex left", topology.HexahedronTopology, hex, 3, 3, []float64{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValues(t, tt.ct, 1, types.INT_Side, 4, tt.side)
			require.NoError(t, v.Evaluate(cellNodes(tt.nodes), 1, nil))
			assert.InDelta(t, tt.measure, v.TotalMeasure(), 1.e-12)
			for p := 0; p < v.Rule.NumPoints; p++ {
				n := v.SurfaceNormals.Slab(0, p)
				assert.InDeltaSlice(t, tt.normal, n, 1.e-12)
				R := v.SurfaceRotationMatrices.Slab(0, p)
				assert.InDeltaSlice(t, tt.normal, R[:len(tt.normal)], 1.e-12)
				wn := v.WeightedNormals.Slab(0, p)
				for d := range n {
					assert.InDelta(t, n[d]*v.WeightedMeasure.At(0, p), wn[d], 1.e-14)
				}
				// Points lie on the side
				var (
					x  = v.IPCoordinates.Slab(0, p)
					x0 = tt.nodes[tt.ct.Sides[tt.side][0]]
					dn float64
				)
				for d := range x {
					dn += (x[d] - x0[d]) * tt.normal[d]
				}
				assert.InDelta(t, 0, dn, 1.e-12)
			}
			assertInverses(t, v)
			assertConsistentPoints(t, v)
		})
	}
}

func TestNodeSideRule(t *testing.T) {
	nodes := cellNodes([][]float64{{2}, {5}}, [][]float64{{5}, {2}})
	for side, normals := range [][2]float64{{-1, 1}, {1, -1}} {
		v := newValues(t, topology.LineTopology, 2, types.INT_Side, 3, side)
		require.NoError(t, v.Evaluate(nodes, 2, nil))
		for c := 0; c < 2; c++ {
			assert.Equal(t, nodes.At(c, side, 0), v.IPCoordinates.At(c, 0, 0))
			assert.Equal(t, 1., v.WeightedMeasure.At(c, 0))
			assert.Equal(t, normals[c], v.SurfaceNormals.At(c, 0, 0))
			assert.Equal(t, normals[c], v.SurfaceRotationMatrices.At(c, 0, 0, 0))
			assert.Equal(t, topology.LineTopology.Vertices[side][0], v.RefIPCoordinates.At(c, 0, 0))
		}
	}
}

// unitSquare is two triangles split along the diagonal, sharing local face 2 of cell 0 and local face 0 of cell 1
func unitSquare(t *testing.T) (nodes utils.Array, fc *connectivity.FaceConnectivity) {
	nodes = cellNodes(
		[][]float64{{0, 0}, {1, 0}, {1, 1}},
		[][]float64{{0, 0}, {1, 1}, {0, 1}},
	)
	fc = connectivity.NewFaceConnectivity(2, 3)
	for _, f := range [][4]int{{0, 2, 1, 0}, {0, 0, -1, -1}, {0, 1, -1, -1}, {1, 1, -1, -1}, {1, 2, -1, -1}} {
		_, err := fc.AddFace(f[0], f[1], f[2], f[3])
		require.NoError(t, err)
	}
	return
}

func TestSurfaceTwoTriangles(t *testing.T) {
	nodes, fc := unitSquare(t)
	v := newValues(t, topology.TriangleTopology, 2, types.INT_Surface, 2)
	require.NoError(t, v.Evaluate(nodes, 2, fc))
	var (
		r   = v.Rule
		ppf = r.PointsPerFace()
		s2  = math.Sqrt(2)
	)
	require.Equal(t, 3, r.NumFaces)
	require.Equal(t, 2, ppf)
	assert.InDelta(t, 4+2*s2, v.TotalMeasure(), 1.e-12)

	lengths := [][]float64{{1, 1, s2}, {s2, 1, 1}}
	normals := [][][]float64{
		{{0, -1}, {1, 0}, {-1 / s2, 1 / s2}},
		{{1 / s2, -1 / s2}, {0, 1}, {-1, 0}},
	}
	for c := 0; c < 2; c++ {
		for f := 0; f < 3; f++ {
			off := r.PointOffset(f)
			assert.InDelta(t, lengths[c][f], floats.Sum(v.WeightedMeasure.Slab(c)[off:off+ppf]), 1.e-12)
			for p := off; p < off+ppf; p++ {
				assert.InDeltaSlice(t, normals[c][f], v.SurfaceNormals.Slab(c, p), 1.e-12)
				assert.InDelta(t, 1, utils.Norm(v.SurfaceNormals.Slab(c, p)), 1.e-12)
			}
		}
	}
	// Points of the diagonal line up across the two cells
	for i := 0; i < ppf; i++ {
		assert.InDeltaSlice(t, v.IPCoordinates.Slab(0, r.PointOffset(2)+i), v.IPCoordinates.Slab(1, r.PointOffset(0)+i), 1.e-12)
	}
	assertInverses(t, v)
	assertConsistentPoints(t, v)

	// Aligning an aligned set changes nothing
	before := v.IPCoordinates.Copy()
	rotBefore := v.SurfaceRotationMatrices.Copy()
	require.NoError(t, v.alignSurfacePoints(fc))
	assert.Equal(t, before.Data, v.IPCoordinates.Data)
	assert.Equal(t, rotBefore.Data, v.SurfaceRotationMatrices.Data)

	// A second evaluation reproduces the first
	require.NoError(t, v.Evaluate(nodes, 2, fc))
	assert.Equal(t, before.Data, v.IPCoordinates.Data)
}

func TestSurfacePeriodicLine(t *testing.T) {
	nodes := cellNodes([][]float64{{0}, {1}}, [][]float64{{1}, {2}})
	fc := connectivity.NewFaceConnectivity(2, 2)
	interior, err := fc.AddFace(0, 1, 1, 0)
	require.NoError(t, err)
	_, err = fc.AddFace(1, 1, 0, 0)
	require.NoError(t, err)

	v := newValues(t, topology.LineTopology, 2, types.INT_Surface, 3)
	require.NoError(t, v.Evaluate(nodes, -1, fc))
	r := v.Rule
	require.Equal(t, 1, r.PointsPerFace())
	var (
		a0 = r.PointOffset(fc.LocalSubcellForSubcell(interior, 0))
		b0 = r.PointOffset(fc.LocalSubcellForSubcell(interior, 1))
	)
	assert.Equal(t, v.IPCoordinates.Slab(0, a0), v.IPCoordinates.Slab(1, b0))
	assert.Equal(t, 1., v.SurfaceNormals.At(0, a0, 0))
	assert.Equal(t, -1., v.SurfaceNormals.At(1, b0, 0))
	// The periodic face pairs x=2 of cell 1 with x=0 of cell 0
	assert.Equal(t, -1., v.SurfaceNormals.At(0, r.PointOffset(0), 0))
	assert.Equal(t, 1., v.SurfaceNormals.At(1, r.PointOffset(1), 0))
	assert.InDelta(t, 4, v.TotalMeasure(), tol)
	assertInverses(t, v)
	assertConsistentPoints(t, v)
}

func TestSurfaceHexPairRotated(t *testing.T) {
	hex := topology.HexahedronTopology
	a := mapVertices(hex, func(v []float64) []float64 {
		return []float64{0.5 * (v[0] + 1), 0.5 * (v[1] + 1), 0.5 * (v[2] + 1)}
	})
	// Cell 1 is the next cube in x, with its reference frame turned a quarter turn about x
	b := mapVertices(hex, func(v []float64) []float64 {
		return []float64{1 + 0.5*(v[0]+1), 0.5 * (v[2] + 1), 0.5 * (1 - v[1])}
	})
	nodes := cellNodes(a, b)
	fc := connectivity.NewFaceConnectivity(2, 6)
	_, err := fc.AddFace(0, 1, 1, 3)
	require.NoError(t, err)
	for f := 0; f < 6; f++ {
		if f != 1 {
			_, err = fc.AddFace(0, f, -1, -1)
			require.NoError(t, err)
		}
		if f != 3 {
			_, err = fc.AddFace(1, f, -1, -1)
			require.NoError(t, err)
		}
	}
	v := newValues(t, hex, 2, types.INT_Surface, 3)
	require.NoError(t, v.Evaluate(nodes, 2, fc))
	r := v.Rule
	require.Equal(t, 4, r.PointsPerFace())
	assert.InDelta(t, 12, v.TotalMeasure(), 1.e-12)
	for i := 0; i < 4; i++ {
		var (
			pa = r.PointOffset(1) + i
			pb = r.PointOffset(3) + i
		)
		assert.InDeltaSlice(t, v.IPCoordinates.Slab(0, pa), v.IPCoordinates.Slab(1, pb), 1.e-12)
		assert.InDeltaSlice(t, []float64{1, 0, 0}, v.SurfaceNormals.Slab(0, pa), 1.e-12)
		assert.InDeltaSlice(t, []float64{-1, 0, 0}, v.SurfaceNormals.Slab(1, pb), 1.e-12)
		assert.InDelta(t, 0.25, v.WeightedMeasure.At(1, pb), 1.e-12)
	}
	assertInverses(t, v)
	assertConsistentPoints(t, v)
}

func TestSurfaceErrors(t *testing.T) {
	nodes, fc := unitSquare(t)
	v := newValues(t, topology.TriangleTopology, 2, types.INT_Surface, 2)

	err := v.Evaluate(nodes, 2, nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, v.Valid())

	err = v.Evaluate(nodes, 1, fc)
	assert.True(t, errors.Is(err, ErrConfiguration), "connectivity refers to a cell beyond numCells")

	small := newValues(t, topology.TriangleTopology, 1, types.INT_Surface, 2)
	err = small.Evaluate(nodes, 2, fc)
	assert.True(t, errors.Is(err, ErrConfiguration), "more cells than the workset holds")

	err = v.Evaluate(utils.NewArray("nodes", 2, 4, 2), 2, fc)
	assert.True(t, errors.Is(err, ErrConfiguration))

	// A face shared with a cell twice the size has no matching points
	big := cellNodes(
		[][]float64{{0, 0}, {1, 0}, {1, 1}},
		[][]float64{{0, 0}, {2, 2}, {0, 2}},
	)
	err = v.Evaluate(big, 2, fc)
	assert.True(t, errors.Is(err, ErrAlignment))
	assert.False(t, v.Valid())

	// Virtual neighbours are not aligned against
	fc.SetVirtual(1, true)
	require.NoError(t, v.Evaluate(big, 2, fc))
	assert.True(t, v.Valid())
}

func TestEvaluateWithOther(t *testing.T) {
	var (
		ct    = topology.TriangleTopology
		nodes = cellNodes(
			[][]float64{{0, 0}, {2, 0.5}, {0.5, 3}},
			[][]float64{{1, 1}, {2, 1}, {1, 3}},
		)
		ref = newValues(t, ct, 2, types.INT_Volume, 2)
	)
	require.NoError(t, ref.Evaluate(nodes, 2, nil))
	// The other rule lists the same points as a 3-cycle
	other := utils.NewArray("other", 2, 3, 2)
	for c := 0; c < 2; c++ {
		for p := 0; p < 3; p++ {
			copy(other.Slab(c, p), ref.IPCoordinates.Slab(c, (p+1)%3))
		}
	}
	v := newValues(t, ct, 2, types.INT_Volume, 2)
	require.NoError(t, v.EvaluateWithOther(nodes, other, 2))
	assert.True(t, v.Valid())
	for c := 0; c < 2; c++ {
		assert.InDeltaSlice(t, other.Slab(c), v.IPCoordinates.Slab(c), 1.e-14)
		assert.InDeltaSlice(t, v.CubPoints.Data, v.RefIPCoordinates.Slab(c), 0)
	}
	assert.InDelta(t, ref.TotalMeasure(), v.TotalMeasure(), 1.e-14)
	assertInverses(t, v)
	assertConsistentPoints(t, v)

	// Matching an already matching order is the identity
	before := v.IPCoordinates.Copy()
	require.NoError(t, v.EvaluateWithOther(nodes, before, 2))
	assert.Equal(t, before.Data, v.IPCoordinates.Data)

	surf := newValues(t, ct, 2, types.INT_Surface, 2)
	assert.True(t, errors.Is(surf.EvaluateWithOther(nodes, other, 2), ErrConfiguration))
	assert.True(t, errors.Is(v.EvaluateWithOther(nodes, utils.NewArray("other", 2, 4, 2), 2), ErrConfiguration))
}

func TestControlVolumeValues(t *testing.T) {
	var (
		ct    = topology.QuadrilateralTopology
		nodes = cellNodes([][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	)
	t.Run("volume", func(t *testing.T) {
		v := newValues(t, ct, 1, types.INT_CVVolume, 0)
		require.NoError(t, v.Evaluate(nodes, 1, nil))
		assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.25}, v.WeightedMeasure.Slab(0), 1.e-12)
		assert.InDeltaSlice(t, []float64{0.25, 0.25}, v.IPCoordinates.Slab(0, 0), 1.e-12)
		assert.Equal(t, v.DynPhysCubWeights.Data, v.WeightedMeasure.Data)
		for p := 0; p < 4; p++ {
			assert.InDelta(t, 0.25, v.JacDet.At(0, p), 1.e-12)
		}
		assertConsistentPoints(t, v)
	})
	t.Run("side", func(t *testing.T) {
		v := newValues(t, ct, 1, types.INT_CVSide, 0)
		require.NoError(t, v.Evaluate(nodes, 1, nil))
		for e := 0; e < 4; e++ {
			assert.InDelta(t, 0.5, utils.Norm(v.WeightedNormals.Slab(0, e)), 1.e-12)
			assert.Equal(t, 0., v.WeightedMeasure.At(0, e))
		}
		// Edge 0 runs along +x, its dual face normal points from node 0 to node 1
		assert.InDeltaSlice(t, []float64{0.5, 0}, v.WeightedNormals.Slab(0, 0), 1.e-12)
		assertConsistentPoints(t, v)
	})
	t.Run("boundary", func(t *testing.T) {
		v := newValues(t, ct, 1, types.INT_CVBoundary, 0, 0)
		require.NoError(t, v.Evaluate(nodes, 1, nil))
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, v.WeightedMeasure.Slab(0), 1.e-12)
		assert.InDeltaSlice(t, []float64{0.25, 0}, v.IPCoordinates.Slab(0, 0), 1.e-12)
		assert.InDeltaSlice(t, []float64{0.75, 0}, v.IPCoordinates.Slab(0, 1), 1.e-12)
		assertConsistentPoints(t, v)
	})
	t.Run("hex round trip", func(t *testing.T) {
		hex := topology.HexahedronTopology
		skew := mapVertices(hex, func(v []float64) []float64 {
			return []float64{v[0] + 0.1*v[1]*v[2], v[1] + 0.2*v[0], 0.5*v[2] + 0.05*v[0]*v[1]}
		})
		v := newValues(t, hex, 1, types.INT_CVVolume, 0)
		require.NoError(t, v.Evaluate(cellNodes(skew), 1, nil))
		assertConsistentPoints(t, v)
		assertInverses(t, v)
		var vol float64
		vv := newValues(t, hex, 1, types.INT_Volume, 4)
		require.NoError(t, vv.Evaluate(cellNodes(skew), 1, nil))
		vol = vv.TotalMeasure()
		assert.InDelta(t, vol, v.TotalMeasure(), 1.e-10)
	})
}

func TestSurfaceTetPairAnyFaceOrder(t *testing.T) {
	var (
		tet    = topology.TetrahedronTopology
		a      = tet.Vertices
		shared = [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
		// Local side of a tet that leaves out node k
		opposite = [4]int{1, 2, 0, 3}
	)
	for _, order := range []int{2, 4, 5, 6, 8} {
		for _, perm := range permutations(4) {
			var b [][]float64
			for _, k := range perm {
				b = append(b, shared[k])
			}
			var J []float64
			for n := 1; n < 4; n++ {
				for d := 0; d < 3; d++ {
					J = append(J, b[n][d]-b[0][d])
				}
			}
			// Only positively oriented cells
			if utils.Det(J, 3) <= 0 {
				continue
			}
			var apex int
			for n, k := range perm {
				if k == 3 {
					apex = n
				}
			}
			side := opposite[apex]
			fc := connectivity.NewFaceConnectivity(2, 4)
			_, err := fc.AddFace(0, 1, 1, side)
			require.NoError(t, err)
			for f := 0; f < 4; f++ {
				if f != 1 {
					_, err = fc.AddFace(0, f, -1, -1)
					require.NoError(t, err)
				}
				if f != side {
					_, err = fc.AddFace(1, f, -1, -1)
					require.NoError(t, err)
				}
			}
			v := newValues(t, tet, 2, types.INT_Surface, order)
			require.NoError(t, v.Evaluate(cellNodes(a, b), 2, fc), "order %d nodes %v", order, perm)
			r := v.Rule
			for i := 0; i < r.PointsPerFace(); i++ {
				assert.InDeltaSlice(t, v.IPCoordinates.Slab(0, r.PointOffset(1)+i), v.IPCoordinates.Slab(1, r.PointOffset(side)+i),
					1.e-12, "order %d nodes %v point %d", order, perm, i)
			}
		}
	}
}

func permutations(n int) (perms [][]int) {
	if n == 1 {
		return [][]int{{0}}
	}
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := append(append(append([]int{}, p[:i]...), n-1), p[i:]...)
			perms = append(perms, q)
		}
	}
	return
}

// unitQuads places a unit square at x0 and a second square of height h at x1, both counter clockwise
func unitQuads(x0, x1, h float64) utils.Array {
	return cellNodes(
		[][]float64{{x0, 0}, {x0 + 1, 0}, {x0 + 1, 1}, {x0, 1}},
		[][]float64{{x1, 0}, {x1 + 1, 0}, {x1 + 1, h}, {x1, h}},
	)
}

// quadPair joins local face f0 of cell 0 to local face f1 of cell 1, every other face is a boundary
func quadPair(t *testing.T, f0, f1 int) *connectivity.FaceConnectivity {
	fc := connectivity.NewFaceConnectivity(2, 4)
	_, err := fc.AddFace(0, f0, 1, f1)
	require.NoError(t, err)
	for f := 0; f < 4; f++ {
		if f != f0 {
			_, err = fc.AddFace(0, f, -1, -1)
			require.NoError(t, err)
		}
		if f != f1 {
			_, err = fc.AddFace(1, f, -1, -1)
			require.NoError(t, err)
		}
	}
	return fc
}

func TestSurfaceFoldedPair(t *testing.T) {
	// x = 0 of cell 0 is paired with y = 0 of cell 1, the normals are at right angles
	var (
		nodes = unitQuads(0, 2, 1)
		fc    = quadPair(t, 3, 0)
		v     = newValues(t, topology.QuadrilateralTopology, 2, types.INT_Surface, 5)
	)
	require.NoError(t, v.Evaluate(nodes, 2, fc))
	var (
		r    = v.Rule
		ppf  = r.PointsPerFace()
		off0 = r.PointOffset(3)
		off1 = r.PointOffset(0)
	)
	require.Equal(t, 3, ppf)
	// Face 3 runs down from (0,1), face 0 runs along x from (2,0), so cell 1 was reordered
	assert.Greater(t, v.IPCoordinates.At(0, off0, 1), 0.5)
	for i := 0; i < ppf; i++ {
		assert.InDelta(t, v.IPCoordinates.At(0, off0+i, 1), v.IPCoordinates.At(1, off1+i, 0)-2, 1.e-12, "point %d", i)
		assert.InDeltaSlice(t, []float64{-1, 0}, v.SurfaceNormals.Slab(0, off0+i), 1.e-12)
		assert.InDeltaSlice(t, []float64{0, -1}, v.SurfaceNormals.Slab(1, off1+i), 1.e-12)
	}
	assertConsistentPoints(t, v)
}

func TestSurfaceParallelNormalsKeepOrder(t *testing.T) {
	// x = 0 of cell 0 against x = 2 of a taller cell 1, both facing -x, points that could never match
	var (
		nodes = unitQuads(0, 2, 2)
		v     = newValues(t, topology.QuadrilateralTopology, 2, types.INT_Surface, 5)
		ref   = newValues(t, topology.QuadrilateralTopology, 2, types.INT_Surface, 5)
	)
	require.NoError(t, v.Evaluate(nodes, 2, quadPair(t, 3, 3)))
	// Without the pairing nothing is aligned at all
	unpaired := connectivity.NewFaceConnectivity(2, 4)
	for c := 0; c < 2; c++ {
		for f := 0; f < 4; f++ {
			_, err := unpaired.AddFace(c, f, -1, -1)
			require.NoError(t, err)
		}
	}
	require.NoError(t, ref.Evaluate(nodes, 2, unpaired))
	assert.Equal(t, ref.IPCoordinates.Data, v.IPCoordinates.Data)
	assert.Equal(t, ref.SurfaceRotationMatrices.Data, v.SurfaceRotationMatrices.Data)
}

func TestEndpointNormalOfCollapsedLine(t *testing.T) {
	nodes := cellNodes([][]float64{{3}, {3}})
	v := newValues(t, topology.LineTopology, 1, types.INT_Side, 1, 1)
	require.NoError(t, v.Evaluate(nodes, 1, nil))
	assert.Equal(t, 0., v.SurfaceNormals.At(0, 0, 0))
	assert.Equal(t, make([]float64, 9), v.SurfaceRotationMatrices.Slab(0, 0))

	fc := connectivity.NewFaceConnectivity(1, 2)
	for f := 0; f < 2; f++ {
		_, err := fc.AddFace(0, f, -1, -1)
		require.NoError(t, err)
	}
	s := newValues(t, topology.LineTopology, 1, types.INT_Surface, 1)
	require.NoError(t, s.Evaluate(nodes, 1, fc))
	assert.Equal(t, []float64{0, 0}, s.SurfaceNormals.Data)
	assert.Equal(t, []float64{0, 0}, s.WeightedNormals.Data)
}
