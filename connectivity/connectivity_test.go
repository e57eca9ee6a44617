package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceConnectivity(t *testing.T) {
	// Two triangles sharing their local faces 1 and 2
	fc := NewFaceConnectivity(2, 3)
	var sc SubcellConnectivity = fc
	for c := 0; c < 2; c++ {
		for f := 0; f < 3; f++ {
			assert.Equal(t, -1, sc.SubcellForCell(c, f))
		}
	}
	shared, err := fc.AddFace(0, 1, 1, 2)
	require.NoError(t, err)
	b0, err := fc.AddFace(0, 0, -1, -1)
	require.NoError(t, err)

	assert.Equal(t, 2, sc.NumSubcells())
	assert.Equal(t, 3, sc.NumSubcellsOnCell(1))
	assert.Equal(t, shared, sc.SubcellForCell(1, 2))
	assert.Equal(t, 0, sc.CellForSubcell(shared, 0))
	assert.Equal(t, 1, sc.CellForSubcell(shared, 1))
	assert.Equal(t, 1, sc.LocalSubcellForSubcell(shared, 0))
	assert.Equal(t, 2, sc.LocalSubcellForSubcell(shared, 1))
	assert.Equal(t, -1, sc.CellForSubcell(b0, 1))
	assert.Equal(t, -1, sc.LocalSubcellForSubcell(b0, 1))

	// A slot can only belong to one face
	_, err = fc.AddFace(1, 2, -1, -1)
	assert.Error(t, err)
	_, err = fc.AddFace(2, 0, -1, -1)
	assert.Error(t, err)
	_, err = fc.AddFace(0, 3, -1, -1)
	assert.Error(t, err)

	var vc VirtualCells = fc
	assert.False(t, vc.IsVirtual(1))
	fc.SetVirtual(1, true)
	assert.True(t, vc.IsVirtual(1))
	assert.False(t, vc.IsVirtual(-1))
}
