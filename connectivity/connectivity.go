package connectivity

import (
	"fmt"
)

/*
SubcellConnectivity relates the faces of a batch of cells to the cells on either side of them. Side 0 of a face is
the cell that first listed it, side 1 is its neighbour, and -1 marks a missing neighbour or an unused slot.
*/
type SubcellConnectivity interface {
	NumSubcells() int
	NumSubcellsOnCell(cell int) int
	SubcellForCell(cell, localSubcell int) int
	CellForSubcell(subcell, side int) int
	LocalSubcellForSubcell(subcell, side int) int
}

// VirtualCells is implemented by connectivities that know which of their cells are virtual (ghost mirror) cells
type VirtualCells interface {
	IsVirtual(cell int) bool
}

type FaceConnectivity struct {
	cellToFace  [][]int  // [cell][localFace] -> face, -1 when not connected to a face
	faceToCell  [][2]int // [face][side] -> cell
	faceToLocal [][2]int // [face][side] -> local face index within the cell
	virtual     []bool   // [cell]
}

// NewFaceConnectivity creates a connectivity for numCells cells with facesPerCell faces each, all unconnected
func NewFaceConnectivity(numCells, facesPerCell int) (fc *FaceConnectivity) {
	fc = &FaceConnectivity{
		cellToFace: make([][]int, numCells),
		virtual:    make([]bool, numCells),
	}
	for c := range fc.cellToFace {
		fc.cellToFace[c] = make([]int, facesPerCell)
		for f := range fc.cellToFace[c] {
			fc.cellToFace[c][f] = -1
		}
	}
	return
}

/*
AddFace registers a face between (cell0, local0) and (cell1, local1), cell1 = -1 for a boundary face.
Returns the new face index.
*/
func (fc *FaceConnectivity) AddFace(cell0, local0, cell1, local1 int) (face int, err error) {
	if err = fc.checkSlot(cell0, local0); err != nil {
		return
	}
	if cell1 >= 0 {
		if err = fc.checkSlot(cell1, local1); err != nil {
			return
		}
	} else {
		cell1, local1 = -1, -1
	}
	face = len(fc.faceToCell)
	fc.faceToCell = append(fc.faceToCell, [2]int{cell0, cell1})
	fc.faceToLocal = append(fc.faceToLocal, [2]int{local0, local1})
	fc.cellToFace[cell0][local0] = face
	if cell1 >= 0 {
		fc.cellToFace[cell1][local1] = face
	}
	return
}

func (fc *FaceConnectivity) checkSlot(cell, local int) error {
	switch {
	case cell < 0 || cell >= len(fc.cellToFace):
		return fmt.Errorf("cell %d out of range [0,%d)", cell, len(fc.cellToFace))
	case local < 0 || local >= len(fc.cellToFace[cell]):
		return fmt.Errorf("local face %d out of range for cell %d", local, cell)
	case fc.cellToFace[cell][local] >= 0:
		return fmt.Errorf("local face %d of cell %d already belongs to face %d", local, cell, fc.cellToFace[cell][local])
	}
	return nil
}

func (fc *FaceConnectivity) SetVirtual(cell int, virtual bool) { fc.virtual[cell] = virtual }

func (fc *FaceConnectivity) IsVirtual(cell int) bool {
	if cell < 0 || cell >= len(fc.virtual) {
		return false
	}
	return fc.virtual[cell]
}

func (fc *FaceConnectivity) NumCells() int { return len(fc.cellToFace) }

func (fc *FaceConnectivity) NumSubcells() int { return len(fc.faceToCell) }

func (fc *FaceConnectivity) NumSubcellsOnCell(cell int) int { return len(fc.cellToFace[cell]) }

func (fc *FaceConnectivity) SubcellForCell(cell, localSubcell int) int {
	return fc.cellToFace[cell][localSubcell]
}

func (fc *FaceConnectivity) CellForSubcell(subcell, side int) int {
	return fc.faceToCell[subcell][side]
}

func (fc *FaceConnectivity) LocalSubcellForSubcell(subcell, side int) int {
	return fc.faceToLocal[subcell][side]
}
