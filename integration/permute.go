package integration

import (
	"fmt"

	"github.com/notargets/quadgeom/utils"
)

/*
swapSequence turns a point order, order[i] = destination of point i, into the pairwise swaps that realise it. The
order is validated and copied first, nothing is swapped for an invalid order.
*/
func swapSequence(order []int) (swaps [][2]int, err error) {
	var (
		seen = make([]bool, len(order))
		ord  = make([]int, len(order))
	)
	for i, j := range order {
		if j < 0 || j >= len(order) || seen[j] {
			return nil, fmt.Errorf("point order %v is not a permutation", order)
		}
		seen[j] = true
		ord[i] = j
	}
	for i := range ord {
		for ord[i] != i {
			j := ord[i]
			swaps = append(swaps, [2]int{i, j})
			ord[i], ord[j] = ord[j], ord[i]
		}
	}
	return
}

// permutePoints moves point offset+i of cell to offset+order[i] in every (C,P,...) array
func permutePoints(cell, offset int, order []int, arrays ...utils.Array) (err error) {
	var swaps [][2]int
	if swaps, err = swapSequence(order); err != nil {
		return
	}
	for _, sw := range swaps {
		for _, A := range arrays {
			A.SwapPoints(cell, offset+sw[0], offset+sw[1])
		}
	}
	return
}

// permuteRows moves row offset+i to offset+order[i] in every (P,...) array
func permuteRows(offset int, order []int, arrays ...utils.Array) (err error) {
	var swaps [][2]int
	if swaps, err = swapSequence(order); err != nil {
		return
	}
	for _, sw := range swaps {
		for _, A := range arrays {
			A.SwapRows(offset+sw[0], offset+sw[1])
		}
	}
	return
}
