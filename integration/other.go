package integration

import (
	"fmt"

	"github.com/notargets/quadgeom/types"
	"github.com/notargets/quadgeom/utils"
)

/*
EvaluateWithOther evaluates the rule and then reorders its points so that point i lies at other(c,i,:), the integration
point coordinates (C,P,D) of another evaluation of the same points. The order is found on cell 0 and applied to every
cell.
*/
func (v *Values) EvaluateWithOther(nodes, other utils.Array, numCells int) (err error) {
	r := v.Rule
	switch r.Kind {
	case types.INT_Surface:
		return fmt.Errorf("%w: surface rules are ordered by face alignment, not against another rule", ErrConfiguration)
	case types.INT_None:
		return fmt.Errorf("%w: integration kind NONE cannot be evaluated", ErrConfiguration)
	}
	if other.Rank() != 3 || other.Extent(1) != r.NumPoints || other.Extent(2) != r.SpatialDimension || other.Extent(0) < 1 {
		return fmt.Errorf("%w: other point coordinates %v do not match %s", ErrConfiguration, other.Dims(), r.Name())
	}
	if err = v.Evaluate(nodes, numCells, nil); err != nil {
		return
	}
	if v.numCells == 0 {
		return
	}
	v.valid = false
	order := matchToOther(v.IPCoordinates, other)
	for c := 0; c < v.numCells; c++ {
		if err = permutePoints(c, 0, order, v.pointArrays()...); err != nil {
			return
		}
	}
	if err = permuteRows(0, order, v.DynCubPoints, v.DynSideCubPoints, v.DynCubWeights,
		v.CubPoints, v.SideCubPoints, v.CubWeights); err != nil {
		return
	}
	v.valid = true
	return
}

/*
matchToOther assigns each point of cell 0 to the nearest point of other that is not yet taken, in point order.
order[i] is the index in other of point i.
*/
func matchToOther(coords, other utils.Array) (order []int) {
	var (
		P     = coords.Extent(1)
		taken = make([]bool, P)
	)
	order = make([]int, P)
	for p := 0; p < P; p++ {
		var (
			x    = coords.Slab(0, p)
			iMin = -1
			dMin float64
		)
		for q := 0; q < P; q++ {
			if taken[q] {
				continue
			}
			var (
				y = other.Slab(0, q)
				d float64
			)
			for k := range x {
				d += (x[k] - y[k]) * (x[k] - y[k])
			}
			if iMin < 0 || d < dMin {
				iMin, dMin = q, d
			}
		}
		order[p] = iMin
		taken[iMin] = true
	}
	return
}

// pointArrays are all (C,P,...) arrays, staging and working
func (v *Values) pointArrays() []utils.Array {
	return append(v.perCellArrays(),
		v.WeightedNormals, v.Covariant, v.Contravariant, v.NormContravariant,
		v.DynPhysCubPoints, v.DynPhysCubWeights, v.DynPhysCubNorms,
	)
}
