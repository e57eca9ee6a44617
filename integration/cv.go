package integration

import (
	"fmt"
	"log/slog"

	"github.com/notargets/quadgeom/cubature"
	"github.com/notargets/quadgeom/mapping"
	"github.com/notargets/quadgeom/measure"
	"github.com/notargets/quadgeom/types"
	"github.com/notargets/quadgeom/utils"
)

/*
evaluateValuesCV builds the control volume cubature from the physical nodes, then recovers the reference coordinates
of the points by inverting the cell map and evaluates the Jacobian and metric there. Side rules carry area weighted
normals instead of a weighted measure.
*/
func (v *Values) evaluateValuesCV(nodes utils.Array, numCells int) (err error) {
	var (
		r  = v.Rule
		ct = r.Topology
	)
	v.copyNodes(nodes, numCells)
	if err = v.getCubatureCV(numCells); err != nil {
		return
	}
	v.IPCoordinates.DeepCopy(v.DynPhysCubPoints)
	switch r.Kind {
	case types.INT_CVSide:
		v.WeightedNormals.DeepCopy(v.DynPhysCubNorms)
	case types.INT_CVVolume, types.INT_CVBoundary:
		v.WeightedMeasure.DeepCopy(v.DynPhysCubWeights)
	}

	if err = mapping.MapToReferenceFrame(v.RefIPCoordinates, v.IPCoordinates, v.NodeCoordinates, ct, numCells); err != nil {
		return fmt.Errorf("control volume points of %s: %w", r.Name(), err)
	}
	mapping.SetJacobian(v.Jac, v.RefIPCoordinates, v.NodeCoordinates, ct, numCells)
	mapping.SetJacobianInv(v.JacInv, v.Jac, numCells)
	mapping.SetJacobianDet(v.JacDet, v.Jac, numCells)
	measure.MetricTensors(v.Covariant, v.Contravariant, v.NormContravariant, v.Jac, numCells)
	return
}

// getCubatureCV stages the physical control volume points with their weights or normals
func (v *Values) getCubatureCV(numCells int) (err error) {
	var (
		r                = v.Rule
		ct               = r.Topology
		points, wOrNorms utils.Array
		target           utils.Array
	)
	switch r.Kind {
	case types.INT_CVVolume:
		points, wOrNorms, err = cubature.ControlVolume(ct, v.DynNodeCoordinates, numCells)
		target = v.DynPhysCubWeights
	case types.INT_CVSide:
		points, wOrNorms, err = cubature.ControlVolumeSide(ct, v.DynNodeCoordinates, numCells)
		target = v.DynPhysCubNorms
	case types.INT_CVBoundary:
		if r.SpatialDimension == 1 {
			slog.Warn("control volume boundary of a 1D cell is its end node", "rule", r.Name())
		}
		points, wOrNorms, err = cubature.ControlVolumeBoundary(ct, v.DynNodeCoordinates, numCells, r.Side)
		target = v.DynPhysCubWeights
	default:
		panic(fmt.Errorf("%s is not a control volume rule", r.Kind))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	for c := 0; c < numCells; c++ {
		copy(v.DynPhysCubPoints.Slab(c), points.Slab(c))
		copy(target.Slab(c), wOrNorms.Slab(c))
	}
	return
}
