package integration

import (
	"fmt"
	"log/slog"

	"github.com/notargets/quadgeom/connectivity"
	"github.com/notargets/quadgeom/mapping"
	"github.com/notargets/quadgeom/measure"
	"github.com/notargets/quadgeom/types"
	"github.com/notargets/quadgeom/utils"
)

/*
Evaluate computes the geometry of the rule for the first numCells cells of nodes (C,N,D), numCells < 0 takes every
cell of nodes. Surface rules need the face connectivity of the cells to align points across shared faces, the other
kinds ignore it. On error the value set is left invalid.
*/
func (v *Values) Evaluate(nodes utils.Array, numCells int, faces connectivity.SubcellConnectivity) (err error) {
	v.valid = false
	if numCells, err = v.checkInputs(nodes, numCells); err != nil {
		return
	}
	r := v.Rule
	switch r.Kind {
	case types.INT_Surface:
		if faces == nil {
			return fmt.Errorf("%w: surface integration requires the face connectivity", ErrConfiguration)
		}
		if err = v.checkFaces(faces, numCells); err != nil {
			return
		}
		err = v.generateSurfaceCubatureValues(nodes, numCells, faces)
	case types.INT_CVVolume, types.INT_CVSide, types.INT_CVBoundary:
		err = v.evaluateValuesCV(nodes, numCells)
	case types.INT_Volume, types.INT_Side:
		if r.IsSide() && r.SpatialDimension == 1 {
			v.evaluateNodeRule(nodes, numCells)
			break
		}
		v.getCubature()
		v.evaluateRemainingValues(nodes, numCells)
	default:
		panic(fmt.Errorf("unhandled integration kind %s", r.Kind))
	}
	if err != nil {
		return
	}
	v.numCells = numCells
	v.valid = true
	return
}

func (v *Values) checkInputs(nodes utils.Array, numCells int) (nc int, err error) {
	r := v.Rule
	if nodes.Rank() != 3 || nodes.Extent(1) != r.Topology.NodeCount() || nodes.Extent(2) != r.SpatialDimension {
		err = fmt.Errorf("%w: node coordinates %v do not describe %s cells", ErrConfiguration, nodes.Dims(), r.Topology.Name())
		return
	}
	nc = numCells
	if nc < 0 {
		nc = nodes.Extent(0)
	}
	switch {
	case nc > nodes.Extent(0):
		err = fmt.Errorf("%w: %d cells requested, node coordinates hold %d", ErrConfiguration, nc, nodes.Extent(0))
	case nc > r.WorksetSize:
		err = fmt.Errorf("%w: %d cells exceed the workset size %d of %s", ErrConfiguration, nc, r.WorksetSize, r.Name())
	}
	return
}

// getCubature stages the reference rule, side rules are embedded into the cell reference frame
func (v *Values) getCubature() {
	var (
		r   = v.Rule
		cub = r.cub
	)
	v.DynCubWeights.DeepCopy(cub.Weights)
	if r.IsSide() {
		v.DynSideCubPoints.DeepCopy(cub.Points)
		for p := 0; p < r.NumPoints; p++ {
			r.Topology.MapSideToCell(r.Side, v.DynSideCubPoints.Slab(p), v.DynCubPoints.Slab(p))
		}
	} else {
		v.DynCubPoints.DeepCopy(cub.Points)
	}
	v.CubPoints.DeepCopy(v.DynCubPoints)
	v.SideCubPoints.DeepCopy(v.DynSideCubPoints)
	v.CubWeights.DeepCopy(v.DynCubWeights)
}

// evaluateRemainingValues derives the geometry of volume and side rules from the staged reference rule
func (v *Values) evaluateRemainingValues(nodes utils.Array, numCells int) {
	var (
		r  = v.Rule
		ct = r.Topology
	)
	v.copyNodes(nodes, numCells)
	mapping.MapToPhysicalFrame(v.IPCoordinates, v.CubPoints, v.NodeCoordinates, ct, numCells)
	for c := 0; c < numCells; c++ {
		copy(v.RefIPCoordinates.Slab(c), v.CubPoints.Data)
	}
	mapping.SetJacobian(v.Jac, v.CubPoints, v.NodeCoordinates, ct, numCells)
	mapping.SetJacobianInv(v.JacInv, v.Jac, numCells)
	mapping.SetJacobianDet(v.JacDet, v.Jac, numCells)

	if !r.IsSide() {
		measure.ComputeCellMeasure(v.WeightedMeasure, v.JacDet, v.CubWeights, numCells)
	} else {
		switch r.SpatialDimension {
		case 2:
			measure.ComputeEdgeMeasure(v.WeightedMeasure, v.Jac, v.CubWeights, ct, r.Side, v.scratchForSideMeasure, numCells)
		case 3:
			measure.ComputeFaceMeasure(v.WeightedMeasure, v.Jac, v.CubWeights, ct, r.Side, v.scratchForSideMeasure, numCells)
		}
		measure.PhysicalSideNormals(v.SurfaceNormals, v.Jac, ct, r.Side, numCells)
		measure.NormalizeNormals(v.SurfaceNormals, numCells)
		measure.SetRotationMatrices(v.SurfaceRotationMatrices, v.SurfaceNormals, numCells)
		v.setWeightedNormals(numCells)
	}
	measure.MetricTensors(v.Covariant, v.Contravariant, v.NormContravariant, v.Jac, numCells)
}

/*
evaluateNodeRule handles a side of a 1D cell, a single point with unit weight. Only the point, its weight and its
outward normal are set, there is no Jacobian of a 0-D side.
*/
func (v *Values) evaluateNodeRule(nodes utils.Array, numCells int) {
	var (
		r    = v.Rule
		ct   = r.Topology
		node = ct.Sides[r.Side][0]
	)
	slog.Warn("0-D quadrature rule infrastructure does not exist, non-natural integration rules are not available",
		"rule", r.Name())
	v.DynCubWeights.Data[0] = 1
	copy(v.DynCubPoints.Slab(0), ct.Vertices[node])
	v.CubPoints.DeepCopy(v.DynCubPoints)
	v.CubWeights.DeepCopy(v.DynCubWeights)
	v.copyNodes(nodes, numCells)
	for c := 0; c < numCells; c++ {
		v.IPCoordinates.Set(v.NodeCoordinates.At(c, node, 0), c, 0, 0)
		v.RefIPCoordinates.Set(ct.Vertices[node][0], c, 0, 0)
		v.WeightedMeasure.Set(1, c, 0)
		v.setEndpointNormal(c, 0, node)
	}
	v.setWeightedNormals(numCells)
}

// setEndpointNormal sets the outward normal and frame at point p of a 1D cell whose side is the node, zero for a
// zero length cell
func (v *Values) setEndpointNormal(c, p, node int) {
	var (
		xn   = v.NodeCoordinates.At(c, node, 0)
		xo   = v.NodeCoordinates.At(c, 1-node, 0)
		sign = 0.
	)
	switch {
	case xn > xo:
		sign = 1
	case xn < xo:
		sign = -1
	}
	v.SurfaceNormals.Set(sign, c, p, 0)
	measure.SetRotationMatrix(v.SurfaceRotationMatrices, c, p, [3]float64{sign, 0, 0})
}

// setWeightedNormals scales the unit normals by the weighted measure
func (v *Values) setWeightedNormals(numCells int) {
	var (
		P = v.Rule.NumPoints
	)
	utils.ParallelFor(numCells, func(kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for p := 0; p < P; p++ {
				var (
					n  = v.SurfaceNormals.Slab(c, p)
					wn = v.WeightedNormals.Slab(c, p)
					wm = v.WeightedMeasure.At(c, p)
				)
				for d := range n {
					wn[d] = wm * n[d]
				}
			}
		}
	})
}
