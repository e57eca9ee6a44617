package integration

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/quadgeom/utils"
)

/*
Values holds the geometry of a Rule at every integration point of a workset. Arrays are indexed
(cell, point[, dim[, dim]]) with C = WorksetSize, P = NumPoints, N = node count and D = spatial dimension.

The Dyn arrays are the float64 staging buffers written by cubature construction. The working arrays are
filled from them with an explicit DeepCopy before any geometry is derived.
*/
type Values struct {
	Rule *Rule

	DynCubPoints       utils.Array // (P,D)
	DynSideCubPoints   utils.Array // (P,D-1)
	DynCubWeights      utils.Array // (P)
	DynNodeCoordinates utils.Array // (C,N,D)
	DynPhysCubPoints   utils.Array // (C,P,D), control volume rules
	DynPhysCubWeights  utils.Array // (C,P), control volume rules
	DynPhysCubNorms    utils.Array // (C,P,D), control volume side rules

	CubPoints               utils.Array // (P,D)
	SideCubPoints           utils.Array // (P,D-1)
	CubWeights              utils.Array // (P)
	NodeCoordinates         utils.Array // (C,N,D)
	Jac                     utils.Array // (C,P,D,D)
	JacInv                  utils.Array // (C,P,D,D)
	JacDet                  utils.Array // (C,P)
	IPCoordinates           utils.Array // (C,P,D)
	RefIPCoordinates        utils.Array // (C,P,D)
	WeightedMeasure         utils.Array // (C,P)
	WeightedNormals         utils.Array // (C,P,D)
	Covariant               utils.Array // (C,P,D,D)
	Contravariant           utils.Array // (C,P,D,D)
	NormContravariant       utils.Array // (C,P)
	SurfaceNormals          utils.Array // (C,P,D)
	SurfaceRotationMatrices utils.Array // (C,P,3,3)

	scratchForSideMeasure utils.Array // (C,P,D)
	numCells              int
	valid                 bool
}

// NewValues allocates the arrays of rule, nothing is computed until Evaluate
func NewValues(rule *Rule) (v *Values) {
	var (
		C = rule.WorksetSize
		P = rule.NumPoints
		N = rule.Topology.NodeCount()
		D = rule.SpatialDimension
	)
	v = &Values{
		Rule:                    rule,
		DynCubPoints:            utils.NewArray("dyn_cub_points", P, D),
		DynSideCubPoints:        utils.NewArray("dyn_side_cub_points", P, D-1),
		DynCubWeights:           utils.NewArray("dyn_cub_weights", P),
		DynNodeCoordinates:      utils.NewArray("dyn_node_coordinates", C, N, D),
		DynPhysCubPoints:        utils.NewArray("dyn_phys_cub_points", C, P, D),
		DynPhysCubWeights:       utils.NewArray("dyn_phys_cub_weights", C, P),
		DynPhysCubNorms:         utils.NewArray("dyn_phys_cub_norms", C, P, D),
		CubPoints:               utils.NewArray("cub_points", P, D),
		SideCubPoints:           utils.NewArray("side_cub_points", P, D-1),
		CubWeights:              utils.NewArray("cub_weights", P),
		NodeCoordinates:         utils.NewArray("node_coordinates", C, N, D),
		Jac:                     utils.NewArray("jac", C, P, D, D),
		JacInv:                  utils.NewArray("jac_inv", C, P, D, D),
		JacDet:                  utils.NewArray("jac_det", C, P),
		IPCoordinates:           utils.NewArray("ip_coordinates", C, P, D),
		RefIPCoordinates:        utils.NewArray("ref_ip_coordinates", C, P, D),
		WeightedMeasure:         utils.NewArray("weighted_measure", C, P),
		WeightedNormals:         utils.NewArray("weighted_normals", C, P, D),
		Covariant:               utils.NewArray("covariant", C, P, D, D),
		Contravariant:           utils.NewArray("contravariant", C, P, D, D),
		NormContravariant:       utils.NewArray("norm_contravariant", C, P),
		SurfaceNormals:          utils.NewArray("surface_normals", C, P, D),
		SurfaceRotationMatrices: utils.NewArray("surface_rotation_matrices", C, P, 3, 3),
		scratchForSideMeasure:   utils.NewArray("scratch_for_side_measure", C, P, D),
	}
	return
}

// Valid is true after a successful Evaluate, arrays of an invalid set must not be read
func (v *Values) Valid() bool { return v.valid }

// NumCells is the number of cells filled by the last Evaluate
func (v *Values) NumCells() int { return v.numCells }

// perCellArrays are the (C,P,...) arrays that travel with a point when points are reordered
func (v *Values) perCellArrays() []utils.Array {
	return []utils.Array{
		v.RefIPCoordinates, v.IPCoordinates, v.WeightedMeasure, v.Jac, v.JacDet, v.JacInv,
		v.SurfaceNormals, v.SurfaceRotationMatrices,
	}
}

// copyNodes stages the node coordinates of the first numCells cells and copies them to the working array
func (v *Values) copyNodes(nodes utils.Array, numCells int) {
	for c := 0; c < numCells; c++ {
		copy(v.DynNodeCoordinates.Slab(c), nodes.Slab(c))
	}
	v.NodeCoordinates.DeepCopy(v.DynNodeCoordinates)
}

// TotalMeasure sums the weighted measure over the evaluated cells
func (v *Values) TotalMeasure() (sum float64) {
	for c := 0; c < v.numCells; c++ {
		sum += floats.Sum(v.WeightedMeasure.Slab(c))
	}
	return
}
