package integration

import (
	"fmt"

	"github.com/notargets/quadgeom/connectivity"
	"github.com/notargets/quadgeom/cubature"
	"github.com/notargets/quadgeom/mapping"
	"github.com/notargets/quadgeom/measure"
	"github.com/notargets/quadgeom/utils"
)

// checkFaces validates the connectivity against the rule before any geometry is computed
func (v *Values) checkFaces(faces connectivity.SubcellConnectivity, numCells int) error {
	r := v.Rule
	for f := 0; f < faces.NumSubcells(); f++ {
		for side := 0; side < 2; side++ {
			var (
				cell  = faces.CellForSubcell(f, side)
				local = faces.LocalSubcellForSubcell(f, side)
			)
			if cell < 0 && side == 1 {
				continue
			}
			switch {
			case cell < 0 || cell >= numCells:
				return fmt.Errorf("%w: face %d side %d refers to cell %d, have %d cells", ErrConfiguration, f, side, cell, numCells)
			case local < 0 || local >= r.NumFaces:
				return fmt.Errorf("%w: face %d side %d has local face %d, %s has %d faces",
					ErrConfiguration, f, side, local, r.Topology.Name(), r.NumFaces)
			}
		}
	}
	return nil
}

// faceValues is the geometry of one local face of every cell, later copied into the concatenated set
type faceValues struct {
	refPts               utils.Array // (Pf,D)
	phys, normals, scr   utils.Array // (C,Pf,D)
	jac, jacInv          utils.Array // (C,Pf,D,D)
	jacDet, wm           utils.Array // (C,Pf)
	offset, numFacePoint int
}

/*
generateSurfaceCubatureValues builds the surface rule one local face at a time: the face cubature is embedded in the
cell, mapped with the full cell map, measured with the edge or face measure and given an outward unit normal. The
faces are concatenated at running offsets, points are aligned across shared faces and the metric is computed over the
whole set.
*/
func (v *Values) generateSurfaceCubatureValues(nodes utils.Array, numCells int, faces connectivity.SubcellConnectivity) (err error) {
	var (
		r  = v.Rule
		ct = r.Topology
		D  = r.SpatialDimension
	)
	v.copyNodes(nodes, numCells)

	// Stage the face rules embedded in the cell reference frame
	for f := 0; f < r.NumFaces; f++ {
		var (
			cub = r.faceCub[f]
			off = r.PointOffset(f)
		)
		for p := 0; p < cub.NumPoints(); p++ {
			copy(v.DynSideCubPoints.Slab(off+p), cub.Points.Slab(p))
			ct.MapSideToCell(f, cub.Points.Slab(p), v.DynCubPoints.Slab(off+p))
			v.DynCubWeights.Data[off+p] = cub.Weights.Data[p]
		}
	}
	v.CubPoints.DeepCopy(v.DynCubPoints)
	v.SideCubPoints.DeepCopy(v.DynSideCubPoints)
	v.CubWeights.DeepCopy(v.DynCubWeights)

	for f := 0; f < r.NumFaces; f++ {
		fv := v.evaluateFace(f, r.faceCub[f], numCells)
		for c := 0; c < numCells; c++ {
			for p := 0; p < fv.numFacePoint; p++ {
				q := fv.offset + p
				copy(v.RefIPCoordinates.Slab(c, q), fv.refPts.Slab(p))
				copy(v.IPCoordinates.Slab(c, q), fv.phys.Slab(c, p))
				copy(v.Jac.Slab(c, q), fv.jac.Slab(c, p))
				copy(v.JacInv.Slab(c, q), fv.jacInv.Slab(c, p))
				v.JacDet.Set(fv.jacDet.At(c, p), c, q)
				v.WeightedMeasure.Set(fv.wm.At(c, p), c, q)
				copy(v.SurfaceNormals.Slab(c, q), fv.normals.Slab(c, p))
			}
		}
		if D == 1 {
			for c := 0; c < numCells; c++ {
				v.setEndpointNormal(c, fv.offset, ct.Sides[f][0])
			}
		}
	}
	if D > 1 {
		measure.SetRotationMatrices(v.SurfaceRotationMatrices, v.SurfaceNormals, numCells)
	}

	if r.PointsPerFace() != 1 {
		if err = v.alignSurfacePoints(faces); err != nil {
			return
		}
	}
	v.setWeightedNormals(numCells)
	measure.MetricTensors(v.Covariant, v.Contravariant, v.NormContravariant, v.Jac, numCells)
	return
}

// evaluateFace computes the geometry of local face f of every cell with the face cubature cub
func (v *Values) evaluateFace(f int, cub cubature.Rule, numCells int) (fv faceValues) {
	var (
		r  = v.Rule
		ct = r.Topology
		C  = r.WorksetSize
		D  = r.SpatialDimension
		Pf = cub.NumPoints()
	)
	fv = faceValues{
		refPts:       utils.NewArray("face_ref_points", Pf, D),
		phys:         utils.NewArray("face_ip_coordinates", C, Pf, D),
		normals:      utils.NewArray("face_normals", C, Pf, D),
		scr:          utils.NewArray("face_scratch", C, Pf, D),
		jac:          utils.NewArray("face_jac", C, Pf, D, D),
		jacInv:       utils.NewArray("face_jac_inv", C, Pf, D, D),
		jacDet:       utils.NewArray("face_jac_det", C, Pf),
		wm:           utils.NewArray("face_weighted_measure", C, Pf),
		offset:       r.PointOffset(f),
		numFacePoint: Pf,
	}
	for p := 0; p < Pf; p++ {
		copy(fv.refPts.Slab(p), v.CubPoints.Slab(fv.offset+p))
	}
	mapping.MapToPhysicalFrame(fv.phys, fv.refPts, v.NodeCoordinates, ct, numCells)
	mapping.SetJacobian(fv.jac, fv.refPts, v.NodeCoordinates, ct, numCells)
	mapping.SetJacobianInv(fv.jacInv, fv.jac, numCells)
	mapping.SetJacobianDet(fv.jacDet, fv.jac, numCells)

	switch D {
	case 1:
		for c := 0; c < numCells; c++ {
			for p := 0; p < Pf; p++ {
				fv.wm.Set(cub.Weights.Data[p], c, p)
			}
		}
		// Normals of 1D faces are set from the endpoint ordering by the caller
	case 2:
		measure.ComputeEdgeMeasure(fv.wm, fv.jac, cub.Weights, ct, f, fv.scr, numCells)
	case 3:
		measure.ComputeFaceMeasure(fv.wm, fv.jac, cub.Weights, ct, f, fv.scr, numCells)
	}
	if D > 1 {
		measure.PhysicalSideNormals(fv.normals, fv.jac, ct, f, numCells)
		measure.NormalizeNormals(fv.normals, numCells)
	}
	return
}
