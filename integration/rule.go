package integration

import (
	"fmt"

	"github.com/notargets/quadgeom/cubature"
	"github.com/notargets/quadgeom/topology"
	"github.com/notargets/quadgeom/types"
)

// Rule is a Descriptor resolved against a cell topology and a workset size
type Rule struct {
	Descriptor
	Topology         *topology.CellTopology
	SideTopology     *topology.CellTopology // nil unless the rule lives on one side
	SpatialDimension int
	WorksetSize      int
	NumPoints        int
	NumFaces         int   // faces per cell for surface rules
	pointOffsets     []int // surface rules, first point of each face, NumFaces+1 entries
	cub              cubature.Rule
	faceCub          []cubature.Rule
}

/*
NewRule resolves the descriptor for worksetSize cells of topology ct. numFaces is the face count a surface rule is
built for, zero takes the side count of ct, any other value must agree with it.
*/
func NewRule(desc Descriptor, ct *topology.CellTopology, worksetSize, numFaces int) (r *Rule, err error) {
	if err = desc.Validate(); err != nil {
		return
	}
	if ct == nil || ct.Dim < 1 {
		err = fmt.Errorf("%w: integration rules need a cell topology of dimension >= 1", ErrConfiguration)
		return
	}
	if worksetSize < 0 {
		err = fmt.Errorf("%w: negative workset size %d", ErrConfiguration, worksetSize)
		return
	}
	r = &Rule{
		Descriptor:       desc,
		Topology:         ct,
		SpatialDimension: ct.Dim,
		WorksetSize:      worksetSize,
	}
	if desc.Kind.HasSide() {
		if desc.Side >= ct.SideCount() {
			err = fmt.Errorf("%w: side %d out of range for %s with %d sides", ErrConfiguration, desc.Side, ct.Name(), ct.SideCount())
			return nil, err
		}
		r.SideTopology = ct.SideTopology(desc.Side)
	}
	switch desc.Kind {
	case types.INT_Volume, types.INT_Side:
		if r.cub, err = resolveCubature(r); err != nil {
			return nil, err
		}
		r.NumPoints = r.cub.NumPoints()
	case types.INT_Surface:
		if numFaces != 0 && numFaces != ct.SideCount() {
			err = fmt.Errorf("%w: surface rule for %d faces on %s with %d sides", ErrConfiguration, numFaces, ct.Name(), ct.SideCount())
			return nil, err
		}
		if err = r.setupFaces(); err != nil {
			return nil, err
		}
	case types.INT_CVVolume, types.INT_CVSide:
		r.NumPoints = cubature.NumControlVolumePoints(ct, desc.Kind == types.INT_CVSide)
	case types.INT_CVBoundary:
		r.NumPoints = len(ct.Sides[desc.Side])
	}
	return
}

// setupFaces resolves one face-local cubature per side, 1D cells get the single endpoint rule
func (r *Rule) setupFaces() (err error) {
	ct := r.Topology
	r.NumFaces = ct.SideCount()
	r.faceCub = make([]cubature.Rule, r.NumFaces)
	r.pointOffsets = make([]int, r.NumFaces+1)
	for f := 0; f < r.NumFaces; f++ {
		if ct.Dim == 1 {
			r.faceCub[f] = cubature.NodeRule()
		} else if r.faceCub[f], err = cubature.Default(ct.SideTopology(f), r.Order); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		r.pointOffsets[f+1] = r.pointOffsets[f] + r.faceCub[f].NumPoints()
	}
	r.NumPoints = r.pointOffsets[r.NumFaces]
	return
}

// resolveCubature builds the reference rule of volume and side kinds, surface rules have no single reference rule
func resolveCubature(r *Rule) (cub cubature.Rule, err error) {
	switch r.Kind {
	case types.INT_Volume:
		cub, err = cubature.Default(r.Topology, r.Order)
	case types.INT_Side:
		if r.SpatialDimension == 1 {
			return cubature.NodeRule(), nil
		}
		cub, err = cubature.Default(r.SideTopology, r.Order)
	case types.INT_Surface:
		err = fmt.Errorf("surface rules are assembled face by face")
	case types.INT_CVVolume, types.INT_CVSide, types.INT_CVBoundary:
		err = fmt.Errorf("control volume points depend on the physical cell")
	case types.INT_None:
		err = fmt.Errorf("no cubature for kind NONE")
	}
	if err != nil {
		err = fmt.Errorf("%w: %s on %s: %v", ErrConfiguration, r.Descriptor, r.Topology.Name(), err)
	}
	return
}

// IsSide reports whether the rule lives on a single side of the cell
func (r *Rule) IsSide() bool { return r.Kind.HasSide() }

// PointOffset is the first point of face f in a surface rule, PointOffset(NumFaces) is NumPoints
func (r *Rule) PointOffset(f int) int { return r.pointOffsets[f] }

// PointsPerFace assumes every face carries the same number of points
func (r *Rule) PointsPerFace() int {
	if r.NumFaces == 0 {
		return 0
	}
	return r.NumPoints / r.NumFaces
}

func (r *Rule) Name() string {
	return fmt.Sprintf("CubaturePoints %s on %s", r.Descriptor, r.Topology.Name())
}
