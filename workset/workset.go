package workset

import (
	"fmt"

	"github.com/notargets/quadgeom/integration"
	"github.com/notargets/quadgeom/measure"
	"github.com/notargets/quadgeom/types"
)

type Options struct {
	SideAssembly    bool // Every rule lives on Side
	AlignSidePoints bool // Side points are matched across faces, not available with SideAssembly
	Side            int
}

/*
Workset evaluates integration rules on a LocalMeshPartition and keeps every rule and value set it built, keyed by the
descriptor. A Workset is not safe for concurrent use.
*/
type Workset struct {
	Partition *LocalMeshPartition
	Options   Options
	rules     map[uint64]*integration.Rule
	values    map[uint64]*integration.Values
}

func New(p *LocalMeshPartition, opts Options) (ws *Workset, err error) {
	if opts.SideAssembly && opts.AlignSidePoints {
		return nil, fmt.Errorf("%w: side points cannot be aligned in a side assembly workset", integration.ErrConfiguration)
	}
	if opts.SideAssembly && (opts.Side < 0 || opts.Side >= p.Topology.SideCount()) {
		return nil, fmt.Errorf("%w: side %d out of range for %s", integration.ErrConfiguration, opts.Side, p.Topology.Name())
	}
	ws = &Workset{
		Partition: p,
		Options:   opts,
		rules:     make(map[uint64]*integration.Rule),
		values:    make(map[uint64]*integration.Values),
	}
	return
}

func (ws *Workset) NumCells() int { return ws.Partition.NumCells() }

// GetIntegrationRule resolves the descriptor for every cell of the workset, the rule is built once per descriptor
func (ws *Workset) GetIntegrationRule(desc integration.Descriptor) (r *integration.Rule, err error) {
	key := desc.Key()
	if r = ws.rules[key]; r != nil {
		return
	}
	if ws.Options.SideAssembly && desc.Side != ws.Options.Side {
		return nil, fmt.Errorf("%w: integration values for side %d requested from a workset built for side %d",
			integration.ErrConfiguration, desc.Side, ws.Options.Side)
	}
	if r, err = integration.NewRule(desc, ws.Partition.Topology, ws.NumCells(), 0); err != nil {
		return nil, err
	}
	ws.rules[key] = r
	return
}

/*
GetIntegrationValues evaluates the descriptor on the workset cells, the values are built once per descriptor. Surface
values of virtual cells are corrected to face their real neighbour.
*/
func (ws *Workset) GetIntegrationValues(desc integration.Descriptor) (iv *integration.Values, err error) {
	key := desc.Key()
	if iv = ws.values[key]; iv != nil {
		return
	}
	var r *integration.Rule
	if r, err = ws.GetIntegrationRule(desc); err != nil {
		return
	}
	iv = integration.NewValues(r)
	if err = iv.Evaluate(ws.Partition.Vertices, ws.NumCells(), ws.Partition.Faces); err != nil {
		return nil, err
	}
	if r.Kind == types.INT_Surface {
		ws.correctVirtualNormals(iv)
	}
	ws.values[key] = iv
	return
}

/*
correctVirtualNormals gives the face a virtual cell shares with its real cell the negated normals of the real cell,
point by point, and zeroes the normals of its other faces.
*/
func (ws *Workset) correctVirtualNormals(iv *integration.Values) {
	var (
		p      = ws.Partition
		faces  = p.Faces
		r      = iv.Rule
		D      = r.SpatialDimension
		nFaces = r.NumFaces
		ppf    = r.PointsPerFace()
	)
	for vc := p.NumOwnedCells; vc < p.NumCells(); vc++ {
		var vLocal, face = -1, -1
		for f := 0; f < nFaces; f++ {
			if face = faces.SubcellForCell(vc, f); face >= 0 {
				vLocal = f
				break
			}
		}
		if vLocal < 0 {
			continue
		}
		realSide := 0
		if faces.CellForSubcell(face, 0) == vc {
			realSide = 1
		}
		var (
			realCell  = faces.CellForSubcell(face, realSide)
			realLocal = faces.LocalSubcellForSubcell(face, realSide)
		)
		for f := 0; f < nFaces; f++ {
			for i := 0; i < ppf; i++ {
				var (
					pv = r.PointOffset(f) + i
					n  = iv.SurfaceNormals.Slab(vc, pv)
					wn = iv.WeightedNormals.Slab(vc, pv)
					n3 [3]float64
				)
				if f == vLocal {
					nr := iv.SurfaceNormals.Slab(realCell, r.PointOffset(realLocal)+i)
					for d := 0; d < D; d++ {
						n[d] = -nr[d]
						n3[d] = n[d]
					}
					measure.SetRotationMatrix(iv.SurfaceRotationMatrices, vc, pv, n3)
				} else {
					for d := range n {
						n[d] = 0
					}
					rot := iv.SurfaceRotationMatrices.Slab(vc, pv)
					for k := range rot {
						rot[k] = 0
					}
				}
				wm := iv.WeightedMeasure.At(vc, pv)
				for d := range wn {
					wn[d] = wm * n[d]
				}
			}
		}
	}
}
