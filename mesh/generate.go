package mesh

import (
	"fmt"
	"math"
)

// NewLineMesh divides [x0,x1] into n elements
func NewLineMesh(n int, x0, x1 float64) (m *Mesh, err error) {
	if n < 1 || !(x1 > x0) {
		return nil, fmt.Errorf("line mesh needs n >= 1 and x1 > x0, got n=%d [%g,%g]", n, x0, x1)
	}
	m = NewMesh()
	m.Dim = 1
	for i := 0; i <= n; i++ {
		m.Vertices = append(m.Vertices, []float64{x0 + (x1-x0)*float64(i)/float64(n)})
	}
	for i := 0; i < n; i++ {
		m.addElement(Line, i, i+1)
	}
	return finishMesh(m)
}

/*
NewRectMesh divides the rectangle bounds = {x0,x1,y0,y1} into nx by ny quadrilaterals, or into two triangles per
quadrilateral when triangles is set. The triangles split each cell along its (x0,y0)-(x1,y1) diagonal.
*/
func NewRectMesh(nx, ny int, bounds [4]float64, triangles bool) (m *Mesh, err error) {
	if nx < 1 || ny < 1 || !(bounds[1] > bounds[0]) || !(bounds[3] > bounds[2]) {
		return nil, fmt.Errorf("rect mesh needs nx, ny >= 1 and positive extents, got %dx%d %v", nx, ny, bounds)
	}
	m = NewMesh()
	m.Dim = 2
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices = append(m.Vertices, []float64{
				bounds[0] + (bounds[1]-bounds[0])*float64(i)/float64(nx),
				bounds[2] + (bounds[3]-bounds[2])*float64(j)/float64(ny),
			})
		}
	}
	vtx := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var (
				v00, v10 = vtx(i, j), vtx(i+1, j)
				v11, v01 = vtx(i+1, j+1), vtx(i, j+1)
			)
			if triangles {
				m.addElement(Triangle, v00, v10, v11)
				m.addElement(Triangle, v00, v11, v01)
			} else {
				m.addElement(Quad, v00, v10, v11, v01)
			}
		}
	}
	return finishMesh(m)
}

/*
NewBoxMesh divides the box bounds = {x0,x1,y0,y1,z0,z1} into nx by ny by nz hexahedra, or into six tetrahedra per
hexahedron around its (x0,y0,z0)-(x1,y1,z1) diagonal when tets is set. The diagonal split is the same in every
hexahedron so the tetrahedral faces match across hexahedra.
*/
func NewBoxMesh(nx, ny, nz int, bounds [6]float64, tets bool) (m *Mesh, err error) {
	if nx < 1 || ny < 1 || nz < 1 ||
		!(bounds[1] > bounds[0]) || !(bounds[3] > bounds[2]) || !(bounds[5] > bounds[4]) {
		return nil, fmt.Errorf("box mesh needs nx, ny, nz >= 1 and positive extents, got %dx%dx%d %v",
			nx, ny, nz, bounds)
	}
	m = NewMesh()
	m.Dim = 3
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				m.Vertices = append(m.Vertices, []float64{
					bounds[0] + (bounds[1]-bounds[0])*float64(i)/float64(nx),
					bounds[2] + (bounds[3]-bounds[2])*float64(j)/float64(ny),
					bounds[4] + (bounds[5]-bounds[4])*float64(k)/float64(nz),
				})
			}
		}
	}
	vtx := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	// Paths from corner (0,0,0) to (1,1,1) along the axes, one tetrahedron each
	axisOrders := [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if !tets {
					m.addElement(Hex,
						vtx(i, j, k), vtx(i+1, j, k), vtx(i+1, j+1, k), vtx(i, j+1, k),
						vtx(i, j, k+1), vtx(i+1, j, k+1), vtx(i+1, j+1, k+1), vtx(i, j+1, k+1))
					continue
				}
				for _, order := range axisOrders {
					var (
						corner = [3]int{i, j, k}
						verts  = []int{vtx(i, j, k)}
					)
					for _, axis := range order {
						corner[axis]++
						verts = append(verts, vtx(corner[0], corner[1], corner[2]))
					}
					m.addElement(Tet, verts...)
				}
			}
		}
	}
	return finishMesh(m)
}

func (m *Mesh) addElement(et ElementType, verts ...int) {
	m.Elements = append(m.Elements, verts)
	m.ElementTypes = append(m.ElementTypes, et)
	m.ElementTags = append(m.ElementTags, 0)
}

/*
PeriodicX connects each boundary face lying on the plane x = x0 with the boundary face on x = x1 that is its
translate along x. Every boundary face on either plane must find its partner.
*/
func (m *Mesh) PeriodicX(x0, x1 float64) (pairs int, err error) {
	var (
		tol         = 1.e-10 * math.Max(1, math.Abs(x1-x0))
		left, right []int
	)
	onPlane := func(f Face, x float64) bool {
		for _, v := range f.Vertices {
			if math.Abs(m.Vertices[v][0]-x) > tol {
				return false
			}
		}
		return true
	}
	for i, f := range m.Faces {
		if f.Neighbor != -1 {
			continue
		}
		switch {
		case onPlane(f, x0):
			left = append(left, i)
		case onPlane(f, x1):
			right = append(right, i)
		}
	}
	if len(left) != len(right) {
		return 0, fmt.Errorf("%d boundary faces on x=%g but %d on x=%g", len(left), x0, len(right), x1)
	}
	translate := func(a, b Face) bool {
		for _, va := range a.Vertices {
			found := false
			for _, vb := range b.Vertices {
				same := true
				for d := 1; d < m.Dim; d++ {
					if math.Abs(m.Vertices[va][d]-m.Vertices[vb][d]) > tol {
						same = false
						break
					}
				}
				if same {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	taken := make([]bool, len(right))
	for _, l := range left {
		fl := m.Faces[l]
		match := -1
		for ir, r := range right {
			if !taken[ir] && translate(fl, m.Faces[r]) {
				match = ir
				break
			}
		}
		if match < 0 {
			return pairs, fmt.Errorf("face %v on x=%g has no periodic partner on x=%g", fl.Vertices, x0, x1)
		}
		taken[match] = true
		fr := m.Faces[right[match]]
		if err = m.ConnectPeriodic(fl.Element, fl.LocalID, fr.Element, fr.LocalID); err != nil {
			return
		}
		pairs++
	}
	return
}
