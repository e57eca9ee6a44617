package InputParameters

import (
	"fmt"
	"io"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/quadgeom/integration"
	"github.com/notargets/quadgeom/mesh"
	"github.com/notargets/quadgeom/types"
)

// Parameters obtained from the YAML input file
type EvalParameters struct {
	Title          string              `yaml:"Title"`
	Mesh           MeshParameters      `yaml:"Mesh"`
	Integrations   []IntegrationParams `yaml:"Integrations"`
	VirtualCells   bool                `yaml:"VirtualCells"`
	ParallelDegree int                 `yaml:"ParallelDegree"` // Zero keeps the default
}

// Either a mesh file or a generated mesh
type MeshParameters struct {
	File      string           `yaml:"File"`
	Generator *GeneratorParams `yaml:"Generator"`
}

type GeneratorParams struct {
	Type     string    `yaml:"Type"`    // line, rect or box
	Element  string    `yaml:"Element"` // rect: quad or triangle, box: hex or tet
	N        []int     `yaml:"N"`       // Elements per direction
	Bounds   []float64 `yaml:"Bounds"`  // x0,x1[,y0,y1[,z0,z1]]
	Periodic bool      `yaml:"Periodic"`
}

type IntegrationParams struct {
	Kind  string `yaml:"Kind"`
	Order int    `yaml:"Order"`
	Side  *int   `yaml:"Side"`
}

func (ip *EvalParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *EvalParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	if g := ip.Mesh.Generator; g != nil {
		fmt.Fprintf(w, "[%s %s %v]\t= Mesh Generator\n", g.Type, g.Element, g.N)
		fmt.Fprintf(w, "%v\t= Bounds\n", g.Bounds)
		if g.Periodic {
			fmt.Fprintf(w, "[periodic in x]\t= Boundary\n")
		}
	} else {
		fmt.Fprintf(w, "[%s]\t\t= Mesh File\n", ip.Mesh.File)
	}
	fmt.Fprintf(w, "[%v]\t\t\t= Virtual Cells\n", ip.VirtualCells)
	for i, ir := range ip.Integrations {
		side := ""
		if ir.Side != nil {
			side = fmt.Sprintf(" side %d", *ir.Side)
		}
		fmt.Fprintf(w, "Integrations[%d] = %s order %d%s\n", i, ir.Kind, ir.Order, side)
	}
}

// Descriptors resolves the integration entries, a missing side is -1
func (ip *EvalParameters) Descriptors() (descs []integration.Descriptor, err error) {
	if len(ip.Integrations) == 0 {
		return nil, fmt.Errorf("no Integrations in input")
	}
	for i, ir := range ip.Integrations {
		var (
			kind types.IntegrationType
			side = -1
			d    integration.Descriptor
		)
		if kind, err = types.ParseIntegrationType(ir.Kind); err != nil {
			return nil, fmt.Errorf("Integrations[%d]: %w", i, err)
		}
		if ir.Side != nil {
			side = *ir.Side
		}
		if d, err = integration.NewDescriptor(kind, ir.Order, side); err != nil {
			return nil, fmt.Errorf("Integrations[%d]: %w", i, err)
		}
		descs = append(descs, d)
	}
	return
}

// BuildMesh reads the mesh file or runs the generator
func (ip *EvalParameters) BuildMesh() (m *mesh.Mesh, err error) {
	g := ip.Mesh.Generator
	switch {
	case g == nil && ip.Mesh.File == "":
		return nil, fmt.Errorf("Mesh needs a File or a Generator")
	case g != nil && ip.Mesh.File != "":
		return nil, fmt.Errorf("Mesh takes a File or a Generator, not both")
	case g == nil:
		return mesh.ReadMeshFile(ip.Mesh.File)
	}
	var dim int
	switch strings.ToLower(g.Type) {
	case "line":
		dim = 1
	case "rect":
		dim = 2
	case "box":
		dim = 3
	default:
		return nil, fmt.Errorf("unknown mesh generator %q, want line, rect or box", g.Type)
	}
	if len(g.N) != dim || len(g.Bounds) != 2*dim {
		return nil, fmt.Errorf("%s generator needs %d values of N and %d Bounds, have %d and %d",
			g.Type, dim, 2*dim, len(g.N), len(g.Bounds))
	}
	element := strings.ToLower(g.Element)
	switch dim {
	case 1:
		m, err = mesh.NewLineMesh(g.N[0], g.Bounds[0], g.Bounds[1])
	case 2:
		var tri bool
		if tri, err = pickElement(element, "quad", "triangle"); err != nil {
			return
		}
		m, err = mesh.NewRectMesh(g.N[0], g.N[1], [4]float64(g.Bounds), tri)
	case 3:
		var tet bool
		if tet, err = pickElement(element, "hex", "tet"); err != nil {
			return
		}
		m, err = mesh.NewBoxMesh(g.N[0], g.N[1], g.N[2], [6]float64(g.Bounds), tet)
	}
	if err != nil {
		return nil, err
	}
	if g.Periodic {
		if _, err = m.PeriodicX(g.Bounds[0], g.Bounds[1]); err != nil {
			return nil, err
		}
	}
	return
}

// pickElement is false for the first name (also the default), true for the second
func pickElement(name, first, second string) (bool, error) {
	switch name {
	case "", first:
		return false, nil
	case second:
		return true, nil
	}
	return false, fmt.Errorf("unknown element %q, want %s or %s", name, first, second)
}
