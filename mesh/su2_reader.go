package mesh

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ReadSU2 reads an SU2 native format file, 2D and 3D
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mesh := NewMesh()
	scanner := bufio.NewScanner(file)

	var (
		ndime   int
		skipped = make(map[int]int)
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments
		if strings.HasPrefix(line, "%") || line == "" {
			continue
		}

		if strings.HasPrefix(line, "NDIME=") {
			fmt.Sscanf(line, "NDIME=%d", &ndime)
			if ndime != 2 && ndime != 3 {
				return nil, fmt.Errorf("only 2D and 3D meshes are supported, got NDIME=%d", ndime)
			}
			mesh.Dim = ndime

		} else if strings.HasPrefix(line, "NELEM=") {
			if ndime == 0 {
				return nil, fmt.Errorf("NELEM before NDIME in %s", filename)
			}
			var nelem int
			fmt.Sscanf(line, "NELEM=%d", &nelem)

			mesh.Elements = make([][]int, 0, nelem)
			mesh.ElementTypes = make([]ElementType, 0, nelem)
			mesh.ElementTags = make([]int, 0, nelem)

			for i := 0; i < nelem; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("expected %d elements, file ends after %d", nelem, i)
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) < 2 {
					continue
				}

				su2Type, err := strconv.Atoi(fields[0])
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}

				etype, ok := su2ElementType(su2Type)
				if !ok || etype.Topology().Dim != ndime {
					skipped[su2Type]++
					continue
				}
				numNodes := getNumNodesSU2(su2Type)
				if len(fields) < numNodes+1 {
					return nil, fmt.Errorf("element %d: %d nodes expected, got %d fields", i, numNodes, len(fields))
				}

				verts := make([]int, numNodes)
				for j := 0; j < numNodes; j++ {
					if verts[j], err = strconv.Atoi(fields[1+j]); err != nil {
						return nil, fmt.Errorf("element %d: %w", i, err)
					}
				}

				mesh.Elements = append(mesh.Elements, verts)
				mesh.ElementTypes = append(mesh.ElementTypes, etype)
				mesh.ElementTags = append(mesh.ElementTags, 0)
			}

		} else if strings.HasPrefix(line, "NPOIN=") {
			if ndime == 0 {
				return nil, fmt.Errorf("NPOIN before NDIME in %s", filename)
			}
			var npoin int
			fmt.Sscanf(line, "NPOIN=%d", &npoin)

			mesh.Vertices = make([][]float64, npoin)

			for i := 0; i < npoin; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("expected %d points, file ends after %d", npoin, i)
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) < ndime {
					return nil, fmt.Errorf("point %d: %d coordinates expected", i, ndime)
				}
				coords := make([]float64, ndime)
				for j := 0; j < ndime; j++ {
					if coords[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return nil, fmt.Errorf("point %d: %w", i, err)
					}
				}

				// Point ID is an optional trailing field
				ptID := i
				if len(fields) > ndime {
					if id, err := strconv.Atoi(fields[len(fields)-1]); err == nil && id >= 0 && id < npoin {
						ptID = id
					}
				}
				mesh.Vertices[ptID] = coords
			}

		} else if strings.HasPrefix(line, "NMARK=") {
			var nmark int
			fmt.Sscanf(line, "NMARK=%d", &nmark)

			for i := 0; i < nmark; i++ {
				scanner.Scan()
				markerLine := strings.TrimSpace(scanner.Text())

				if strings.HasPrefix(markerLine, "MARKER_TAG=") {
					tagName := strings.TrimSpace(strings.TrimPrefix(markerLine, "MARKER_TAG="))

					scanner.Scan()
					elemLine := strings.TrimSpace(scanner.Text())
					var nMarkerElems int
					fmt.Sscanf(elemLine, "MARKER_ELEMS=%d", &nMarkerElems)

					mesh.BoundaryTags[i] = tagName

					// Marker elements carry boundary conditions only
					for j := 0; j < nMarkerElems; j++ {
						scanner.Scan()
					}
				}
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	for su2Type, n := range skipped {
		slog.Warn("skipping unsupported SU2 elements", "file", filename, "type", su2Type, "count", n)
	}

	return finishMesh(mesh)
}

func su2ElementType(su2Type int) (et ElementType, ok bool) {
	switch su2Type {
	case 3:
		return Line, true
	case 5:
		return Triangle, true
	case 9:
		return Quad, true
	case 10:
		return Tet, true
	case 12:
		return Hex, true
	}
	return
}

// getNumNodesSU2 returns the number of nodes for an SU2 element type
func getNumNodesSU2(su2Type int) int {
	switch su2Type {
	case 3:
		return 2 // Line
	case 5:
		return 3 // Triangle
	case 9:
		return 4 // Quad
	case 10:
		return 4 // Tet
	case 12:
		return 8 // Hex
	case 13:
		return 6 // Prism
	case 14:
		return 5 // Pyramid
	default:
		return 0
	}
}

// finishMesh validates the vertex references, orients the elements and builds the connectivity
func finishMesh(mesh *Mesh) (*Mesh, error) {
	mesh.NumElements = len(mesh.Elements)
	mesh.NumVertices = len(mesh.Vertices)
	for i, v := range mesh.Vertices {
		if v == nil {
			return nil, fmt.Errorf("vertex %d has no coordinates", i)
		}
	}
	for e, verts := range mesh.Elements {
		for _, v := range verts {
			if v < 0 || v >= mesh.NumVertices {
				return nil, fmt.Errorf("element %d references vertex %d of %d", e, v, mesh.NumVertices)
			}
		}
	}
	if n := mesh.Orient(); n > 0 {
		slog.Debug("reoriented inverted elements", "count", n)
	}
	mesh.BuildConnectivity()
	return mesh, nil
}
