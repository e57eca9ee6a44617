package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Gambit bricks number their nodes in tensor order, the local order here is counterclockwise per layer
var gambitBrickOrder = [8]int{0, 1, 3, 2, 4, 5, 7, 6}

// ReadGambitNeutral reads a Gambit neutral file
func ReadGambitNeutral(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mesh := NewMesh()
	scanner := bufio.NewScanner(file)

	var numnp, nelem, ndfcd int

	// Read until we find the problem size parameters
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// NUMNP NELEM NGRPS NBSETS NDFCD NDFVL
		if strings.Contains(line, "NUMNP") && strings.Contains(line, "NELEM") {
			if scanner.Scan() {
				values := strings.Fields(scanner.Text())
				if len(values) >= 5 {
					numnp, _ = strconv.Atoi(values[0])
					nelem, _ = strconv.Atoi(values[1])
					ndfcd, _ = strconv.Atoi(values[4])
				}
			}
			break
		}
	}
	if ndfcd != 2 && ndfcd != 3 {
		return nil, fmt.Errorf("%s: only 2D and 3D meshes are supported, got NDFCD=%d", filename, ndfcd)
	}
	mesh.Dim = ndfcd

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "ENDOFSECTION" {
			continue
		}

		if strings.Contains(line, "NODAL COORDINATES") {
			mesh.Vertices = make([][]float64, numnp)

			for scanner.Scan() {
				line = strings.TrimSpace(scanner.Text())
				if line == "ENDOFSECTION" {
					break
				}

				fields := strings.Fields(line)
				if len(fields) < ndfcd+1 {
					continue
				}
				id, err := strconv.Atoi(fields[0])
				if err != nil || id < 1 || id > numnp {
					return nil, fmt.Errorf("bad node id %q", fields[0])
				}
				coords := make([]float64, ndfcd)
				for d := range coords {
					if coords[d], err = strconv.ParseFloat(fields[1+d], 64); err != nil {
						return nil, fmt.Errorf("node %d: %w", id, err)
					}
				}
				mesh.Vertices[id-1] = coords
			}

		} else if strings.Contains(line, "ELEMENTS/CELLS") {
			mesh.Elements = make([][]int, 0, nelem)
			mesh.ElementTypes = make([]ElementType, 0, nelem)
			mesh.ElementTags = make([]int, 0, nelem)

			for scanner.Scan() {
				line = strings.TrimSpace(scanner.Text())
				if line == "ENDOFSECTION" {
					break
				}

				// Format: NE NTYPE NDP NODE1 NODE2 ...
				fields := strings.Fields(line)
				if len(fields) < 3 {
					continue
				}
				elemType, _ := strconv.Atoi(fields[1])
				numNodes, _ := strconv.Atoi(fields[2])

				var etype ElementType
				switch elemType {
				case 1: // Edge
					etype = Line
				case 2: // Quad
					etype = Quad
				case 3: // Triangle
					etype = Triangle
				case 4: // Brick
					etype = Hex
				case 6: // Tetrahedron
					etype = Tet
				default:
					return nil, fmt.Errorf("unsupported Gambit element type %d", elemType)
				}
				if etype.Topology().Dim != ndfcd {
					continue
				}
				if numNodes != etype.Topology().NodeCount() {
					return nil, fmt.Errorf("%s with %d nodes is not supported", etype, numNodes)
				}
				fields = fields[3:]
				// Node lists may continue on the next line
				for len(fields) < numNodes && scanner.Scan() {
					fields = append(fields, strings.Fields(scanner.Text())...)
				}
				if len(fields) < numNodes {
					return nil, fmt.Errorf("element %s: %d nodes expected", line, numNodes)
				}

				verts := make([]int, numNodes)
				for j := 0; j < numNodes; j++ {
					v, err := strconv.Atoi(fields[j])
					if err != nil {
						return nil, err
					}
					if etype == Hex {
						verts[gambitBrickOrder[j]] = v - 1
					} else {
						verts[j] = v - 1
					}
				}

				mesh.Elements = append(mesh.Elements, verts)
				mesh.ElementTypes = append(mesh.ElementTypes, etype)
				mesh.ElementTags = append(mesh.ElementTags, 0)
			}

		} else if strings.HasPrefix(line, "GROUP:") {
			// Format: GROUP: NGP ELEMENTS: NELGP MATERIAL: MTYP NFLAGS: NFLAGS
			var (
				parts    = strings.Fields(line)
				groupID  int
				numElems int
			)
			for i := 0; i < len(parts)-1; i++ {
				switch parts[i] {
				case "GROUP:":
					groupID, _ = strconv.Atoi(parts[i+1])
				case "ELEMENTS:":
					numElems, _ = strconv.Atoi(parts[i+1])
				}
			}

			// Skip entity name and flags
			scanner.Scan()
			scanner.Scan()

			elementsRead := 0
			for elementsRead < numElems && scanner.Scan() {
				line = strings.TrimSpace(scanner.Text())
				if line == "ENDOFSECTION" {
					break
				}
				for _, field := range strings.Fields(line) {
					elemID, _ := strconv.Atoi(field)
					if elemID > 0 && elemID <= len(mesh.Elements) {
						mesh.ElementTags[elemID-1] = groupID
					}
					elementsRead++
				}
			}

		} else if strings.Contains(line, "BOUNDARY CONDITIONS") {
			scanner.Scan()
			parts := strings.Fields(scanner.Text())
			if len(parts) >= 2 {
				mesh.BoundaryTags[len(mesh.BoundaryTags)] = parts[0]
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return finishMesh(mesh)
}
