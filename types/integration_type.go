package types

import (
	"fmt"
	"strings"
)

// IntegrationType is the closed set of integration rule families
type IntegrationType uint8

const (
	INT_None IntegrationType = iota
	INT_Volume
	INT_Side
	INT_Surface
	INT_CVVolume
	INT_CVSide
	INT_CVBoundary
)

func (it IntegrationType) String() string {
	switch it {
	case INT_None:
		return "NONE"
	case INT_Volume:
		return "VOLUME"
	case INT_Side:
		return "SIDE"
	case INT_Surface:
		return "SURFACE"
	case INT_CVVolume:
		return "CV_VOLUME"
	case INT_CVSide:
		return "CV_SIDE"
	case INT_CVBoundary:
		return "CV_BOUNDARY"
	}
	return fmt.Sprintf("IntegrationType(%d)", uint8(it))
}

// IsControlVolume reports whether the points of the rule depend on the physical cell geometry
func (it IntegrationType) IsControlVolume() bool {
	return it == INT_CVVolume || it == INT_CVSide || it == INT_CVBoundary
}

// HasSide reports whether the rule is defined on a single side of the cell
func (it IntegrationType) HasSide() bool {
	return it == INT_Side || it == INT_CVBoundary
}

// HasNormals reports whether the rule produces outward normals and orientation frames
func (it IntegrationType) HasNormals() bool {
	return it == INT_Side || it == INT_Surface
}

var IntegrationNameMap = map[string]IntegrationType{
	"volume":      INT_Volume,
	"side":        INT_Side,
	"surface":     INT_Surface,
	"cv_volume":   INT_CVVolume,
	"cv_side":     INT_CVSide,
	"cv_boundary": INT_CVBoundary,
	"cv-volume":   INT_CVVolume,
	"cv-side":     INT_CVSide,
	"cv-boundary": INT_CVBoundary,
}

// ParseIntegrationType is case-insensitive, an unknown name is an error
func ParseIntegrationType(name string) (it IntegrationType, err error) {
	var ok bool
	if it, ok = IntegrationNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown integration type %q", name)
	}
	return
}
