package ghost

import (
	"fmt"
	"strings"

	"github.com/notargets/patchgrid/domain"
)

// FillType selects which facets take part in a ghost fill
type FillType uint8

const (
	Faces   FillType = iota // sides only
	Edges                   // sides, and edges in 3D
	Corners                 // every facet
)

func (ft FillType) String() string {
	switch ft {
	case Faces:
		return "faces"
	case Edges:
		return "edges"
	case Corners:
		return "corners"
	}
	return fmt.Sprintf("FillType(%d)", uint8(ft))
}

func ParseFillType(s string) (ft FillType, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "faces", "":
		ft = Faces
	case "edges":
		ft = Edges
	case "corners":
		ft = Corners
	default:
		err = fmt.Errorf("unknown fill type %q", s)
	}
	return
}

// Includes reports whether facet f is filled
func (ft FillType) Includes(f domain.Face) bool {
	switch f.Kind() {
	case domain.SideFace:
		return true
	case domain.EdgeFace:
		return ft >= Edges
	}
	return ft == Corners
}
