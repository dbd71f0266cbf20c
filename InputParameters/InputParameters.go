package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/patchgrid/ghost"
)

// Parameters obtained from the YAML input file
type RunParameters struct {
	Title          string `json:"Title"`
	Dimension      int    `json:"Dimension"`
	Ns             []int  `json:"Ns"`            // Cells per axis of every patch
	NumGhostCells  int    `json:"NumGhostCells"` // Ghost cell width on each side
	NumComponents  int    `json:"NumComponents"`
	NumRanks       int    `json:"NumRanks"`
	PatchesPerAxis int    `json:"PatchesPerAxis"` // On the finest level of a generated mesh
	NumLevels      int    `json:"NumLevels"`
	FillType       string `json:"FillType"`
	MeshFile       string `json:"MeshFile"` // When set, replaces the generated mesh
}

func NewRunParameters() *RunParameters {
	return &RunParameters{
		Title:          "patchgrid",
		Dimension:      2,
		Ns:             []int{8, 8},
		NumGhostCells:  1,
		NumComponents:  1,
		NumRanks:       2,
		PatchesPerAxis: 4,
		NumLevels:      2,
		FillType:       ghost.Faces.String(),
	}
}

// Parse overlays data on the current values
func (rp *RunParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

func (rp *RunParameters) Validate() (err error) {
	if rp.Dimension != 2 && rp.Dimension != 3 {
		return fmt.Errorf("dimension must be 2 or 3, have %d", rp.Dimension)
	}
	if len(rp.Ns) == 1 {
		// one count serves every axis
		n := rp.Ns[0]
		rp.Ns = make([]int, rp.Dimension)
		for i := range rp.Ns {
			rp.Ns[i] = n
		}
	}
	if len(rp.Ns) != rp.Dimension {
		return fmt.Errorf("have %d cell counts for dimension %d", len(rp.Ns), rp.Dimension)
	}
	for _, n := range rp.Ns {
		if n < 1 {
			return fmt.Errorf("cell counts must be positive, have %v", rp.Ns)
		}
	}
	switch {
	case rp.NumGhostCells < 0:
		return fmt.Errorf("ghost width must not be negative, have %d", rp.NumGhostCells)
	case rp.NumComponents < 1:
		return fmt.Errorf("need at least one component, have %d", rp.NumComponents)
	case rp.NumRanks < 1:
		return fmt.Errorf("need at least one rank, have %d", rp.NumRanks)
	}
	if rp.MeshFile == "" {
		if err = checkUniform(rp.PatchesPerAxis, rp.NumLevels); err != nil {
			return
		}
	}
	_, err = ghost.ParseFillType(rp.FillType)
	return
}

func (rp *RunParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%d]\t\t\t= Dimension\n", rp.Dimension)
	fmt.Printf("%v\t\t\t= Cells per patch\n", rp.Ns)
	fmt.Printf("[%d]\t\t\t= Ghost cells\n", rp.NumGhostCells)
	fmt.Printf("[%d]\t\t\t= Components\n", rp.NumComponents)
	fmt.Printf("[%d]\t\t\t= Ranks\n", rp.NumRanks)
	if rp.MeshFile != "" {
		fmt.Printf("[%s]\t= Mesh File\n", rp.MeshFile)
	} else {
		fmt.Printf("[%d]\t\t\t= Patches per axis\n", rp.PatchesPerAxis)
		fmt.Printf("[%d]\t\t\t= Levels\n", rp.NumLevels)
	}
	fmt.Printf("[%s]\t\t\t= Fill Type\n", rp.FillType)
}
