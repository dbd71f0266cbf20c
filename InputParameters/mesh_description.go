package InputParameters

import (
	"fmt"
	"log"

	"github.com/ghodss/yaml"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
)

type NbrDescription struct {
	Type         string `json:"type"`
	Face         string `json:"face"`
	IDs          []int  `json:"ids"`
	Ranks        []int  `json:"ranks"`
	OrthOnCoarse int    `json:"orth_on_coarse,omitempty"`
}

type PatchDescription struct {
	ID           int              `json:"id"`
	Rank         int              `json:"rank"`
	RefineLevel  int              `json:"refine_level"`
	ParentID     int              `json:"parent_id"`
	ParentRank   int              `json:"parent_rank"`
	OrthOnParent int              `json:"orth_on_parent"` // -1 when the parent is on the same level
	Starts       []float64        `json:"starts"`
	Lengths      []float64        `json:"lengths"`
	ChildIDs     []int            `json:"child_ids,omitempty"`
	ChildRanks   []int            `json:"child_ranks,omitempty"`
	Nbrs         []NbrDescription `json:"nbrs,omitempty"`
	EdgeNbrs     []NbrDescription `json:"edge_nbrs,omitempty"`
	CornerNbrs   []NbrDescription `json:"corner_nbrs,omitempty"`
}

type LevelDescription struct {
	Patches []PatchDescription `json:"patches"`
}

/*
MeshDescription is the partition of a multi level patch mesh over ranks.
Levels[0] is the finest level, each coarser level follows.
*/
type MeshDescription struct {
	Dimension int                `json:"dimension"`
	NumRanks  int                `json:"num_ranks"`
	Levels    []LevelDescription `json:"levels"`
}

func (md *MeshDescription) Parse(data []byte) error {
	return yaml.Unmarshal(data, md)
}

// Marshal writes YAML, or JSON when asJSON is set
func (md *MeshDescription) Marshal(asJSON bool) (data []byte, err error) {
	if data, err = yaml.Marshal(md); err != nil || !asJSON {
		return
	}
	return yaml.YAMLToJSON(data)
}

func (md *MeshDescription) NumPatches() (n int) {
	for _, l := range md.Levels {
		n += len(l.Patches)
	}
	return
}

// PatchInfo converts the description of a patch with ns cells per axis
func (pd *PatchDescription) PatchInfo(dim int, ns []int, numGhost int) (p *domain.PatchInfo, err error) {
	if len(pd.Starts) != dim || len(pd.Lengths) != dim || len(ns) != dim {
		return nil, fmt.Errorf("patch %d: extent does not match dimension %d", pd.ID, dim)
	}
	p = domain.NewPatchInfo(dim)
	p.ID, p.Rank, p.RefineLevel = pd.ID, pd.Rank, pd.RefineLevel
	p.ParentID, p.ParentRank = pd.ParentID, pd.ParentRank
	p.OrthOnParent = domain.Orthant(pd.OrthOnParent)
	if pd.OrthOnParent < 0 {
		p.OrthOnParent = domain.OrthantNull
	} else if pd.OrthOnParent >= domain.NumOrthants(dim) {
		return nil, fmt.Errorf("patch %d: orthant %d on parent out of range", pd.ID, pd.OrthOnParent)
	}
	if len(pd.ChildIDs) != 0 {
		if len(pd.ChildIDs) != domain.NumOrthants(dim) || len(pd.ChildRanks) != len(pd.ChildIDs) {
			return nil, fmt.Errorf("patch %d: need %d child ids and ranks", pd.ID, domain.NumOrthants(dim))
		}
		copy(p.ChildIDs, pd.ChildIDs)
		copy(p.ChildRanks, pd.ChildRanks)
	}
	p.NumGhostCells = numGhost
	for i := 0; i < dim; i++ {
		p.Ns[i] = ns[i]
		p.Starts[i] = pd.Starts[i]
		p.Spacings[i] = pd.Lengths[i] / float64(ns[i])
	}
	for _, set := range []struct {
		kind domain.FaceKind
		nbrs []NbrDescription
	}{
		{domain.SideFace, pd.Nbrs},
		{domain.EdgeFace, pd.EdgeNbrs},
		{domain.CornerFace, pd.CornerNbrs},
	} {
		for _, nd := range set.nbrs {
			var (
				f    domain.Face
				info domain.NbrInfo
			)
			if f, err = domain.ParseFace(dim, set.kind, nd.Face); err != nil {
				return nil, fmt.Errorf("patch %d: %w", pd.ID, err)
			}
			if info, err = nd.nbrInfo(); err != nil {
				return nil, fmt.Errorf("patch %d on %s: %w", pd.ID, f, err)
			}
			if err = p.SetNbrInfo(f, info); err != nil {
				return nil, fmt.Errorf("patch %d: %w", pd.ID, err)
			}
		}
	}
	return
}

func (nd *NbrDescription) nbrInfo() (info domain.NbrInfo, err error) {
	var t domain.NbrType
	if t, err = domain.ParseNbrType(nd.Type); err != nil {
		return
	}
	if len(nd.IDs) != len(nd.Ranks) {
		return nil, fmt.Errorf("%d neighbor ids with %d ranks", len(nd.IDs), len(nd.Ranks))
	}
	switch t {
	case domain.Fine:
		return domain.NewFineNbrInfo(nd.IDs, nd.Ranks), nil
	}
	if len(nd.IDs) != 1 {
		return nil, fmt.Errorf("%s neighbor needs one id, have %d", t, len(nd.IDs))
	}
	if t == domain.Coarse {
		return domain.NewCoarseNbrInfo(nd.IDs[0], nd.Ranks[0], domain.Orthant(nd.OrthOnCoarse)), nil
	}
	return domain.NewNormalNbrInfo(nd.IDs[0], nd.Ranks[0]), nil
}

// DescribePatch is the inverse of PatchDescription.PatchInfo
func DescribePatch(p *domain.PatchInfo) (pd PatchDescription) {
	pd = PatchDescription{
		ID:           p.ID,
		Rank:         p.Rank,
		RefineLevel:  p.RefineLevel,
		ParentID:     p.ParentID,
		ParentRank:   p.ParentRank,
		OrthOnParent: int(p.OrthOnParent),
		Starts:       append([]float64(nil), p.Starts...),
		Lengths:      make([]float64, p.Dim),
	}
	if p.OrthOnParent.IsNull() {
		pd.OrthOnParent = -1
	}
	for i := range pd.Lengths {
		pd.Lengths[i] = p.Spacings[i] * float64(p.Ns[i])
	}
	if p.HasChildren() {
		pd.ChildIDs = append([]int(nil), p.ChildIDs...)
		pd.ChildRanks = append([]int(nil), p.ChildRanks...)
	}
	for _, f := range p.NbrFaces() {
		info := p.NbrInfo(f)
		nd := NbrDescription{
			Type:  info.Type().String(),
			Face:  f.String(),
			IDs:   append([]int(nil), info.NbrIDs()...),
			Ranks: append([]int(nil), info.NbrRanks()...),
		}
		if c, ok := info.(*domain.CoarseNbrInfo); ok {
			nd.OrthOnCoarse = int(c.OrthOnCoarse)
		}
		switch f.Kind() {
		case domain.SideFace:
			pd.Nbrs = append(pd.Nbrs, nd)
		case domain.EdgeFace:
			pd.EdgeNbrs = append(pd.EdgeNbrs, nd)
		default:
			pd.CornerNbrs = append(pd.CornerNbrs, nd)
		}
	}
	return
}

// LocalPatches converts the patches of one level owned by rank
func (md *MeshDescription) LocalPatches(level, rank int, ns []int, numGhost int) (patches []*domain.PatchInfo, err error) {
	if level < 0 || level >= len(md.Levels) {
		return nil, fmt.Errorf("level %d out of range, mesh has %d", level, len(md.Levels))
	}
	for i := range md.Levels[level].Patches {
		pd := &md.Levels[level].Patches[i]
		if pd.Rank != rank {
			continue
		}
		var p *domain.PatchInfo
		if p, err = pd.PatchInfo(md.Dimension, ns, numGhost); err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return
}

/*
BuildDomains constructs one Domain per level, finest first, with the
level's index as domain id. It is collective over c, whose size must match
the description.
*/
func (md *MeshDescription) BuildDomains(c *comm.Communicator, ns []int, numGhost int) (domains []*domain.Domain, err error) {
	if md.NumRanks != c.Size() {
		return nil, fmt.Errorf("mesh is partitioned over %d ranks, communicator has %d",
			md.NumRanks, c.Size())
	}
	if md.Dimension != 2 && md.Dimension != 3 {
		return nil, fmt.Errorf("unsupported mesh dimension %d", md.Dimension)
	}
	for level := range md.Levels {
		var d *domain.Domain
		patches, localErr := md.LocalPatches(level, c.Rank(), ns, numGhost)
		if localErr != nil {
			// a patch without an id fails the constructor on every rank
			patches = []*domain.PatchInfo{domain.NewPatchInfo(md.Dimension)}
		}
		if c.Rank() == 0 {
			log.Printf("Building level %d: %d patches", level, len(md.Levels[level].Patches))
		}
		d, err = domain.NewDomain(c, level, ns, numGhost, patches)
		if localErr != nil {
			return nil, fmt.Errorf("level %d: %w", level, localErr)
		}
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		domains = append(domains, d)
	}
	return
}
