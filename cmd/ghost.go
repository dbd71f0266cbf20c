/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/notargets/patchgrid/InputParameters"
	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/field"
	"github.com/notargets/patchgrid/ghost"
	"github.com/notargets/patchgrid/metrics"
)

// GhostCmd fills the ghost cells of the finest level
var GhostCmd = &cobra.Command{
	Use:   "ghost",
	Short: "Fill ghost cells on the finest level of a mesh",
	Long: `
Sets every patch of the finest level to its id plus one, fills the ghost
cells with the injection strategy and checks each ghost cell against the
neighbor it was filled from.

patchgrid ghost -r 4 -f corners`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		rp, err := processInput(cmd)
		if err != nil {
			return
		}
		rp.Print()
		md, err := loadMesh(rp)
		if err != nil {
			return
		}
		timer := metrics.NewTimer(nil)
		stats, err := RunGhost(rp, md, timer)
		if err != nil {
			return
		}
		for _, s := range stats {
			fmt.Println(s)
		}
		timer.Print()
		return
	},
}

func init() {
	rootCmd.AddCommand(GhostCmd)
	addRunFlags(GhostCmd)
}

type GhostStats struct {
	Rank, LocalPatches  int
	Sends, Recvs, Calls int
	Checked, Mismatched int // Ghost cells across single neighbors
}

func (gs GhostStats) String() string {
	return fmt.Sprintf("rank %d: %d patches, %d sends, %d receives, %d neighbor fills, %d/%d ghost cells wrong",
		gs.Rank, gs.LocalPatches, gs.Sends, gs.Recvs, gs.Calls, gs.Mismatched, gs.Checked)
}

// patchValues sets every interior value of u to the patch id plus one
func patchValues(d *domain.Domain, u *field.Vector) {
	for i, p := range d.PatchInfos() {
		u.PatchView(i).Fill(float64(p.ID + 1))
	}
}

// checkGhosts compares the ghost cells facing a single neighbor with the
// value patchValues gave that neighbor
func checkGhosts(d *domain.Domain, u *field.Vector, ft ghost.FillType, gs *GhostStats) {
	for i, p := range d.PatchInfos() {
		pv := u.PatchView(i)
		for _, f := range p.NbrFaces() {
			info := p.NbrInfo(f)
			if !ft.Includes(f) || info.Type() == domain.Fine {
				continue
			}
			want := float64(info.NbrIDs()[0] + 1)
			ghosts := pv.GhostRegion(f)
			ghosts.ForEachInterior(func(coord []int) {
				gs.Checked++
				if ghosts.Get(coord...) != want {
					gs.Mismatched++
				}
			})
		}
	}
}

/*
RunGhost builds the finest level of md on rp.NumRanks ranks and runs one
ghost fill on each. The timer, when not nil, is shared by all ranks.
*/
func RunGhost(rp *InputParameters.RunParameters, md *InputParameters.MeshDescription,
	timer *metrics.Timer) (stats []GhostStats, err error) {
	var (
		w  *comm.World
		ft ghost.FillType
	)
	if ft, err = ghost.ParseFillType(rp.FillType); err != nil {
		return
	}
	if w, err = comm.NewWorld(rp.NumRanks); err != nil {
		return
	}
	stats = make([]GhostStats, rp.NumRanks)
	err = w.Run(context.Background(), func(c *comm.Communicator) (err error) {
		var (
			levels []*domain.Domain
			fl     *ghost.Filler
		)
		if levels, err = md.BuildDomains(c, rp.Ns, rp.NumGhostCells); err != nil {
			return
		}
		if len(levels) == 0 {
			return fmt.Errorf("mesh has no levels")
		}
		d := levels[0]
		if timer != nil {
			d.SetTimer(timer)
		}
		if fl, err = ghost.NewFiller(d, ft, ghost.NewInjectionStrategy()); err != nil {
			return
		}
		u := field.NewVector(d, rp.NumComponents)
		patchValues(d, u)
		if err = fl.FillGhost(u); err != nil {
			return
		}
		gs := GhostStats{
			Rank:         c.Rank(),
			LocalPatches: d.NumLocalPatches(),
			Sends:        fl.NumSends(),
			Recvs:        fl.NumRecvs(),
			Calls:        fl.NumNbrCalls(),
		}
		checkGhosts(d, u, ft, &gs)
		if gs.Mismatched != 0 {
			log.Printf("rank %d: %d of %d checked ghost cells differ from their neighbor",
				c.Rank(), gs.Mismatched, gs.Checked)
		}
		stats[c.Rank()] = gs
		return
	})
	if err != nil {
		return nil, err
	}
	return
}
