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

	"github.com/spf13/cobra"

	"github.com/notargets/patchgrid/InputParameters"
	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/field"
	"github.com/notargets/patchgrid/ghost"
	"github.com/notargets/patchgrid/gmg"
	"github.com/notargets/patchgrid/metrics"
)

// TransferCmd moves a field between the two finest levels
var TransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Restrict and interpolate a field between the two finest levels",
	Long: `
Sets a field on the finest level, restricts it to the next coarser level
and interpolates it back, then reports the norms and integrals of the field
and of its restriction, and the norm of the difference after the round trip.

patchgrid transfer -r 3 -l 2 --extrapolate`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		rp, err := processInput(cmd)
		if err != nil {
			return
		}
		rp.Print()
		extrapolate, _ := cmd.Flags().GetBool("extrapolate")
		md, err := loadMesh(rp)
		if err != nil {
			return
		}
		timer := metrics.NewTimer(nil)
		stats, err := RunTransfer(rp, md, extrapolate, timer)
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
	rootCmd.AddCommand(TransferCmd)
	addRunFlags(TransferCmd)
	TransferCmd.Flags().Bool("extrapolate", false, "extrapolate boundary ghost cells while restricting")
}

type TransferStats struct {
	Rank                 int
	FinePatches          int
	LocalParents         int
	GhostParents         int
	FineNorm, CoarseNorm float64
	// Integrals over the level, restriction by averaging keeps them equal
	FineIntegral, CoarseIntegral float64
	RoundTripError               float64 // Two norm of interpolate(restrict(u)) - u
}

func (ts TransferStats) String() string {
	return fmt.Sprintf("rank %d: %d fine patches (%d local parents, %d ghost parents) |u| = %.6g, |Ru| = %.6g, int u = %.6g, int Ru = %.6g, |PRu - u| = %.6g",
		ts.Rank, ts.FinePatches, ts.LocalParents, ts.GhostParents, ts.FineNorm, ts.CoarseNorm,
		ts.FineIntegral, ts.CoarseIntegral, ts.RoundTripError)
}

/*
RunTransfer builds the two finest levels of md on rp.NumRanks ranks. Each
component c of the fine field is c+1 plus the patch's refine level, its
ghost cells filled from the neighbors before restriction.
*/
func RunTransfer(rp *InputParameters.RunParameters, md *InputParameters.MeshDescription,
	extrapolate bool, timer *metrics.Timer) (stats []TransferStats, err error) {
	var (
		w  *comm.World
		ft ghost.FillType
	)
	if len(md.Levels) < 2 {
		return nil, fmt.Errorf("transfer needs two levels, mesh has %d", len(md.Levels))
	}
	if ft, err = ghost.ParseFillType(rp.FillType); err != nil {
		return
	}
	if w, err = comm.NewWorld(rp.NumRanks); err != nil {
		return
	}
	stats = make([]TransferStats, rp.NumRanks)
	err = w.Run(context.Background(), func(c *comm.Communicator) (err error) {
		var (
			levels []*domain.Domain
			ilc    *gmg.InterLevelComm
			fl     *ghost.Filler
			coarse *field.Vector
		)
		if levels, err = md.BuildDomains(c, rp.Ns, rp.NumGhostCells); err != nil {
			return
		}
		fine := levels[0]
		if timer != nil {
			fine.SetTimer(timer)
		}
		if ilc, err = gmg.NewInterLevelComm(levels[1], fine); err != nil {
			return
		}
		if fl, err = ghost.NewFiller(fine, ft, ghost.NewInjectionStrategy()); err != nil {
			return
		}
		u := field.NewVector(fine, rp.NumComponents)
		for i, p := range fine.PatchInfos() {
			for comp := 0; comp < rp.NumComponents; comp++ {
				u.ComponentView(comp, i).Fill(float64(comp + 1 + p.RefineLevel))
			}
		}
		if err = fl.FillGhost(u); err != nil {
			return
		}
		restrictor := gmg.NewRestrictor(ilc, gmg.NewLinearRestrictor(extrapolate))
		if coarse, err = restrictor.Restrict(u); err != nil {
			return
		}
		back := field.NewVector(fine, rp.NumComponents)
		if err = gmg.NewInterpolator(ilc, gmg.NewDirectInterpolator()).Interpolate(coarse, back); err != nil {
			return
		}
		back.AXPY(-1, u)
		ts := TransferStats{
			Rank:         c.Rank(),
			FinePatches:  fine.NumLocalPatches(),
			LocalParents: len(ilc.PatchesWithLocalParent()),
			GhostParents: len(ilc.PatchesWithGhostParent()),
		}
		if ts.FineNorm, err = u.TwoNorm(); err != nil {
			return
		}
		if ts.CoarseNorm, err = coarse.TwoNorm(); err != nil {
			return
		}
		if ts.FineIntegral, err = field.Integrate(fine, u); err != nil {
			return
		}
		if ts.CoarseIntegral, err = field.Integrate(levels[1], coarse); err != nil {
			return
		}
		if ts.RoundTripError, err = back.TwoNorm(); err != nil {
			return
		}
		stats[c.Rank()] = ts
		return
	})
	if err != nil {
		return nil, err
	}
	return
}
