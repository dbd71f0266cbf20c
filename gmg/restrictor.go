package gmg

import (
	"fmt"

	"github.com/notargets/patchgrid/field"
)

// PatchRestrictor adds the restriction of each fine patch in patches into
// the coarse vector patch at the PatchRef's index.
type PatchRestrictor interface {
	RestrictPatches(patches []PatchRef, fine, coarse *field.Vector) error
}

// PatchInterpolator adds the interpolation of the coarse vector patch at
// each PatchRef's index into the fine patch.
type PatchInterpolator interface {
	InterpolatePatches(patches []PatchRef, coarse, fine *field.Vector) error
}

type Restrictor struct {
	ilc *InterLevelComm
	op  PatchRestrictor
}

func NewRestrictor(ilc *InterLevelComm, op PatchRestrictor) *Restrictor {
	return &Restrictor{ilc: ilc, op: op}
}

func (r *Restrictor) InterLevelComm() *InterLevelComm { return r.ilc }

/*
Restrict returns a new vector on the coarser domain. Patches with a remote
parent are restricted into a ghost vector which is sent while the patches
with a local parent are restricted. It is collective.
*/
func (r *Restrictor) Restrict(fine *field.Vector) (coarse *field.Vector, err error) {
	var (
		ilc = r.ilc
		d   = ilc.FinerDomain()
	)
	if fine == nil || fine.NumLocalPatches() != d.NumLocalPatches() {
		err = fmt.Errorf("%w: fine vector does not match domain %d", ErrProtocolMisuse, d.ID())
		return
	}
	if d.HasTimer() {
		d.Timer().StartDomainTiming(d.ID(), "Restrict")
		defer d.Timer().StopDomainTiming(d.ID(), "Restrict")
	}
	nc := fine.NumComponents()
	coarse = field.NewVector(ilc.CoarserDomain(), nc)
	ghost := ilc.NewGhostVector(nc)
	restrictErr := r.op.RestrictPatches(ilc.PatchesWithGhostParent(), fine, ghost)
	coarse.SetWithGhost(0)
	if err = ilc.SendGhostPatchesStart(coarse, ghost); err != nil {
		return nil, err
	}
	if localErr := r.op.RestrictPatches(ilc.PatchesWithLocalParent(), fine, coarse); restrictErr == nil {
		restrictErr = localErr
	}
	// finish even after a failed restriction so the exchange completes
	if err = ilc.SendGhostPatchesFinish(coarse, ghost); err != nil {
		return nil, err
	}
	if restrictErr != nil {
		return nil, fmt.Errorf("restrict from domain %d: %w", d.ID(), restrictErr)
	}
	return
}

type Interpolator struct {
	ilc *InterLevelComm
	op  PatchInterpolator
}

func NewInterpolator(ilc *InterLevelComm, op PatchInterpolator) *Interpolator {
	return &Interpolator{ilc: ilc, op: op}
}

func (ip *Interpolator) InterLevelComm() *InterLevelComm { return ip.ilc }

// Interpolate adds the interpolation of coarse into fine. It is collective.
func (ip *Interpolator) Interpolate(coarse, fine *field.Vector) (err error) {
	var (
		ilc = ip.ilc
		d   = ilc.FinerDomain()
	)
	if fine == nil || fine.NumLocalPatches() != d.NumLocalPatches() {
		return fmt.Errorf("%w: fine vector does not match domain %d", ErrProtocolMisuse, d.ID())
	}
	if coarse == nil || coarse.NumComponents() != fine.NumComponents() {
		return fmt.Errorf("%w: coarse and fine vectors differ in components", ErrProtocolMisuse)
	}
	if d.HasTimer() {
		d.Timer().StartDomainTiming(d.ID(), "Interpolate")
		defer d.Timer().StopDomainTiming(d.ID(), "Interpolate")
	}
	ghost := ilc.NewGhostVector(coarse.NumComponents())
	if err = ilc.GetGhostPatchesStart(coarse, ghost); err != nil {
		return
	}
	localErr := ip.op.InterpolatePatches(ilc.PatchesWithLocalParent(), coarse, fine)
	if err = ilc.GetGhostPatchesFinish(coarse, ghost); err != nil {
		return
	}
	if localErr != nil {
		return fmt.Errorf("interpolate to domain %d: %w", d.ID(), localErr)
	}
	if err = ip.op.InterpolatePatches(ilc.PatchesWithGhostParent(), ghost, fine); err != nil {
		return fmt.Errorf("interpolate to domain %d: %w", d.ID(), err)
	}
	return
}
