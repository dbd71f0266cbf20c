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
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/patchgrid/InputParameters"
)

const exampleInputFile = `
########################################
Title: "Two level square"
Dimension: 2
Ns: [8, 8]
NumGhostCells: 1
NumComponents: 1
NumRanks: 4
PatchesPerAxis: 4
NumLevels: 2
FillType: corners # faces, edges or corners
# MeshFile: mesh.yaml # replaces the generated uniform mesh
########################################
`

// addRunFlags registers the flags shared by the commands that build a mesh
func addRunFlags(c *cobra.Command) {
	c.Flags().StringP("inputConditionsFile", "I", "", "YAML file for run parameters like:"+exampleInputFile)
	c.Flags().IntP("dimension", "D", 2, "2 or 3")
	c.Flags().IntSliceP("ns", "n", []int{8}, "cells per axis of every patch, one value for all axes")
	c.Flags().IntP("ghostCells", "g", 1, "ghost cell width")
	c.Flags().IntP("components", "c", 1, "number of field components")
	c.Flags().IntP("ranks", "r", 2, "number of ranks")
	c.Flags().IntP("patchesPerAxis", "p", 4, "patches per axis on the finest level")
	c.Flags().IntP("levels", "l", 2, "number of refinement levels")
	c.Flags().StringP("fillType", "f", "faces", "ghost cells to fill: faces, edges or corners")
	c.Flags().StringP("meshFile", "m", "", "mesh description (YAML or JSON) to use instead of a uniform mesh")
}

/*
processInput layers the run parameters: defaults, then the config file and
PATCHGRID_ environment read by viper, then the input file, then any flag
given on the command line.
*/
func processInput(cmd *cobra.Command) (rp *InputParameters.RunParameters, err error) {
	rp = InputParameters.NewRunParameters()
	if err = viper.Unmarshal(rp); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	flags := cmd.Flags()
	var inputFile string
	if inputFile, err = flags.GetString("inputConditionsFile"); err != nil {
		return
	}
	if inputFile != "" {
		var data []byte
		if data, err = os.ReadFile(inputFile); err != nil {
			return
		}
		if err = rp.Parse(data); err != nil {
			return nil, fmt.Errorf("%s: %w", inputFile, err)
		}
	}
	ints := map[string]*int{
		"dimension":      &rp.Dimension,
		"ghostCells":     &rp.NumGhostCells,
		"components":     &rp.NumComponents,
		"ranks":          &rp.NumRanks,
		"patchesPerAxis": &rp.PatchesPerAxis,
		"levels":         &rp.NumLevels,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return
			}
		}
	}
	strs := map[string]*string{
		"fillType": &rp.FillType,
		"meshFile": &rp.MeshFile,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return
			}
		}
	}
	if flags.Changed("ns") {
		if rp.Ns, err = flags.GetIntSlice("ns"); err != nil {
			return
		}
	}
	if len(rp.Ns) != rp.Dimension && len(rp.Ns) > 0 && !flags.Changed("ns") && inputFile == "" {
		// the default cell count follows the dimension
		rp.Ns = rp.Ns[:1]
	}
	if err = rp.Validate(); err != nil {
		return nil, err
	}
	return
}

// loadMesh reads rp.MeshFile, or generates the uniform mesh rp describes
func loadMesh(rp *InputParameters.RunParameters) (md *InputParameters.MeshDescription, err error) {
	if rp.MeshFile == "" {
		return InputParameters.NewUniformMesh(rp.Dimension, rp.PatchesPerAxis, rp.NumLevels, rp.NumRanks)
	}
	var data []byte
	if data, err = os.ReadFile(rp.MeshFile); err != nil {
		return
	}
	md = &InputParameters.MeshDescription{}
	if err = md.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", rp.MeshFile, err)
	}
	if md.Dimension != rp.Dimension {
		return nil, fmt.Errorf("%s is a %dD mesh, run is %dD", rp.MeshFile, md.Dimension, rp.Dimension)
	}
	if md.NumRanks != rp.NumRanks {
		log.Printf("%s is partitioned over %d ranks, using %d ranks", rp.MeshFile, md.NumRanks, md.NumRanks)
		rp.NumRanks = md.NumRanks
	}
	return
}
