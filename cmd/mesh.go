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
	"os"

	"github.com/spf13/cobra"
)

// MeshCmd writes a generated mesh description
var MeshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Generate a uniform multi level mesh description",
	Long: `
Writes the partition of a uniform multi level mesh over ranks as YAML, or
JSON with --json. The output can be edited and read back with --meshFile.

patchgrid mesh -p 8 -l 3 -r 4 -o mesh.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		rp, err := processInput(cmd)
		if err != nil {
			return
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		output, _ := cmd.Flags().GetString("output")
		md, err := loadMesh(rp)
		if err != nil {
			return
		}
		data, err := md.Marshal(asJSON)
		if err != nil {
			return
		}
		if output == "" {
			_, err = os.Stdout.Write(data)
			return
		}
		if err = os.WriteFile(output, data, 0644); err != nil {
			return
		}
		fmt.Printf("Wrote %d levels, %d patches to %s\n", len(md.Levels), md.NumPatches(), output)
		return
	},
}

func init() {
	rootCmd.AddCommand(MeshCmd)
	addRunFlags(MeshCmd)
	MeshCmd.Flags().Bool("json", false, "write JSON instead of YAML")
	MeshCmd.Flags().StringP("output", "o", "", "output file, default stdout")
}
