package main

import "github.com/notargets/patchgrid/cmd"

func main() {
	cmd.Execute()
}
