package main

import "github.com/notargets/quadgeom/cmd"

func main() {
	cmd.Execute()
}
