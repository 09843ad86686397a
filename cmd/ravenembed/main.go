package main

import "github.com/giantswarm/ravenembed/cmd/ravenembed/cmd"

func main() {
	cmd.Execute()
}
