package main

import "github.com/rohinikalidoss/machinelearning-travelapp/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
