package main

import "github.com/faultmesh/alarm-correlator/cmd/alarm-correlator/cmd"

func main() {
	cmd.Execute()
}
