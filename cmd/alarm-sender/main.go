package main

import "github.com/faultmesh/alarm-correlator/cmd/alarm-sender/cmd"

func main() {
	cmd.Execute()
}
