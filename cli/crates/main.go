package main

import (
	"os"

	cratescmder "github.com/papercomputeco/crates/cmd/crates"
)

func main() {
	cmd := cratescmder.NewCratesCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
