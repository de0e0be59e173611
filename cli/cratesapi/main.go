package main

import (
	"os"

	servecmder "github.com/papercomputeco/crates/cmd/crates/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "cratesapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .crates/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
