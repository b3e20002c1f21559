// wotcli is a commandline consumer of Web of Things devices.
// It reads and writes properties, invokes actions and subscribes to events of a Thing
// using the protocols listed in its Thing Description.
package main

import (
	"fmt"
	"os"

	"github.com/wostzone/wostconsumer-go/pkg/config"
)

func main() {
	cfg, err := config.LoadCommandlineConfig("", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	rootCmd := NewRootCmd(cfg)
	if err = rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
