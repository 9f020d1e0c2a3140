// Command diffusefoam is the batch entry point: it loads a YAML run
// config, validates it, and drives the diffuse-particle engine over
// the configured frame range.
package main

import (
	"flag"
	"fmt"
	"os"

	"diesel.com/diffuse/config"
	"diesel.com/diffuse/driver"
	"diesel.com/diffuse/logging"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <config.yaml>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "diffusefoam: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := driver.New(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	logging.Logf("diffusefoam: running frames %d..%d from %s", cfg.NStart, cfg.NEnd, cfg.DataPath)
	if err := d.Run(); err != nil {
		return err
	}
	logging.Logf("diffusefoam: done")
	return nil
}
