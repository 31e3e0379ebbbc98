package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"strata/internal/logger"
	"strata/internal/runner"
)

// Main entry point for the strata sample runner.
func main() {
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode (debug step logging)")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.Trace, "t", false, "Print a per-step execution trace")
	flag.BoolVar(&options.Inspect, "i", false, "Open the interactive inspector")
	flag.BoolVar(&options.ListSamples, "l", false, "List built-in samples")
	flag.IntVar(&options.MaxSteps, "m", 0, "Maximum interpreter steps (0 = unlimited)")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <sample>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) > 0 {
		options.Sample = args[0]
	}

	if options.Inspect {
		if err := runInspector(options.Sample); err != nil {
			log.Fatal("Inspector failed", "error", err)
		}
		return
	}

	if !options.ListSamples && options.Sample == "" {
		log.Fatal("No sample selected", "help", fmt.Sprintf("%s -l", os.Args[0]))
	}

	if err := options.Run(); err != nil {
		log.Fatal("Run failed", "error", err)
	}
}
