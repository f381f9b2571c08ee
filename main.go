package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/muonsuite/muairss/config"
	"github.com/muonsuite/muairss/runner"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-t generate|analyze] <structure-file> [parameter-file]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	task := flag.String("t", "generate", "task to run: generate or analyze")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	structurePath := flag.Arg(0)

	var cfg *config.Config
	var err error
	if flag.NArg() >= 2 {
		cfg, err = config.Load(flag.Arg(1))
	} else {
		cfg = config.Default()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading parameters: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Verbose = true
	}

	switch *task {
	case "generate":
		summary, err := runner.Generate(structurePath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %d of %d candidates in %s (batch %s)\n",
			summary.Generated, summary.Requested, summary.BatchDir, summary.BatchID)
		if summary.Partial {
			fmt.Println("Warning: batch is partial, the attempt budget ran out")
		}
		fmt.Println("Run the optimizer on each candidate, place its output under results/, then re-run with -t analyze")

	case "analyze":
		report, err := runner.Analyze(structurePath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := report.Render(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown task %q\n", *task)
		usage()
		os.Exit(2)
	}
}
