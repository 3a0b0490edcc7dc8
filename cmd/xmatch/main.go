// Command xmatch cross-matches an optical galaxy catalogue against radio
// source-finder detections and draws contour overlays for the matches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/radioxmatch/internal/config"
	"github.com/banshee-data/radioxmatch/internal/pipeline"
	"github.com/banshee-data/radioxmatch/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Run configuration (JSON)")
	outDir      = flag.String("out", "", "Directory for contour figures (overrides output_dir)")
	renderStart = flag.Int("start", 0, "First match index to render (overrides render_start)")
	renderEnd   = flag.Int("end", -1, "Match index to stop rendering before, -1 for all (overrides render_end)")
	workers     = flag.Int("workers", 1, "Concurrent render workers (overrides workers)")
	skipRender  = flag.Bool("skip-render", false, "Only match and write the annotation file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// applyFlags copies flags given on the command line into cfg. Flags left at
// their defaults do not override the file.
func applyFlags(cfg *config.RunConfig, fs *flag.FlagSet) error {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			v := *outDir
			cfg.OutputDir = &v
		case "start":
			v := *renderStart
			cfg.RenderStart = &v
		case "end":
			v := *renderEnd
			cfg.RenderEnd = &v
		case "workers":
			v := *workers
			cfg.Workers = &v
		case "skip-render":
			v := *skipRender
			cfg.SkipRender = &v
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg, err := config.LoadRunConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := applyFlags(cfg, flag.CommandLine); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("%s: config %s", version.String(), *configPath)
	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	log.Printf("run %s: %d matches written to %s", res.RunID, res.Table.Len(), cfg.GetOutputAnnotation())
}
