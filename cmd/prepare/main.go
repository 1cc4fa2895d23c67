// Command prepare runs the feature preparation stage: raw series parquet in,
// per-series float32 .npy feature arrays out.
package main

import (
	"flag"
	"log"

	"github.com/somno-data/sleepstate.report/internal/config"
	"github.com/somno-data/sleepstate.report/internal/manifest"
	"github.com/somno-data/sleepstate.report/internal/prepare"
)

func main() {
	var cfgPath string
	var phaseOverride string
	var writeDefault bool

	flag.StringVar(&cfgPath, "config", "./sleepstate.yaml", "path to YAML config")
	flag.StringVar(&phaseOverride, "phase", "", "override configured phase (train, test or dev)")
	flag.BoolVar(&writeDefault, "init", false, "write a default config to -config and exit")
	flag.Parse()

	if writeDefault {
		if err := config.Save(cfgPath, config.Default()); err != nil {
			log.Fatalf("write default config: %v", err)
		}
		log.Printf("wrote default config to %s", cfgPath)
		return
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	phaseStr := cfg.Prepare.Phase
	if phaseOverride != "" {
		phaseStr = phaseOverride
	}
	phase, err := prepare.ParsePhase(phaseStr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var db *manifest.DB
	if cfg.Dir.ManifestPath != "" {
		db, err = manifest.Open(cfg.Dir.ManifestPath)
		if err != nil {
			log.Fatalf("open manifest: %v", err)
		}
		defer db.Close()
	}

	res, err := prepare.Run(prepare.Options{
		DataDir:      cfg.Dir.DataDir,
		ProcessedDir: cfg.Dir.ProcessedDir,
		Phase:        phase,
		ConfigDigest: cfg.Digest(),
		Manifest:     db,
	})
	if err != nil {
		log.Fatalf("prepare %s: %v", phase, err)
	}

	log.Printf("prepared %s: %d series, %d samples -> %s (run %s)",
		res.Phase, res.SeriesCount, res.SampleCount, res.OutputDir, res.RunID)
}
