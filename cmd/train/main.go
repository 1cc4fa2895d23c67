// Command train drives the training loop over a prepared feature store
// phase. The bundled baseline model exercises the full driver; real
// architectures plug in behind the train.Model interface.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/somno-data/sleepstate.report/internal/config"
	"github.com/somno-data/sleepstate.report/internal/featurestore"
	"github.com/somno-data/sleepstate.report/internal/manifest"
	"github.com/somno-data/sleepstate.report/internal/prepare"
	"github.com/somno-data/sleepstate.report/internal/timeutil"
	"github.com/somno-data/sleepstate.report/internal/train"
)

func main() {
	var cfgPath string
	var phaseOverride string
	var epochsOverride int

	flag.StringVar(&cfgPath, "config", "./sleepstate.yaml", "path to YAML config")
	flag.StringVar(&phaseOverride, "phase", "", "override configured phase")
	flag.IntVar(&epochsOverride, "epochs", 0, "override configured epoch count")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	phaseStr := cfg.Train.Phase
	if phaseOverride != "" {
		phaseStr = phaseOverride
	}
	phase, err := prepare.ParsePhase(phaseStr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	epochs := cfg.Train.Epochs
	if epochsOverride > 0 {
		epochs = epochsOverride
	}

	store := featurestore.Open(filepath.Join(cfg.Dir.ProcessedDir, string(phase)))
	ids, err := store.ListSeries()
	if err != nil {
		log.Fatalf("list series: %v", err)
	}
	if len(ids) == 0 {
		log.Fatalf("no prepared series under %s; run prepare first", store.Root())
	}

	trainIDs, validIDs := train.SplitSeries(ids, cfg.Train.ValidFraction, cfg.Train.Seed)
	log.Printf("split %d series: %d train, %d valid", len(ids), len(trainIDs), len(validIDs))

	trainDS, err := train.NewDataset(store, trainIDs, cfg.Train.Features, cfg.Train.Duration, cfg.Train.Stride)
	if err != nil {
		log.Fatalf("build train dataset: %v", err)
	}
	var validDS *train.Dataset
	if len(validIDs) > 0 {
		validDS, err = train.NewDataset(store, validIDs, cfg.Train.Features, cfg.Train.Duration, cfg.Train.Stride)
		if err != nil {
			log.Fatalf("build valid dataset: %v", err)
		}
	}

	var db *manifest.DB
	if cfg.Dir.ManifestPath != "" {
		db, err = manifest.Open(cfg.Dir.ManifestPath)
		if err != nil {
			log.Fatalf("open manifest: %v", err)
		}
		defer db.Close()
	}

	model := train.NewBaselineModel(len(cfg.Train.Features))
	trainer, err := train.NewTrainer(train.Config{
		RunName:       cfg.Train.ExpName,
		Phase:         string(phase),
		Epochs:        epochs,
		BatchSize:     cfg.Train.BatchSize,
		Seed:          cfg.Train.Seed,
		MonitorMode:   cfg.Train.MonitorMode,
		CheckpointDir: filepath.Join(cfg.Dir.ModelDir, cfg.Train.ExpName),
	}, model, trainDS, validDS, db, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("init trainer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := trainer.Run(ctx)
	if err != nil {
		log.Fatalf("training run: %v", err)
	}

	log.Printf("run %s finished: best epoch %d (metric %.6f), checkpoints in %s",
		sum.RunID, sum.BestEpoch, sum.BestMetric, filepath.Dir(sum.LastPath))
}
