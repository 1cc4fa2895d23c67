package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/somno-data/sleepstate.report/internal/manifest"
	"github.com/somno-data/sleepstate.report/internal/timeutil"
)

// Model is the training-framework boundary. The driver never looks inside:
// architecture, optimization and checkpoint contents are the model's
// business.
type Model interface {
	// TrainBatch consumes one shuffled batch and returns its loss.
	TrainBatch(batch []Window) (loss float64, err error)

	// Evaluate scores the validation windows and returns the monitored
	// metric.
	Evaluate(windows []Window) (metric float64, err error)

	// Snapshot writes a checkpoint to path.
	Snapshot(path string) error
}

// Monitor modes for checkpoint selection.
const (
	MonitorMin = "min"
	MonitorMax = "max"
)

// Config holds the driver knobs.
type Config struct {
	RunName       string
	Phase         string
	Epochs        int
	BatchSize     int
	Seed          int64
	MonitorMode   string // MonitorMin or MonitorMax
	CheckpointDir string
}

// Summary reports the outcome of a training run.
type Summary struct {
	RunID      string
	Epochs     int
	BestEpoch  int
	BestMetric float64
	LastPath   string
	BestPath   string
}

// Trainer runs the epoch/batch loop.
type Trainer struct {
	cfg      Config
	model    Model
	train    *Dataset
	valid    *Dataset
	manifest *manifest.DB // optional
	clock    timeutil.Clock
}

// NewTrainer wires a trainer. manifest may be nil; clock defaults to the
// real clock.
func NewTrainer(cfg Config, model Model, train, valid *Dataset, db *manifest.DB, clock timeutil.Clock) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("trainer: epochs must be positive, got %d", cfg.Epochs)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("trainer: batch size must be positive, got %d", cfg.BatchSize)
	}
	switch cfg.MonitorMode {
	case MonitorMin, MonitorMax:
	default:
		return nil, fmt.Errorf("trainer: monitor mode %q (want min or max)", cfg.MonitorMode)
	}
	if train.Len() == 0 {
		return nil, fmt.Errorf("trainer: empty training dataset")
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Trainer{cfg: cfg, model: model, train: train, valid: valid, manifest: db, clock: clock}, nil
}

// improved reports whether metric beats best under the configured mode.
func (t *Trainer) improved(metric, best float64) bool {
	if t.cfg.MonitorMode == MonitorMax {
		return metric > best
	}
	return metric < best
}

// Run executes the full training loop. The seed fixes both the shuffle
// order and anything the model derives from it, so runs are reproducible.
func (t *Trainer) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	startedAt := t.clock.Now()
	if t.manifest != nil {
		if err := t.manifest.BeginTrainingRun(runID, t.cfg.RunName, t.cfg.Phase,
			t.cfg.Seed, t.cfg.MonitorMode, startedAt); err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))

	best := math.Inf(1)
	if t.cfg.MonitorMode == MonitorMax {
		best = math.Inf(-1)
	}
	bestEpoch := -1

	lastPath := filepath.Join(t.cfg.CheckpointDir, "last.json")
	bestPath := filepath.Join(t.cfg.CheckpointDir, "best.json")

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		t.train.Shuffle(rng)

		var lossSum float64
		batches := 0
		for start := 0; start < t.train.Len(); start += t.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := start + t.cfg.BatchSize
			if end > t.train.Len() {
				end = t.train.Len()
			}
			batch := make([]Window, 0, end-start)
			for i := start; i < end; i++ {
				batch = append(batch, t.train.At(i))
			}
			loss, err := t.model.TrainBatch(batch)
			if err != nil {
				return nil, fmt.Errorf("epoch %d: train batch: %w", epoch, err)
			}
			lossSum += loss
			batches++
		}
		trainLoss := lossSum / float64(batches)

		metric := trainLoss
		if t.valid != nil && t.valid.Len() > 0 {
			m, err := t.model.Evaluate(t.valid.All())
			if err != nil {
				return nil, fmt.Errorf("epoch %d: evaluate: %w", epoch, err)
			}
			metric = m
		}

		// Last checkpoint is always refreshed; best only on improvement.
		if err := t.model.Snapshot(lastPath); err != nil {
			return nil, fmt.Errorf("epoch %d: snapshot: %w", epoch, err)
		}
		isBest := t.improved(metric, best)
		if isBest {
			best = metric
			bestEpoch = epoch
			if err := t.model.Snapshot(bestPath); err != nil {
				return nil, fmt.Errorf("epoch %d: snapshot best: %w", epoch, err)
			}
		}

		if t.manifest != nil {
			if err := t.manifest.RecordEpoch(runID, manifest.EpochRecord{
				Epoch:          epoch,
				TrainLoss:      trainLoss,
				MonitorValue:   metric,
				CheckpointPath: lastPath,
				IsBest:         isBest,
			}); err != nil {
				return nil, err
			}
		}
	}

	if t.manifest != nil {
		if err := t.manifest.FinishTrainingRun(runID, t.clock.Now()); err != nil {
			return nil, err
		}
	}

	return &Summary{
		RunID:      runID,
		Epochs:     t.cfg.Epochs,
		BestEpoch:  bestEpoch,
		BestMetric: best,
		LastPath:   lastPath,
		BestPath:   bestPath,
	}, nil
}
