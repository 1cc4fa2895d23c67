// Package prepare implements the offline feature preparation pipeline:
// load raw series records for a phase, normalize, sort chronologically,
// derive cyclical time channels, and fan the result out to one array
// directory per series. Every failure is fatal; the correct remedy is to
// fix the input or config and rerun from scratch.
package prepare

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/somno-data/sleepstate.report/internal/features"
	"github.com/somno-data/sleepstate.report/internal/featurestore"
	"github.com/somno-data/sleepstate.report/internal/fsutil"
	"github.com/somno-data/sleepstate.report/internal/manifest"
	"github.com/somno-data/sleepstate.report/internal/series"
	"github.com/somno-data/sleepstate.report/internal/timeutil"
	"github.com/somno-data/sleepstate.report/internal/trace"
)

// Phase selects which raw series source is prepared.
type Phase string

// Recognized phases.
const (
	PhaseTrain Phase = "train"
	PhaseTest  Phase = "test"
	PhaseDev   Phase = "dev"
)

// InvalidPhaseError reports a phase outside {train, test, dev}. It is
// returned before any filesystem access.
type InvalidPhaseError struct {
	Phase string
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("invalid phase %q (want train, test or dev)", e.Phase)
}

// ParsePhase validates a phase string.
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhaseTrain, PhaseTest, PhaseDev:
		return Phase(s), nil
	}
	return "", &InvalidPhaseError{Phase: s}
}

// Options configures a pipeline run.
type Options struct {
	// DataDir holds the raw {phase}_series.parquet sources for train/test.
	DataDir string

	// ProcessedDir is the output root. The phase writes to
	// {ProcessedDir}/{phase}; the dev phase also reads its source parquet
	// from ProcessedDir.
	ProcessedDir string

	// Phase is one of train, test, dev.
	Phase Phase

	// ConfigDigest identifies the configuration in the manifest. Optional.
	ConfigDigest string

	// FS defaults to the OS filesystem.
	FS fsutil.FileSystem

	// Clock defaults to the real clock.
	Clock timeutil.Clock

	// Manifest, when non-nil, records the run and its series.
	Manifest *manifest.DB
}

// Result summarizes a completed run.
type Result struct {
	RunID       string
	Phase       Phase
	OutputDir   string
	SeriesCount int
	SampleCount int
}

// sourcePath resolves the raw parquet source for a phase. Train and test
// read from the raw data directory; dev reads a pre-extracted slice that
// lives next to the processed output.
func sourcePath(opts Options) string {
	if opts.Phase == PhaseDev {
		return filepath.Join(opts.ProcessedDir, "dev_series.parquet")
	}
	return filepath.Join(opts.DataDir, string(opts.Phase)+"_series.parquet")
}

// sample is one record with its timestamp parsed and its sensor values
// normalized.
type sample struct {
	seriesID string
	ts       time.Time
	anglez   float32
	enmo     float32
}

// Run executes the pipeline. The phase output tree is deleted before
// writing begins; two runs over identical input produce byte-identical
// trees.
func Run(opts Options) (*Result, error) {
	if _, err := ParsePhase(string(opts.Phase)); err != nil {
		return nil, err
	}
	if opts.FS == nil {
		opts.FS = fsutil.OSFileSystem{}
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	runID := uuid.NewString()
	startedAt := opts.Clock.Now()
	if opts.Manifest != nil {
		if err := opts.Manifest.BeginPrepareRun(runID, string(opts.Phase), opts.ConfigDigest, startedAt); err != nil {
			return nil, err
		}
	}

	outDir := filepath.Join(opts.ProcessedDir, string(opts.Phase))
	store := featurestore.New(outDir, opts.FS)

	// Clean rebuild: stale output from a differently-configured run must
	// never leak into this one.
	if err := store.Reset(); err != nil {
		return nil, err
	}

	span := trace.Start(opts.Clock, "Load series")
	samples, err := load(sourcePath(opts))
	if err != nil {
		return nil, err
	}
	span.End()

	// Primary key series_id, secondary timestamp ascending. Array index
	// encodes time order downstream, so this sort is load-bearing; it is
	// stable so duplicate timestamps keep their input order.
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].seriesID != samples[j].seriesID {
			return samples[i].seriesID < samples[j].seriesID
		}
		return samples[i].ts.Before(samples[j].ts)
	})

	span = trace.Start(opts.Clock, "Save features")
	seriesCount := 0
	// Groups are contiguous after the sort; every record belongs to
	// exactly one group.
	for start := 0; start < len(samples); {
		end := start
		for end < len(samples) && samples[end].seriesID == samples[start].seriesID {
			end++
		}
		group := samples[start:end]
		if err := persistSeries(store, group); err != nil {
			return nil, err
		}
		if opts.Manifest != nil {
			if err := opts.Manifest.RecordSeries(runID, group[0].seriesID, len(group)); err != nil {
				return nil, err
			}
		}
		seriesCount++
		start = end
	}
	span.End()

	if opts.Manifest != nil {
		if err := opts.Manifest.FinishPrepareRun(runID, opts.Clock.Now(), seriesCount, len(samples)); err != nil {
			return nil, err
		}
	}

	return &Result{
		RunID:       runID,
		Phase:       opts.Phase,
		OutputDir:   outDir,
		SeriesCount: seriesCount,
		SampleCount: len(samples),
	}, nil
}

// load reads the raw parquet source and parses every timestamp. A single
// malformed timestamp aborts the run.
func load(path string) ([]sample, error) {
	rows, err := series.ReadFile(path)
	if err != nil {
		return nil, err
	}

	samples := make([]sample, len(rows))
	for i, r := range rows {
		ts, err := r.Time()
		if err != nil {
			return nil, err
		}
		samples[i] = sample{
			seriesID: r.SeriesID,
			ts:       ts,
			anglez:   r.Anglez,
			enmo:     r.Enmo,
		}
	}
	return samples, nil
}

// persistSeries derives the channel arrays for one sorted group and writes
// them through the store.
func persistSeries(store *featurestore.Store, group []sample) error {
	channels := make(map[string][]float32, features.NumChannels)
	for _, name := range features.ChannelNames {
		channels[name] = make([]float32, 0, len(group))
	}

	for _, s := range group {
		v := features.Derive(s.anglez, s.enmo, s.ts)
		for i, name := range features.ChannelNames {
			channels[name] = append(channels[name], v[i])
		}
	}

	return store.WriteSeries(group[0].seriesID, channels, features.ChannelNames)
}
