package manifest

import (
	"database/sql"
	"fmt"
	"time"
)

// PrepareRun is one recorded execution of the feature preparer.
type PrepareRun struct {
	RunID        string
	Phase        string
	ConfigDigest string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	SeriesCount  int
	SampleCount  int
}

// SeriesEntry is one series written by a prepare run.
type SeriesEntry struct {
	SeriesID string
	Samples  int
}

// BeginPrepareRun records the start of a prepare run.
func (db *DB) BeginPrepareRun(runID, phase, configDigest string, startedAt time.Time) error {
	_, err := db.Exec(
		`INSERT INTO prepare_runs (run_id, phase, config_digest, started_at) VALUES (?, ?, ?, ?)`,
		runID, phase, configDigest, startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record prepare run %s: %w", runID, err)
	}
	return nil
}

// RecordSeries records one series written by a run.
func (db *DB) RecordSeries(runID, seriesID string, samples int) error {
	_, err := db.Exec(
		`INSERT INTO prepare_series (run_id, series_id, samples) VALUES (?, ?, ?)`,
		runID, seriesID, samples,
	)
	if err != nil {
		return fmt.Errorf("record series %s for run %s: %w", seriesID, runID, err)
	}
	return nil
}

// FinishPrepareRun closes out a prepare run with its totals.
func (db *DB) FinishPrepareRun(runID string, finishedAt time.Time, seriesCount, sampleCount int) error {
	_, err := db.Exec(
		`UPDATE prepare_runs SET finished_at = ?, series_count = ?, sample_count = ? WHERE run_id = ?`,
		finishedAt.UTC(), seriesCount, sampleCount, runID,
	)
	if err != nil {
		return fmt.Errorf("finish prepare run %s: %w", runID, err)
	}
	return nil
}

// LatestPrepareRun returns the most recently started finished run for a
// phase, or sql.ErrNoRows if none exists.
func (db *DB) LatestPrepareRun(phase string) (*PrepareRun, error) {
	row := db.QueryRow(
		`SELECT run_id, phase, config_digest, started_at, finished_at, series_count, sample_count
		 FROM prepare_runs
		 WHERE phase = ? AND finished_at IS NOT NULL
		 ORDER BY started_at DESC LIMIT 1`,
		phase,
	)
	var r PrepareRun
	if err := row.Scan(&r.RunID, &r.Phase, &r.ConfigDigest, &r.StartedAt,
		&r.FinishedAt, &r.SeriesCount, &r.SampleCount); err != nil {
		return nil, err
	}
	return &r, nil
}

// RunSeries lists the series recorded for a run, sorted by series ID.
func (db *DB) RunSeries(runID string) ([]SeriesEntry, error) {
	rows, err := db.Query(
		`SELECT series_id, samples FROM prepare_series WHERE run_id = ? ORDER BY series_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list series for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []SeriesEntry
	for rows.Next() {
		var e SeriesEntry
		if err := rows.Scan(&e.SeriesID, &e.Samples); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EpochRecord is one epoch of a training run.
type EpochRecord struct {
	Epoch          int
	TrainLoss      float64
	MonitorValue   float64
	CheckpointPath string
	IsBest         bool
}

// BeginTrainingRun records the start of a training run.
func (db *DB) BeginTrainingRun(runID, name, phase string, seed int64, monitorMode string, startedAt time.Time) error {
	_, err := db.Exec(
		`INSERT INTO training_runs (run_id, name, phase, seed, monitor_mode, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, name, phase, seed, monitorMode, startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record training run %s: %w", runID, err)
	}
	return nil
}

// RecordEpoch records one epoch's metrics and checkpoint.
func (db *DB) RecordEpoch(runID string, rec EpochRecord) error {
	best := 0
	if rec.IsBest {
		best = 1
	}
	_, err := db.Exec(
		`INSERT INTO training_epochs (run_id, epoch, train_loss, monitor_value, checkpoint_path, is_best)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, rec.Epoch, rec.TrainLoss, rec.MonitorValue, rec.CheckpointPath, best,
	)
	if err != nil {
		return fmt.Errorf("record epoch %d for run %s: %w", rec.Epoch, runID, err)
	}
	return nil
}

// FinishTrainingRun closes out a training run.
func (db *DB) FinishTrainingRun(runID string, finishedAt time.Time) error {
	_, err := db.Exec(
		`UPDATE training_runs SET finished_at = ? WHERE run_id = ?`,
		finishedAt.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish training run %s: %w", runID, err)
	}
	return nil
}

// EpochHistory lists the epochs of a training run in order.
func (db *DB) EpochHistory(runID string) ([]EpochRecord, error) {
	rows, err := db.Query(
		`SELECT epoch, train_loss, monitor_value, checkpoint_path, is_best
		 FROM training_epochs WHERE run_id = ? ORDER BY epoch`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list epochs for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []EpochRecord
	for rows.Next() {
		var e EpochRecord
		var best int
		if err := rows.Scan(&e.Epoch, &e.TrainLoss, &e.MonitorValue, &e.CheckpointPath, &best); err != nil {
			return nil, err
		}
		e.IsBest = best != 0
		out = append(out, e)
	}
	return out, rows.Err()
}
