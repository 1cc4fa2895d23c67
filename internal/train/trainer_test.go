package train

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somno-data/sleepstate.report/internal/manifest"
	"github.com/somno-data/sleepstate.report/internal/timeutil"
)

// scriptedModel returns canned metrics and records driver activity.
type scriptedModel struct {
	metrics     []float64 // per-epoch evaluation results
	epoch       int
	trainRows   int
	snapshots   []string
	failTrain   bool
	snapshotErr error
}

func (m *scriptedModel) TrainBatch(batch []Window) (float64, error) {
	if m.failTrain {
		return 0, assert.AnError
	}
	for _, w := range batch {
		m.trainRows += len(w.Data)
	}
	return 1.0, nil
}

func (m *scriptedModel) Evaluate(windows []Window) (float64, error) {
	v := m.metrics[m.epoch]
	m.epoch++
	return v, nil
}

func (m *scriptedModel) Snapshot(path string) error {
	if m.snapshotErr != nil {
		return m.snapshotErr
	}
	m.snapshots = append(m.snapshots, filepath.Base(path))
	return os.WriteFile(path, []byte("{}"), 0o644)
}

func newTestDatasets(t *testing.T) (*Dataset, *Dataset) {
	t.Helper()
	store := seedStore(t, map[string]int{"a": 20, "b": 20, "v": 10})
	trainDS, err := NewDataset(store, []string{"a", "b"}, testChannels, 5, 5)
	require.NoError(t, err)
	validDS, err := NewDataset(store, []string{"v"}, testChannels, 5, 5)
	require.NoError(t, err)
	return trainDS, validDS
}

func testConfig(t *testing.T) Config {
	return Config{
		RunName:       "exp-test",
		Phase:         "train",
		Epochs:        3,
		BatchSize:     4,
		Seed:          42,
		MonitorMode:   MonitorMin,
		CheckpointDir: t.TempDir(),
	}
}

func TestTrainerSelectsBestEpochMin(t *testing.T) {
	trainDS, validDS := newTestDatasets(t)
	model := &scriptedModel{metrics: []float64{0.9, 0.4, 0.6}}

	tr, err := NewTrainer(testConfig(t), model, trainDS, validDS, nil, timeutil.RealClock{})
	require.NoError(t, err)

	sum, err := tr.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.BestEpoch)
	assert.Equal(t, 0.4, sum.BestMetric)
	assert.Equal(t, 3, sum.Epochs)
	assert.NotEmpty(t, sum.RunID)

	// last written every epoch; best on epochs 0 and 1 only.
	wantSnapshots := []string{"last.json", "best.json", "last.json", "best.json", "last.json"}
	assert.Equal(t, wantSnapshots, model.snapshots)

	if _, err := os.Stat(sum.LastPath); err != nil {
		t.Errorf("last checkpoint missing: %v", err)
	}
	if _, err := os.Stat(sum.BestPath); err != nil {
		t.Errorf("best checkpoint missing: %v", err)
	}
}

func TestTrainerSelectsBestEpochMax(t *testing.T) {
	trainDS, validDS := newTestDatasets(t)
	model := &scriptedModel{metrics: []float64{0.1, 0.3, 0.2}}

	cfg := testConfig(t)
	cfg.MonitorMode = MonitorMax
	tr, err := NewTrainer(cfg, model, trainDS, validDS, nil, timeutil.RealClock{})
	require.NoError(t, err)

	sum, err := tr.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.BestEpoch)
	assert.Equal(t, 0.3, sum.BestMetric)
}

func TestTrainerCoversEveryWindowPerEpoch(t *testing.T) {
	trainDS, validDS := newTestDatasets(t)
	model := &scriptedModel{metrics: []float64{1, 1, 1}}

	tr, err := NewTrainer(testConfig(t), model, trainDS, validDS, nil, timeutil.RealClock{})
	require.NoError(t, err)
	_, err = tr.Run(context.Background())
	require.NoError(t, err)

	// 8 train windows x 5 rows x 3 epochs.
	assert.Equal(t, 8*5*3, model.trainRows)
}

func TestTrainerRecordsManifest(t *testing.T) {
	trainDS, validDS := newTestDatasets(t)
	model := &scriptedModel{metrics: []float64{0.9, 0.4, 0.6}}

	db, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	defer db.Close()

	clock := timeutil.NewMockClock(time.Date(2023, 11, 5, 8, 0, 0, 0, time.UTC))
	tr, err := NewTrainer(testConfig(t), model, trainDS, validDS, db, clock)
	require.NoError(t, err)

	sum, err := tr.Run(context.Background())
	require.NoError(t, err)

	epochs, err := db.EpochHistory(sum.RunID)
	require.NoError(t, err)
	require.Len(t, epochs, 3)
	assert.True(t, epochs[0].IsBest)
	assert.True(t, epochs[1].IsBest)
	assert.False(t, epochs[2].IsBest)
	assert.Equal(t, 0.4, epochs[1].MonitorValue)
}

func TestTrainerContextCancel(t *testing.T) {
	trainDS, validDS := newTestDatasets(t)
	model := &scriptedModel{metrics: []float64{1, 1, 1}}

	tr, err := NewTrainer(testConfig(t), model, trainDS, validDS, nil, timeutil.RealClock{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainerConfigValidation(t *testing.T) {
	trainDS, validDS := newTestDatasets(t)
	model := &scriptedModel{}

	bad := []Config{
		{Epochs: 0, BatchSize: 1, MonitorMode: MonitorMin},
		{Epochs: 1, BatchSize: 0, MonitorMode: MonitorMin},
		{Epochs: 1, BatchSize: 1, MonitorMode: "median"},
	}
	for _, cfg := range bad {
		_, err := NewTrainer(cfg, model, trainDS, validDS, nil, nil)
		assert.Error(t, err, "config %+v", cfg)
	}
}

func TestBaselineModelLearns(t *testing.T) {
	store := seedStore(t, map[string]int{"a": 40})
	ds, err := NewDataset(store, []string{"a"}, testChannels, 4, 4)
	require.NoError(t, err)

	model := NewBaselineModel(len(testChannels))

	// First pass scores against zero means; second pass against fitted
	// means must be no worse.
	first, err := model.TrainBatch(ds.All())
	require.NoError(t, err)
	second, err := model.Evaluate(ds.All())
	require.NoError(t, err)
	assert.Less(t, second, first, "fitted means should reduce squared deviation")

	assert.Greater(t, model.Std(0), 0.0)
}

func TestBaselineSnapshot(t *testing.T) {
	model := NewBaselineModel(2)
	_, err := model.TrainBatch([]Window{{
		SeriesID: "a",
		Data:     [][]float32{{1, 2}, {3, 4}},
	}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ckpt", "best.json")
	require.NoError(t, model.Snapshot(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"mean\"")
}
