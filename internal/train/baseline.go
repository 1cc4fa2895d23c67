package train

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// BaselineModel is a minimal Model used to exercise the driver end to end:
// it fits per-channel Gaussian statistics over the training windows with a
// streaming Welford update and scores windows by their mean squared
// deviation from the learned means. Real architectures replace it behind
// the Model interface.
type BaselineModel struct {
	channels int
	count    float64
	mean     []float64
	m2       []float64
}

// NewBaselineModel creates a baseline over the given channel count.
func NewBaselineModel(channels int) *BaselineModel {
	return &BaselineModel{
		channels: channels,
		mean:     make([]float64, channels),
		m2:       make([]float64, channels),
	}
}

// TrainBatch scores the batch against the current statistics, then folds
// the batch in.
func (m *BaselineModel) TrainBatch(batch []Window) (float64, error) {
	loss, n := m.score(batch)
	if n == 0 {
		return 0, fmt.Errorf("baseline: empty batch")
	}

	for _, w := range batch {
		for _, row := range w.Data {
			if len(row) != m.channels {
				return 0, fmt.Errorf("baseline: row has %d channels, want %d", len(row), m.channels)
			}
			m.count++
			for c, v := range row {
				delta := float64(v) - m.mean[c]
				m.mean[c] += delta / m.count
				m.m2[c] += delta * (float64(v) - m.mean[c])
			}
		}
	}
	return loss, nil
}

// Evaluate returns the mean squared deviation of the windows from the
// learned channel means.
func (m *BaselineModel) Evaluate(windows []Window) (float64, error) {
	metric, n := m.score(windows)
	if n == 0 {
		return 0, fmt.Errorf("baseline: no validation rows")
	}
	return metric, nil
}

func (m *BaselineModel) score(windows []Window) (float64, int) {
	var sum float64
	n := 0
	for _, w := range windows {
		for _, row := range w.Data {
			for c, v := range row {
				if c >= m.channels {
					break
				}
				d := float64(v) - m.mean[c]
				sum += d * d
			}
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n*m.channels), n
}

// Std returns the learned standard deviation for a channel.
func (m *BaselineModel) Std(channel int) float64 {
	if m.count < 2 {
		return 0
	}
	return math.Sqrt(m.m2[channel] / (m.count - 1))
}

type baselineCheckpoint struct {
	Count float64   `json:"count"`
	Mean  []float64 `json:"mean"`
	Std   []float64 `json:"std"`
}

// Snapshot writes the learned statistics as JSON.
func (m *BaselineModel) Snapshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	ckpt := baselineCheckpoint{
		Count: m.count,
		Mean:  append([]float64(nil), m.mean...),
		Std:   make([]float64, m.channels),
	}
	for c := range ckpt.Std {
		ckpt.Std[c] = m.Std(c)
	}
	data, err := json.MarshalIndent(ckpt, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	return nil
}
