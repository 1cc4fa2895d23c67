// Package train drives the offline training loop over prepared feature
// arrays: window assembly, epoch/batch iteration, checkpoint selection and
// run bookkeeping. Network architecture and optimization internals live
// behind the Model interface.
package train

import (
	"fmt"
	"math/rand"

	"github.com/somno-data/sleepstate.report/internal/featurestore"
)

// Window is one fixed-length slice of a series' feature matrix. Rows past
// the end of a short series are zero-padded.
type Window struct {
	SeriesID string
	Start    int
	// Data is [duration][len(channels)]float32 in channel order.
	Data [][]float32
}

type windowRef struct {
	seriesID string
	start    int
}

// Dataset assembles fixed-duration windows from a feature store phase.
// Series are loaded eagerly; this is an offline batch job and the prepared
// arrays for one phase fit in memory.
type Dataset struct {
	channels []string
	duration int
	stride   int
	series   map[string][][]float32
	windows  []windowRef
}

// NewDataset loads the named series from the store and indexes their
// windows. Stride defaults to duration (non-overlapping) when zero.
func NewDataset(store *featurestore.Store, seriesIDs, channels []string, duration, stride int) (*Dataset, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("dataset: duration must be positive, got %d", duration)
	}
	if stride <= 0 {
		stride = duration
	}

	d := &Dataset{
		channels: channels,
		duration: duration,
		stride:   stride,
		series:   make(map[string][][]float32, len(seriesIDs)),
	}

	for _, id := range seriesIDs {
		cols, err := store.ReadSeries(id, channels)
		if err != nil {
			return nil, err
		}
		n := len(cols[channels[0]])
		rows := make([][]float32, n)
		for i := range rows {
			row := make([]float32, len(channels))
			for j, name := range channels {
				row[j] = cols[name][i]
			}
			rows[i] = row
		}
		d.series[id] = rows
		d.indexWindows(id, n)
	}
	return d, nil
}

// indexWindows registers the window starts for one series. Short series get
// a single zero-padded window; otherwise windows advance by stride with a
// final window clamped to cover the tail.
func (d *Dataset) indexWindows(id string, n int) {
	if n <= d.duration {
		d.windows = append(d.windows, windowRef{seriesID: id, start: 0})
		return
	}
	last := -1
	for start := 0; start+d.duration <= n; start += d.stride {
		d.windows = append(d.windows, windowRef{seriesID: id, start: start})
		last = start
	}
	if tail := n - d.duration; tail > last {
		d.windows = append(d.windows, windowRef{seriesID: id, start: tail})
	}
}

// Len returns the number of windows.
func (d *Dataset) Len() int { return len(d.windows) }

// NumChannels returns the per-row channel count.
func (d *Dataset) NumChannels() int { return len(d.channels) }

// Duration returns the window length in samples.
func (d *Dataset) Duration() int { return d.duration }

// At materializes window i.
func (d *Dataset) At(i int) Window {
	ref := d.windows[i]
	rows := d.series[ref.seriesID]

	data := make([][]float32, d.duration)
	for r := 0; r < d.duration; r++ {
		src := ref.start + r
		if src < len(rows) {
			data[r] = rows[src]
		} else {
			data[r] = make([]float32, len(d.channels))
		}
	}
	return Window{SeriesID: ref.seriesID, Start: ref.start, Data: data}
}

// All materializes every window in index order.
func (d *Dataset) All() []Window {
	out := make([]Window, d.Len())
	for i := range out {
		out[i] = d.At(i)
	}
	return out
}

// Shuffle permutes the window order using the given source. With the same
// seed the permutation is reproducible.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.windows), func(i, j int) {
		d.windows[i], d.windows[j] = d.windows[j], d.windows[i]
	})
}
