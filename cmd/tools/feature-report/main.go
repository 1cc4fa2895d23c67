// Command feature-report renders an HTML distribution report over a
// prepared feature store phase: per-channel summary statistics and
// histograms, useful for spotting normalization drift between phases.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/somno-data/sleepstate.report/internal/featurestore"
)

func main() {
	var storeDir string
	var outPath string
	var channelsCSV string
	var bins int

	flag.StringVar(&storeDir, "store", "./processed/train", "phase root of a prepared feature store")
	flag.StringVar(&outPath, "out", "feature-report.html", "output HTML path")
	flag.StringVar(&channelsCSV, "channels", "anglez,enmo", "comma-separated channels to report")
	flag.IntVar(&bins, "bins", 40, "histogram bin count")
	flag.Parse()

	channels := strings.Split(channelsCSV, ",")

	store := featurestore.Open(storeDir)
	ids, err := store.ListSeries()
	if err != nil {
		log.Fatalf("list series: %v", err)
	}
	if len(ids) == 0 {
		log.Fatalf("no series under %s", storeDir)
	}
	log.Printf("reporting over %d series from %s", len(ids), storeDir)

	page := components.NewPage()
	page.PageTitle = "sleepstate feature report"

	for _, channel := range channels {
		values, err := collect(store, ids, channel)
		if err != nil {
			log.Fatalf("collect %s: %v", channel, err)
		}
		mean := stat.Mean(values, nil)
		sd := stat.StdDev(values, nil)
		q50 := stat.Quantile(0.5, stat.Empirical, values, nil)
		log.Printf("%s: n=%d mean=%.4f std=%.4f median=%.4f min=%.4f max=%.4f",
			channel, len(values), mean, sd, q50, values[0], values[len(values)-1])

		page.AddCharts(histogram(channel, values, bins, mean, sd))
	}

	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("create %s: %v", outPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("wrote %s", outPath)
}

// collect concatenates one channel across every series, sorted ascending
// for quantile and histogram computation.
func collect(store *featurestore.Store, ids []string, channel string) ([]float64, error) {
	var values []float64
	for _, id := range ids {
		xs, err := store.ReadChannel(id, channel)
		if err != nil {
			return nil, err
		}
		for _, x := range xs {
			values = append(values, float64(x))
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("channel %s is empty", channel)
	}
	sort.Float64s(values)
	return values, nil
}

// histogram builds a bar chart of the value distribution.
func histogram(channel string, sorted []float64, bins int, mean, sd float64) *charts.Bar {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// Last divider must sit above the max for the final bin to catch it.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	labels := make([]string, bins)
	data := make([]opts.BarData, bins)
	for i := 0; i < bins; i++ {
		labels[i] = fmt.Sprintf("%.2f", (dividers[i]+dividers[i+1])/2)
		data[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    channel,
			Subtitle: fmt.Sprintf("n=%d mean=%.4f std=%.4f", len(sorted), mean, sd),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: channel}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	bar.SetXAxis(labels).AddSeries("count", data)
	return bar
}
