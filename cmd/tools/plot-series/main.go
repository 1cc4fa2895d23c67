// Command plot-series renders PNG line plots of one prepared series'
// feature channels, one image per channel.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/somno-data/sleepstate.report/internal/features"
	"github.com/somno-data/sleepstate.report/internal/featurestore"
)

func main() {
	var storeDir string
	var seriesID string
	var channelsCSV string
	var outDir string

	flag.StringVar(&storeDir, "store", "./processed/train", "phase root of a prepared feature store")
	flag.StringVar(&seriesID, "series", "", "series to plot (required)")
	flag.StringVar(&channelsCSV, "channels", "", "comma-separated channels (default: all)")
	flag.StringVar(&outDir, "out", "plots", "output directory for PNGs")
	flag.Parse()

	if seriesID == "" {
		log.Fatalf("-series is required")
	}

	channels := features.ChannelNames
	if channelsCSV != "" {
		channels = strings.Split(channelsCSV, ",")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	store := featurestore.Open(storeDir)
	for _, channel := range channels {
		xs, err := store.ReadChannel(seriesID, channel)
		if err != nil {
			log.Fatalf("read %s/%s: %v", seriesID, channel, err)
		}

		pts := make(plotter.XYs, len(xs))
		for i, v := range xs {
			pts[i].X = float64(i)
			pts[i].Y = float64(v)
		}

		p := plot.New()
		p.Title.Text = seriesID + " " + channel
		p.X.Label.Text = "step (chronological index)"
		p.Y.Label.Text = channel

		line, err := plotter.NewLine(pts)
		if err != nil {
			log.Fatalf("build line for %s: %v", channel, err)
		}
		p.Add(line, plotter.NewGrid())

		out := filepath.Join(outDir, channel+".png")
		if err := p.Save(12*vg.Inch, 3*vg.Inch, out); err != nil {
			log.Fatalf("save %s: %v", out, err)
		}
		log.Printf("wrote %s (%d samples)", out, len(xs))
	}
}
