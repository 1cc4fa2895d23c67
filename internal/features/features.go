// Package features derives model input channels from raw accelerometer
// samples: fixed-constant z-score normalization of anglez and enmo, and
// cyclical sine/cosine encodings of the hour, month and minute components
// of the sample timestamp.
package features

import (
	"math"
	"time"
)

// Population statistics for z-score normalization. These were computed once
// over the full training corpus and are fixed at design time; recomputing
// them per run would change every stored array and break reproducibility.
const (
	AnglezMean = -8.810476
	AnglezStd  = 35.521877
	EnmoMean   = 0.041315
	EnmoStd    = 0.101829
)

// Periods of the cyclical time components.
const (
	HourPeriod   = 24
	MonthPeriod  = 12
	MinutePeriod = 60
)

// ChannelNames lists the derived channels in storage order. Array files on
// disk are named after these entries.
var ChannelNames = []string{
	"anglez",
	"enmo",
	"hour_sin",
	"hour_cos",
	"month_sin",
	"month_cos",
	"minute_sin",
	"minute_cos",
}

// NumChannels is the number of derived channels per sample.
const NumChannels = 8

// NormalizeAnglez applies the fixed z-score transform to a raw anglez value.
func NormalizeAnglez(v float32) float32 {
	return float32((float64(v) - AnglezMean) / AnglezStd)
}

// NormalizeEnmo applies the fixed z-score transform to a raw enmo value.
func NormalizeEnmo(v float32) float32 {
	return float32((float64(v) - EnmoMean) / EnmoStd)
}

// Cyclical maps an integer time component onto the unit circle so the end of
// a period joins seamlessly onto its beginning (23:00 is adjacent to 00:00).
// The modulo is defensive: extracted components are already within range.
func Cyclical(component, period int) (sin, cos float32) {
	rad := 2 * math.Pi * float64(component%period) / float64(period)
	return float32(math.Sin(rad)), float32(math.Cos(rad))
}

// Vector holds one sample's derived channels in ChannelNames order.
type Vector [NumChannels]float32

// Derive computes the full channel vector for one sample. The anglez and
// enmo inputs are raw values; the timestamp is reduced to UTC before the
// hour, month and minute components are extracted, matching how the training
// corpus was originally prepared.
func Derive(anglez, enmo float32, ts time.Time) Vector {
	utc := ts.UTC()

	var v Vector
	v[0] = NormalizeAnglez(anglez)
	v[1] = NormalizeEnmo(enmo)
	v[2], v[3] = Cyclical(utc.Hour(), HourPeriod)
	v[4], v[5] = Cyclical(int(utc.Month()), MonthPeriod)
	v[6], v[7] = Cyclical(utc.Minute(), MinutePeriod)
	return v
}
