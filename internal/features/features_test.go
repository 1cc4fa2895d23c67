package features

import (
	"math"
	"testing"
	"time"
)

const tol = 1e-4

func TestNormalizeAnglez(t *testing.T) {
	tests := []struct {
		name     string
		raw      float32
		expected float64
	}{
		{"zero input", 0.0, 0.24803},
		{"mean maps to zero", -8.810476, 0.0},
		{"one sigma above mean", -8.810476 + 35.521877, 1.0},
		{"large positive angle", 90.0, 2.78167},
		{"large negative angle", -90.0, -2.28561},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(NormalizeAnglez(tt.raw))
			if math.Abs(got-tt.expected) > tol {
				t.Errorf("NormalizeAnglez(%v) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestNormalizeEnmo(t *testing.T) {
	tests := []struct {
		name     string
		raw      float32
		expected float64
	}{
		{"zero input", 0.0, -0.40573},
		{"mean maps to zero", 0.041315, 0.0},
		{"one sigma above mean", 0.041315 + 0.101829, 1.0},
		{"typical motion burst", 0.5, 4.50446},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(NormalizeEnmo(tt.raw))
			if math.Abs(got-tt.expected) > tol {
				t.Errorf("NormalizeEnmo(%v) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestCyclical(t *testing.T) {
	tests := []struct {
		name      string
		component int
		period    int
		wantSin   float64
		wantCos   float64
	}{
		{"hour 0", 0, HourPeriod, 0, 1},
		{"hour 6 quarter turn", 6, HourPeriod, 1, 0},
		{"hour 12 half turn", 12, HourPeriod, 0, -1},
		{"hour 18 three quarters", 18, HourPeriod, -1, 0},
		{"month 1", 1, MonthPeriod, 0.5, math.Sqrt(3) / 2},
		{"month 12 wraps to zero", 12, MonthPeriod, 0, 1},
		{"minute 0", 0, MinutePeriod, 0, 1},
		{"minute 15 quarter turn", 15, MinutePeriod, 1, 0},
		{"defensive modulo", 24, HourPeriod, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sin, cos := Cyclical(tt.component, tt.period)
			if math.Abs(float64(sin)-tt.wantSin) > tol {
				t.Errorf("sin = %v, want %v", sin, tt.wantSin)
			}
			if math.Abs(float64(cos)-tt.wantCos) > tol {
				t.Errorf("cos = %v, want %v", cos, tt.wantCos)
			}
		})
	}
}

// The sine/cosine pair of every periodic feature must land on the unit
// circle for any component value.
func TestCyclicalUnitCircle(t *testing.T) {
	for _, period := range []int{HourPeriod, MonthPeriod, MinutePeriod} {
		for component := 0; component < 2*period; component++ {
			sin, cos := Cyclical(component, period)
			norm := float64(sin)*float64(sin) + float64(cos)*float64(cos)
			if math.Abs(norm-1) > 1e-6 {
				t.Fatalf("Cyclical(%d, %d): sin^2+cos^2 = %v", component, period, norm)
			}
		}
	}
}

func TestDeriveWorkedExample(t *testing.T) {
	ts, err := time.Parse("2006-01-02T15:04:05-0700", "2021-01-01T00:00:00+0000")
	if err != nil {
		t.Fatalf("parse fixture timestamp: %v", err)
	}

	v := Derive(0, 0, ts)

	want := []float64{
		0.24803,           // anglez
		-0.40573,          // enmo
		0, 1,              // hour 0
		0.5, math.Sqrt(3) / 2, // month 1
		0, 1,              // minute 0
	}
	for i, w := range want {
		if math.Abs(float64(v[i])-w) > tol {
			t.Errorf("channel %s = %v, want %v", ChannelNames[i], v[i], w)
		}
	}
}

// Component extraction happens on the UTC instant, so the same moment
// expressed in two offsets derives identical channels.
func TestDeriveOffsetIndependent(t *testing.T) {
	layout := "2006-01-02T15:04:05-0700"
	utc, err := time.Parse(layout, "2021-06-15T10:30:00+0000")
	if err != nil {
		t.Fatal(err)
	}
	shifted, err := time.Parse(layout, "2021-06-15T06:30:00-0400")
	if err != nil {
		t.Fatal(err)
	}

	a := Derive(1.5, 0.1, utc)
	b := Derive(1.5, 0.1, shifted)
	if a != b {
		t.Errorf("Derive differs across equivalent offsets: %v vs %v", a, b)
	}
}

func TestChannelNamesShape(t *testing.T) {
	if len(ChannelNames) != NumChannels {
		t.Fatalf("len(ChannelNames) = %d, want %d", len(ChannelNames), NumChannels)
	}
	if ChannelNames[0] != "anglez" || ChannelNames[1] != "enmo" {
		t.Errorf("normalized sensor channels must come first: %v", ChannelNames[:2])
	}
}
