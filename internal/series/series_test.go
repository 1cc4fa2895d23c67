package series

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"utc offset", "2021-01-01T00:00:00+0000", false},
		{"negative offset", "2018-08-14T15:30:00-0400", false},
		{"positive offset", "2023-12-31T23:59:59+0930", false},
		{"missing offset", "2021-01-01T00:00:00", true},
		{"colon in offset", "2021-01-01T00:00:00+00:00", true},
		{"zulu suffix", "2021-01-01T00:00:00Z", true},
		{"space separator", "2021-01-01 00:00:00+0000", true},
		{"date only", "2021-01-01", true},
		{"empty", "", true},
		{"garbage", "not-a-timestamp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimestamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseTimestampOffsetHonored(t *testing.T) {
	got, err := ParseTimestamp("2018-08-14T20:00:00-0400")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want := time.Date(2018, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("instant = %v, want %v", got.UTC(), want)
	}
}

func TestRecordTimeWrapsParseError(t *testing.T) {
	r := Record{SeriesID: "S1", Step: 42, Timestamp: "bogus"}
	_, err := r.Time()
	if err == nil {
		t.Fatal("expected error for bogus timestamp")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not a *ParseError", err)
	}
	if pe.SeriesID != "S1" || pe.Step != 42 || pe.Value != "bogus" {
		t.Errorf("ParseError fields = %+v", pe)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	rows := []Record{
		{SeriesID: "s_a", Step: 0, Anglez: -12.5, Enmo: 0.02, Timestamp: "2021-01-01T00:00:00+0000"},
		{SeriesID: "s_a", Step: 1, Anglez: 3.25, Enmo: 0.0, Timestamp: "2021-01-01T00:00:05+0000"},
		{SeriesID: "s_b", Step: 0, Anglez: 88.0, Enmo: 1.5, Timestamp: "2020-06-30T23:55:00-0400"},
	}

	path := filepath.Join(t.TempDir(), "train_series.parquet")
	if err := WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.parquet")); err == nil {
		t.Error("expected error for missing file")
	}
}
