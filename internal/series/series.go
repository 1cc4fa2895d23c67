// Package series models raw accelerometer-derived samples and loads them
// from Parquet sources.
package series

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// TimestampLayout is the exact accepted timestamp format,
// YYYY-MM-DDTHH:MM:SS with a numeric zone offset (e.g. 2021-01-01T00:00:00-0400).
const TimestampLayout = "2006-01-02T15:04:05-0700"

// Record is one raw sensor sample as stored in the source Parquet files.
// Ordering within a series is chronological and load-bearing downstream.
type Record struct {
	SeriesID  string  `parquet:"series_id"`
	Step      uint32  `parquet:"step"`
	Anglez    float32 `parquet:"anglez"`
	Enmo      float32 `parquet:"enmo"`
	Timestamp string  `parquet:"timestamp"`
}

// ParseError reports a timestamp string that does not match TimestampLayout.
// It aborts the whole run; there is no per-record skip-and-continue.
type ParseError struct {
	SeriesID string
	Step     uint32
	Value    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("series %s step %d: timestamp %q does not match %s: %v",
		e.SeriesID, e.Step, e.Value, TimestampLayout, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseTimestamp parses a raw timestamp string with the exact layout.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// Time parses the record's timestamp, wrapping failures in a ParseError.
func (r Record) Time() (time.Time, error) {
	t, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return time.Time{}, &ParseError{
			SeriesID: r.SeriesID,
			Step:     r.Step,
			Value:    r.Timestamp,
			Err:      err,
		}
	}
	return t, nil
}

// ReadFile loads every record from a Parquet file.
func ReadFile(path string) ([]Record, error) {
	rows, err := parquet.ReadFile[Record](path)
	if err != nil {
		return nil, fmt.Errorf("read series parquet %s: %w", path, err)
	}
	return rows, nil
}

// WriteFile writes records to a Parquet file. Used to build dev-phase
// sources and test fixtures.
func WriteFile(path string, rows []Record) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write series parquet %s: %w", path, err)
	}
	return nil
}
