// Package npy reads and writes flat float32 NumPy ".npy" arrays through a
// fsutil.FileSystem, so the feature store stays byte-compatible with numpy
// consumers.
package npy

import (
	"bytes"
	"fmt"

	"github.com/sbinet/npyio"

	"github.com/somno-data/sleepstate.report/internal/fsutil"
)

// WriteFloat32 writes xs to path as a one-dimensional little-endian float32
// array. The encoding is deterministic: identical input produces an
// identical file.
func WriteFloat32(fs fsutil.FileSystem, path string, xs []float32) error {
	var buf bytes.Buffer
	if err := npyio.Write(&buf, xs); err != nil {
		return fmt.Errorf("encode npy %s: %w", path, err)
	}
	if err := fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write npy %s: %w", path, err)
	}
	return nil
}

// ReadFloat32 reads a one-dimensional float32 array from path.
func ReadFloat32(fs fsutil.FileSystem, path string) ([]float32, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open npy %s: %w", path, err)
	}
	defer f.Close()

	var xs []float32
	if err := npyio.Read(f, &xs); err != nil {
		return nil, fmt.Errorf("decode npy %s: %w", path, err)
	}
	return xs, nil
}
