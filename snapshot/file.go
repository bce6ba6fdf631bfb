package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshuapare/slabshm/segment"
)

// WriteFile writes a snapshot of seg to path atomically: the frame goes to a
// temp file in the same directory, which is synced and renamed over path.
// Readers never observe a partial snapshot.
func WriteFile(path string, seg *segment.Segment, codec Codec) (int64, error) {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".slabsnap-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmpFile)
	n, err := Write(bw, seg, codec)
	if err != nil {
		return n, err
	}
	if flushErr := bw.Flush(); flushErr != nil {
		return n, fmt.Errorf("write temp file: %w", flushErr)
	}
	if syncErr := tmpFile.Sync(); syncErr != nil {
		return n, fmt.Errorf("sync temp file: %w", syncErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		return n, fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil

	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return n, fmt.Errorf("rename temp file: %w", renameErr)
	}
	return n, nil
}

// ReadFile reads and validates the snapshot at path.
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}
