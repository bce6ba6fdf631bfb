package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetFlags restores every package-level flag to its default and points
// --store at a fresh file under t.TempDir.
func resetFlags(t *testing.T) string {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	cellSize, cellsNum = 0, 0
	allocHint, allocData, allocString, allocEncoding = "", "", "", ""
	readString, readEncoding = false, ""
	createForward = false
	dumpCodec, dumpForce = "zstd", false
	stressWorkers, stressOps, stressMaxSize, stressSeed = 4, 10000, 0, 1

	path := filepath.Join(t.TempDir(), "seg")
	storeSpec = "file:" + path
	return path
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()
	return string(out), fnErr
}

// mustRun runs fn, fails the test on error and returns its output.
func mustRun(t *testing.T, fn func() error) string {
	t.Helper()
	out, err := captureOutput(t, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v\nOutput: %s", err, out)
	}
	return out
}

// assertJSON checks that output is valid JSON and decodes it into v
func assertJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
