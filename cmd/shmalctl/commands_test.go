package main

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/segment"
)

func createSegment(t *testing.T, cs, cn uint32) {
	t.Helper()
	cellSize, cellsNum = cs, cn
	mustRun(t, runCreate)
	// Later commands read the geometry from the header.
	cellSize, cellsNum = 0, 0
}

func allocOut(t *testing.T, args ...string) string {
	t.Helper()
	return strings.TrimSpace(mustRun(t, func() error { return runAlloc(args) }))
}

func TestCreateAndInfo(t *testing.T) {
	path := resetFlags(t)
	cellSize, cellsNum = 64, 32
	out := mustRun(t, runCreate)
	assertContains(t, out, []string{"Created file:" + path, "32 cells of 64 bytes"})
	require.FileExists(t, path)

	_, err := captureOutput(t, runCreate)
	require.ErrorIs(t, err, segment.ErrExists)

	cellSize, cellsNum = 0, 0
	out = mustRun(t, runInfo)
	assertContains(t, out, []string{"Cells: 32 x 64 bytes", "Pool at: 0x280", "Forward coalescing: false", "Cells free: 32"})

	jsonOut = true
	var info segmentInfo
	assertJSON(t, mustRun(t, runInfo), &info)
	require.EqualValues(t, 64, info.CellSize)
	require.EqualValues(t, 32, info.CellsNum)
	require.EqualValues(t, os.Getpid(), info.CreatorPID)
}

func TestCreateNeedsGeometry(t *testing.T) {
	resetFlags(t)
	_, err := captureOutput(t, runCreate)
	require.Error(t, err)

	storeSpec = ""
	cellSize, cellsNum = 16, 4
	_, err = captureOutput(t, runCreate)
	require.ErrorContains(t, err, "no store given")
}

// TestAllocScenario replays the hint-after-free sequence through the CLI.
func TestAllocScenario(t *testing.T) {
	resetFlags(t)
	createSegment(t, 16, 4)

	require.Equal(t, "0", allocOut(t, "20"))
	require.Equal(t, "32", allocOut(t, "16"))
	mustRun(t, func() error { return runFree([]string{"0"}) })

	allocHint = "0x0"
	require.Equal(t, "0", allocOut(t, "16"))

	_, err := captureOutput(t, func() error { return runAlloc([]string{"16"}) })
	require.ErrorIs(t, err, alloc.ErrBusy)

	allocHint = ""
	jsonOut = true
	var runs []alloc.Run
	assertJSON(t, mustRun(t, runRuns), &runs)
	require.Equal(t, []alloc.Run{
		{Offset: 0, Start: 0, Len: 1, Free: false},
		{Offset: 16, Start: 1, Len: 1, Free: true},
		{Offset: 32, Start: 2, Len: 1, Free: false},
		{Offset: 48, Start: 3, Len: 1, Free: true},
	}, runs)

	jsonOut = false
	mustRun(t, runVerify)
	_, err = captureOutput(t, func() error { return runFree([]string{"16"}) })
	require.ErrorIs(t, err, alloc.ErrAlreadyFree)
}

func TestAllocStringAndRead(t *testing.T) {
	resetFlags(t)
	createSegment(t, 16, 8)

	allocString = "hello shared world"
	off := allocOut(t)
	allocString = ""

	readString = true
	out := mustRun(t, func() error { return runRead([]string{off}) })
	require.Equal(t, "hello shared world\n", out)

	allocString, allocEncoding = "Grüße", "utf-16le"
	off = allocOut(t)
	allocString = ""
	readString, readEncoding = false, "utf-16le"
	out = mustRun(t, func() error { return runRead([]string{off}) })
	require.Equal(t, "Grüße\n", out)

	readEncoding = ""
	allocData = "\x01\x02\x03"
	off = allocOut(t)
	out = mustRun(t, func() error { return runRead([]string{off}) })
	assertContains(t, out, []string{"01 02 03 00"})

	allocEncoding = "klingon"
	_, err := captureOutput(t, func() error { return runAlloc(nil) })
	require.ErrorContains(t, err, "unknown encoding")
}

func TestAllocArgs(t *testing.T) {
	resetFlags(t)
	createSegment(t, 16, 4)

	_, err := captureOutput(t, func() error { return runAlloc(nil) })
	require.Error(t, err)
	_, err = captureOutput(t, func() error { return runAlloc([]string{"big"}) })
	require.ErrorContains(t, err, "invalid size")
	_, err = captureOutput(t, func() error { return runAlloc([]string{"65"}) })
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
	_, err = captureOutput(t, func() error { return runFree([]string{"zz"}) })
	require.ErrorContains(t, err, "invalid offset")
}

func TestClear(t *testing.T) {
	resetFlags(t)
	createSegment(t, 16, 4)
	allocOut(t, "40")
	mustRun(t, runClear)

	jsonOut = true
	var runs []alloc.Run
	assertJSON(t, mustRun(t, runRuns), &runs)
	require.Equal(t, []alloc.Run{{Offset: 0, Start: 0, Len: 4, Free: true}}, runs)
}

func runClear() error {
	cmd := newClearCmd()
	return cmd.RunE(cmd, nil)
}

func runVerify() error {
	cmd := newVerifyCmd()
	return cmd.RunE(cmd, nil)
}

func runDestroy() error {
	cmd := newDestroyCmd()
	return cmd.RunE(cmd, nil)
}

func TestDumpDestroyRestore(t *testing.T) {
	path := resetFlags(t)
	createSegment(t, 32, 16)
	allocString = "survives restore"
	off := allocOut(t)
	allocString = ""

	for _, codec := range []string{"none", "zstd", "s2", "lz4"} {
		snap := filepath.Join(t.TempDir(), codec+".snap")
		dumpCodec = codec
		mustRun(t, func() error { return runDump([]string{snap}) })
		require.FileExists(t, snap)

		mustRun(t, runDestroy)
		require.NoFileExists(t, path)

		out := mustRun(t, func() error { return runRestore([]string{snap}) })
		assertContains(t, out, []string{"Restored", "16 cells of 32 bytes"})

		readString = true
		require.Equal(t, "survives restore\n", mustRun(t, func() error { return runRead([]string{off}) }))
		readString = false
	}

	dumpCodec = "brotli"
	_, err := captureOutput(t, func() error { return runDump([]string{filepath.Join(t.TempDir(), "x")}) })
	require.Error(t, err)
}

func TestDumpRefusesOverwrite(t *testing.T) {
	resetFlags(t)
	createSegment(t, 32, 16)
	snap := filepath.Join(t.TempDir(), "seg.snap")
	require.NoError(t, os.WriteFile(snap, []byte("keep"), 0o644))

	_, err := captureOutput(t, func() error { return runDump([]string{snap}) })
	require.ErrorContains(t, err, "already exists")
	data, err := os.ReadFile(snap)
	require.NoError(t, err)
	require.Equal(t, "keep", string(data))

	dumpForce = true
	mustRun(t, func() error { return runDump([]string{snap}) })
	mustRun(t, func() error { return runSnapInfo([]string{snap}) })
}

func TestSnapInfo(t *testing.T) {
	resetFlags(t)
	createSegment(t, 16, 8)
	allocData = "0123456789abcdefXYZ" // two cells
	allocOut(t)
	allocData = ""
	snap := filepath.Join(t.TempDir(), "seg.snap")
	dumpCodec = "lz4"
	mustRun(t, func() error { return runDump([]string{snap}) })

	jsonOut = true
	var info snapshotInfo
	assertJSON(t, mustRun(t, func() error { return runSnapInfo([]string{snap}) }), &info)
	require.Equal(t, "lz4", info.Codec)
	require.EqualValues(t, 16, info.CellSize)
	require.EqualValues(t, 8, info.CellsNum)
	require.Equal(t, 1, info.UsedRuns)
	require.Equal(t, 1, info.FreeRuns)
	require.EqualValues(t, 2, info.UsedCells)
	require.EqualValues(t, 2, info.CellsTaken)

	jsonOut = false
	_, err := captureOutput(t, func() error { return runSnapInfo([]string{filepath.Join(t.TempDir(), "missing")}) })
	require.Error(t, err)
}

func TestStress(t *testing.T) {
	resetFlags(t)
	createSegment(t, 16, 128)
	stressWorkers, stressOps = 4, 500
	jsonOut = true

	var res stressResult
	assertJSON(t, mustRun(t, runStress), &res)
	require.EqualValues(t, 2000, res.Ops)
	require.Equal(t, res.Allocs, res.Frees)
	require.Zero(t, res.Stats.CellsTaken)
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	out := mustRun(t, rootCmd.Execute)
	assertContains(t, out, []string{"shmalctl ", "commit: ", "built: "})
}

func TestBuildVersion(t *testing.T) {
	v := buildVersion(nil, false)
	require.Equal(t, versionInfo{Version: "dev", Commit: "none", Built: "unknown"}, v)

	info := &debug.BuildInfo{
		GoVersion: "go1.25.3",
		Main:      debug.Module{Version: "v1.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	v = buildVersion(info, true)
	require.Equal(t, versionInfo{
		Version:   "v1.2.0",
		Commit:    "abc123",
		Built:     "2026-10-01T12:00:00Z",
		GoVersion: "go1.25.3",
		Modified:  true,
	}, v)

	// Local builds report "(devel)"; the default name stays.
	info.Main.Version = "(devel)"
	require.Equal(t, "dev", buildVersion(info, true).Version)

	// Linker-provided values win over build info.
	defer func(v, c string) { version, commit = v, c }(version, commit)
	version, commit = "v9.9.9", "feedface"
	v = buildVersion(info, true)
	require.Equal(t, "v9.9.9", v.Version)
	require.Equal(t, "feedface", v.Commit)
}

func TestVersionJSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	var v versionInfo
	assertJSON(t, mustRun(t, func() error { return versionCmd.RunE(versionCmd, nil) }), &v)
	require.NotEmpty(t, v.Version)
	require.NotEmpty(t, v.Commit)
}
