package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Overridden with -ldflags "-X main.version=..." by release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	GoVersion string `json:"go,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// buildVersion merges the linker-provided values with what the Go toolchain
// stamped into the binary. Linker values win.
func buildVersion(info *debug.BuildInfo, ok bool) versionInfo {
	v := versionInfo{Version: version, Commit: commit, Built: date}
	if !ok || info == nil {
		return v
	}
	v.GoVersion = info.GoVersion
	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "none" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if v.Built == "unknown" {
				v.Built = s.Value
			}
		case "vcs.modified":
			v.Modified = s.Value == "true"
		}
	}
	return v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := buildVersion(debug.ReadBuildInfo())
		if jsonOut {
			return printJSON(v)
		}
		suffix := ""
		if v.Modified {
			suffix = " (modified)"
		}
		printInfo("shmalctl %s\n", v.Version)
		printInfo("  commit: %s%s\n", v.Commit, suffix)
		printInfo("  built: %s\n", v.Built)
		if v.GoVersion != "" {
			printInfo("  go: %s\n", v.GoVersion)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
