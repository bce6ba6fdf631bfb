package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/internal/logger"
	"github.com/joshuapare/slabshm/segment"
	"github.com/joshuapare/slabshm/segment/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const envStore = "SLABSHM_STORE"

type options struct {
	debug    bool
	interval time.Duration
	spec     string
	help     bool
	version  bool
}

func parseArgs(args []string) (options, error) {
	opts := options{interval: time.Second, spec: os.Getenv(envStore)}
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--debug", "-d":
			opts.debug = true
		case "--help", "-h":
			opts.help = true
		case "--version", "-v":
			opts.version = true
		case "--interval", "-i":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s needs a duration", arg)
			}
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil || d <= 0 {
				return opts, fmt.Errorf("invalid interval %q", args[i])
			}
			opts.interval = d
		default:
			opts.spec = arg
		}
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}
	if opts.help {
		printHelp()
		os.Exit(0)
	}
	if opts.version {
		fmt.Printf("shmaltop %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}
	if opts.spec == "" {
		printUsage()
		os.Exit(1)
	}

	// The terminal belongs to the TUI, so debug logs go to a file.
	if opts.debug {
		path := filepath.Join(os.TempDir(), "shmaltop.log")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to open log %s: %v\n", path, err)
		} else {
			defer f.Close()
			logger.Init(logger.Options{Enabled: true, Writer: f, Level: slog.LevelDebug})
		}
	}

	a, err := open(opts.spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.L.Info("starting shmaltop", "store", opts.spec, "interval", opts.interval)

	p := tea.NewProgram(NewModel(a, opts.interval), tea.WithAltScreen())
	_, runErr := p.Run()
	if err := a.Segment().Detach(); err != nil {
		logger.L.Warn("detach failed", "error", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", runErr)
		os.Exit(1)
	}
}

// open attaches to the segment described by spec, reading the geometry from
// its header.
func open(spec string) (*alloc.Allocator, error) {
	st, err := store.ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	cs, cn, err := segment.Geometry(st)
	if err != nil {
		return nil, err
	}
	seg, err := segment.Attach(st, cs, cn)
	if err != nil {
		return nil, err
	}
	a, err := alloc.New(seg)
	if err != nil {
		_ = seg.Detach()
		return nil, err
	}
	return a, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: shmaltop [options] <store>\n")
	fmt.Fprintf(os.Stderr, "Try 'shmaltop --help' for more information.\n")
}

func printHelp() {
	fmt.Println("shmaltop - Live view of a fixed-cell shared memory segment")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  shmaltop [options] <store>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Attaches to a segment and periodically shows its counters, a cell")
	fmt.Println("  occupancy map and the list of runs. The segment is only read.")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    ↑/k, ↓/j    Move through runs")
	fmt.Println("    f           Cycle filter: all, used, free")
	fmt.Println("    y           Copy the selected offset")
	fmt.Println("    v           Verify the descriptor array")
	fmt.Println("    p           Pause/resume refresh")
	fmt.Println("    r           Refresh now")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -i, --interval DUR  Refresh interval (default 1s)")
	fmt.Println("  -d, --debug         Write debug logs to $TMPDIR/shmaltop.log")
	fmt.Println("  -h, --help          Show this help message")
	fmt.Println("  -v, --version       Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  shmaltop file:/dev/shm/orders")
	fmt.Println("  shmaltop -i 200ms sysv:0x5eed")
	fmt.Println()
	fmt.Printf("The store defaults to $%s. Use 'shmalctl' to modify segments.\n", envStore)
}
