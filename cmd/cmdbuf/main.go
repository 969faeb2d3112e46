// Package main is an interactive driver for the command-buffer engine.
//
// It reads lines from stdin, continues the prompt while a shell construct
// is open, and prints the finished command's history record as JSON.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/berrym/lusush-sub001/internal/config"
	"github.com/berrym/lusush-sub001/internal/engine"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	jsonOutput bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	e := engine.New(
		engine.WithInitialCapacity(cfg.Buffer.InitialCapacity),
		engine.WithMaxCapacity(cfg.Buffer.MaxCapacity),
		engine.WithMaxUndoSequences(cfg.History.MaxUndoSequences),
		engine.WithTabWidth(cfg.Editor.TabWidth),
		engine.WithWrapWidth(cfg.Editor.WrapWidth),
	)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if err := repl(e, interactive, opts.jsonOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// repl accumulates lines into the buffer until the command is complete,
// then finishes it. Colon commands operate on the buffer in place.
func repl(e *engine.Engine, interactive, jsonOutput bool) error {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		if interactive {
			prompt(e)
		}
		if !in.Scan() {
			break
		}
		line := in.Text()

		if strings.HasPrefix(line, ":") && e.IsEmpty() {
			if quit := colonCommand(e, line); quit {
				return nil
			}
			continue
		}

		if err := e.InsertAtCursor(line + "\n"); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			continue
		}
		if e.NeedsContinuation() {
			continue
		}
		if err := finish(e, jsonOutput); err != nil {
			return err
		}
	}
	return in.Err()
}

// prompt prints the primary prompt, or the continuation prompt with the
// current construct depth while the command is unfinished.
func prompt(e *engine.Engine) {
	if e.IsEmpty() || e.Complete() {
		fmt.Print("cmdbuf> ")
		return
	}
	st := e.EndState()
	fmt.Printf("%s> ", strings.Repeat(".", st.Depth()+1))
}

// finish validates and emits the completed command, then resets the buffer
// for the next one.
func finish(e *engine.Engine, jsonOutput bool) error {
	rec, err := e.Finalize()
	if err != nil {
		return fmt.Errorf("finalizing command: %w", err)
	}

	if jsonOutput {
		data, err := rec.Encode()
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("accepted %d line(s), %d bytes, checksum %#x\n",
			e.LineCount()-1, e.Len(), e.Checksum())
	}
	return e.Clear()
}

// colonCommand handles the demo meta commands. It reports whether the
// loop should exit.
func colonCommand(e *engine.Engine, line string) bool {
	switch strings.TrimSpace(line) {
	case ":quit", ":q":
		return true
	case ":undo":
		if err := e.Undo(); err != nil {
			fmt.Fprintf(os.Stderr, "undo: %v\n", err)
		} else {
			fmt.Printf("buffer: %q\n", e.Text())
		}
	case ":redo":
		if err := e.Redo(); err != nil {
			fmt.Fprintf(os.Stderr, "redo: %v\n", err)
		} else {
			fmt.Printf("buffer: %q\n", e.Text())
		}
	case ":validate":
		if err := e.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		} else {
			fmt.Println("ok")
		}
	case ":stats":
		fmt.Printf("session %s: %d bytes, %d codepoints, %d graphemes, %d line(s)\n",
			e.SessionID(), e.Len(), e.CodepointCount(), e.GraphemeCount(), e.LineCount())
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (try :undo :redo :validate :stats :quit)\n", line)
	}
	return false
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.jsonOutput, "json", false, "Print finished commands as JSON history records")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cmdbuf - interactive command buffer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cmdbuf [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cmdbuf                      Read commands from the terminal\n")
		fmt.Fprintf(os.Stderr, "  cmdbuf -json < script.sh    Emit history records for a script\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("cmdbuf %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	return opts
}
