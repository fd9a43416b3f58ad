// Package engine invokes the external hydrological engine inside a working
// directory and collects what it leaves behind.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEngineOutputMissing is returned when the flat report is absent after
// the engine ran.
var ErrEngineOutputMissing = errors.New("engine output missing")

// Working directory layout.
const (
	ConfigDir = "config"
	DataDir   = "data"
	OutputDir = "output"

	// ReportFile is the flat simulation report the engine writes.
	ReportFile = "gardesim.prn"
	// EchoedParametersFile is the engine's echo of the parameter file,
	// holding calibrated values.
	EchoedParametersFile = "gardepara.out"
)

// Execution modes understood by the engine.
const (
	ModeSilent  = "M"
	ModeDirect  = "D"
	ModeControl = "C"
	ModeFast    = ""
)

// ValidMode reports whether m is an execution mode the engine accepts.
func ValidMode(m string) bool {
	switch m {
	case ModeSilent, ModeDirect, ModeControl, ModeFast:
		return true
	}
	return false
}

// Invocation describes one engine run. PrimaryFile is relative to
// WorkingDir.
type Invocation struct {
	WorkingDir  string
	PrimaryFile string
	Mode        string
}

// Result is what a run leaves behind.
type Result struct {
	// Report is the decoded flat report text.
	Report string
	// EchoedParameters is the decoded parameter echo, empty when absent.
	EchoedParameters string
	// Console is the decoded standard output of the engine.
	Console string
	// Stderr is the decoded standard error, kept apart from the console.
	Stderr   string
	ExitCode int
	// Relocated lists the files moved into the output directory.
	Relocated []string
}

// Engine runs the hydrological model.
type Engine interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, inv Invocation) (*Result, error)

// Run implements Engine.
func (f Func) Run(ctx context.Context, inv Invocation) (*Result, error) { return f(ctx, inv) }

// PrepareWorkspace creates the config, data and output subdirectories of dir.
func PrepareWorkspace(dir string) error {
	for _, sub := range []string{ConfigDir, DataDir, OutputDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", sub, err)
		}
	}
	return nil
}

// Relocate moves every file of dir whose name contains a dot into
// dir/output, replacing existing files. Subdirectories are left alone.
func Relocate(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.*"))
	if err != nil {
		return nil, err
	}
	var moved []string
	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil {
			return moved, err
		}
		if info.IsDir() {
			continue
		}
		name := filepath.Base(src)
		if err := os.Rename(src, filepath.Join(dir, OutputDir, name)); err != nil {
			return moved, fmt.Errorf("relocating %s: %w", name, err)
		}
		moved = append(moved, name)
	}
	return moved, nil
}
