package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/logging"
)

// Process runs the engine as an external program:
//
//	<Path> <primary file> [<mode>]
//
// with the working directory as current directory. The fast mode has no
// code and passes no mode argument.
type Process struct {
	Path    string
	Charset string
	Logger  *slog.Logger
}

// NewProcess returns a process engine for the executable at path.
func NewProcess(path, charset string, logger *slog.Logger) *Process {
	return &Process{Path: path, Charset: charset, Logger: logging.OrDefault(logger)}
}

// Run executes the engine, relocates its outputs and reads the report. A
// non-zero exit status is logged, not returned: the engine reports its own
// failures in the listing and the missing report is what callers act on.
func (p *Process) Run(ctx context.Context, inv Invocation) (*Result, error) {
	log := logging.OrDefault(p.Logger)
	if p.Path == "" {
		return nil, errors.New("engine path is not configured")
	}
	if _, err := os.Stat(p.Path); err != nil {
		return nil, fmt.Errorf("engine executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.Path, args(inv)...)
	cmd.Dir = inv.WorkingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info("running engine", "cmd", cmd.String(), "dir", inv.WorkingDir)
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	res := &Result{
		Console: p.decode(stdout.Bytes()),
		Stderr:  p.decode(stderr.Bytes()),
	}
	log.Log(ctx, logging.LevelTrace, "engine console", "output", "\n"+logging.Indent(res.Console))
	if res.Stderr != "" {
		log.Warn("engine wrote to stderr", "output", "\n"+logging.Indent(res.Stderr))
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		log.Warn("engine exited with non-zero status", "code", res.ExitCode, "elapsed", elapsed)
	case runErr != nil:
		return nil, fmt.Errorf("starting engine: %w", runErr)
	default:
		log.Info("engine finished", "elapsed", elapsed)
	}

	moved, err := Relocate(inv.WorkingDir)
	res.Relocated = moved
	if err != nil {
		return res, err
	}
	log.Debug("relocated engine outputs", "files", moved)

	return res, p.readOutputs(inv.WorkingDir, res)
}

func args(inv Invocation) []string {
	if inv.Mode == ModeFast {
		return []string{inv.PrimaryFile}
	}
	return []string{inv.PrimaryFile, inv.Mode}
}

// decode converts engine output from the configured charset, falling back
// to the raw bytes.
func (p *Process) decode(b []byte) string {
	if s, err := codec.DecodeText(p.Charset, b); err == nil {
		return s
	}
	return string(b)
}

func (p *Process) readOutputs(dir string, res *Result) error {
	out := filepath.Join(dir, OutputDir)

	raw, err := os.ReadFile(filepath.Join(out, ReportFile))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s does not exist", ErrEngineOutputMissing, filepath.Join(OutputDir, ReportFile))
	}
	if err != nil {
		return err
	}
	if res.Report, err = codec.DecodeText(p.Charset, raw); err != nil {
		return err
	}

	raw, err = os.ReadFile(filepath.Join(out, EchoedParametersFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	res.EchoedParameters, err = codec.DecodeText(p.Charset, raw)
	return err
}
