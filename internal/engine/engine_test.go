package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-engine")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrepareWorkspace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	if err := PrepareWorkspace(dir); err != nil {
		t.Fatalf("PrepareWorkspace() error = %v", err)
	}
	for _, sub := range []string{ConfigDir, DataDir, OutputDir} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("%s missing: %v", sub, err)
		}
	}
	if err := PrepareWorkspace(dir); err != nil {
		t.Errorf("second PrepareWorkspace() error = %v", err)
	}
}

func TestRelocate(t *testing.T) {
	dir := t.TempDir()
	if err := PrepareWorkspace(dir); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"gardesim.prn", "gardelis.lst", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, OutputDir, "gardesim.prn"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.with.dots"), 0o755); err != nil {
		t.Fatal(err)
	}

	moved, err := Relocate(dir)
	if err != nil {
		t.Fatalf("Relocate() error = %v", err)
	}
	if strings.Join(moved, ",") != "gardelis.lst,gardesim.prn" {
		t.Errorf("moved = %v", moved)
	}
	data, _ := os.ReadFile(filepath.Join(dir, OutputDir, "gardesim.prn"))
	if string(data) != "x" {
		t.Error("existing output was not replaced")
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Error("file without extension should stay in place")
	}
	if _, err := os.Stat(filepath.Join(dir, "dir.with.dots")); err != nil {
		t.Error("directory should stay in place")
	}
}

func TestProcessRun(t *testing.T) {
	script := writeScript(t, `printf 'run %s %s\n' "$1" "$2"
printf 'x : D\351bit_Riv\n01/01/2020\t1\t2\nFin : x : D\351bit_Riv\n' > gardesim.prn
printf 'echo\n' > gardepara.out
`)
	dir := t.TempDir()
	if err := PrepareWorkspace(dir); err != nil {
		t.Fatal(err)
	}

	p := NewProcess(script, "windows-1252", nil)
	res, err := p.Run(context.Background(), Invocation{WorkingDir: dir, PrimaryFile: "config/auto.rga", Mode: ModeSilent})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(res.Console) != "run config/auto.rga M" {
		t.Errorf("Console = %q", res.Console)
	}
	if !strings.Contains(res.Report, "Débit_Riv") {
		t.Errorf("Report not decoded from windows-1252: %q", res.Report)
	}
	if res.EchoedParameters != "echo\n" {
		t.Errorf("EchoedParameters = %q", res.EchoedParameters)
	}
	if _, err := os.Stat(filepath.Join(dir, OutputDir, ReportFile)); err != nil {
		t.Errorf("report not relocated: %v", err)
	}
}

func TestProcessRunArguments(t *testing.T) {
	script := writeScript(t, `printf '%s args' "$#"
printf 'warning from engine' >&2
printf 'x : D\351bit_Riv\nFin : x : D\351bit_Riv\n' > gardesim.prn
`)
	tests := []struct {
		name        string
		mode        string
		wantConsole string
	}{
		{"fast mode passes no mode argument", ModeFast, "1 args"},
		{"silent mode", ModeSilent, "2 args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := PrepareWorkspace(dir); err != nil {
				t.Fatal(err)
			}
			res, err := NewProcess(script, "windows-1252", nil).Run(context.Background(), Invocation{WorkingDir: dir, PrimaryFile: "config/auto.rga", Mode: tt.mode})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Console != tt.wantConsole {
				t.Errorf("Console = %q, want %q", res.Console, tt.wantConsole)
			}
			if res.Stderr != "warning from engine" {
				t.Errorf("Stderr = %q, want the engine warning", res.Stderr)
			}
		})
	}
}

func TestProcessRunMissingReport(t *testing.T) {
	script := writeScript(t, "echo failing\nexit 3\n")
	dir := t.TempDir()
	if err := PrepareWorkspace(dir); err != nil {
		t.Fatal(err)
	}

	res, err := NewProcess(script, "", nil).Run(context.Background(), Invocation{WorkingDir: dir, PrimaryFile: "config/auto.rga", Mode: ModeSilent})
	if !errors.Is(err, ErrEngineOutputMissing) {
		t.Fatalf("Run() error = %v, want ErrEngineOutputMissing", err)
	}
	if res == nil || res.ExitCode != 3 {
		t.Errorf("result = %+v, want exit code 3", res)
	}
}

func TestProcessRunUnconfigured(t *testing.T) {
	if _, err := NewProcess("", "", nil).Run(context.Background(), Invocation{}); err == nil {
		t.Error("Run() with empty path: error = nil")
	}
	if _, err := NewProcess(filepath.Join(t.TempDir(), "absent.exe"), "", nil).Run(context.Background(), Invocation{}); err == nil {
		t.Error("Run() with missing executable: error = nil")
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"M", "D", "C", ""} {
		if !ValidMode(m) {
			t.Errorf("ValidMode(%q) = false", m)
		}
	}
	if ValidMode("X") {
		t.Error("ValidMode(X) = true")
	}
}
