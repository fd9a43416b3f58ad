package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/report"
)

// isolateHome points HOME at a temp directory and clears the environment
// overrides so tests never read or write the real ~/.hydrorun/.
func isolateHome(t *testing.T) string {
	t.Helper()
	tmpHome := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
	t.Setenv("USERPROFILE", tmpHome)
	for _, k := range []string{
		"bin_Garden", "HYDRORUN_ENGINE", "HYDRORUN_CHARSET", "HYDRORUN_WORKING_DIR",
		"HYDRORUN_MODE", "HYDRORUN_DB", "HYDRORUN_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return tmpHome
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("hydrorun %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
}

// flowReport is a report holding one streamflow block from 1985 through
// lastYear with simulated equal to observed.
func flowReport(lastYear int) string {
	var b strings.Builder
	b.WriteString("GARDENIA listing\n")
	b.WriteString("Bassin : La Selle : Débit_Riv\n")
	end := time.Date(lastYear, 12, 31, 0, 0, 0, 0, time.UTC)
	for d, i := time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), 0; !d.After(end); d, i = d.AddDate(0, 0, 1), i+1 {
		v := 12 + 4*math.Sin(float64(i)/30)
		fmt.Fprintf(&b, "%s\t%.6f\t%.6f\n", d.Format(report.ReportDateLayout), v, v)
	}
	b.WriteString("Fin : La Selle : Débit_Riv\n")
	return b.String()
}

// fakeEngine installs a shell script that drops a windows-1252 report into
// the engine's working directory and points HYDRORUN_ENGINE at it.
func fakeEngine(t *testing.T, reportText string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine not supported on windows")
	}
	dir := t.TempDir()
	raw, err := codec.EncodeText(codec.DefaultCharset, reportText)
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "report.prn")
	if err := os.WriteFile(src, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "fake-engine")
	body := fmt.Sprintf("#!/bin/sh\nprintf 'fake engine %%s %%s\\n' \"$1\" \"$2\"\ncp '%s' gardesim.prn\n", src)
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HYDRORUN_ENGINE", script)
}

func TestRootCmdSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{
		"version", "init", "tree", "encode", "decode", "run", "parse", "evaluate",
		"history", "config", "stations", "correlate", "mcp-server",
	}
	have := map[string]bool{}
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"json", "working-dir", "log-level"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	isolateHome(t)
	out := mustExecute(t, "version")
	if !strings.HasPrefix(out, "hydrorun version "+version) {
		t.Errorf("version output = %q", out)
	}

	var got map[string]string
	decodeJSON(t, mustExecute(t, "version", "--json"), &got)
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestInitCmd(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(t.TempDir(), "selle")

	var got map[string]any
	decodeJSON(t, mustExecute(t, "init", "--working-dir", dir, "--json"), &got)
	if got["tree_written"] != true {
		t.Errorf("tree_written = %v, want true", got["tree_written"])
	}
	for _, sub := range []string{"config", "data", "output"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("%s missing: %v", sub, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "config", "auto.yaml")); err != nil {
		t.Errorf("default tree not written: %v", err)
	}

	decodeJSON(t, mustExecute(t, "init", "--working-dir", dir, "--json", "--global"), &got)
	if got["tree_written"] != false {
		t.Errorf("second init overwrote the tree")
	}
	if got["config_written"] != true {
		t.Errorf("config_written = %v, want true", got["config_written"])
	}
	if _, err := os.Stat(filepath.Join(home, ".hydrorun", "config.yaml")); err != nil {
		t.Errorf("global config not written: %v", err)
	}
}

func TestTreeGetCmd(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", []string{"basin_settings.model.initialisation.spinup.n_years"}, "4"},
		{"assignment", []string{"basin_settings.model.initialisation.spinup.n_years", "--set", "basin_settings.model.initialisation.spinup.n_years=2"}, "2"},
		{"string", []string{"general_settings.execution_mode"}, "M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"tree", "get", "--working-dir", dir}, tt.args...)
			out := mustExecute(t, args...)
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("tree get = %q, want %q", strings.TrimSpace(out), tt.want)
			}
		})
	}

	if _, err := execute(t, "tree", "get", "--working-dir", dir, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestTreeOverrideFile(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	override := filepath.Join(t.TempDir(), "selle.yaml")
	if err := os.WriteFile(override, []byte("physical_parameters:\n  basin_area:\n    val: 612\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "tree", "get", "--working-dir", dir, "--override", override, "physical_parameters.basin_area.val")
	if strings.TrimSpace(out) != "612.0" {
		t.Errorf("basin_area = %q, want 612.0", strings.TrimSpace(out))
	}

	var params []map[string]any
	decodeJSON(t, mustExecute(t, "tree", "params", "--working-dir", dir, "--override", override, "--json"), &params)
	found := false
	for _, p := range params {
		if p["name"] == "basin_area" {
			found = true
			if p["value"] != 612.0 {
				t.Errorf("basin_area value = %v, want 612", p["value"])
			}
		}
	}
	if !found {
		t.Error("basin_area missing from tree params")
	}
}

func TestTreeShowAndDump(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	out := mustExecute(t, "tree", "show", "--working-dir", dir, "basin_settings.model.calibration")
	if !strings.Contains(out, "max_iterations: 250") {
		t.Errorf("tree show output missing max_iterations:\n%s", out)
	}

	var sub map[string]any
	decodeJSON(t, mustExecute(t, "tree", "show", "--working-dir", dir, "--json", "basin_settings.model.calibration"), &sub)
	if sub["max_iterations"] != 250.0 {
		t.Errorf("max_iterations = %v, want 250", sub["max_iterations"])
	}

	dump := filepath.Join(t.TempDir(), "dump.yaml")
	mustExecute(t, "tree", "dump", "--working-dir", dir, "--set", "description.project=Selle", "--out", dump)
	data, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("dump not written: %v", err)
	}
	if !strings.Contains(string(data), "Selle") {
		t.Error("dump does not carry the assignment")
	}

	// The dump is a valid override file.
	out = mustExecute(t, "tree", "get", "--working-dir", dir, "--override", dump, "description.project")
	if strings.TrimSpace(out) != "Selle" {
		t.Errorf("project = %q, want Selle", strings.TrimSpace(out))
	}
}

func TestEncodeDecodeCmd(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	gar := filepath.Join(t.TempDir(), "selle.gar")

	text := mustExecute(t, "encode", "secondary", "--working-dir", dir, "--set", "physical_parameters.basin_area.val=612")
	if text == "" {
		t.Fatal("encode printed nothing")
	}
	mustExecute(t, "encode", "secondary", "--working-dir", dir, "--set", "physical_parameters.basin_area.val=612", "--out", gar)
	raw, err := os.ReadFile(gar)
	if err != nil {
		t.Fatalf("encoded file not written: %v", err)
	}
	decoded, err := codec.DecodeText(codec.DefaultCharset, raw)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != text {
		t.Error("file contents differ from printed text")
	}

	out := mustExecute(t, "decode", gar, "--tree")
	if !strings.Contains(out, "physical_parameters:") {
		t.Errorf("decode --tree output lacks physical_parameters:\n%.200s", out)
	}

	var p map[string]any
	decodeJSON(t, mustExecute(t, "decode", gar, "--json"), &p)
	params, _ := p["physical_parameters"].(map[string]any)
	area, _ := params["basin_area"].(map[string]any)
	if area["val"] != 612.0 {
		t.Errorf("decoded basin_area = %v, want 612", area["val"])
	}

	if _, err := execute(t, "encode", "tertiary", "--working-dir", dir); err == nil {
		t.Error("expected error for unknown input file")
	}
	if _, err := execute(t, "decode", gar, "--kind", "tertiary"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRunEvaluateHistory(t *testing.T) {
	home := isolateHome(t)
	fakeEngine(t, flowReport(1992))
	dir := t.TempDir()
	set := "basin_settings.model.calibration.n_tail_years_to_trim=1"

	var run struct {
		RunID    string `json:"run_id"`
		ExitCode int    `json:"exit_code"`
		Series   []struct {
			Variable string `json:"variable"`
			Rows     int    `json:"rows"`
			From     string `json:"from"`
		} `json:"series"`
		Exports []string `json:"exports"`
	}
	decodeJSON(t, mustExecute(t, "run", "--working-dir", dir, "--set", set, "--label", "first", "--json"), &run)
	if run.RunID == "" {
		t.Fatal("run was not recorded")
	}
	if len(run.Series) != 1 || run.Series[0].Variable != "streamflow" {
		t.Fatalf("series = %+v", run.Series)
	}
	if run.Series[0].Rows != 2922 || run.Series[0].From != "1985-01-01" {
		t.Errorf("series rows = %d from %s", run.Series[0].Rows, run.Series[0].From)
	}
	if len(run.Exports) == 0 {
		t.Error("no CSV export")
	}
	if _, err := os.Stat(filepath.Join(home, ".hydrorun", "history.db")); err != nil {
		t.Errorf("history database not created: %v", err)
	}

	var eval struct {
		Evaluations []struct {
			Metric string   `json:"metric"`
			Period string   `json:"period"`
			Value  *float64 `json:"value"`
			From   string   `json:"from"`
			To     string   `json:"to"`
		} `json:"evaluations"`
	}
	decodeJSON(t, mustExecute(t, "evaluate", "--working-dir", dir, "--metric", "nse", "--metric", "RMSE", "--run", run.RunID, "--json"), &eval)
	if len(eval.Evaluations) != 2 {
		t.Fatalf("evaluations = %+v", eval.Evaluations)
	}
	nse := eval.Evaluations[0]
	if nse.Metric != "NSE" || nse.Value == nil || math.Abs(*nse.Value-1) > 1e-9 {
		t.Errorf("NSE = %+v, want 1", nse)
	}
	if nse.From != "1989-01-01" || nse.To != "1991-12-31" {
		t.Errorf("calibration window = %s..%s", nse.From, nse.To)
	}

	decodeJSON(t, mustExecute(t, "evaluate", "--working-dir", dir, "--metric", "NSE", "--period", "eval", "--json"), &eval)
	if eval.Evaluations[0].From != "1992-01-01" {
		t.Errorf("evaluation starts %s, want 1992-01-01", eval.Evaluations[0].From)
	}

	var runs struct {
		Count int `json:"count"`
		Runs  []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"runs"`
	}
	decodeJSON(t, mustExecute(t, "history", "runs", "--working-dir", dir, "--json"), &runs)
	if runs.Count != 1 || runs.Runs[0].ID != run.RunID || runs.Runs[0].Label != "first" {
		t.Errorf("history runs = %+v", runs)
	}

	var metrics struct {
		Points []struct {
			RunID string `json:"run_id"`
		} `json:"points"`
	}
	decodeJSON(t, mustExecute(t, "history", "metrics", "nse", "--json"), &metrics)
	if len(metrics.Points) != 1 || metrics.Points[0].RunID != run.RunID {
		t.Errorf("history metrics = %+v", metrics.Points)
	}

	var shown map[string]any
	decodeJSON(t, mustExecute(t, "history", "show", run.RunID, "--json"), &shown)
	if params, _ := shown["parameters"].([]any); len(params) == 0 {
		t.Error("recorded run has no parameters")
	}

	out := mustExecute(t, "history", "params", "basin_area")
	if !strings.Contains(out, run.RunID) {
		t.Errorf("history params output lacks run id:\n%s", out)
	}

	// The tree dump of the run is picked up by later commands.
	out = mustExecute(t, "tree", "get", "--working-dir", dir, "basin_settings.model.calibration.n_tail_years_to_trim")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("tail years after run = %q, want 1", strings.TrimSpace(out))
	}
}

func TestRunNoHistory(t *testing.T) {
	home := isolateHome(t)
	fakeEngine(t, flowReport(1990))
	dir := t.TempDir()

	var run map[string]any
	decodeJSON(t, mustExecute(t, "run", "--working-dir", dir, "--no-history", "--json"), &run)
	if run["run_id"] != "" {
		t.Errorf("run_id = %v, want empty", run["run_id"])
	}
	if _, err := os.Stat(filepath.Join(home, ".hydrorun", "history.db")); !os.IsNotExist(err) {
		t.Errorf("history database created with --no-history: %v", err)
	}
	if _, err := execute(t, "history", "runs"); err == nil {
		t.Error("expected error without a history database")
	}
}

func TestRunInvalidMode(t *testing.T) {
	isolateHome(t)
	if _, err := execute(t, "run", "--working-dir", t.TempDir(), "--mode", "X"); err == nil {
		t.Error("expected error for invalid mode")
	}
}

func TestRunMissingEngine(t *testing.T) {
	isolateHome(t)
	t.Setenv("HYDRORUN_ENGINE", filepath.Join(t.TempDir(), "missing"))
	_, err := execute(t, "run", "--working-dir", t.TempDir(), "--no-history")
	if err == nil || !strings.Contains(err.Error(), "engine executable") {
		t.Errorf("error = %v, want engine executable error", err)
	}
}

func TestParseCmd(t *testing.T) {
	isolateHome(t)
	fakeEngine(t, flowReport(1990))
	dir := t.TempDir()
	mustExecute(t, "run", "--working-dir", dir, "--no-history")

	var got struct {
		Series []struct {
			Variable string `json:"variable"`
			Rows     int    `json:"rows"`
			To       string `json:"to"`
		} `json:"series"`
	}
	decodeJSON(t, mustExecute(t, "parse", "--working-dir", dir, "--json"), &got)
	if len(got.Series) != 1 || got.Series[0].To != "1990-12-31" {
		t.Errorf("parse series = %+v", got.Series)
	}

	csv := mustExecute(t, "parse", "--working-dir", dir, "--csv")
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != got.Series[0].Rows+1 {
		t.Errorf("csv has %d lines, want %d", len(lines), got.Series[0].Rows+1)
	}

	arrowPath := filepath.Join(t.TempDir(), "flow.arrow")
	mustExecute(t, "parse", "--working-dir", dir, "--arrow", arrowPath)
	if info, err := os.Stat(arrowPath); err != nil || info.Size() == 0 {
		t.Errorf("arrow file not written: %v", err)
	}

	if _, err := execute(t, "parse", "--working-dir", dir, "--csv", "--variable", "rain"); err == nil {
		t.Error("expected error for unknown variable")
	}
}

func TestConfigCmd(t *testing.T) {
	home := isolateHome(t)

	mustExecute(t, "config", "set", "engine.timeout", "5m")
	out := mustExecute(t, "config", "get", "engine.timeout")
	if strings.TrimSpace(out) != "engine.timeout = 5m0s" {
		t.Errorf("config get = %q", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".hydrorun", "config.yaml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	// Environment overrides show in get but are not persisted by set.
	t.Setenv("HYDRORUN_ENGINE", "/opt/gardenia/gardenia.exe")
	mustExecute(t, "config", "set", "history.enabled", "false")
	t.Setenv("HYDRORUN_ENGINE", "")
	var got map[string]any
	decodeJSON(t, mustExecute(t, "config", "get", "engine.path", "--json"), &got)
	if got["value"] == "/opt/gardenia/gardenia.exe" {
		t.Error("environment override was persisted")
	}

	out = mustExecute(t, "config", "list")
	if !strings.Contains(out, "history.enabled") || !strings.Contains(out, "false") {
		t.Errorf("config list output:\n%s", out)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "engine.colour", "blue"}},
		{"bad duration", []string{"config", "set", "engine.timeout", "soon"}},
		{"bad bool", []string{"config", "set", "history.enabled", "perhaps"}},
		{"unknown get", []string{"config", "get", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestStationsCmd(t *testing.T) {
	isolateHome(t)
	list := filepath.Join(t.TempDir(), "stations.csv")
	if err := os.WriteFile(list, []byte("# code;name\nK4470010;La Selle\nK4470020;Le Loir\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "stations", "list"); err == nil {
		t.Error("expected error without a configured registry")
	}
	mustExecute(t, "config", "set", "stations.file", list)

	out := mustExecute(t, "stations", "list")
	if strings.TrimSpace(out) != "K4470010\nK4470020" {
		t.Errorf("stations list = %q", out)
	}

	out = mustExecute(t, "stations", "check", "K4470010")
	if !strings.Contains(out, "K4470010\tok") {
		t.Errorf("check output = %q", out)
	}

	out, err := execute(t, "stations", "check", "K4470010", "X0000000")
	if err == nil {
		t.Error("expected error for unknown station")
	}
	if !strings.Contains(out, "X0000000\tunknown") {
		t.Errorf("check output = %q", out)
	}
}

func TestCorrelateCmd(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	write := func(name string, m report.Measure, f func(i int) float64) string {
		d := &report.Data{Measure: m}
		for i := 0; i < 60; i++ {
			d.Points = append(d.Points, report.Point{Date: start.AddDate(0, 0, i), Value: f(i)})
		}
		path := filepath.Join(dir, name)
		file, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		defer file.Close()
		if err := report.WritePRN(file, d); err != nil {
			t.Fatal(err)
		}
		return path
	}
	flow := write("my-debit.prn", report.Discharge, func(i int) float64 { return float64(i) })
	rain := write("my-pluie.prn", report.Rainfall, func(i int) float64 { return 2*float64(i) + 1 })
	pet := write("my-etp.prn", report.PET, func(i int) float64 { return float64(60 - i) })

	var got struct {
		Names  []string     `json:"names"`
		Values [][]*float64 `json:"values"`
	}
	decodeJSON(t, mustExecute(t, "correlate", flow, rain, pet, "--json"), &got)
	if strings.Join(got.Names, ",") != "my-debit,my-pluie,my-etp" {
		t.Errorf("names = %v", got.Names)
	}
	check := func(i, j int, want float64) {
		t.Helper()
		if got.Values[i][j] == nil || math.Abs(*got.Values[i][j]-want) > 1e-9 {
			t.Errorf("r[%d][%d] = %v, want %v", i, j, got.Values[i][j], want)
		}
	}
	check(0, 0, 1)
	check(0, 1, 1)
	check(0, 2, -1)

	out := mustExecute(t, "correlate", "--method", "spearman", flow, pet)
	if !strings.Contains(out, "my-etp") {
		t.Errorf("table output:\n%s", out)
	}
	if _, err := execute(t, "correlate", "--method", "kendall", flow, pet); err == nil {
		t.Error("expected error for unsupported method")
	}
}

func TestMCPServerCmdRejectsMissingDir(t *testing.T) {
	isolateHome(t)
	_, err := execute(t, "mcp-server", "--working-dir", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for a missing working directory")
	}
}

func TestHistoryExportImport(t *testing.T) {
	home := isolateHome(t)
	fakeEngine(t, flowReport(1990))
	dir := t.TempDir()

	var run struct {
		RunID string `json:"run_id"`
	}
	decodeJSON(t, mustExecute(t, "run", "--working-dir", dir, "--label", "archived", "--json"), &run)
	if run.RunID == "" {
		t.Fatal("run was not recorded")
	}

	var exported struct {
		Path string `json:"path"`
		Runs int    `json:"runs"`
	}
	decodeJSON(t, mustExecute(t, "history", "export", "--working-dir", dir, "--json"), &exported)
	if exported.Runs != 1 {
		t.Errorf("exported %d runs, want 1", exported.Runs)
	}
	if filepath.Dir(exported.Path) != filepath.Join(home, ".hydrorun", "archives") {
		t.Errorf("archive written to %s, want the archive directory", exported.Path)
	}

	var listed struct {
		Count    int `json:"count"`
		Archives []struct {
			Runs  int  `json:"runs"`
			Valid bool `json:"valid"`
		} `json:"archives"`
	}
	decodeJSON(t, mustExecute(t, "history", "archives", "--json"), &listed)
	if listed.Count != 1 || listed.Archives[0].Runs != 1 || !listed.Archives[0].Valid {
		t.Errorf("history archives = %+v", listed)
	}

	// Import into a fresh database.
	t.Setenv("HYDRORUN_DB", filepath.Join(t.TempDir(), "other.db"))
	var imported struct {
		Imported []string `json:"imported"`
		Skipped  []string `json:"skipped"`
	}
	decodeJSON(t, mustExecute(t, "history", "import", exported.Path, "--json"), &imported)
	if len(imported.Imported) != 1 || imported.Imported[0] != run.RunID {
		t.Errorf("imported = %+v, want [%s]", imported.Imported, run.RunID)
	}

	decodeJSON(t, mustExecute(t, "history", "import", exported.Path, "--json"), &imported)
	if len(imported.Imported) != 0 || len(imported.Skipped) != 1 {
		t.Errorf("second import = %+v, want one skipped run", imported)
	}
	if _, err := execute(t, "history", "import", exported.Path, "--strict"); err == nil {
		t.Error("expected --strict to reject an already recorded run")
	}

	out := mustExecute(t, "history", "show", run.RunID)
	if !strings.Contains(out, "archived") {
		t.Errorf("imported run lost its label:\n%s", out)
	}
}

func TestHistoryExportRejectsOutsidePath(t *testing.T) {
	isolateHome(t)
	fakeEngine(t, flowReport(1990))
	dir := t.TempDir()
	mustExecute(t, "run", "--working-dir", dir)

	_, err := execute(t, "history", "export", "--working-dir", dir, "--out", "/etc/hydrorun.hra")
	if err == nil || !strings.Contains(err.Error(), "archive path rejected") {
		t.Errorf("expected path rejection, got %v", err)
	}
}
