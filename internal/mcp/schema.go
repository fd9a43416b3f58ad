package mcp

// TreeGetInput defines the input for hydrorun_tree_get.
type TreeGetInput struct {
	Path string   `json:"path,omitempty" jsonschema:"Dotted key path of the subtree to show, e.g. physical_parameters.basin_area. Empty shows the whole tree"`
	Set  []string `json:"set,omitempty" jsonschema:"Assignments key.path=value applied before reading"`
}

// TreeGetOutput defines the output for hydrorun_tree_get.
type TreeGetOutput struct {
	Source string `json:"source" jsonschema:"Where the tree came from: the last run's dump or the defaults"`
	Path   string `json:"path,omitempty" jsonschema:"The key path shown"`
	YAML   string `json:"yaml" jsonschema:"The subtree rendered as YAML"`
}

// EncodeInput defines the input for hydrorun_encode.
type EncodeInput struct {
	Target string   `json:"target,omitempty" jsonschema:"primary for the project file or secondary for the parameter file (default)"`
	Set    []string `json:"set,omitempty" jsonschema:"Assignments key.path=value applied before encoding"`
}

// EncodeOutput defines the output for hydrorun_encode.
type EncodeOutput struct {
	Target string `json:"target"`
	File   string `json:"file" jsonschema:"Name the engine expects for this file, relative to the working directory"`
	Text   string `json:"text" jsonschema:"The encoded file"`
}

// ParseReportInput defines the input for hydrorun_parse_report.
type ParseReportInput struct {
	Path     string `json:"path,omitempty" jsonschema:"Report path relative to the working directory (default output/gardesim.prn)"`
	Variable string `json:"variable,omitempty" jsonschema:"streamflow or piezo-level. Empty reads every section present"`
}

// SeriesSummary describes one parsed section.
type SeriesSummary struct {
	Variable    string `json:"variable"`
	Rows        int    `json:"rows"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	HasForecast bool   `json:"has_forecast"`
}

// ParseReportOutput defines the output for hydrorun_parse_report.
type ParseReportOutput struct {
	Path     string          `json:"path"`
	Forecast bool            `json:"forecast" jsonschema:"Whether the report was split as a forecast run"`
	Series   []SeriesSummary `json:"series"`
}

// EvaluateInput defines the input for hydrorun_evaluate.
type EvaluateInput struct {
	Metric    string  `json:"metric" jsonschema:"Metric name: NSE, KGE, KGEPRIME, RMSE, MSE, MAE, MARE, BIAS or R"`
	Variable  string  `json:"variable,omitempty" jsonschema:"streamflow (default) or piezo-level"`
	Period    string  `json:"period,omitempty" jsonschema:"calib (default) or eval"`
	Transform string  `json:"transform,omitempty" jsonschema:"Optional transform: log, inv, sqrt or pow"`
	Exponent  float64 `json:"exponent,omitempty" jsonschema:"Exponent of the pow transform"`
	Depth     int     `json:"depth,omitempty" jsonschema:"Forecast display depth in days. 0 means span+1"`
	RunID     string  `json:"run_id,omitempty" jsonschema:"Record the score against this run of the history"`
}

// EvaluateOutput defines the output for hydrorun_evaluate.
type EvaluateOutput struct {
	Variable  string   `json:"variable"`
	Period    string   `json:"period"`
	Metric    string   `json:"metric"`
	Transform string   `json:"transform,omitempty"`
	Value     *float64 `json:"value" jsonschema:"The score. Null when undefined for the data"`
	Rows      int      `json:"rows"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Recorded  bool     `json:"recorded" jsonschema:"Whether the score was stored in the run history"`
}

// RunsInput defines the input for hydrorun_runs.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs, newest first (default 20)"`
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	StartedAt  string `json:"started_at"`
	Mode       string `json:"mode"`
	Forecast   bool   `json:"forecast"`
	DurationMs int64  `json:"duration_ms"`
	ExitCode   int    `json:"exit_code"`
}

// RunsOutput defines the output for hydrorun_runs.
type RunsOutput struct {
	Runs  []RunSummary `json:"runs"`
	Count int          `json:"count"`
}
