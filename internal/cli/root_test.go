package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lucasnoah/mlfactory/internal/orchestrator"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

func executeCommand(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// executeCommandSplit is executeCommand with stdout and stderr captured
// separately.
func executeCommandSplit(args ...string) (stdout, stderr string, err error) {
	resetFlags(rootCmd)
	var out, errBuf bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errBuf.String(), err
}

// resetFlags restores every flag to its default so state from one
// invocation does not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

const wineCSV = `fixed acidity,alcohol,density,quality
7.4,9.4,0.9978,5
7.8,9.8,0.9968,5
7.8,9.8,0.997,5
11.2,9.8,0.998,6
7.4,9.4,0.9978,5
7.9,10.5,0.9964,5
`

const runConfig = `
artifacts_root: {{root}}
data_ingestion:
  root_dir: {{root}}/data_ingestion
  source_URL: {{src}}
  local_data_file: {{root}}/data_ingestion/wine.csv
  unzip_dir: {{root}}/data_ingestion
data_validation:
  root_dir: {{root}}/data_validation
  unzip_data_dir: {{root}}/data_ingestion/wine.csv
  STATUS_FILE: {{root}}/data_validation/status.txt
data_transformation:
  root_dir: {{root}}/data_transformation
  data_path: {{root}}/data_ingestion/wine.csv
  status_file: {{root}}/data_validation/status.txt
model_trainer:
  root_dir: {{root}}/model_trainer
  train_data_path: {{root}}/data_transformation/train.csv
  test_data_path: {{root}}/data_transformation/test.csv
  scaler_path: {{root}}/data_transformation/scaler.json
  model_name: model.json
model_evaluation:
  root_dir: {{root}}/model_evaluation
  test_data_path: {{root}}/data_transformation/test.csv
  model_path: {{root}}/model_trainer/model.json
  metric_file_name: {{root}}/model_evaluation/metrics.json
`

const params = `
ElasticNet:
  alpha: 0.2
  l1_ratio: 0.1
`

const schema = `
COLUMNS:
  fixed acidity: float64
  alcohol: float64
  density: float64
  quality: int64
TARGET_COLUMN:
  name: quality
`

// writeDocs writes a source dataset and the three documents into a temp
// dir and returns the document flags for them.
func writeDocs(t *testing.T, extraConfig, paramsDoc string) (flags []string, root string) {
	t.Helper()
	t.Setenv("MLFACTORY_LOG_DIR", filepath.Join(t.TempDir(), "logs"))

	dir := t.TempDir()
	root = filepath.Join(dir, "artifacts")
	src := filepath.Join(dir, "source", "wine.csv")
	cfgPath := filepath.Join(dir, "config", "config.yaml")
	paramsPath := filepath.Join(dir, "params.yaml")
	schemaPath := filepath.Join(dir, "schema.yaml")

	cfg := strings.NewReplacer("{{root}}", root, "{{src}}", src, "{{dir}}", dir).Replace(runConfig + extraConfig)
	for path, content := range map[string]string{
		src:        wineCSV,
		cfgPath:    cfg,
		paramsPath: paramsDoc,
		schemaPath: schema,
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return []string{"--config", cfgPath, "--params", paramsPath, "--schema", schemaPath}, root
}

func TestVersionCommand(t *testing.T) {
	SetVersion("test-version")
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "test-version") {
		t.Errorf("expected version output to contain 'test-version', got: %s", out)
	}
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSubcommands := []string{
		"run", "config", "runs", "status", "analytics", "db", "publish", "serve", "predict", "version",
	}
	for _, sub := range expectedSubcommands {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	for _, args := range [][]string{
		{"config", "validate"}, {"config", "show"},
		{"runs", "list"}, {"runs", "show"}, {"runs", "delete"},
		{"analytics", "stage-duration"}, {"analytics", "failure-rate"}, {"analytics", "throughput"},
		{"db", "migrate"}, {"db", "reset"},
	} {
		out, err := executeCommand(append(args, "--help")...)
		if err != nil {
			t.Errorf("%v --help failed: %v", args, err)
		}
		if out == "" {
			t.Errorf("%v --help produced no output", args)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	out, err := executeCommand(append([]string{"config", "validate"}, flags...)...)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration is valid.") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigValidateReportsErrors(t *testing.T) {
	flags, _ := writeDocs(t, "", "ElasticNet:\n  alpha: 0.2\n")
	out, err := executeCommand(append([]string{"config", "validate"}, flags...)...)
	if err == nil {
		t.Fatal("expected error for missing l1_ratio")
	}
	if !strings.Contains(out, "ElasticNet.l1_ratio") {
		t.Errorf("output missing l1_ratio error: %q", out)
	}
}

func TestConfigShow(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	out, err := executeCommand(append([]string{"config", "show"}, flags...)...)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"ElasticNet", "l1_ratio", "TARGET_COLUMN", "artifacts_root"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q", want)
		}
	}
}

func TestMissingDocument(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	flags[3] = filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := executeCommand(append([]string{"config", "validate"}, flags...)...); err == nil {
		t.Fatal("expected error for missing params document")
	}
}

func TestRunAndInspect(t *testing.T) {
	flags, root := writeDocs(t, "run_history:\n  driver: sqlite3\n  dsn: {{dir}}/history.db\n", params)

	out, err := executeCommand(flags...)
	if err != nil {
		t.Fatalf("pipeline run: %v\n%s", err, out)
	}
	for _, marker := range []string{
		">>>>>> Stage Data Ingestion Stage started <<<<<<",
		">>>>>> Stage Model Evaluation Stage completed <<<<<<",
	} {
		if !strings.Contains(out, marker) {
			t.Errorf("run output missing %q", marker)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "model_evaluation", "metrics.json")); err != nil {
		t.Errorf("metrics not written: %v", err)
	}

	out, err = executeCommand(append([]string{"runs", "list"}, flags...)...)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, "completed") {
		t.Errorf("runs list output = %q", out)
	}

	out, err = executeCommand(append([]string{"status", "--format", "json"}, flags...)...)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("status json: %v\n%s", err, out)
	}
	if report.Run == nil || report.Run.Status != "completed" {
		t.Errorf("status run = %+v", report.Run)
	}
	if report.ValidationStatus == nil || !*report.ValidationStatus {
		t.Error("validation status should be true")
	}
	if report.Metrics == nil {
		t.Fatal("metrics missing from status")
	}
	if len(report.Run.StageHistory) != 5 {
		t.Errorf("stage history has %d entries, want 5", len(report.Run.StageHistory))
	}

	out, err = executeCommand(append([]string{"runs", "show", report.Run.ID}, flags...)...)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	if !strings.Contains(out, "Model Trainer Stage") || !strings.Contains(out, "started") {
		t.Errorf("runs show output = %q", out)
	}

	out, err = executeCommand(append([]string{"analytics", "failure-rate"}, flags...)...)
	if err != nil {
		t.Fatalf("analytics failure-rate: %v", err)
	}
	if !strings.Contains(out, "Data Validation Stage") {
		t.Errorf("failure-rate output = %q", out)
	}

	out, err = executeCommand(append([]string{"analytics", "throughput", "--format", "json"}, flags...)...)
	if err != nil {
		t.Fatalf("analytics throughput: %v", err)
	}
	var days []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &days); err != nil {
		t.Fatalf("throughput json: %v\n%s", err, out)
	}
	if len(days) != 1 || days[0]["completed"] != float64(1) {
		t.Errorf("throughput = %v", days)
	}

	if _, err := executeCommand(append([]string{"db", "migrate"}, flags...)...); err != nil {
		t.Errorf("db migrate on existing database: %v", err)
	}

	if _, err := executeCommand(append([]string{"runs", "delete", report.Run.ID}, flags...)...); err != nil {
		t.Fatalf("runs delete: %v", err)
	}
	out, _ = executeCommand(append([]string{"runs", "list"}, flags...)...)
	if !strings.Contains(out, "No runs found.") {
		t.Errorf("runs list after delete = %q", out)
	}
}

func TestRunFailsOnInvalidParams(t *testing.T) {
	flags, _ := writeDocs(t, "", "ElasticNet:\n  alpha: 0.2\n")
	out, err := executeCommand(append([]string{"run"}, flags...)...)
	if err == nil {
		t.Fatal("expected run to fail without l1_ratio")
	}
	if !strings.Contains(err.Error(), "Model Trainer Stage") {
		t.Errorf("error = %v, want trainer stage failure", err)
	}
	if !strings.Contains(out, ">>>>>> Stage Data Transformation Stage completed <<<<<<") {
		t.Error("stages before the trainer should have completed")
	}

	out, err = executeCommand(append([]string{"runs", "list", "--status", "failed"}, flags...)...)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, "failed") {
		t.Errorf("runs list --status failed = %q", out)
	}
}

func TestStatusWithoutRuns(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	_, err := executeCommand(append([]string{"status"}, flags...)...)
	if !errors.Is(err, errNoRuns) {
		t.Errorf("error = %v, want errNoRuns", err)
	}
}

func TestAnalyticsRequiresHistory(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	_, err := executeCommand(append([]string{"analytics", "stage-duration"}, flags...)...)
	if !errors.Is(err, errNoHistory) {
		t.Errorf("error = %v, want errNoHistory", err)
	}
}

func TestPublishRequiresBucket(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	_, err := executeCommand(append([]string{"publish"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "no bucket") {
		t.Errorf("error = %v, want missing bucket error", err)
	}
}

func TestRunsDeleteRejectsEscapingID(t *testing.T) {
	flags, root := writeDocs(t, "", params)
	if out, err := executeCommand(flags...); err != nil {
		t.Fatalf("pipeline run: %v\n%s", err, out)
	}
	metrics := filepath.Join(root, "model_evaluation", "metrics.json")

	for _, id := range []string{"..", "", "../model_trainer", "."} {
		if _, err := executeCommand(append([]string{"runs", "delete", id}, flags...)...); err == nil {
			t.Errorf("runs delete %q should fail", id)
		}
	}
	if !pipeline.FileExists(metrics) {
		t.Fatal("artifacts outside the runs directory were removed")
	}
	runs, err := pipeline.NewStore(pipeline.RunsDir(root)).List("")
	if err != nil || len(runs) != 1 {
		t.Errorf("runs after rejected deletes = %d (err=%v), want 1", len(runs), err)
	}
}

func TestRunJSONKeepsStdoutClean(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	stdout, stderr, err := executeCommandSplit(append([]string{"run", "--format", "json"}, flags...)...)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stderr)
	}
	var result orchestrator.RunResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if result.Status != pipeline.StatusCompleted || len(result.Stages) != 5 {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(stderr, ">>>>>> Stage Data Ingestion Stage started <<<<<<") {
		t.Errorf("log lines should go to stderr, got %q", stderr)
	}
}

// copyRepoFile copies a file from the repository root into dir, keeping its
// relative path.
func copyRepoFile(t *testing.T, dir, rel string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	dst := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultDocumentsRunAndPredict(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{
		filepath.Join("config", "config.yaml"),
		"params.yaml",
		"schema.yaml",
		filepath.Join("data", "winequality-red.csv"),
	} {
		copyRepoFile(t, dir, rel)
	}
	t.Setenv("MLFACTORY_LOG_DIR", filepath.Join(dir, "logs"))
	t.Chdir(dir)

	if out, err := executeCommand("config", "validate"); err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if out, err := executeCommand(); err != nil {
		t.Fatalf("default run: %v\n%s", err, out)
	}
	for _, rel := range []string{
		"artifacts/data_validation/status.txt",
		"artifacts/model_trainer/model.json",
		"artifacts/model_evaluation/metrics.json",
	} {
		if !pipeline.FileExists(filepath.Join(dir, rel)) {
			t.Errorf("%s missing after default run", rel)
		}
	}

	out, logs, err := executeCommandSplit("predict", "--input", filepath.Join("data", "winequality-red.csv"), "--format", "json")
	if err != nil {
		t.Fatalf("predict: %v\n%s", err, logs)
	}
	var preds []float64
	if err := json.Unmarshal([]byte(out), &preds); err != nil {
		t.Fatalf("predict json: %v\n%s", err, out)
	}
	if len(preds) != 20 {
		t.Errorf("got %d predictions, want 20", len(preds))
	}

	scored := filepath.Join(dir, "scored.csv")
	if _, err := executeCommand("predict", "--input", filepath.Join("data", "winequality-red.csv"), "--output", scored); err != nil {
		t.Fatalf("predict --output: %v", err)
	}
	header, err := os.ReadFile(scored)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(header), "predicted_quality") {
		t.Errorf("scored CSV missing prediction column")
	}
}

func TestPredictRequiresInput(t *testing.T) {
	flags, _ := writeDocs(t, "", params)
	_, err := executeCommand(append([]string{"predict"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "--input") {
		t.Errorf("error = %v, want --input required", err)
	}
}
