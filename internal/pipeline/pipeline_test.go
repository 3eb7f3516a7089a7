package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/vitexsoftware/csas-sharepoint/internal/config"
	"github.com/vitexsoftware/csas-sharepoint/internal/report"
	"github.com/vitexsoftware/csas-sharepoint/internal/tool"
	"github.com/vitexsoftware/csas-sharepoint/pkg/exitcode"
)

// writeScript installs a fake collaborator executable.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake collaborators are POSIX shell scripts")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(reportPath string) config.Config {
	return config.Config{
		APIKey:          "key",
		AccessToken:     "token",
		AccountIBAN:     "CZ1234567890123456789012",
		Tenant:          "acme",
		Site:            "finance",
		StatementFormat: "abo-standard",
		StatementScope:  "yesterday",
		Destination:     "Shared Documents/statements",
		ResultFile:      reportPath,
	}
}

func newTestPipeline(cfg config.Config, downloaderBin, uploaderBin string) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		downloader: tool.Downloader{Bin: downloaderBin, Timeout: time.Minute},
		uploader:   tool.Uploader{Bin: uploaderBin, Timeout: time.Minute},
	}
}

func readReport(t *testing.T, path string) report.Final {
	t.Helper()
	f, err := report.Read(path)
	if err != nil {
		t.Fatalf("read final report: %v", err)
	}
	return f
}

func TestRun_EnvironmentCheckFailsClosed(t *testing.T) {
	t.Parallel()
	p := New(config.Config{})
	if code := p.Run(context.Background()); code != exitcode.Environment {
		t.Errorf("Run() = %d, want %d", code, exitcode.Environment)
	}
}

func TestRun_DownloadFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", "echo 'bank api unreachable' >&2\nexit 1")
	ul := writeScript(t, dir, "uploader.sh", "exit 0")
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Download {
		t.Fatalf("Run() = %d, want %d", code, exitcode.Download)
	}

	f := readReport(t, reportPath)
	if f.Status != report.StatusWarning {
		t.Errorf("Status = %q, want warning (nothing to do)", f.Status)
	}
	if f.Metrics.DownloadSuccess {
		t.Error("DownloadSuccess = true, want false")
	}
	if f.Metrics.FilesDownloaded != 0 || f.Metrics.UploadAttempts != 0 {
		t.Errorf("Metrics = %+v, want zero counts", f.Metrics)
	}
}

func TestRun_FullSuccess(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", strings.Join([]string{
		`touch "$1/b.abo" "$1/a.abo"`,
		`printf '{"status":"success","statements":2}' > "$RESULT_FILE"`,
	}, "\n"))
	ul := writeScript(t, dir, "uploader.sh", strings.Join([]string{
		`printf '{"status":"success"}' > "$RESULT_FILE"`,
		`echo "https://example.sharepoint.com/$(basename "$1")"`,
	}, "\n"))
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d, want %d", code, exitcode.Success)
	}

	f := readReport(t, reportPath)
	if f.Status != report.StatusSuccess {
		t.Errorf("Status = %q, want success", f.Status)
	}
	wantMetrics := report.Metrics{FilesDownloaded: 2, UploadAttempts: 2, SuccessfulUploads: 2, DownloadSuccess: true}
	if f.Metrics != wantMetrics {
		t.Errorf("Metrics = %+v, want %+v", f.Metrics, wantMetrics)
	}

	// Discovery order is lexical, and the reserved report filename is never a
	// statement.
	wantDownloaded := []string{"a.abo", "b.abo"}
	if len(f.Artifacts.DownloadedStatements) != 2 {
		t.Fatalf("DownloadedStatements = %v, want %v", f.Artifacts.DownloadedStatements, wantDownloaded)
	}
	for i, want := range wantDownloaded {
		if f.Artifacts.DownloadedStatements[i] != want {
			t.Errorf("DownloadedStatements[%d] = %q, want %q", i, f.Artifacts.DownloadedStatements[i], want)
		}
	}

	// The uploader printed URLs, so artifacts carry URLs rather than basenames.
	for i, url := range f.Artifacts.UploadedStatements {
		if !strings.HasPrefix(url, "https://example.sharepoint.com/") {
			t.Errorf("UploadedStatements[%d] = %q, want URL", i, url)
		}
	}

	// The downloader's own report survives even though every upload
	// overwrote the side-effect file afterwards.
	if f.Download.Kind != report.PayloadStructured || f.Download.Doc["statements"] != float64(2) {
		t.Errorf("Download payload = %+v, want archived downloader report", f.Download)
	}
}

func TestRun_PartialUploadFailureIsWarning(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", `touch "$1/s1.abo" "$1/s2.abo" "$1/s3.abo"`)
	ul := writeScript(t, dir, "uploader.sh", strings.Join([]string{
		`case "$1" in *s2.abo) echo "sharepoint rejected file" >&2; exit 1;; esac`,
		`echo "https://example.sharepoint.com/$(basename "$1")"`,
	}, "\n"))
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d, want %d (partial success is stage success)", code, exitcode.Success)
	}

	f := readReport(t, reportPath)
	if f.Status != report.StatusWarning {
		t.Errorf("Status = %q, want warning", f.Status)
	}
	wantMetrics := report.Metrics{FilesDownloaded: 3, UploadAttempts: 3, SuccessfulUploads: 2, DownloadSuccess: true}
	if f.Metrics != wantMetrics {
		t.Errorf("Metrics = %+v, want %+v", f.Metrics, wantMetrics)
	}
	if len(f.Uploads) != 3 {
		t.Fatalf("Uploads = %d entries, want 3", len(f.Uploads))
	}
	if f.Uploads[0].Success != true || f.Uploads[1].Success != false || f.Uploads[2].Success != true {
		t.Errorf("per-file success = [%v %v %v], want [true false true]",
			f.Uploads[0].Success, f.Uploads[1].Success, f.Uploads[2].Success)
	}
}

func TestRun_NoFilesSkipsUploader(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	marker := filepath.Join(dir, "uploader-ran")
	dl := writeScript(t, dir, "downloader.sh", "exit 0")
	ul := writeScript(t, dir, "uploader.sh", `touch `+marker)
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Upload {
		t.Fatalf("Run() = %d, want %d", code, exitcode.Upload)
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("uploader was invoked despite zero downloaded files")
	}

	f := readReport(t, reportPath)
	if f.Status != report.StatusError {
		t.Errorf("Status = %q, want error", f.Status)
	}
}

func TestRun_SideEffectClearedBetweenInvocations(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", strings.Join([]string{
		`touch "$1/a.abo" "$1/b.abo"`,
		`printf '{"from":"download"}' > "$RESULT_FILE"`,
	}, "\n"))
	// A stale report visible at invocation start means the hand-off
	// discipline is broken.
	ul := writeScript(t, dir, "uploader.sh", strings.Join([]string{
		`if [ -f "$RESULT_FILE" ]; then echo "stale side-effect report" >&2; exit 9; fi`,
		`printf '{"from":"upload"}' > "$RESULT_FILE"`,
	}, "\n"))
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d, want %d", code, exitcode.Success)
	}

	f := readReport(t, reportPath)
	if f.Metrics.SuccessfulUploads != 2 {
		t.Errorf("SuccessfulUploads = %d, want 2 (stale report leaked between invocations)",
			f.Metrics.SuccessfulUploads)
	}
}

func TestRun_MissingSourceFileSkipped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", `touch "$1/a.abo" "$1/b.abo"`)
	// Uploading a.abo deletes b.abo, so the second upload sees a missing
	// source file.
	ul := writeScript(t, dir, "uploader.sh", strings.Join([]string{
		`case "$1" in *a.abo) rm -f "$(dirname "$1")/b.abo";; esac`,
		`exit 0`,
	}, "\n"))
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d, want %d", code, exitcode.Success)
	}

	f := readReport(t, reportPath)
	wantMetrics := report.Metrics{FilesDownloaded: 2, UploadAttempts: 2, SuccessfulUploads: 1, DownloadSuccess: true}
	if f.Metrics != wantMetrics {
		t.Errorf("Metrics = %+v, want %+v", f.Metrics, wantMetrics)
	}
	if f.Status != report.StatusWarning {
		t.Errorf("Status = %q, want warning", f.Status)
	}
}

func TestRun_NoReportPathConfigured(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", `touch "$1/a.abo"`)
	ul := writeScript(t, dir, "uploader.sh", "exit 0")

	p := newTestPipeline(testConfig(""), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d, want %d", code, exitcode.Success)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			t.Errorf("unexpected report file %s with no report path configured", e.Name())
		}
	}
}

func TestRun_WorkspaceRemoved(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	wsRecord := filepath.Join(dir, "workspace.txt")
	dl := writeScript(t, dir, "downloader.sh", `echo "$1" > `+wsRecord+`
touch "$1/a.abo"`)
	ul := writeScript(t, dir, "uploader.sh", "exit 0")

	p := newTestPipeline(testConfig(filepath.Join(dir, "report.json")), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d", code)
	}

	ws, err := os.ReadFile(wsRecord)
	if err != nil {
		t.Fatal(err)
	}
	wsPath := strings.TrimSpace(string(ws))
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("workspace %s still exists after run", wsPath)
	}
}

func TestRun_KeepWorkspace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	wsRecord := filepath.Join(dir, "workspace.txt")
	dl := writeScript(t, dir, "downloader.sh", `echo "$1" > `+wsRecord+`
touch "$1/a.abo"`)
	ul := writeScript(t, dir, "uploader.sh", "exit 0")

	cfg := testConfig(filepath.Join(dir, "report.json"))
	cfg.KeepWorkspace = true
	p := newTestPipeline(cfg, dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d", code)
	}

	ws, err := os.ReadFile(wsRecord)
	if err != nil {
		t.Fatal(err)
	}
	wsPath := strings.TrimSpace(string(ws))
	if _, err := os.Stat(wsPath); err != nil {
		t.Errorf("workspace %s was removed despite retention: %v", wsPath, err)
	}
	t.Cleanup(func() { os.RemoveAll(wsPath) })
}

func TestRun_ScopePassedAsEnvOverride(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	scopeRecord := filepath.Join(dir, "scope.txt")
	dl := writeScript(t, dir, "downloader.sh", `echo "$CSAS_STATEMENT_SCOPE" > `+scopeRecord+`
touch "$1/a.abo"`)
	ul := writeScript(t, dir, "uploader.sh", "exit 0")

	cfg := testConfig(filepath.Join(dir, "report.json"))
	cfg.StatementScope = "last_month"
	p := newTestPipeline(cfg, dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d", code)
	}

	got, err := os.ReadFile(scopeRecord)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(got)) != "last_month" {
		t.Errorf("downloader saw scope %q, want last_month", strings.TrimSpace(string(got)))
	}
}

func TestWriteReport_ExactlyOnce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")

	p := New(testConfig(reportPath))
	rc, err := newRunContext(false)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.teardown()

	p.writeReport(rc)
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("report not written: %v", err)
	}

	// A second call must not touch the file.
	if err := os.WriteFile(reportPath, []byte("sentinel"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.writeReport(rc)
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "sentinel" {
		t.Error("writeReport wrote the report a second time")
	}
}

func TestRun_ReportRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dl := writeScript(t, dir, "downloader.sh", `touch "$1/x.abo" "$1/y.abo"`)
	ul := writeScript(t, dir, "uploader.sh", "exit 0")
	reportPath := filepath.Join(dir, "report.json")

	p := newTestPipeline(testConfig(reportPath), dl, ul)
	if code := p.Run(context.Background()); code != exitcode.Success {
		t.Fatalf("Run() = %d", code)
	}

	f := readReport(t, reportPath)
	if f.Status != report.DeriveStatus(f.Metrics) {
		t.Errorf("persisted status %q does not match metrics %+v", f.Status, f.Metrics)
	}
	if got := len(f.Artifacts.UploadedStatements); got != f.Metrics.SuccessfulUploads {
		t.Errorf("uploaded artifacts = %d, want %d", got, f.Metrics.SuccessfulUploads)
	}
	// No URL printed, so artifacts fall back to basenames.
	for _, name := range f.Artifacts.UploadedStatements {
		if strings.Contains(name, "/") {
			t.Errorf("artifact %q should be a basename", name)
		}
	}
}
