package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status is the overall run outcome. Partial failure is a first-class
// outcome: warning sits between success and error and must not collapse into
// either.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Artifacts lists what the run produced, by URL when the uploader reported
// one and by basename otherwise.
type Artifacts struct {
	UploadedStatements   []string `json:"uploaded_statements"`
	DownloadedStatements []string `json:"downloaded_statements"`
}

// Metrics carries the run counters. successful_uploads <= upload_attempts <=
// files_downloaded holds by construction.
type Metrics struct {
	FilesDownloaded   int  `json:"files_downloaded"`
	UploadAttempts    int  `json:"upload_attempts"`
	SuccessfulUploads int  `json:"successful_uploads"`
	DownloadSuccess   bool `json:"download_success"`
}

// UploadEntry embeds one per-file upload sub-report for forensic traceability.
type UploadEntry struct {
	File    string  `json:"file"`
	Success bool    `json:"success"`
	Report  Payload `json:"report"`
}

// Final is the aggregated report document, conforming to the MultiFlexi
// report schema.
type Final struct {
	Status    Status        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Message   string        `json:"message"`
	Artifacts Artifacts     `json:"artifacts"`
	Metrics   Metrics       `json:"metrics"`
	Download  Payload       `json:"download_report"`
	Uploads   []UploadEntry `json:"upload_reports"`
}

// DeriveStatus applies the status decision table, evaluated in order:
//
//  1. download failed and nothing was found: warning (nothing to do)
//  2. everything that was downloaded got uploaded: success
//  3. some uploads fell short: warning
//  4. anything else: error
func DeriveStatus(m Metrics) Status {
	switch {
	case !m.DownloadSuccess && m.FilesDownloaded == 0:
		return StatusWarning
	case m.DownloadSuccess && m.FilesDownloaded > 0 && m.SuccessfulUploads == m.UploadAttempts:
		return StatusSuccess
	case m.DownloadSuccess && m.FilesDownloaded > 0 && m.SuccessfulUploads < m.UploadAttempts:
		return StatusWarning
	default:
		return StatusError
	}
}

// StatusMessage renders the human-readable summary matching the derived
// status.
func StatusMessage(m Metrics) string {
	switch {
	case !m.DownloadSuccess && m.FilesDownloaded == 0:
		return "no statements downloaded, nothing to do"
	case m.DownloadSuccess && m.FilesDownloaded == 0:
		return "statement download produced no files"
	case m.SuccessfulUploads == m.UploadAttempts:
		return fmt.Sprintf("uploaded %d of %d statements", m.SuccessfulUploads, m.FilesDownloaded)
	default:
		return fmt.Sprintf("uploaded %d of %d statements, %d failed",
			m.SuccessfulUploads, m.UploadAttempts, m.UploadAttempts-m.SuccessfulUploads)
	}
}

// New assembles a Final report stamped with the current time.
func New(m Metrics, artifacts Artifacts, download Payload, uploads []UploadEntry) Final {
	if uploads == nil {
		uploads = []UploadEntry{}
	}
	if artifacts.UploadedStatements == nil {
		artifacts.UploadedStatements = []string{}
	}
	if artifacts.DownloadedStatements == nil {
		artifacts.DownloadedStatements = []string{}
	}
	return Final{
		Status:    DeriveStatus(m),
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   StatusMessage(m),
		Artifacts: artifacts,
		Metrics:   m,
		Download:  download,
		Uploads:   uploads,
	}
}

// Write persists the report to path, overwriting prior content. An empty path
// disables report writing and is not an error.
func (f Final) Write(path string) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal final report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write final report: %w", err)
	}
	return nil
}

// Read loads a previously written report, for the validate-report command and
// round-trip checks.
func Read(path string) (Final, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Final{}, fmt.Errorf("read final report: %w", err)
	}
	var f Final
	if err := json.Unmarshal(data, &f); err != nil {
		return Final{}, fmt.Errorf("parse final report: %w", err)
	}
	return f, nil
}
