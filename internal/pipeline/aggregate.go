package pipeline

import (
	"path/filepath"

	"github.com/vitexsoftware/csas-sharepoint/internal/report"
	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// buildReport merges the download result and all upload records into the
// final report document.
func (rc *RunContext) buildReport() report.Final {
	metrics := report.Metrics{
		FilesDownloaded: len(rc.files),
		UploadAttempts:  len(rc.uploads),
		DownloadSuccess: rc.download.Success,
	}

	artifacts := report.Artifacts{}
	for _, f := range rc.files {
		artifacts.DownloadedStatements = append(artifacts.DownloadedStatements, filepath.Base(f))
	}

	uploads := make([]report.UploadEntry, 0, len(rc.uploads))
	for _, rec := range rc.uploads {
		if rec.OK {
			metrics.SuccessfulUploads++
			if rec.URL != "" {
				artifacts.UploadedStatements = append(artifacts.UploadedStatements, rec.URL)
			} else {
				artifacts.UploadedStatements = append(artifacts.UploadedStatements, rec.Base)
			}
		}
		uploads = append(uploads, report.UploadEntry{
			File:    rec.Base,
			Success: rec.OK,
			Report:  rec.Result.Payload,
		})
	}

	return report.New(metrics, artifacts, rc.download.Payload, uploads)
}

// writeReport runs unconditionally as the last step before workspace removal.
// It writes the final report exactly once; with no report path configured it
// is a no-op.
func (p *Pipeline) writeReport(rc *RunContext) {
	if rc.reportWritten {
		return
	}
	rc.reportWritten = true

	final := rc.buildReport()
	logger.Log.Info().
		Str("status", string(final.Status)).
		Int("downloaded", final.Metrics.FilesDownloaded).
		Int("attempted", final.Metrics.UploadAttempts).
		Int("uploaded", final.Metrics.SuccessfulUploads).
		Msg(final.Message)

	if p.console != nil {
		switch final.Status {
		case report.StatusSuccess:
			p.console.Success("%s", final.Message)
		case report.StatusWarning:
			p.console.Warning("%s", final.Message)
		default:
			p.console.Failure("%s", final.Message)
		}
	}

	if p.cfg.ResultFile == "" {
		logger.Log.Debug().Msg("no report file configured, skipping final report")
		return
	}
	if err := final.Write(p.cfg.ResultFile); err != nil {
		logger.Log.Error().Err(err).Msg("cannot write final report")
		return
	}
	logger.Log.Info().Str("path", p.cfg.ResultFile).Msg("final report written")
}
