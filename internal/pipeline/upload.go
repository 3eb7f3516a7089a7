package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitexsoftware/csas-sharepoint/internal/config"
	"github.com/vitexsoftware/csas-sharepoint/internal/report"
	"github.com/vitexsoftware/csas-sharepoint/internal/tool"
	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// runUpload pushes every downloaded file to SharePoint, strictly one at a
// time in discovery order. Per-file failures are logged and skipped; the
// stage as a whole fails only when nothing was uploaded.
func (p *Pipeline) runUpload(ctx context.Context, rc *RunContext) StageResult {
	if len(rc.files) == 0 {
		logger.Log.Warn().Msg("no statements to upload")
		return stageFailed(tool.FailureNoSource, "no downloaded files")
	}

	logger.Log.Info().
		Int("files", len(rc.files)).
		Str("destination", p.cfg.Destination).
		Msg("uploading statements to SharePoint")

	succeeded := 0
	for _, file := range rc.files {
		rec := p.uploadOne(ctx, rc, file)
		rc.uploads = append(rc.uploads, rec)
		if rec.OK {
			succeeded++
		}
	}

	if succeeded == 0 {
		return stageFailed(tool.FailureExit, "all uploads failed")
	}
	return stageOK()
}

func (p *Pipeline) uploadOne(ctx context.Context, rc *RunContext, file string) UploadRecord {
	base := filepath.Base(file)
	rec := UploadRecord{Path: file, Base: base}

	rc.clearSideEffect()

	if _, err := os.Stat(file); err != nil {
		logger.Log.Error().Err(err).Str("file", base).Msg("statement file disappeared, skipping")
		rec.Result = report.ToolResult{Source: "upload:" + base}
		return rec
	}

	res := p.uploader.Push(ctx, file, p.cfg.Destination, p.cfg.EnvFile, map[string]string{
		config.EnvResultFile: rc.sideEffect,
	})

	rec.OK = res.OK
	rec.URL = tool.StdoutURL(res.Stdout)
	rec.Result = report.ToolResult{
		Source:  "upload:" + base,
		Success: res.OK,
		Payload: report.ReadSideEffect(rc.sideEffect),
	}

	if res.OK {
		logger.Log.Info().Str("file", base).Str("url", rec.URL).Msg("uploaded")
	} else {
		logger.Log.Error().
			Str("file", base).
			Str("reason", string(res.Reason)).
			Int("exit_code", res.ExitCode).
			Str("stderr", strings.TrimSpace(res.Stderr)).
			Msg("upload failed, continuing with next file")
	}
	return rec
}
