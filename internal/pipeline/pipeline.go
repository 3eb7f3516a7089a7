// Package pipeline orchestrates one csas2sharepoint run: validate the
// environment, download statements into a workspace, upload them one by one,
// aggregate the collaborators' reports, and tear the workspace down.
// Control flows strictly forward; there is no concurrency anywhere.
package pipeline

import (
	"context"

	"github.com/vitexsoftware/csas-sharepoint/internal/config"
	"github.com/vitexsoftware/csas-sharepoint/internal/output"
	"github.com/vitexsoftware/csas-sharepoint/internal/tool"
	"github.com/vitexsoftware/csas-sharepoint/pkg/exitcode"
	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// Pipeline runs the download/upload/aggregate sequence for one configuration.
type Pipeline struct {
	cfg        config.Config
	downloader tool.Downloader
	uploader   tool.Uploader

	// console, when set, receives the one-line run summary.
	console *output.Writer
}

// New creates a Pipeline with the default collaborator binaries.
func New(cfg config.Config) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		downloader: tool.NewDownloader(),
		uploader:   tool.NewUploader(),
		console:    output.New(),
	}
}

// Run executes the whole pipeline and returns the process exit code. The
// final report and workspace teardown run even when a stage fails or a fault
// occurs mid-run; the report is always written before the workspace is
// removed.
func (p *Pipeline) Run(ctx context.Context) (code int) {
	if err := p.cfg.Validate(); err != nil {
		logger.Log.Error().Err(err).Msg("environment check failed")
		return exitcode.Environment
	}

	rc, err := newRunContext(p.cfg.KeepWorkspace)
	if err != nil {
		logger.Log.Error().Err(err).Msg("cannot create workspace")
		return exitcode.Fault
	}

	defer rc.teardown()
	defer p.writeReport(rc)
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error().Interface("panic", r).Msg("unexpected fault")
			code = exitcode.Fault
		}
	}()

	if res := p.runDownload(ctx, rc); !res.OK {
		return exitcode.Download
	}

	if res := p.runUpload(ctx, rc); !res.OK {
		return exitcode.Upload
	}

	return exitcode.Success
}
