package pipeline

import (
	"context"
	"strings"

	"github.com/vitexsoftware/csas-sharepoint/internal/config"
	"github.com/vitexsoftware/csas-sharepoint/internal/report"
	"github.com/vitexsoftware/csas-sharepoint/internal/tool"
	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// StageResult carries a stage's success flag plus a structured failure
// reason, so the aggregator and the exit-code mapping can branch on the
// reason rather than on log text.
type StageResult struct {
	OK     bool
	Reason tool.FailureReason
	Detail string
}

func stageOK() StageResult { return StageResult{OK: true} }

func stageFailed(reason tool.FailureReason, detail string) StageResult {
	return StageResult{Reason: reason, Detail: detail}
}

// runDownload invokes the statement downloader into the workspace and derives
// the canonical downloaded-files set from the directory contents. A
// collaborator failure is recorded and returned, never raised.
func (p *Pipeline) runDownload(ctx context.Context, rc *RunContext) StageResult {
	logger.Log.Info().
		Str("format", p.cfg.StatementFormat).
		Str("scope", p.cfg.StatementScope).
		Str("workspace", rc.workspace).
		Msg("downloading statements")

	rc.clearSideEffect()

	env := map[string]string{
		config.EnvResultFile: rc.sideEffect,
	}
	if p.cfg.StatementScope != "" {
		env[config.EnvStatementScope] = p.cfg.StatementScope
	}

	res := p.downloader.Fetch(ctx, rc.workspace, p.cfg.StatementFormat, p.cfg.EnvFile, env)

	// Archive the downloader's report before the upload stage can overwrite
	// the side-effect path, regardless of how the invocation ended.
	rc.download = report.ToolResult{
		Source:  "download",
		Success: res.OK,
		Payload: report.ReadSideEffect(rc.sideEffect),
	}

	if !res.OK {
		logger.Log.Error().
			Str("reason", string(res.Reason)).
			Int("exit_code", res.ExitCode).
			Str("stderr", strings.TrimSpace(res.Stderr)).
			Msg("statement download failed")
		return stageFailed(res.Reason, strings.TrimSpace(res.Stderr))
	}

	if err := rc.scanFiles(); err != nil {
		logger.Log.Error().Err(err).Msg("cannot enumerate downloaded statements")
		return stageFailed(tool.FailureNoSource, err.Error())
	}

	logger.Log.Info().Int("files", len(rc.files)).Msg("statements downloaded")
	return stageOK()
}
