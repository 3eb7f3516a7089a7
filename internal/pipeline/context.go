package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vitexsoftware/csas-sharepoint/internal/report"
	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// SideEffectName is the reserved filename inside the workspace where both
// collaborators are told to write their side-effect reports. Files with this
// name are never treated as downloaded statements.
const SideEffectName = "result.json"

// UploadRecord tracks one downloaded file through the upload stage, in
// discovery order.
type UploadRecord struct {
	Path string
	Base string
	OK   bool
	URL  string

	// Result archives the uploader's side-effect report for this file.
	Result report.ToolResult
}

// RunContext owns the mutable state of a single pipeline run: the workspace
// directory, the discovered downloaded files, and the accumulated stage
// results. Its lifetime is one invocation.
type RunContext struct {
	workspace  string
	sideEffect string

	files    []string
	download report.ToolResult
	uploads  []UploadRecord

	reportWritten bool
	keep          bool
}

// newRunContext creates the exclusively-owned temporary workspace.
func newRunContext(keep bool) (*RunContext, error) {
	dir, err := os.MkdirTemp("", "csas2sharepoint-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &RunContext{
		workspace:  dir,
		sideEffect: filepath.Join(dir, SideEffectName),
		keep:       keep,
	}, nil
}

// clearSideEffect removes any leftover side-effect report so the next
// invocation's report cannot be confused with a previous one.
func (rc *RunContext) clearSideEffect() {
	if err := os.Remove(rc.sideEffect); err != nil && !os.IsNotExist(err) {
		logger.Log.Warn().Err(err).Msg("cannot clear side-effect report")
	}
}

// scanFiles re-reads the workspace and records every regular file except the
// reserved side-effect report as a downloaded statement. The directory
// contents are canonical; the downloader's own report may be incomplete or
// absent. Order is lexical for determinism.
func (rc *RunContext) scanFiles() error {
	entries, err := os.ReadDir(rc.workspace)
	if err != nil {
		return fmt.Errorf("scan workspace: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == SideEffectName {
			continue
		}
		files = append(files, filepath.Join(rc.workspace, e.Name()))
	}
	sort.Strings(files)
	rc.files = files
	return nil
}

// teardown removes the workspace and everything in it, unless retention was
// requested.
func (rc *RunContext) teardown() {
	if rc.keep {
		logger.Log.Info().Str("workspace", rc.workspace).Msg("keeping workspace")
		return
	}
	if err := os.RemoveAll(rc.workspace); err != nil {
		logger.Log.Warn().Err(err).Str("workspace", rc.workspace).Msg("cannot remove workspace")
	}
}
