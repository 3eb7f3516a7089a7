package tool

import (
	"context"
	"time"
)

// DefaultUploaderBin is the SharePoint upload executable expected on PATH.
const DefaultUploaderBin = "file2sharepoint"

// UploadTimeout bounds one per-file uploader invocation.
const UploadTimeout = 2 * time.Minute

// Uploader invokes the external SharePoint uploader, one file per call.
// SharePoint sessions are not assumed safe to share, so callers must not
// overlap invocations.
type Uploader struct {
	Bin     string
	Timeout time.Duration
}

// NewUploader returns an Uploader with default binary and timeout.
func NewUploader() Uploader {
	return Uploader{Bin: DefaultUploaderBin, Timeout: UploadTimeout}
}

// Push uploads a single file to the destination folder. The env file carries
// tenant, site, and auth secrets; env holds the redirected side-effect report
// path.
func (u Uploader) Push(ctx context.Context, file, destination, envFile string, env map[string]string) Result {
	args := []string{file, destination}
	if envFile != "" {
		args = append(args, envFile)
	}
	return Run(ctx, Invocation{
		Path:    u.Bin,
		Args:    args,
		Env:     env,
		Timeout: u.Timeout,
	})
}
