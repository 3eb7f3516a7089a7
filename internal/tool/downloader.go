package tool

import (
	"context"
	"time"
)

// DefaultDownloaderBin is the statement downloader executable expected on PATH.
const DefaultDownloaderBin = "csas-statement-downloader"

// DownloadTimeout bounds one downloader invocation. The bank API can be slow
// around statement publication time but anything beyond this is a hang.
const DownloadTimeout = 5 * time.Minute

// Downloader invokes the external statement downloader.
type Downloader struct {
	Bin     string
	Timeout time.Duration
}

// NewDownloader returns a Downloader with default binary and timeout.
func NewDownloader() Downloader {
	return Downloader{Bin: DefaultDownloaderBin, Timeout: DownloadTimeout}
}

// Fetch asks the downloader to place statements of the given format into dir.
// The env file carries the credentials; env holds per-run overrides such as
// the statement scope and the redirected side-effect report path.
func (d Downloader) Fetch(ctx context.Context, dir, format, envFile string, env map[string]string) Result {
	args := []string{dir, format}
	if envFile != "" {
		args = append(args, envFile)
	}
	return Run(ctx, Invocation{
		Path:    d.Bin,
		Args:    args,
		Env:     env,
		Timeout: d.Timeout,
	})
}
