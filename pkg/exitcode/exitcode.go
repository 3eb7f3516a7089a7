// Package exitcode provides public exit-code constants for external tools
// integrating with csas2sharepoint, such as MultiFlexi job runners.
// These constants allow integrators to check exit codes symbolically rather
// than using magic numbers.
package exitcode

const (
	// Success indicates the whole pipeline completed.
	Success = 0

	// Environment indicates the environment check failed (missing required
	// configuration variables); the pipeline did not start.
	Environment = 1

	// Download indicates the statement download stage failed.
	Download = 2

	// Upload indicates the upload stage failed (zero files uploaded).
	Upload = 3

	// Fault indicates an unexpected fault anywhere in the pipeline.
	Fault = 4
)
