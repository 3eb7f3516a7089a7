// Package cli wires the csas2sharepoint command line: flag parsing, the run
// pipeline, and the validate-report utility.
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vitexsoftware/csas-sharepoint/internal/config"
	"github.com/vitexsoftware/csas-sharepoint/internal/output"
	"github.com/vitexsoftware/csas-sharepoint/internal/pipeline"
	"github.com/vitexsoftware/csas-sharepoint/internal/schema"
	"github.com/vitexsoftware/csas-sharepoint/pkg/exitcode"
	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	var code int
	app := newApp(&code)

	if err := app.Run(append([]string{"csas2sharepoint"}, args...)); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		if code == 0 {
			code = exitcode.Fault
		}
	}
	return code
}

func newApp(code *int) *cli.App {
	return &cli.App{
		Name:    "csas2sharepoint",
		Usage:   "download Česká spořitelna statements and upload them to SharePoint",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file passed to both collaborators as configuration source",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "optional YAML config file (environment variables take precedence)",
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "statement format requested from the downloader",
				EnvVars: []string{config.EnvStatementFormat},
			},
			&cli.StringFlag{
				Name:    "scope",
				Usage:   "statement time scope (e.g. yesterday, last_month)",
				EnvVars: []string{config.EnvStatementScope},
			},
			&cli.StringFlag{
				Name:    "destination",
				Usage:   "SharePoint folder to upload statements into",
				EnvVars: []string{config.EnvDestination},
			},
			&cli.StringFlag{
				Name:    "report-file",
				Usage:   "path for the aggregated JSON report (empty disables it)",
				EnvVars: []string{config.EnvResultFile},
			},
			&cli.BoolFlag{
				Name:  "keep-workspace",
				Usage: "keep the temporary workspace after the run",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "verbose logging and workspace retention",
				EnvVars: []string{config.EnvDebug},
			},
		},
		Action: func(c *cli.Context) error {
			*code = runPipeline(c)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "validate-report",
				Usage:     "validate a written report against the MultiFlexi report schema",
				ArgsUsage: "<report.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "schema-url",
						Usage: "schema document location",
						Value: schema.DefaultSchemaURL,
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "validate against the embedded schema copy only",
					},
				},
				Action: func(c *cli.Context) error {
					*code = runValidateReport(c)
					return nil
				},
			},
		},
	}
}

func runPipeline(c *cli.Context) int {
	logger.SetDebug(c.Bool("debug"))

	cfg, err := config.Load(config.LoadOptions{
		EnvFile:    c.String("env-file"),
		ConfigFile: c.String("config"),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("cannot load configuration")
		return exitcode.Environment
	}

	if c.IsSet("format") {
		cfg.StatementFormat = c.String("format")
	}
	if c.IsSet("scope") {
		cfg.StatementScope = c.String("scope")
	}
	if c.IsSet("destination") {
		cfg.Destination = c.String("destination")
	}
	if c.IsSet("report-file") {
		cfg.ResultFile = c.String("report-file")
	}
	if c.Bool("keep-workspace") || c.Bool("debug") {
		cfg.KeepWorkspace = true
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}

	return pipeline.New(cfg).Run(c.Context)
}

func runValidateReport(c *cli.Context) int {
	w := output.New()

	if c.NArg() != 1 {
		w.Errorln("usage: csas2sharepoint validate-report <report.json>")
		return exitcode.Environment
	}

	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		w.Failure("cannot read report: %v", err)
		return exitcode.Environment
	}

	err = validateWithFallback(c.Context, c.String("schema-url"), c.Bool("offline"), data, w)
	if err != nil {
		w.Failure("report %s is not valid: %v", path, err)
		return exitcode.Environment
	}

	w.ValidationSuccess("report %s is valid according to the MultiFlexi schema", path)
	return exitcode.Success
}

// validateWithFallback prefers the remotely hosted schema and falls back to
// the embedded copy when the fetch fails, so validation also works offline.
func validateWithFallback(ctx context.Context, url string, offline bool, data []byte, w *output.Writer) error {
	if !offline {
		schemaData, err := schema.FetchSchema(ctx, url)
		if err == nil {
			return schema.ValidateReportAgainst(schemaData, data)
		}
		w.Warning("cannot fetch schema (%v), using embedded copy", err)
	}
	return schema.ValidateReport(data)
}
