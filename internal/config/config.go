// Package config builds the immutable run configuration for csas2sharepoint.
//
// Configuration is layered, lowest precedence first: built-in defaults, an
// optional YAML config file, the .env file, and finally real environment
// variables. The result is a plain struct constructed once at startup; the
// pipeline stages never read ambient environment state themselves.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by this tool and its collaborators.
const (
	EnvAPIKey      = "CSAS_API_KEY"
	EnvAccessToken = "CSAS_ACCESS_TOKEN"
	EnvAccountUUID = "CSAS_ACCOUNT_UUID"
	EnvAccountIBAN = "CSAS_ACCOUNT_IBAN"

	EnvStatementFormat = "STATEMENT_FORMAT"
	EnvStatementScope  = "CSAS_STATEMENT_SCOPE"

	EnvTenant      = "OFFICE365_TENANT"
	EnvSite        = "OFFICE365_SITE"
	EnvDestination = "OFFICE365_PATH"
	EnvLibrary     = "OFFICE365_LIBRARY"

	EnvResultFile = "RESULT_FILE"
	EnvDebug      = "DEBUG"
)

// Default values applied when neither file nor environment provides one.
const (
	DefaultStatementFormat = "abo-standard"
	DefaultStatementScope  = "yesterday"
	DefaultDestination     = "Shared Documents"
)

// Config holds everything one pipeline run needs. Credentials and auth
// secrets are validated for presence only; their contents belong to the
// collaborator contract and are passed through via the env file.
type Config struct {
	APIKey      string
	AccessToken string
	AccountUUID string
	AccountIBAN string

	StatementFormat string
	StatementScope  string

	Tenant      string
	Site        string
	Destination string
	Library     string

	// EnvFile is handed to both collaborators as their configuration source.
	EnvFile string

	// ResultFile is the final report sink. Empty means report writing is
	// disabled.
	ResultFile string

	Debug         bool
	KeepWorkspace bool
}

// fileConfig mirrors the optional YAML config file. Keys are the lowercase
// forms of the corresponding environment variables.
type fileConfig struct {
	APIKey      string `yaml:"csas_api_key"`
	AccessToken string `yaml:"csas_access_token"`
	AccountUUID string `yaml:"csas_account_uuid"`
	AccountIBAN string `yaml:"csas_account_iban"`

	StatementFormat string `yaml:"statement_format"`
	StatementScope  string `yaml:"csas_statement_scope"`

	Tenant      string `yaml:"office365_tenant"`
	Site        string `yaml:"office365_site"`
	Destination string `yaml:"office365_path"`
	Library     string `yaml:"office365_library"`

	ResultFile string `yaml:"result_file"`
	Debug      bool   `yaml:"debug"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// EnvFile is the dotenv file loaded before environment binding. A missing
	// file is not an error; collaborators tolerate the same.
	EnvFile string

	// ConfigFile is an optional YAML file providing defaults below the
	// environment. Empty means no file.
	ConfigFile string
}

// Load assembles a Config from the layered sources.
func Load(opts LoadOptions) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetDefault(EnvStatementFormat, DefaultStatementFormat)
	v.SetDefault(EnvStatementScope, DefaultStatementScope)
	v.SetDefault(EnvDestination, DefaultDestination)

	if opts.ConfigFile != "" {
		fc, err := loadFile(opts.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		applyFileDefaults(v, fc)
	}

	v.AutomaticEnv()

	return Config{
		APIKey:      v.GetString(EnvAPIKey),
		AccessToken: v.GetString(EnvAccessToken),
		AccountUUID: v.GetString(EnvAccountUUID),
		AccountIBAN: v.GetString(EnvAccountIBAN),

		StatementFormat: v.GetString(EnvStatementFormat),
		StatementScope:  v.GetString(EnvStatementScope),

		Tenant:      v.GetString(EnvTenant),
		Site:        v.GetString(EnvSite),
		Destination: v.GetString(EnvDestination),
		Library:     v.GetString(EnvLibrary),

		EnvFile:    opts.EnvFile,
		ResultFile: v.GetString(EnvResultFile),

		Debug: v.GetBool(EnvDebug),
	}, nil
}

// loadFile reads and parses a YAML config file.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &fc, nil
}

// applyFileDefaults registers non-empty file values as defaults so that real
// environment variables still win.
func applyFileDefaults(v *viper.Viper, fc *fileConfig) {
	set := func(key, val string) {
		if val != "" {
			v.SetDefault(key, val)
		}
	}
	set(EnvAPIKey, fc.APIKey)
	set(EnvAccessToken, fc.AccessToken)
	set(EnvAccountUUID, fc.AccountUUID)
	set(EnvAccountIBAN, fc.AccountIBAN)
	set(EnvStatementFormat, fc.StatementFormat)
	set(EnvStatementScope, fc.StatementScope)
	set(EnvTenant, fc.Tenant)
	set(EnvSite, fc.Site)
	set(EnvDestination, fc.Destination)
	set(EnvLibrary, fc.Library)
	set(EnvResultFile, fc.ResultFile)
	if fc.Debug {
		v.SetDefault(EnvDebug, true)
	}
}
