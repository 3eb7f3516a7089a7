package config

import (
	"fmt"
	"strings"
)

// ValidationError reports the full set of missing configuration variables so
// operators can fix everything in one pass instead of replaying the run per
// variable.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every required variable is present. The two account
// identifiers form an OR-group: either satisfies the requirement. Returns nil
// when the configuration is complete.
func (c Config) Validate() error {
	var missing []string

	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.AccessToken == "" {
		missing = append(missing, EnvAccessToken)
	}
	if c.AccountUUID == "" && c.AccountIBAN == "" {
		missing = append(missing, EnvAccountUUID+" or "+EnvAccountIBAN)
	}
	if c.Tenant == "" {
		missing = append(missing, EnvTenant)
	}
	if c.Site == "" {
		missing = append(missing, EnvSite)
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
