// Package schema validates final report documents against the MultiFlexi
// report schema. The canonical schema is hosted remotely; an embedded copy
// serves as offline fallback.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/vitexsoftware/csas-sharepoint/schema"
)

// DefaultSchemaURL is the canonical location of the MultiFlexi report schema.
const DefaultSchemaURL = "https://raw.githubusercontent.com/VitexSoftware/php-vitexsoftware-multiflexi-core/refs/heads/main/multiflexi.report.schema.json"

const schemaName = "multiflexi.report.schema.json"

const fetchTimeout = 30 * time.Second

var (
	reportSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

// compileEmbedded compiles the embedded report schema once.
func compileEmbedded() error {
	compileOnce.Do(func() {
		data, err := schemafs.FS.ReadFile(schemaName)
		if err != nil {
			compileErr = fmt.Errorf("read report schema: %w", err)
			return
		}
		reportSchema, compileErr = compile(data)
	})
	return compileErr
}

func compile(schemaData []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("unmarshal report schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, doc); err != nil {
		return nil, fmt.Errorf("add report schema resource: %w", err)
	}

	compiled, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compile report schema: %w", err)
	}
	return compiled, nil
}

// ValidateReport validates report JSON against the embedded schema copy.
func ValidateReport(data []byte) error {
	if err := compileEmbedded(); err != nil {
		return err
	}
	return validate(reportSchema, data)
}

// ValidateReportAgainst validates report JSON against an explicitly provided
// schema document, typically one fetched from the canonical URL.
func ValidateReportAgainst(schemaData, data []byte) error {
	compiled, err := compile(schemaData)
	if err != nil {
		return err
	}
	return validate(compiled, data)
}

func validate(s *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("report validation failed: %w", err)
	}
	return nil
}

// FetchSchema downloads the schema document from url.
func FetchSchema(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build schema request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schema from %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read schema body: %w", err)
	}
	return data, nil
}
