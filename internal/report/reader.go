package report

import (
	"encoding/json"
	"os"

	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// ReadSideEffect loads the side-effect report a collaborator may have written
// to path. Missing file yields the absent variant; invalid JSON yields the
// raw-text variant. Reading never fails: side-effect reports are advisory.
func ReadSideEffect(path string) Payload {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Log.Warn().Err(err).Str("path", path).Msg("cannot read side-effect report")
		}
		return Payload{Kind: PayloadAbsent}
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		logger.Log.Debug().Str("path", path).Msg("side-effect report is not JSON, keeping raw text")
		return Payload{Kind: PayloadRaw, Raw: string(data)}
	}
	return Payload{Kind: PayloadStructured, Doc: doc}
}
