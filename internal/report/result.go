// Package report models the collaborators' side-effect reports and the
// aggregated final report written at the end of a run.
package report

import "encoding/json"

// PayloadKind discriminates the Payload variant.
type PayloadKind int

const (
	// PayloadAbsent means no side-effect file was produced.
	PayloadAbsent PayloadKind = iota
	// PayloadStructured means the file parsed as a JSON object.
	PayloadStructured
	// PayloadRaw means the file existed but was not valid JSON; its contents
	// are preserved verbatim.
	PayloadRaw
)

// Payload is a tagged variant over the three shapes a collaborator's
// side-effect report can take. Malformed output is degraded, never dropped.
type Payload struct {
	Kind PayloadKind
	Doc  map[string]any
	Raw  string
}

// Absent reports whether no side-effect file existed.
func (p Payload) Absent() bool { return p.Kind == PayloadAbsent }

// MarshalJSON renders the variant for embedding in the final report: absent
// becomes null, structured documents pass through, raw text is wrapped in a
// single key so downstream consumers still receive JSON.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PayloadStructured:
		return json.Marshal(p.Doc)
	case PayloadRaw:
		return json.Marshal(map[string]string{"raw_output": p.Raw})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reverses MarshalJSON. A document carrying only the raw_output
// key is folded back into the raw variant so round-trips are lossless.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		*p = Payload{Kind: PayloadAbsent}
		return nil
	}
	if raw, ok := doc["raw_output"].(string); ok && len(doc) == 1 {
		*p = Payload{Kind: PayloadRaw, Raw: raw}
		return nil
	}
	*p = Payload{Kind: PayloadStructured, Doc: doc}
	return nil
}

// ToolResult is one collaborator invocation's archived side-effect report,
// tagged with its source ("download", or "upload:<basename>").
type ToolResult struct {
	Source  string  `json:"source"`
	Success bool    `json:"success"`
	Payload Payload `json:"payload"`
}
