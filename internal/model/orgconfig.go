// internal/model/orgconfig.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrgConfig is the per-organization configuration blob, stored as JSON
// text. Recognized keys are typed fields; anything else lands in Extra
// and is written back verbatim on save, so configs written by newer
// binaries survive a round trip through older ones.
type OrgConfig struct {
	Currency        string `json:"currency,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	InvoicePrefix   string `json:"invoice_prefix,omitempty"`
	InvoiceSequence int    `json:"invoice_sequence,omitempty"`
	LowStockAlert   bool   `json:"low_stock_alert,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownConfigKeys = map[string]bool{
	"currency":         true,
	"timezone":         true,
	"invoice_prefix":   true,
	"invoice_sequence": true,
	"low_stock_alert":  true,
}

// Scan implements the sql.Scanner interface
func (c *OrgConfig) Scan(value interface{}) error {
	if value == nil {
		*c = OrgConfig{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into type %T", value, c)
	}

	if len(raw) == 0 {
		*c = OrgConfig{}
		return nil
	}

	type alias OrgConfig
	var known alias
	if err := json.Unmarshal(raw, &known); err != nil {
		return fmt.Errorf("decoding org config: %w", err)
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return fmt.Errorf("decoding org config keys: %w", err)
	}
	for k := range all {
		if knownConfigKeys[k] {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		all = nil
	}

	*c = OrgConfig(known)
	c.Extra = all
	return nil
}

// Value implements the driver.Valuer interface
func (c OrgConfig) Value() (driver.Value, error) {
	type alias OrgConfig
	raw, err := json.Marshal(alias(c))
	if err != nil {
		return nil, fmt.Errorf("encoding org config: %w", err)
	}

	if len(c.Extra) == 0 {
		return string(raw), nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("merging org config: %w", err)
	}
	for k, v := range c.Extra {
		if _, clash := merged[k]; !clash {
			merged[k] = v
		}
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding org config: %w", err)
	}
	return string(out), nil
}
