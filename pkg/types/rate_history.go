package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateHistoryEntry records one exchange rate observed for a currency.
type RateHistoryEntry struct {
	Rate       decimal.Decimal `json:"rate"`
	RecordedAt time.Time       `json:"recorded_at"`
	Source     string          `json:"source,omitempty"`
	Provider   string          `json:"provider,omitempty"`
}

// RateHistory is the ordered (oldest first) rate log stored in a JSONB column.
type RateHistory []RateHistoryEntry

// Append returns the history with entry added at the end.
func (h RateHistory) Append(entry RateHistoryEntry) RateHistory {
	out := make(RateHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, entry)
}

// Prune drops entries recorded strictly before cutoff. It reports whether anything was removed.
func (h RateHistory) Prune(cutoff time.Time) (RateHistory, bool) {
	kept := make(RateHistory, 0, len(h))
	for _, entry := range h {
		if entry.RecordedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept, len(kept) != len(h)
}

// Value serializes the history to JSON text.
func (h RateHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]RateHistoryEntry(h))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes JSON/JSONB into the history.
func (h *RateHistory) Scan(value interface{}) error {
	if value == nil {
		*h = RateHistory{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("RateHistory: unsupported Scan type %T", value)
	}
	if len(raw) == 0 {
		*h = RateHistory{}
		return nil
	}
	var decoded []RateHistoryEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("RateHistory: decode: %w", err)
	}
	*h = decoded
	return nil
}
