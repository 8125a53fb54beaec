package storage

import (
	"encoding/json"
	"log/slog"
	"strings"

	"finanzas/internal/core"
)

// Column codecs. Decoding is tolerant: a malformed value falls back to the
// documented default and is logged, so one damaged row never hides the rest
// of the ledger.

func encodeDate(d core.Date) string {
	return d.String()
}

func decodeDate(raw string, column string, id int64) core.Date {
	d, err := core.ParseDate(raw)
	if err != nil {
		slog.Warn("Malformed date column, treating as empty", "column", column, "id", id, "value", raw)
		return core.Date{}
	}
	return d
}

func encodeSplit(r core.SplitRatio) string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"A":50,"B":50}`
	}
	return string(b)
}

func decodeSplit(raw string, id int64) core.SplitRatio {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.DefaultSplit
	}
	var r core.SplitRatio
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		slog.Warn("Malformed split ratio, using 50/50", "id", id, "value", raw)
		return core.DefaultSplit
	}
	if r.IsWeightless() {
		return core.DefaultSplit
	}
	if r.Validate() != nil {
		slog.Warn("Invalid split ratio, using 50/50", "id", id, "value", raw)
		return core.DefaultSplit
	}
	return r
}

// Overrides are stored as {"YYYY-MM": cents}.
func encodeOverrides(o map[core.YearMonth]core.Money) string {
	m := make(map[string]int64, len(o))
	for month, v := range o {
		m[month.String()] = v.Cents
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeOverrides(raw string, id int64) map[core.YearMonth]core.Money {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil
	}
	var m map[string]int64
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		slog.Warn("Malformed overrides, ignoring them", "id", id, "value", raw)
		return nil
	}
	out := make(map[core.YearMonth]core.Money, len(m))
	for k, cents := range m {
		month, err := core.ParseYearMonth(k)
		if err != nil || cents < 0 {
			slog.Warn("Skipping malformed override entry", "id", id, "month", k)
			continue
		}
		out[month] = core.Money{Cents: cents}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
