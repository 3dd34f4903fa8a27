package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kkaya/gmedash/internal/market"
)

// RawRecord is one decoded upstream payload item: field name to value,
// with no fixed schema across data-sets.
type RawRecord map[string]interface{}

// Row is the canonical output unit. Date is always ISO (YYYY-MM-DD)
// regardless of the upstream integer/string representation. Immutable
// once produced.
type Row struct {
	Date     string  `json:"date"`
	Interval int     `json:"interval"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
	Zone     string  `json:"zone,omitempty"`
	Product  string  `json:"product,omitempty"`
	Period   string  `json:"period,omitempty"`

	// PriceSource names the raw field the price came from. Empty when
	// every candidate was absent, so a genuine zero price (source set)
	// stays distinguishable from a defaulted one.
	PriceSource string `json:"price_source,omitempty"`
}

// MissingDateError reports a record with no resolvable date field. The
// record is defective on its own; callers skip it and continue.
type MissingDateError struct {
	Keys []string
}

func (e *MissingDateError) Error() string {
	return fmt.Sprintf("no date field among keys %v", e.Keys)
}

// Normalize flattens one raw record into a canonical row using the
// resolution rules for the given response shape.
func Normalize(rec RawRecord, kind market.Kind) (Row, error) {
	rules := RulesFor(kind)

	date, ok := resolveDate(rec, rules)
	if !ok {
		return Row{}, &MissingDateError{Keys: sortedKeys(rec)}
	}

	price, source := resolvePrice(rec, rules)

	return Row{
		Date:        date,
		Interval:    resolveInterval(rec, rules),
		Price:       price,
		PriceSource: source,
		Volume:      resolveVolume(rec, rules),
		Zone:        resolveString(rec, rules.ZoneKeys),
		Product:     resolveString(rec, rules.ProductKeys),
		Period:      resolveString(rec, rules.PeriodKeys),
	}, nil
}

// resolveDate probes the configured date keys, then any key containing
// "date". 8-digit integers become YYYY-MM-DD; strings pass through.
func resolveDate(rec RawRecord, rules Rules) (string, bool) {
	for _, key := range rules.DateKeys {
		if v, ok := rec[key]; ok {
			if s, ok := dateString(v); ok {
				return s, true
			}
		}
	}

	// Fallback: scan remaining keys in sorted order so the result does
	// not depend on map iteration.
	for _, key := range sortedKeys(rec) {
		if !strings.Contains(strings.ToLower(key), "date") {
			continue
		}
		if s, ok := dateString(rec[key]); ok {
			return s, true
		}
	}

	return "", false
}

func dateString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		if val == "" || val == "null" {
			return "", false
		}
		return splitCompactDate(val), true
	case float64:
		return splitCompactDate(strconv.FormatInt(int64(val), 10)), true
	case int:
		return splitCompactDate(strconv.Itoa(val)), true
	case int64:
		return splitCompactDate(strconv.FormatInt(val, 10)), true
	default:
		return "", false
	}
}

// splitCompactDate turns YYYYMMDD into YYYY-MM-DD and leaves anything
// else untouched, so already-ISO dates are idempotent.
func splitCompactDate(s string) string {
	if len(s) != 8 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

func resolveInterval(rec RawRecord, rules Rules) int {
	for _, key := range rules.IntervalKeys {
		if v, ok := rec[key]; ok {
			if n, ok := intervalValue(v); ok {
				return n
			}
		}
	}

	for _, key := range sortedKeys(rec) {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "hour") && !strings.Contains(lower, "interval") {
			continue
		}
		if n, ok := intervalValue(rec[key]); ok {
			return n
		}
	}

	return 1
}

// intervalValue coerces an interval to a positive integer, stripping
// non-digit characters first ("Ora 1", "H01").
func intervalValue(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		n := int(val)
		if n > 0 {
			return n, true
		}
	case int:
		if val > 0 {
			return val, true
		}
	case string:
		var digits strings.Builder
		for _, r := range val {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		n, err := strconv.Atoi(digits.String())
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// resolvePrice probes the ordered candidates. The first present key
// with a non-zero value wins; when all present candidates are zero the
// price is zero and the source is the first present key; when none is
// present the source stays empty.
func resolvePrice(rec RawRecord, rules Rules) (float64, string) {
	firstPresent := ""
	for _, key := range rules.PriceCandidates {
		v, ok := rec[key]
		if !ok {
			continue
		}
		f, ok := floatValue(v)
		if !ok {
			continue
		}
		if f != 0 {
			return f, key
		}
		if firstPresent == "" {
			firstPresent = key
		}
	}
	return 0, firstPresent
}

func resolveVolume(rec RawRecord, rules Rules) float64 {
	for _, group := range rules.VolumeGroups {
		best := 0.0
		present := false
		for _, key := range group {
			v, ok := rec[key]
			if !ok {
				continue
			}
			f, ok := floatValue(v)
			if !ok {
				continue
			}
			present = true
			if f > best {
				best = f
			}
		}
		if present {
			return best
		}
	}
	return 0
}

func resolveString(rec RawRecord, keys []string) string {
	for _, key := range keys {
		if v, ok := rec[key]; ok {
			if s, ok := v.(string); ok && s != "" && s != "null" {
				return s
			}
		}
	}
	return ""
}

// floatValue parses numbers and numeric strings. Empty strings and the
// literal "null" count as absent, matching the upstream payloads.
func floatValue(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		if val == "" || val == "null" {
			return 0, false
		}
		// Some data-sets use the Italian decimal comma.
		val = strings.ReplaceAll(val, ",", ".")
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func sortedKeys(rec RawRecord) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
