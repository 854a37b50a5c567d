package models

import (
	"github.com/shopspring/decimal"
)

// Attributes is the free-form attribute bag attached to every record. The
// underlying store keeps it as a JSON object; this wrapper exposes only the
// typed accessors the engine needs so call sites stay type safe while the
// merge-patch semantics of the bag are preserved.
type Attributes map[string]interface{}

// Has reports whether the key is present with a non-nil value.
func (a Attributes) Has(key string) bool {
	if a == nil {
		return false
	}
	v, ok := a[key]
	return ok && v != nil
}

// GetString returns the string value for key, or empty when the key is
// missing or not a string.
func (a Attributes) GetString(key string) string {
	if a == nil {
		return ""
	}
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// GetDecimal returns the decimal value for key. JSON numbers arrive as
// float64 or string depending on the source column type; both are accepted.
func (a Attributes) GetDecimal(key string) (decimal.Decimal, bool) {
	if a == nil {
		return decimal.Zero, false
	}
	switch v := a[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return v, true
	}
	return decimal.Zero, false
}

// GetStringList returns the list of strings stored under key. JSON arrays
// decode as []interface{}; non-string elements are skipped.
func (a Attributes) GetStringList(key string) []string {
	if a == nil {
		return nil
	}
	switch v := a[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Merge returns a copy of the bag with the patch keys laid over it. Keys not
// named in the patch are untouched; this is the only write path the engine
// uses, so fields owned by other processes survive a reconciliation run.
func (a Attributes) Merge(patch Attributes) Attributes {
	merged := make(Attributes, len(a)+len(patch))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy of the bag.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
