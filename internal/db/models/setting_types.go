package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SelectOption is one choice of a select definition.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options is the ordered choice list of a select definition, stored as a JSON text column.
type Options []SelectOption

// GormDataType implements schema.GormDataTypeInterface.
func (Options) GormDataType() string {
	return "text"
}

// Value implements driver.Valuer.
func (o Options) Value() (driver.Value, error) {
	if o == nil {
		o = Options{}
	}

	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	return string(b), nil
}

// Scan implements sql.Scanner. Undecodable content yields an empty list.
func (o *Options) Scan(src any) error {
	*o = DecodeOptions(rawBytes(src))

	return nil
}

// Has reports whether v is one of the option values.
func (o Options) Has(v string) bool {
	for _, opt := range o {
		if opt.Value == v {
			return true
		}
	}

	return false
}

// DecodeOptions reads a list of {value,label} objects, a list of plain strings
// or a value->label object. Anything else decodes to an empty list.
func DecodeOptions(raw []byte) Options {
	out := Options{}

	if len(raw) == 0 {
		return out
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			var opt SelectOption
			if err := json.Unmarshal(item, &opt); err == nil && opt.Value != "" {
				if opt.Label == "" {
					opt.Label = opt.Value
				}

				out = append(out, opt)

				continue
			}

			var s string
			if err := json.Unmarshal(item, &s); err == nil && s != "" {
				out = append(out, SelectOption{Value: s, Label: s})
			}
		}

		return out
	}

	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			out = append(out, SelectOption{Value: k, Label: m[k]})
		}
	}

	return out
}

// BranchIDSet is a set of positive branch ids, stored as an ascending JSON list.
type BranchIDSet []uint64

// GormDataType implements schema.GormDataTypeInterface.
func (BranchIDSet) GormDataType() string {
	return "text"
}

// Value implements driver.Valuer.
func (s BranchIDSet) Value() (driver.Value, error) {
	n := NewBranchIDSet(s...)

	b, err := json.Marshal([]uint64(n))
	if err != nil {
		return nil, fmt.Errorf("encode branch ids: %w", err)
	}

	return string(b), nil
}

// Scan implements sql.Scanner. Invalid entries are dropped, undecodable content yields an empty set.
func (s *BranchIDSet) Scan(src any) error {
	*s = DecodeBranchIDSet(rawBytes(src))

	return nil
}

// Contains reports whether id is in the set. The order of s does not matter.
func (s BranchIDSet) Contains(id uint64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}

	return false
}

// NewBranchIDSet sorts and deduplicates ids, dropping zero.
func NewBranchIDSet(ids ...uint64) BranchIDSet {
	out := make(BranchIDSet, 0, len(ids))

	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	uniq := make(BranchIDSet, 0, len(out))
	for _, id := range out {
		if len(uniq) == 0 || uniq[len(uniq)-1] != id {
			uniq = append(uniq, id)
		}
	}

	return uniq
}

// ParseBranchIDSet builds a set from loosely typed values: numbers, numeric strings
// and anything json.Unmarshal produces. Non-numeric and non-positive entries are dropped.
func ParseBranchIDSet(vals ...any) BranchIDSet {
	ids := make([]uint64, 0, len(vals))

	for _, v := range vals {
		if id, ok := toBranchID(v); ok {
			ids = append(ids, id)
		}
	}

	return NewBranchIDSet(ids...)
}

// DecodeBranchIDSet reads a JSON list. Undecodable content yields an empty set.
func DecodeBranchIDSet(raw []byte) BranchIDSet {
	var vals []any
	if len(raw) == 0 || json.Unmarshal(raw, &vals) != nil {
		return BranchIDSet{}
	}

	return ParseBranchIDSet(vals...)
}

func toBranchID(v any) (uint64, bool) {
	var f float64

	switch n := v.(type) {
	case uint64:
		return n, n > 0
	case uint:
		return uint64(n), n > 0
	case int:
		return uint64(n), n > 0 //nolint:gosec // checked
	case int64:
		return uint64(n), n > 0 //nolint:gosec // checked
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}

		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			return id, id > 0
		}

		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}

		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || f < 1 || f >= float64(math.MaxUint64) {
		return 0, false
	}

	return uint64(f), true
}

func rawBytes(src any) []byte {
	switch v := src.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}
