package spiderly

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MatchMode is the comparison operator of a filter rule.
type MatchMode int

// Match modes. The numeric values are the wire codes sent by clients.
const (
	MatchModeStartsWith MatchMode = iota + 1
	MatchModeContains
	MatchModeEquals
	MatchModeLessThan
	MatchModeGreaterThan
	MatchModeIn
)

var matchModeNames = map[MatchMode]string{
	MatchModeStartsWith:  "startsWith",
	MatchModeContains:    "contains",
	MatchModeEquals:      "equals",
	MatchModeLessThan:    "lessThan",
	MatchModeGreaterThan: "greaterThan",
	MatchModeIn:          "in",
}

// String returns the wire name of the match mode.
func (m MatchMode) String() string {
	if s, ok := matchModeNames[m]; ok {
		return s
	}
	return "MatchMode(" + strconv.Itoa(int(m)) + ")"
}

// MarshalJSON encodes the match mode by name.
func (m MatchMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either the numeric code or the name.
func (m *MatchMode) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*m = MatchMode(code)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("spiderly: invalid match mode %s", data)
	}
	for mode, n := range matchModeNames {
		if strings.EqualFold(n, name) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("spiderly: unknown match mode %q", name)
}

// FilterRule is one {match mode, value} condition on a field.
type FilterRule struct {
	MatchMode MatchMode       `json:"matchMode"`
	Value     json.RawMessage `json:"value"`
	Operator  string          `json:"operator,omitempty"`
}

// SortMeta orders a table by one field; Order is 1 or -1.
type SortMeta struct {
	Field string `json:"field"`
	Order int    `json:"order"`
}

// Filter is the generic filter payload: field name to rules, plus paging.
type Filter struct {
	Filters                map[string][]FilterRule `json:"filters,omitempty"`
	First                  int                     `json:"first"`
	Rows                   int                     `json:"rows"`
	MultiSortMeta          []SortMeta              `json:"multiSortMeta,omitempty"`
	AdditionalFilterIdInt  *int32                  `json:"additionalFilterIdInt,omitempty"`
	AdditionalFilterIdLong *int64                  `json:"additionalFilterIdLong,omitempty"`
}

// Fields returns the filtered field names in sorted order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f.Filters))
	for name := range f.Filters {
		fields = append(fields, name)
	}
	slices.Sort(fields)
	return fields
}

// Empty reports whether the rule carries no value. Generated predicate
// builders ignore empty rules.
func (r FilterRule) Empty() bool {
	return isNull(r.Value)
}

// Rule returns a rule with the given mode and a JSON-encoded value.
func Rule(mode MatchMode, v any) FilterRule {
	buf, err := json.Marshal(v)
	if err != nil {
		buf = []byte("null")
	}
	return FilterRule{MatchMode: mode, Value: buf}
}

// RuleValue decodes the rule value as T. Values sent as quoted strings
// (e.g. "42") are decoded from their contents as well.
func RuleValue[T any](r FilterRule) (T, error) {
	var v T
	if isNull(r.Value) {
		return v, &FilterValueError{Mode: r.MatchMode, Value: string(r.Value), Cause: errMissingValue}
	}
	err := json.Unmarshal(r.Value, &v)
	if err == nil {
		return v, nil
	}
	var s string
	if json.Unmarshal(r.Value, &s) == nil && json.Unmarshal([]byte(s), &v) == nil {
		return v, nil
	}
	return v, &FilterValueError{Mode: r.MatchMode, Value: string(r.Value), Cause: err}
}

// RuleValues decodes a set-membership value: either a JSON array or a
// string holding a serialized JSON array.
func RuleValues[T any](r FilterRule) ([]T, error) {
	if isNull(r.Value) {
		return nil, &FilterValueError{Mode: r.MatchMode, Value: string(r.Value), Cause: errMissingValue}
	}
	var vs []T
	err := json.Unmarshal(r.Value, &vs)
	if err == nil {
		return vs, nil
	}
	var s string
	if json.Unmarshal(r.Value, &s) == nil && json.Unmarshal([]byte(s), &vs) == nil {
		return vs, nil
	}
	return nil, &FilterValueError{Mode: r.MatchMode, Value: string(r.Value), Cause: err}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
