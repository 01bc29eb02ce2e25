package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind names the command a configuration belongs to.
type Kind string

const (
	KindDownload Kind = "download"
	KindBench    Kind = "bench"
	KindGet      Kind = "get"
)

// Value is a resolved option value. Scalars are kept in a canonical string
// form so that equality is a string comparison; lists keep their order.
type Value struct {
	scalar string
	list   []string
	isList bool
}

func StringValue(s string) Value { return Value{scalar: s} }

func IntValue(n int) Value { return Value{scalar: strconv.Itoa(n)} }

func BoolValue(b bool) Value { return Value{scalar: strconv.FormatBool(b)} }

func DurationValue(d time.Duration) Value { return Value{scalar: d.String()} }

func ListValue(items []string) Value {
	return Value{list: slices.Clone(items), isList: true}
}

func (v Value) IsList() bool { return v.isList }

// Items returns a copy of the list entries. A scalar yields a one element list.
func (v Value) Items() []string {
	if !v.isList {
		return []string{v.scalar}
	}
	return slices.Clone(v.list)
}

func (v Value) Scalar() string { return v.scalar }

func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if v.isList {
		return slices.Equal(v.list, o.list)
	}
	return v.scalar == o.scalar
}

func (v Value) String() string {
	if v.isList {
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return v.scalar
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		return fmt.Errorf("empty value")
	case b[0] == '[':
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*v = ListValue(items)
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	default:
		// hand edited numbers and booleans
		*v = StringValue(string(b))
	}
	return nil
}

// union returns the entries of a followed by the entries of b that are not
// already present, dropping duplicates.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, items := range [][]string{a, b} {
		for _, item := range items {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
