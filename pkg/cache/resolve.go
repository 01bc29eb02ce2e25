package cache

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Request is the input of a resolution for one invocation.
type Request struct {
	Kind     Kind
	Schema   Schema
	Fields   Fields
	UseCache bool
}

// Resolve merges explicit, cached and default values into the effective
// configuration. cached is only consulted when req.UseCache is set; found
// reports whether a snapshot exists for req.Kind.
//
// Explicit values win over cached ones, cached values win over defaults.
// Explicit scalars that differ from their cached value are conflicts and all
// of them are reported together. List fields never conflict; the cached and
// explicit entries are merged, cached first.
func Resolve(req Request, cached Snapshot, found bool) (Config, error) {
	cfg := Config{kind: req.Kind, values: make(map[string]Value, len(req.Schema))}

	if !req.UseCache {
		for _, spec := range req.Schema {
			v, ok, err := fallback(spec, req.Fields[spec.Name])
			if err != nil {
				return Config{}, err
			}
			if ok {
				cfg.values[spec.Name] = v
			}
		}
		return cfg, nil
	}

	if !found {
		return Config{}, fmt.Errorf("%w for %s", ErrNoCachedConfig, req.Kind)
	}

	var conflicts []Conflict
	for _, spec := range req.Schema {
		field := req.Fields[spec.Name]
		cachedValue, inCache := cached[spec.Name]
		if inCache {
			var err error
			if cachedValue, err = coerce(spec, cachedValue); err != nil {
				return Config{}, fmt.Errorf("cached %s configuration: %w", req.Kind, err)
			}
		}

		switch {
		case field.Provenance == Explicit && inCache:
			provided, err := coerce(spec, field.Value)
			if err != nil {
				return Config{}, err
			}
			if spec.IsList() {
				cfg.values[spec.Name] = ListValue(union(cachedValue.Items(), provided.Items()))
				continue
			}
			if !provided.Equal(cachedValue) {
				conflicts = append(conflicts, Conflict{Field: spec.Name, Cached: cachedValue, Provided: provided})
			}
			cfg.values[spec.Name] = provided
		case field.Provenance == Explicit:
			provided, err := coerce(spec, field.Value)
			if err != nil {
				return Config{}, err
			}
			cfg.values[spec.Name] = provided
		case inCache:
			cfg.values[spec.Name] = cachedValue
		default:
			v, ok, err := fallback(spec, field)
			if err != nil {
				return Config{}, err
			}
			if ok {
				cfg.values[spec.Name] = v
			}
		}
	}

	if len(conflicts) > 0 {
		return Config{}, &ConflictError{Kind: req.Kind, Conflicts: conflicts}
	}
	return cfg, nil
}

// fallback picks the value of a field without consulting the cache.
func fallback(spec FieldSpec, field Field) (Value, bool, error) {
	switch field.Provenance {
	case Explicit, Default:
		v, err := coerce(spec, field.Value)
		return v, err == nil, err
	}
	v, ok := spec.Default()
	return v, ok, nil
}

// coerce normalizes v to the canonical rendering of spec's type, so that
// equal values compare equal whatever their spelling ("True" and "true",
// "60s" and "1m0s", 6 and "6").
func coerce(spec FieldSpec, v Value) (Value, error) {
	if spec.IsList() {
		if v.IsList() {
			return v, nil
		}
		if v.Scalar() == "" {
			return ListValue(nil), nil
		}
		return ListValue(v.Items()), nil
	}
	if v.IsList() {
		return Value{}, fmt.Errorf("%w: %s: expected a single value, got %s", ErrInvalidValue, spec.Name, v)
	}

	raw := v.Scalar()
	switch spec.Type {
	case TypeInt:
		n, err := cast.ToIntE(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidValue, spec.Name, raw)
		}
		return IntValue(n), nil
	case TypeBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s: %q is not a boolean", ErrInvalidValue, spec.Name, raw)
		}
		return BoolValue(b), nil
	case TypeDuration:
		d, err := ParseDuration(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s: %q is not a duration", ErrInvalidValue, spec.Name, raw)
		}
		return DurationValue(d), nil
	}
	return v, nil
}

// ParseDuration reads a duration such as "30s" or "1m30s". A bare number is
// a count of seconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return cast.ToDurationE(raw)
}

// Config is the effective configuration of one invocation. It is read-only
// once resolved.
type Config struct {
	kind   Kind
	values map[string]Value
}

// NewConfig builds a configuration directly from values, mostly for tests.
func NewConfig(kind Kind, values map[string]Value) Config {
	return Config{kind: kind, values: maps.Clone(values)}
}

func (c Config) Kind() Kind { return c.kind }

func (c Config) Lookup(name string) (Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c Config) String(name string) string {
	return cast.ToString(c.values[name].Scalar())
}

func (c Config) Int(name string) int {
	return cast.ToInt(c.values[name].Scalar())
}

func (c Config) Bool(name string) bool {
	return cast.ToBool(c.values[name].Scalar())
}

func (c Config) Duration(name string) time.Duration {
	return cast.ToDuration(c.values[name].Scalar())
}

func (c Config) Strings(name string) []string {
	v, ok := c.values[name]
	if !ok {
		return nil
	}
	if !v.IsList() && v.Scalar() == "" {
		return nil
	}
	return v.Items()
}

// Snapshot returns the values to persist for this configuration.
func (c Config) Snapshot() Snapshot {
	return Snapshot(maps.Clone(c.values))
}
