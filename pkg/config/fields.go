package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/validate"
)

// FieldsFromFlags reads the invocation state of every field in schema. A
// field is Explicit when its flag was given on the command line or its
// environment variable is set, Default when the schema has a built-in
// default, and Unset otherwise.
//
// List values from the environment are one entry per line.
func FieldsFromFlags(v *viper.Viper, flags *pflag.FlagSet, schema cache.Schema) (cache.Fields, error) {
	fields := make(cache.Fields, len(schema))
	for _, spec := range schema {
		flag := flags.Lookup(spec.Name)
		changed := flag != nil && flag.Changed
		if !changed && !v.IsSet(spec.Name) {
			if def, ok := spec.Default(); ok {
				fields[spec.Name] = cache.DefaultField(def)
			} else {
				fields[spec.Name] = cache.UnsetField()
			}
			continue
		}

		var value cache.Value
		var err error
		switch spec.Type {
		case cache.TypeList:
			var items []string
			if changed {
				items, err = flags.GetStringArray(spec.Name)
			} else {
				items = splitLines(v.GetString(spec.Name))
			}
			value = cache.ListValue(items)
		case cache.TypeInt:
			var n int
			n, err = cast.ToIntE(v.Get(spec.Name))
			value = cache.IntValue(n)
		case cache.TypeBool:
			var b bool
			b, err = cast.ToBoolE(v.Get(spec.Name))
			value = cache.BoolValue(b)
		case cache.TypeDuration:
			value, err = durationValue(v.Get(spec.Name))
		default:
			var s string
			s, err = cast.ToStringE(v.Get(spec.Name))
			value = cache.StringValue(s)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", validate.ErrInvalidParameter, spec.Name, err)
		}
		fields[spec.Name] = cache.ExplicitField(value)
	}
	return fields, nil
}

// durationValue accepts a parsed flag duration or an environment string,
// where a bare number counts seconds.
func durationValue(raw any) (cache.Value, error) {
	if d, ok := raw.(time.Duration); ok {
		return cache.DurationValue(d), nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return cache.Value{}, err
	}
	d, err := cache.ParseDuration(s)
	if err != nil {
		return cache.Value{}, err
	}
	return cache.DurationValue(d), nil
}

func splitLines(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}
