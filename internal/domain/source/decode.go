package source

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

var (
	leadingInt   = regexp.MustCompile(`-?\d+`)
	leadingFloat = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// decode copies a loosely typed JSON value into out. Scraper output is
// inconsistent about numbers, so strings like "84 XP" or "85%" are accepted
// for numeric fields and numbers are accepted for string fields. A field
// whose shape does not fit its target (an object where a number belongs, a
// string where an object belongs) is left at its zero value and the rest of
// the value still decodes.
func decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(zeroMismatched),
			mapstructure.DecodeHookFuncType(lenientNumbers),
		),
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func zeroMismatched(from reflect.Type, to reflect.Type, data any) (any, error) {
	if fits(from.Kind(), to.Kind()) {
		return data, nil
	}
	return reflect.Zero(to).Interface(), nil
}

func fits(from, to reflect.Kind) bool {
	composite := func(k reflect.Kind) bool {
		return k == reflect.Map || k == reflect.Struct || k == reflect.Slice || k == reflect.Array
	}
	switch to {
	case reflect.Interface:
		return true
	case reflect.Struct, reflect.Map:
		return from == reflect.Map || from == reflect.Struct
	case reflect.Slice, reflect.Array:
		// A lone object is wrapped into a one-element list.
		return composite(from)
	default:
		return !composite(from)
	}
}

func lenientNumbers(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s, _ := data.(string)
	switch to.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		return FirstInt(s), nil
	case reflect.Float64, reflect.Float32:
		return FirstFloat(s), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return false, nil
		}
		return b, nil
	}
	return data, nil
}

// FirstInt returns the first integer embedded in s, or 0.
func FirstInt(s string) int {
	m := leadingInt.FindString(strings.ReplaceAll(s, ",", ""))
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// FirstFloat returns the first decimal number embedded in s, or 0.
func FirstFloat(s string) float64 {
	m := leadingFloat.FindString(strings.ReplaceAll(s, ",", ""))
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// asObject asserts the top-level document of a snapshot.
func asObject(raw any, what string) (map[string]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: want object, got %T: %w", what, raw, ErrMalformedSnapshot)
	}
	return obj, nil
}
