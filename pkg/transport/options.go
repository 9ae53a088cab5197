package transport

import (
	"strconv"
	"time"
)

// Option keys understood by the adapters themselves. Other keys are carried
// through untouched for the accept side.
const (
	// OptionMaxFrameSize caps the size of a single inbound WebSocket message.
	OptionMaxFrameSize = "maxFrameSize"
	// OptionCloseTimeout bounds how long Close waits for the close handshake.
	OptionCloseTimeout = "closeTimeout"
)

// Options holds transport options keyed by name.
type Options map[string]any

// Clone returns a deep copy of o. Nested maps and slices as produced by
// YAML/JSON decoding are copied too. A nil Options clones to an empty map.
func (o Options) Clone() Options {
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Options:
		return v.Clone()
	case map[string]any:
		return map[string]any(Options(v).Clone())
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// Int returns the option as an int64. Numeric kinds produced by YAML/JSON
// decoding and decimal strings are accepted.
func (o Options) Int(key string) (int64, bool) {
	switch v := o[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Duration returns the option as a time.Duration. Strings are parsed with
// time.ParseDuration; integers are taken as milliseconds.
func (o Options) Duration(key string) (time.Duration, bool) {
	if s, ok := o[key].(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, false
		}
		return d, true
	}
	if ms, ok := o.Int(key); ok {
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}
