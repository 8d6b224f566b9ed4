package framework

import (
	"encoding/json"
	"fmt"
)

// Secret is a string context value, such as a bearer token, that is masked whenever it is
// printed or serialized. ScenarioContext.String returns the real value.
type Secret string

func (s Secret) String() string {
	const visible = 8
	if len(s) <= visible {
		return "***"
	}
	return string(s[:visible]) + "..."
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ScenarioContext is the state accumulated across the steps of one scenario run: credentials,
// tokens, selected item IDs and so on. It is owned by the runner for the duration of the run
// and must not be retained by step actions after they return.
type ScenarioContext struct {
	values      map[string]interface{}
	debugLogger Logger
}

// NewScenarioContext creates a context holding a copy of the initial values.
func NewScenarioContext(initial map[string]interface{}) *ScenarioContext {
	values := copyValues(initial)
	if values == nil {
		values = make(map[string]interface{})
	}
	return &ScenarioContext{values: values, debugLogger: NullLogger()}
}

func (c *ScenarioContext) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *ScenarioContext) Set(key string, value interface{}) {
	c.values[key] = value
}

// Merge copies every value from data into the context, replacing existing keys.
func (c *ScenarioContext) Merge(data map[string]interface{}) {
	for k, v := range data {
		c.values[k] = v
	}
}

// Snapshot returns a copy of all values.
func (c *ScenarioContext) Snapshot() map[string]interface{} {
	return copyValues(c.values)
}

// String returns a string value, or an error if it is missing, empty, or of another type.
func (c *ScenarioContext) String(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", fmt.Errorf("scenario context has no value for %q", key)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case Secret:
		s = string(t)
	default:
		return "", fmt.Errorf("scenario context value %q is a %T, not a string", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("scenario context value %q is empty", key)
	}
	return s, nil
}

// Int64 returns an integer value, accepting any of Go's integer types.
func (c *ScenarioContext) Int64(key string) (int64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, fmt.Errorf("scenario context has no value for %q", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("scenario context value %q is a %T, not an integer", key, v)
	}
}

// Int64s returns a list of integers. The returned slice is a copy.
func (c *ScenarioContext) Int64s(key string) ([]int64, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, fmt.Errorf("scenario context has no value for %q", key)
	}
	ids, ok := v.([]int64)
	if !ok {
		return nil, fmt.Errorf("scenario context value %q is a %T, not a list of integers", key, v)
	}
	return append([]int64(nil), ids...), nil
}

// Debug adds a message to the current step's debug output.
func (c *ScenarioContext) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

// DebugLogger returns the logger for the current step's debug output, so that it can be
// passed to lower-level components such as an HTTP client.
func (c *ScenarioContext) DebugLogger() Logger {
	return c.debugLogger
}

func copyValues(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(m))
	for k, v := range m {
		ret[k] = copyValue(v)
	}
	return ret
}

// copyValue copies the slice and map types that steps store, so that a copy never shares
// backing storage with the original.
func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyValues(t)
	case []interface{}:
		if t == nil {
			return t
		}
		ret := make([]interface{}, len(t))
		for i, e := range t {
			ret[i] = copyValue(e)
		}
		return ret
	case []int64:
		return append([]int64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
