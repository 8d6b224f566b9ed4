package framework

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioContextTypedAccessors(t *testing.T) {
	c := NewScenarioContext(map[string]interface{}{
		"name":   "x",
		"empty":  "",
		"token":  Secret("abcdefghijkl"),
		"count":  3,
		"ids":    []int64{1, 2},
		"number": 1.5,
	})

	s, err := c.String("name")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	tok, err := c.String("token")
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijkl", tok)

	_, err = c.String("empty")
	assert.Error(t, err)
	_, err = c.String("missing")
	assert.Error(t, err)
	_, err = c.String("count")
	assert.Error(t, err)

	n, err := c.Int64("count")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = c.Int64("number")
	assert.Error(t, err)

	ids, err := c.Int64s("ids")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	ids[0] = 99
	again, _ := c.Int64s("ids")
	assert.Equal(t, int64(1), again[0], "Int64s should return a copy")

	_, err = c.Int64s("name")
	assert.Error(t, err)

	assert.Len(t, c.Snapshot(), 6)
}

func TestScenarioContextMerge(t *testing.T) {
	c := NewScenarioContext(nil)
	c.Set("a", 1)
	c.Merge(map[string]interface{}{"a": 2, "b": 3})
	assert.Equal(t, map[string]interface{}{"a": 2, "b": 3}, c.Snapshot())
}

func TestSecretIsMasked(t *testing.T) {
	s := Secret("eyJhbGciOiJIUzI1NiJ9.payload")
	assert.Equal(t, "eyJhbGci...", fmt.Sprint(s))
	assert.Equal(t, "***", Secret("short").String())

	data, err := json.Marshal(map[string]interface{}{"token": s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"eyJhbGci..."}`, string(data))
}
