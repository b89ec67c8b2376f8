package main

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	old := version
	version = v
	t.Cleanup(func() { version = old })
}

func TestVersionText(t *testing.T) {
	for _, v := range []string{"v0.1.0", "v1.0.0"} {
		t.Run(v, func(t *testing.T) {
			withVersion(t, v)
			out, err := execute(t, "version")
			require.NoError(t, err)
			assert.Equal(t, v, strings.TrimRight(out, "\n"))
		})
	}
}

func TestVersionJSON(t *testing.T) {
	withVersion(t, "v1.2.3")
	out, err := execute(t, "version", "-o", "json")
	require.NoError(t, err)

	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestVersionUsage(t *testing.T) {
	for _, args := range [][]string{
		{"version", "foo"},
		{"version", "foo", "bar"},
		{"version", "-o", "xml"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, "%v", args)
		assert.IsType(t, usageError{}, err, "%v", args)
	}
}
