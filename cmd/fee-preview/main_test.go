package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchedule(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunRendersPreviewAndGaps(t *testing.T) {
	path := writeSchedule(t, `{"tiers":[
		{"min_amount":"0","max_amount":"100","fixed_fee":"2","percentage_fee":"0"},
		{"min_amount":"200","max_amount":"1000","fixed_fee":"0","percentage_fee":"2"}
	]}`)

	var out bytes.Buffer
	require.NoError(t, run(&out, path, "50, 150, 500"))

	text := out.String()
	assert.Contains(t, text, "AMOUNT")
	assert.Contains(t, text, "48.00")
	assert.Contains(t, text, "150.00")
	assert.Contains(t, text, "10.00")
	assert.Contains(t, text, "uncovered: 100 to 200 (no fee)")
	assert.Contains(t, text, "uncovered: 1000 and above (no fee)")
}

func TestRunAcceptsBareTierArray(t *testing.T) {
	path := writeSchedule(t, `[{"min_amount":"0","max_amount":null,"fixed_fee":"1","percentage_fee":"1"}]`)

	var out bytes.Buffer
	require.NoError(t, run(&out, path, ""))
	assert.Contains(t, out.String(), "5000.00")
	assert.NotContains(t, out.String(), "uncovered")
}

func TestRunRejectsInvalidInput(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(&out, "", ""))

	overlapping := writeSchedule(t, `[
		{"min_amount":"0","max_amount":"100","fixed_fee":"0","percentage_fee":"1"},
		{"min_amount":"50","max_amount":null,"fixed_fee":"0","percentage_fee":"1"}
	]`)
	assert.Error(t, run(&out, overlapping, ""))

	ok := writeSchedule(t, `[{"min_amount":"0","max_amount":null,"fixed_fee":"0","percentage_fee":"1"}]`)
	assert.Error(t, run(&out, ok, "abc"))
}
