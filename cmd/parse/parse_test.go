package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/sariflens/pkg/shared/errors"
)

const validReport = `{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"Demo"}},"results":[
{"level":"error","ruleId":"R1","message":{"text":"first"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"src/a.go"}}}]}]}]}`

func TestValidateParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptions
		wantErr string
	}{
		{
			name:    "valid",
			options: RunOptions{SarifPaths: []string{"a.sarif"}, Output: "text", Threads: 1},
		},
		{
			name:    "no paths",
			options: RunOptions{Output: "text", Threads: 1},
			wantErr: "at least one SARIF file path must be specified",
		},
		{
			name:    "unknown output",
			options: RunOptions{SarifPaths: []string{"a.sarif"}, Output: "xml", Threads: 1},
			wantErr: `--output must be "text" or "json", got "xml"`,
		},
		{
			name:    "zero threads",
			options: RunOptions{SarifPaths: []string{"a.sarif"}, Output: "json"},
			wantErr: "the 'threads' flag must be a positive integer",
		},
		{
			name:    "negative top",
			options: RunOptions{SarifPaths: []string{"a.sarif"}, Output: "json", Threads: 1, Top: -1},
			wantErr: "the 'top' flag cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateParseArgs(&tt.options)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	Init(nil, hclog.NewNullLogger())
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return cmd, &out
}

func TestParseAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.sarif")
	bad := filepath.Join(dir, "bad.sarif")
	require.NoError(t, os.WriteFile(good, []byte(validReport), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"runs":[]}`), 0o644))

	cmd, _ := newTestCommand(t)
	o := &RunOptions{SarifPaths: []string{good, bad, good}, Threads: 2, Quiet: true}
	results, launches, failed := parseAll(cmd, o)

	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])

	require.Len(t, launches.Launches, 3)
	assert.Equal(t, "OK", launches.Launches[0].Status)
	assert.Equal(t, "FAILED", launches.Launches[1].Status)
	assert.Contains(t, launches.Launches[1].Message, "invalid SARIF format")
	assert.Equal(t, 1, failed.count)
	assert.Equal(t, errors.ExitParseFailure, failed.code)
}

func TestWriteLaunches(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	launches := errors.LaunchesResult{Launches: []errors.LaunchResult{{Args: "a.sarif", Status: "OK"}}}

	path, err := writeLaunches(dir, launches)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, defaultOutputName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded errors.LaunchesResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Launches, 1)
	assert.Equal(t, "a.sarif", decoded.Launches[0].Args)
}
