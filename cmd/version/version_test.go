package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/sariflens/internal/config"
)

func TestVersionCommand(t *testing.T) {
	Init(nil)
	CoreVersion = "1.2.3"

	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Core Version: v1.2.3")
	assert.Contains(t, out.String(), "SARIF target: 2.1")
	assert.Contains(t, out.String(), "Enrichment: builtin")
}

func TestVersionCommandJSON(t *testing.T) {
	Init(&config.Config{Enrichment: config.Enrichment{Enabled: true, BaseURL: "https://lookup.example.com"}})

	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.Execute())

	var got CoreVersions
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "https://lookup.example.com", got.Parser.Enrichment)
	assert.Equal(t, config.DefaultMaxFileSize, got.Parser.MaxFileSize)
	assert.Equal(t, config.DefaultAllowedExtensions, got.Parser.AllowedExtensions)
}
