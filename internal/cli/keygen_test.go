package cli

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucpkit/ucpcheck/internal/keys"
)

func TestKeygenJSONOutput(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "keygen", "--type", "EC")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	// Round-trip the payload into the typed result.
	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result KeygenResult
	require.NoError(t, json.Unmarshal(payload, &result))

	assert.Equal(t, "EC", result.Public.Kty)
	assert.NoError(t, keys.ValidateJWK(result.Public))
	assert.NotEmpty(t, result.PrivatePEM)
	assert.Empty(t, result.PrivatePath)
}

func TestKeygenWritesPrivateKeyToDir(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "--format", "json", "keygen", "--type", "RSA", "--out", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result KeygenResult
	require.NoError(t, json.Unmarshal(payload, &result))

	// Written to disk instead of printed.
	assert.Empty(t, result.PrivatePEM)
	require.NotEmpty(t, result.PrivatePath)
	assert.Equal(t, dir, filepath.Dir(result.PrivatePath))

	raw, err := os.ReadFile(result.PrivatePath)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)
	_, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	assert.NoError(t, err)

	info, err := os.Stat(result.PrivatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestKeygenUnsupportedType(t *testing.T) {
	_, _, err := execute(t, "keygen", "--type", "OKP")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
