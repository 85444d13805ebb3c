package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFunctionConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", " debug ")
	t.Setenv("TRACING_ENABLED", "TRUE")
	t.Setenv("TZ", "Europe/Paris")

	// TZ is applied by the Lambda runtime, not carried in the config.
	assert.Equal(t, FunctionConfig{LogLevel: "debug", TracingEnabled: true}, LoadFunctionConfig())
}

func TestLoadFunctionConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TRACING_ENABLED", "no")

	cfg := LoadFunctionConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultParameterPrefix, s.ParameterPrefix)
	assert.Equal(t, DefaultInstructionFile, s.InstructionFile)
	assert.Equal(t, DefaultFunctionAssetDir, s.FunctionAssetDir)
	assert.Equal(t, []string{"izakaya_menu.txt", "izakaya_guidance.pdf"}, s.DataSourceFiles)
	assert.Equal(t, "TSTALIASID", s.AgentAliasID)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "izakaya.yaml")
	doc := `
region: ap-northeast-1
embeddingModel: amazon.titan-embed-text-v1
foundationModel: anthropic.claude-3-haiku-20240307-v1:0
pineconeEndpoint: https://izakaya-abc123.svc.pinecone.io
pineconeSecretArn: arn:aws:secretsmanager:ap-northeast-1:123456789012:secret:pinecone-AbCdEf
dataSourceFiles:
  - izakaya_menu.txt
tracing: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "ap-northeast-1", s.Region)
	assert.Equal(t, []string{"izakaya_menu.txt"}, s.DataSourceFiles)
	assert.True(t, s.Tracing)
	assert.NoError(t, s.ValidateStack())
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("region: [unterminated"), 0o600))
	_, err = LoadSettings(path)
	assert.Error(t, err)
}

func TestValidateStack(t *testing.T) {
	err := Settings{EmbeddingModel: "amazon.titan-embed-text-v1"}.ValidateStack()
	require.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "foundationModel, pineconeEndpoint, pineconeSecretArn")
}
