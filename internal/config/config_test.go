package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Store.Driver)
	assert.Equal(t, "data_store.json", cfg.Store.Path)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 20, cfg.Fetch.TimeoutSecs)
	assert.True(t, cfg.Fetch.JinaFallback)
	assert.Equal(t, "reports", cfg.Report.Dir)
	assert.Equal(t, "txt", cfg.Report.Format)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEADMATCH_SEARCH_MAX_RESULTS", "9")
	t.Setenv("LEADMATCH_LLM_PROVIDER", "anthropic")
	t.Setenv("LEADMATCH_ANTHROPIC_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Search.MaxResults)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "openrouter with key",
			cfg: Config{
				LLM:        LLMConfig{Provider: "openrouter"},
				OpenRouter: OpenRouterConfig{Key: "or-key"},
			},
		},
		{
			name:    "openrouter without key",
			cfg:     Config{LLM: LLMConfig{Provider: "openrouter"}},
			wantErr: true,
		},
		{
			name: "anthropic with key",
			cfg: Config{
				LLM:       LLMConfig{Provider: "anthropic"},
				Anthropic: AnthropicConfig{Key: "sk-key"},
			},
		},
		{
			name:    "anthropic without key",
			cfg:     Config{LLM: LLMConfig{Provider: "anthropic"}},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     Config{LLM: LLMConfig{Provider: "bard"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
}
