package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, 0.5, cfg.MinConfidence)
		assert.Equal(t, 6000, cfg.ChunkSize)
		assert.Equal(t, 3, cfg.MaxPassages)
	})

	t.Run("with host and models", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithExtractorModel("qwen2.5:3b"),
			WithAnalysisModel("gpt-4o-mini"),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "qwen2.5:3b", cfg.ExtractorModel)
		assert.Equal(t, "gpt-4o-mini", cfg.AnalysisModel)
	})

	t.Run("with tuning options", func(t *testing.T) {
		cfg := NewConfig(
			WithMinConfidence(0.7),
			WithChunkSize(2000),
			WithMaxPassages(5),
		)

		assert.Equal(t, 0.7, cfg.MinConfidence)
		assert.Equal(t, 2000, cfg.ChunkSize)
		assert.Equal(t, 5, cfg.MaxPassages)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return NewConfig(
			WithHost("http://localhost:11434/v1"),
			WithExtractorModel("qwen2.5:3b"),
		)
	}

	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		require.Error(t, cfg.Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := valid()
		cfg.Host = "  "
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "host")
	})

	t.Run("missing extractor model", func(t *testing.T) {
		cfg := valid()
		cfg.ExtractorModel = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extractor model")
	})

	t.Run("analysis model defaults to extractor model", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, cfg.ExtractorModel, cfg.AnalysisModel)
	})

	t.Run("explicit analysis model preserved", func(t *testing.T) {
		cfg := valid()
		cfg.AnalysisModel = "gpt-4o-mini"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "gpt-4o-mini", cfg.AnalysisModel)
	})

	t.Run("min confidence out of range", func(t *testing.T) {
		for _, bad := range []float64{-0.1, 1.1} {
			cfg := valid()
			cfg.MinConfidence = bad
			require.Error(t, cfg.Validate())
		}
	})

	t.Run("non-positive chunk size", func(t *testing.T) {
		cfg := valid()
		cfg.ChunkSize = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive max passages", func(t *testing.T) {
		cfg := valid()
		cfg.MaxPassages = 0
		require.Error(t, cfg.Validate())
	})
}
