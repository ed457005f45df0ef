package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServiceName != "vehicast-assistant" {
		t.Errorf("Unexpected default service name: %s", cfg.ServiceName)
	}
	if cfg.Port != 8088 {
		t.Errorf("Unexpected default port: %d", cfg.Port)
	}
	if cfg.SimilarityThreshold != 0.4 || cfg.MatchCount != 3 {
		t.Errorf("Unexpected retrieval defaults: %v/%d", cfg.SimilarityThreshold, cfg.MatchCount)
	}
	if cfg.EmbeddingCacheTTL != 3600*time.Second || cfg.EmbeddingCacheCap != 100 {
		t.Errorf("Unexpected embedding cache defaults: %v/%d", cfg.EmbeddingCacheTTL, cfg.EmbeddingCacheCap)
	}
	if cfg.ContextCacheTTL != 300*time.Second || cfg.ContextCacheCap != 50 {
		t.Errorf("Unexpected context cache defaults: %v/%d", cfg.ContextCacheTTL, cfg.ContextCacheCap)
	}
	if cfg.PredictThreshold != 0.1 {
		t.Errorf("Unexpected predict threshold default: %v", cfg.PredictThreshold)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "vehicast-test")
	t.Setenv("PORT", "9000")
	t.Setenv("SIMILARITY_THRESHOLD", "0.6")
	t.Setenv("EMBEDDING_CACHE_TTL", "30m")
	t.Setenv("DEBUG", "true")

	cfg := Load()

	if cfg.ServiceName != "vehicast-test" {
		t.Errorf("Expected overridden service name, got %s", cfg.ServiceName)
	}
	if cfg.Port != 9000 {
		t.Errorf("Expected overridden port, got %d", cfg.Port)
	}
	if cfg.SimilarityThreshold != 0.6 {
		t.Errorf("Expected overridden threshold, got %v", cfg.SimilarityThreshold)
	}
	if cfg.EmbeddingCacheTTL != 30*time.Minute {
		t.Errorf("Expected overridden TTL, got %v", cfg.EmbeddingCacheTTL)
	}
	if !cfg.Debug {
		t.Error("Expected debug mode enabled")
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("SIMILARITY_THRESHOLD", "high")

	cfg := Load()

	if cfg.Port != 8088 {
		t.Errorf("Expected fallback port for invalid value, got %d", cfg.Port)
	}
	if cfg.SimilarityThreshold != 0.4 {
		t.Errorf("Expected fallback threshold for invalid value, got %v", cfg.SimilarityThreshold)
	}
}

func TestStringMasksSecrets(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abcdefgh.supabase.co")
	t.Setenv("OPENAI_API_KEY", "sk-verysecretkey12345678")

	cfg := Load()
	output := cfg.String()

	if strings.Contains(output, "abcdefgh.supabase") {
		t.Error("Expected Supabase URL masked in String()")
	}
	if strings.Contains(output, "verysecretkey") {
		t.Error("Expected API key masked in String()")
	}
}

func TestMaskString(t *testing.T) {
	if got := maskString("short"); got != "***" {
		t.Errorf("Expected full mask for short value, got %q", got)
	}
	if got := maskString("sk-verysecretkey12345678"); got != "sk-v...5678" {
		t.Errorf("Unexpected masked value: %q", got)
	}
}
