package config

import "testing"

func TestValidate_InvalidDedupScope(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{Dimensions: 1536},
		Ingest: IngestConfig{
			DedupScope: "global",
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid dedup scope")
	}

	expected := `ingest.dedup_scope must be "tenant" or "per_source", got "global"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidDedupScopes(t *testing.T) {
	validScopes := []string{"", "tenant", "per_source"}

	for _, scope := range validScopes {
		t.Run("scope="+scope, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Database: DatabaseConfig{
					Addrs: []string{"localhost:6379"},
				},
				Embedding: EmbeddingConfig{Dimensions: 1536},
				Ingest: IngestConfig{
					DedupScope: scope,
				},
			}

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("unexpected error for valid scope %q: %v", scope, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Temporal.DefaultWindowDays != 30 {
		t.Errorf("expected DefaultWindowDays=30, got %d", cfg.Temporal.DefaultWindowDays)
	}
	if cfg.Ingest.DedupScope != "tenant" {
		t.Errorf("expected DedupScope='tenant', got %q", cfg.Ingest.DedupScope)
	}
	if cfg.Ingest.SentencesPerChunk != 8 {
		t.Errorf("expected SentencesPerChunk=8, got %d", cfg.Ingest.SentencesPerChunk)
	}
	if cfg.Search.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Search.TopK)
	}
	if cfg.Search.CandidateMultiplier != 3 {
		t.Errorf("expected CandidateMultiplier=3, got %d", cfg.Search.CandidateMultiplier)
	}
	if cfg.Decay.ConversationalHalfLifeDays != 30 {
		t.Errorf("expected ConversationalHalfLifeDays=30, got %v", cfg.Decay.ConversationalHalfLifeDays)
	}
	if cfg.Decay.ReferenceHalfLifeDays != 90 {
		t.Errorf("expected ReferenceHalfLifeDays=90, got %v", cfg.Decay.ReferenceHalfLifeDays)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.Retry.MaxAttempts)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Ingest:   IngestConfig{DedupScope: "per_source", SentencesPerChunk: 4, OverlapSentences: 2},
		Search:   SearchConfig{TopK: 20, CandidateMultiplier: 2},
		Decay:    DecayConfig{ConversationalHalfLifeDays: 7, ReferenceHalfLifeDays: 180, DefaultHalfLifeDays: 60},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Ingest.DedupScope != "per_source" {
		t.Errorf("expected DedupScope='per_source', got %q", cfg.Ingest.DedupScope)
	}
	if cfg.Ingest.SentencesPerChunk != 4 {
		t.Errorf("expected SentencesPerChunk=4, got %d", cfg.Ingest.SentencesPerChunk)
	}
	if cfg.Search.TopK != 20 {
		t.Errorf("expected TopK=20, got %d", cfg.Search.TopK)
	}
	if cfg.Decay.ConversationalHalfLifeDays != 7 {
		t.Errorf("expected ConversationalHalfLifeDays=7, got %v", cfg.Decay.ConversationalHalfLifeDays)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("HF_TEST_KEY", "secret-value")

	in := []byte("api_key: ${HF_TEST_KEY}\nbase_url: ${HF_TEST_MISSING:-https://api.openai.com/v1}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret-value\nbase_url: https://api.openai.com/v1\n"
	if out != want {
		t.Errorf("expanded config:\ngot:  %q\nwant: %q", out, want)
	}
}
