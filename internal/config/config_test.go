package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Redis: RedisConfig{Addrs: []string{"localhost:6379"}},
		MySQL: MySQLConfig{DSN: "vayo:vayo@tcp(localhost:3306)/vayo"},
		NATS:  NATSConfig{URL: "nats://localhost:4222"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.MySQL.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing mysql dsn")
	}
}

func TestValidate_VectorDriver(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		qdrant  string
		wantErr string
	}{
		{name: "redis", driver: "redis"},
		{name: "qdrant with url", driver: "qdrant", qdrant: "localhost:6334"},
		{name: "qdrant without url", driver: "qdrant", wantErr: "vector.qdrant_url is required"},
		{name: "unknown", driver: "faiss", wantErr: `vector.driver must be "redis" or "qdrant", got "faiss"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Vector.Driver = tt.driver
			cfg.Vector.QdrantURL = tt.qdrant

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_PopularLimitCap(t *testing.T) {
	cfg := validConfig()
	cfg.Store.PopularLimit = 51

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for popular limit above 50")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.NATS.Stream != "MATCH_TASKS" {
		t.Errorf("expected stream MATCH_TASKS, got %q", cfg.NATS.Stream)
	}
	if cfg.NATS.Subject != "vayo.match.tasks" {
		t.Errorf("expected subject vayo.match.tasks, got %q", cfg.NATS.Subject)
	}
	if cfg.Vector.Driver != "redis" {
		t.Errorf("expected driver redis, got %q", cfg.Vector.Driver)
	}
	if cfg.Cache.VectorTTLSec != 3600 {
		t.Errorf("expected VectorTTLSec=3600, got %d", cfg.Cache.VectorTTLSec)
	}
	if cfg.Tasks.ExpirySec != 60 {
		t.Errorf("expected ExpirySec=60, got %d", cfg.Tasks.ExpirySec)
	}
	if cfg.Tasks.EstimatedTimeMS != 2000 {
		t.Errorf("expected EstimatedTimeMS=2000, got %d", cfg.Tasks.EstimatedTimeMS)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("expected Concurrency=4, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Store.CandidateLimit != 500 {
		t.Errorf("expected CandidateLimit=500, got %d", cfg.Store.CandidateLimit)
	}
	if cfg.Store.PopularLimit != 10 {
		t.Errorf("expected PopularLimit=10, got %d", cfg.Store.PopularLimit)
	}
}

func TestApplyDefaults_EnrichmentInheritsEmbeddingCredentials(t *testing.T) {
	cfg := Config{
		Embedding: EmbeddingConfig{APIKey: "sk-test", BaseURL: "https://api.example.com/v1"},
	}
	cfg.ApplyDefaults()

	if cfg.Enrichment.APIKey != "sk-test" {
		t.Errorf("expected enrichment api key inherited, got %q", cfg.Enrichment.APIKey)
	}
	if cfg.Enrichment.BaseURL != "https://api.example.com/v1" {
		t.Errorf("expected enrichment base url inherited, got %q", cfg.Enrichment.BaseURL)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("VAYO_TEST_DSN", "root:secret@tcp(db:3306)/vayo")

	data := []byte(`
http:
  port: ${VAYO_TEST_PORT:-9090}
redis:
  addrs: ["localhost:6379"]
mysql:
  dsn: ${VAYO_TEST_DSN}
nats:
  url: nats://localhost:4222
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.MySQL.DSN != "root:secret@tcp(db:3306)/vayo" {
		t.Errorf("expected dsn from env, got %q", cfg.MySQL.DSN)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}

	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}
