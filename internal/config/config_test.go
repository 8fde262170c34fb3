package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate; tests mutate single
// fields to probe each rule.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Database.User = "tender"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())
}

func TestValidate_Rules(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "server port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "server mode invalid",
			mutate:  func(c *Config) { c.Server.Mode = "production" },
			wantErr: "server.mode",
		},
		{
			name:    "database host required",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "database user required",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: "database.user",
		},
		{
			name:    "database max conns",
			mutate:  func(c *Config) { c.Database.MaxConns = 0 },
			wantErr: "database.max_conns",
		},
		{
			name:    "redis addr required",
			mutate:  func(c *Config) { c.Redis.Addr = "" },
			wantErr: "redis.addr",
		},
		{
			name:    "kafka brokers required",
			mutate:  func(c *Config) { c.Kafka.Brokers = nil },
			wantErr: "kafka.brokers",
		},
		{
			name:    "kafka group id required",
			mutate:  func(c *Config) { c.Kafka.GroupID = "" },
			wantErr: "kafka.group_id",
		},
		{
			name:    "extraction max document bytes",
			mutate:  func(c *Config) { c.Extraction.MaxDocumentBytes = 0 },
			wantErr: "extraction.max_document_bytes",
		},
		{
			name:    "extraction confidence range",
			mutate:  func(c *Config) { c.Extraction.MinValidConfidence = 120 },
			wantErr: "extraction.min_valid_confidence",
		},
		{
			name:    "worker concurrency",
			mutate:  func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr: "worker.concurrency",
		},
		{
			name:    "log level invalid",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "log format invalid",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

//Personal.AI order the ending
