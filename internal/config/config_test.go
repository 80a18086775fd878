package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "nested", cfg.TokenClaimShape)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, 5*time.Second, cfg.ClassifierTimeout)
	assert.False(t, cfg.GoogleEnabled())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"SERVER_PORT":          "8080",
		"STORE_DRIVER":         "memory",
		"JWT_SECRET":           "s3cr3t",
		"TOKEN_TTL":            "1h",
		"TOKEN_CLAIM_SHAPE":    "flat",
		"GOOGLE_CLIENT_ID":     "cid",
		"GOOGLE_CLIENT_SECRET": "csecret",
	}})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "flat", cfg.TokenClaimShape)
	assert.True(t, cfg.GoogleEnabled())
}

func TestParse_RejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"negative ttl":  {"TOKEN_TTL": "-1h"},
		"unknown shape": {"TOKEN_CLAIM_SHAPE": "sub"},
		"unknown store": {"STORE_DRIVER": "mongo"},
		"zero burst":    {"RATE_LIMIT_BURST": "0"},
		"bad duration":  {"TOKEN_TTL": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parse(env.Options{Environment: vars})
			require.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p@ss", DBHost: "db", DBPort: "5432", DBName: "tasks"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/tasks?sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://other/db"
	assert.Equal(t, "postgres://other/db", cfg.DSN())
}

func TestValidate_EmptySecret(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	cfg.JWTSecret = ""
	require.Error(t, cfg.Validate())
}
