package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsBuildMySQLDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "stock")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "hospital")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.True(t, strings.HasPrefix(cfg.DB.DSN, "stock:s3cret@tcp(db.internal:3306)/hospital?"), cfg.DB.DSN)
	assert.Contains(t, cfg.DB.DSN, "parseTime=true")
	assert.Contains(t, cfg.DB.DSN, "charset=utf8mb4")
	assert.Equal(t, "8080", cfg.App.AdminPort)
	assert.Equal(t, "8081", cfg.App.UserPort)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "STOCK TAKE FILE.xlsx", cfg.Seed.DrugFile)
}

func TestLoadHonoursExplicitPortAndDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "stock")
	t.Setenv("DB_NAME", "hospital")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://stock@pg:5433/hospital?sslmode=disable", cfg.DB.DSN)

	t.Setenv("DB_DSN", "postgres://override")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://override", cfg.DB.DSN)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}
