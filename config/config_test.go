package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALLOW_DUPLICATE_ATTENDANCE", "")
	t.Setenv("QR_SINGLE_USE", "")
	t.Setenv("QR_DEFAULT_TTL_MINUTES", "")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Attendance.AllowDuplicates)
	require.False(t, cfg.QR.SingleUse)
	require.Equal(t, time.Duration(0), cfg.QR.DefaultTTL())
	require.Equal(t, time.Hour, cfg.JWT.AccessTTL())
	require.Equal(t, "0 */15 * * * *", cfg.Housekeeping.Cron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALLOW_DUPLICATE_ATTENDANCE", "false")
	t.Setenv("QR_SINGLE_USE", "true")
	t.Setenv("QR_DEFAULT_TTL_MINUTES", "30")

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.Attendance.AllowDuplicates)
	require.True(t, cfg.QR.SingleUse)
	require.Equal(t, 30*time.Minute, cfg.QR.DefaultTTL())
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("QR_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: "5432", DBName: "asistencia", SSLMode: "disable"}
	require.Equal(t, "postgres://u:p@db:5432/asistencia?sslmode=disable", c.DSN())

	c.URL = "postgres://override"
	require.Equal(t, "postgres://override", c.DSN())
}
