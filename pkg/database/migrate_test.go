package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/asistencia?sslmode=disable", "pgx5://u:p@localhost:5432/asistencia?sslmode=disable"},
		{"postgresql://db/asistencia", "pgx5://db/asistencia"},
		{"pgx5://db/asistencia", "pgx5://db/asistencia"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case len(e.Name()) > 7 && e.Name()[len(e.Name())-7:] == ".up.sql":
			ups++
		case len(e.Name()) > 9 && e.Name()[len(e.Name())-9:] == ".down.sql":
			downs++
		}
	}
	require.NotZero(t, ups)
	require.Equal(t, ups, downs)
}
