package testutil

import (
	"testing"

	"alcyxob/coaching-platform/internal/repository/sqldb"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SetupTestDB opens a private, migrated in-memory SQLite database that is
// closed when the test ends.
func SetupTestDB(t *testing.T) *sqldb.Client {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	client, err := sqldb.Open(sqldb.Options{Driver: sqldb.DriverSQLite, DSN: dsn, LogLevel: "silent"}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := client.Migrate(); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return client
}
