package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/migrate"
)

// PostgresDSNEnv names the database used by OpenPostgres.
const PostgresDSNEnv = "LIVEBUYNOW_TEST_POSTGRES_DSN"

// OpenPostgres migrates a throwaway schema on the database named by
// PostgresDSNEnv and returns a pooled handle bound to it. The test is skipped
// when the variable is unset. Unlike Open, several connections are live, so
// concurrent transactions really interleave.
func OpenPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()

	admin, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	adminDB, err := admin.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = adminDB.Close() })

	schema := "lbn_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	require.NoError(t, admin.Exec("CREATE SCHEMA "+schema).Error)
	t.Cleanup(func() { _ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error })

	conn, err := gorm.Open(postgres.Open(withSearchPath(dsn, schema)), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Run(ctx, sqlDB, migrationsDir(t), "up"))
	return conn
}

func withSearchPath(dsn, schema string) string {
	path := schema + ",public"
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + path
	}
	return fmt.Sprintf("%s search_path=%s", dsn, path)
}

// migrationsDir walks up from the package under test to the module root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, migrate.DefaultDir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("module root not found above %s", dir)
		}
		dir = parent
	}
}
