//go:build integration

// Package integration runs the accounting services against real PostgreSQL and Redis
// containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/accounting/internal/app"
	"github.com/erp/accounting/internal/infrastructure/cache"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/erp/accounting/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// Shared PostgreSQL container for all tests in the package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a migrated PostgreSQL database
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

func startPostgres(ctx context.Context, database string) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, dsn, nil
}

// NewTestDB starts a private PostgreSQL container without running migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, dsn, err := startPostgres(ctx, "accounting_test")
	require.NoError(t, err, "Failed to start PostgreSQL container")

	db, sqlDB := connectToDatabase(t, dsn)
	testDB := &TestDB{DB: db, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB returns a connection to the package's migrated container, starting it on first use.
// Tests isolate themselves by creating their own tenant.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, dsn, err := startPostgres(context.Background(), "accounting_shared_test")
		require.NoError(t, err, "Failed to start shared PostgreSQL container")
		sharedContainer = container
		sharedContainerDSN = dsn
		runMigrations(t, dsn)
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	testDB := &TestDB{DB: db, SqlDB: sqlDB, Container: sharedContainer, DSN: sharedContainerDSN, t: t}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return testDB
}

// Close closes the connection and terminates a private container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// Tables lists the public tables apart from the migration bookkeeping
func (tdb *TestDB) Tables() []string {
	tdb.t.Helper()
	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
		ORDER BY tablename
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to list tables")
	return tables
}

// Migrator opens a migrator on its own connection; closing it closes that connection
func (tdb *TestDB) Migrator() *migration.Migrator {
	tdb.t.Helper()
	return openMigrator(tdb.t, tdb.DSN)
}

// Services builds the application over this database and the given backends
func (tdb *TestDB) Services(backends *cache.Backends) *app.Services {
	return app.NewServices(app.Deps{
		DB:       tdb.DB,
		Backends: backends,
		JWT: config.JWTConfig{
			Secret:                 "integration-secret-at-least-32-bytes!!",
			RefreshSecret:          "integration-refresh-secret-32-bytes!!",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "accounting-integration",
		},
		Logger: zap.NewNop(),
	})
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, sqlDB
}

func openMigrator(t *testing.T, dsn string) *migration.Migrator {
	t.Helper()
	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to open migration connection")
	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func runMigrations(t *testing.T, dsn string) {
	t.Helper()
	require.NoError(t, openMigrator(t, dsn).Up(), "Failed to run migrations")
}

// NewRedis starts a Redis container and returns backends connected to it
func NewRedis(t *testing.T) *cache.Backends {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate Redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	backends, err := cache.NewBackendFactory(config.RedisConfig{
		Enabled: true,
		Host:    host,
		Port:    port.Int(),
	}, cache.WithInMemoryFallback(false)).Create()
	require.NoError(t, err, "Failed to connect to Redis")
	t.Cleanup(func() { _ = backends.Close() })
	return backends
}

// CleanupSharedContainer terminates the shared PostgreSQL container; call it from TestMain
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sharedContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate shared container: %v\n", err)
		}
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}
