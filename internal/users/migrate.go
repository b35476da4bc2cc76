package users

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect はマイグレーション対象のデータベース種別です。
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite3"
)

var migrationDirs = map[Dialect]string{
	DialectPostgres: "migrations/postgres",
	DialectSQLite:   "migrations/sqlite",
}

// goose はパッケージグローバルな設定を持つため、同時実行を防ぐ
var gooseMu sync.Mutex

// gooseUpContext は goose.UpContext のテスト用差し替えポイントです。
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate は埋め込みマイグレーションを適用します。
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	dir, ok := migrationDirs[dialect]
	if !ok {
		return oops.Code("MIGRATION_FAILED").With("dialect", dialect).Errorf("unsupported dialect")
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migration source").Wrap(err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", dialect).Wrap(err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	return nil
}
