// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Direction はマイグレーションの適用方向。
type Direction string

const (
	// DirectionUp は未適用のマイグレーションをすべて適用する。
	DirectionUp Direction = "up"
	// DirectionDown は適用済みのマイグレーションをすべて巻き戻す。
	DirectionDown Direction = "down"
)

// NewMigrator は埋め込みSQLを読み込むmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// RunMigrations はすべてのマイグレーションを適用する。
// すでに最新の場合はエラーなしで返る。
func RunMigrations(databaseURL string) error {
	return Migrate(databaseURL, DirectionUp)
}

// RollbackMigrations は全テーブルを削除する方向にマイグレーションを巻き戻す。
func RollbackMigrations(databaseURL string) error {
	return Migrate(databaseURL, DirectionDown)
}

// Migrate は指定方向にマイグレーションを実行し、実行後のスキーマバージョンをログに出す。
// 変更がない場合（最新、または巻き戻し済み）は成功として扱う。
func Migrate(databaseURL string, direction Direction) error {
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("unknown migration direction %q", direction)
	}

	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if direction == DirectionUp {
		err = m.Up()
	} else {
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("schema already up to date", slog.String("direction", string(direction)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", direction, err)
	}

	logSchemaVersion(m, direction)
	return nil
}

func logSchemaVersion(m *migrate.Migrate, direction Direction) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		slog.Info("migrations applied", slog.String("direction", string(direction)), slog.String("version", "none"))
	case err != nil:
		slog.Warn("failed to read schema version", slog.String("error", err.Error()))
	default:
		slog.Info("migrations applied",
			slog.String("direction", string(direction)),
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}
}
