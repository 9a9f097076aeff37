package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options selects the database backend.
// Driver is "sqlite" (default, Path is the file) or "postgres" (DSN is the connection string).
type Options struct {
	Driver string
	Path   string
	DSN    string
	Silent bool
}

// Init opens the database, runs the auto migration and stores the handle in DB.
func Init(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Open connects to the configured backend and migrates the completion table.
func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "startrail.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(path)
	case "postgres":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("postgres driver requires a dsn")
		}
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate creates the completion table and its unique indexes.
// Tables created before the slot column existed are backfilled with slot = name first.
func Migrate(gdb *gorm.DB) error {
	m := gdb.Migrator()
	if m.HasTable(&Achievement{}) && !m.HasColumn(&Achievement{}, "Slot") {
		if err := m.AddColumn(&Achievement{}, "Slot"); err != nil {
			return fmt.Errorf("add slot column: %w", err)
		}
		if err := gdb.Model(&Achievement{}).Where("slot = ''").Update("slot", gorm.Expr("name")).Error; err != nil {
			return fmt.Errorf("backfill slot column: %w", err)
		}
	}
	if err := gdb.AutoMigrate(&Achievement{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
