package gormdb

import (
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	gormdriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"wal_autocheckpoint(1000)",
	"cache_size(-20000)",
	"mmap_size(268435456)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"trusted_schema(OFF)",
}

// buildDSN returns a modernc.org/sqlite DSN. Pragmas are passed as DSN
// parameters so every pooled connection gets them, not just the first.
func buildDSN(file string, readOnly bool) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(file)
	sep := "?"
	add := func(kv string) {
		b.WriteString(sep)
		b.WriteString(kv)
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		add("_pragma=" + p)
	}
	if readOnly {
		add("_pragma=query_only(1)")
	} else {
		add("_pragma=query_only(0)")
		add("_txlock=immediate")
	}
	return b.String()
}

func OpenSQLite(file string, log *zap.Logger) (*DB, error) {
	reader, err := gorm.Open(gormdriver.Dialector{DriverName: "sqlite", DSN: buildDSN(file, true)}, gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open read db: %w", err)
	}

	writer, err := gorm.Open(gormdriver.Dialector{DriverName: "sqlite", DSN: buildDSN(file, false)}, gormConfig(log))
	if err != nil {
		_ = closeGORM(reader)
		return nil, fmt.Errorf("open write db: %w", err)
	}

	rdb, err := reader.DB()
	if err != nil {
		_ = closeGORM(reader)
		_ = closeGORM(writer)
		return nil, fmt.Errorf("reader sql db: %w", err)
	}
	wdb, err := writer.DB()
	if err != nil {
		_ = closeGORM(reader)
		_ = closeGORM(writer)
		return nil, fmt.Errorf("writer sql db: %w", err)
	}

	rdb.SetMaxOpenConns(runtime.NumCPU())
	rdb.SetMaxIdleConns(runtime.NumCPU())
	rdb.SetConnMaxLifetime(0)
	rdb.SetConnMaxIdleTime(0)

	// SQLite allows one writer at a time; a single connection makes the pool
	// queue writers instead of failing them with SQLITE_BUSY.
	wdb.SetMaxOpenConns(1)
	wdb.SetMaxIdleConns(1)
	wdb.SetConnMaxLifetime(0)
	wdb.SetConnMaxIdleTime(0)

	// Opening the writer first creates the file in WAL mode before readers
	// with query_only touch it.
	if err := wdb.Ping(); err != nil {
		_ = closeGORM(reader)
		_ = closeGORM(writer)
		return nil, fmt.Errorf("ping writer: %w", err)
	}
	if err := rdb.Ping(); err != nil {
		_ = closeGORM(reader)
		_ = closeGORM(writer)
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{R: reader, W: writer, dialect: SQLite}, nil
}
