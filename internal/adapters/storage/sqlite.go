package storage

// sqlite.go — persistencia del pipeline, un solo archivo SQLite.
//
// Tablas (todas append-only):
//   - `seen_posts`: ids de hilos ya enviados al estimador (namespace posts).
//   - `seen_urls`:  URLs ya descargadas por el fetcher web (namespace urls).
//   - `trades`:     un registro por decisión ejecutada (dry run, orden real o fallo).
//
// El esquema es compatible con bases creadas por versiones anteriores del bot;
// las columnas nuevas se añaden con ALTER TABLE al abrir.

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS seen_posts (
    post_id TEXT PRIMARY KEY,
    seen_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS seen_urls (
    url     TEXT PRIMARY KEY,
    seen_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker                 TEXT    NOT NULL,
    side                   TEXT    NOT NULL,
    action                 TEXT    NOT NULL,
    count                  INTEGER NOT NULL,
    yes_price_cents        INTEGER NOT NULL,
    implied_prob           REAL    NOT NULL,
    confidence             REAL    NOT NULL,
    dry_run                INTEGER NOT NULL,
    created_at             INTEGER NOT NULL,
    raw_llm_response       TEXT,
    balance_snapshot_cents INTEGER
);

CREATE INDEX IF NOT EXISTS idx_trades_ticker  ON trades(ticker);
CREATE INDEX IF NOT EXISTS idx_trades_created ON trades(created_at);
`

// columnas añadidas después del esquema original de trades.
var tradeMigrations = []struct{ column, ddl string }{
	{"client_order_id", `ALTER TABLE trades ADD COLUMN client_order_id TEXT NOT NULL DEFAULT ''`},
}

// SQLiteStorage implementa ports.TradeLedger y expone DedupStores por namespace
// usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
	}
	return s, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate añade las columnas que falten en bases antiguas.
func (s *SQLiteStorage) migrate(ctx context.Context) error {
	existing, err := s.columns(ctx, "trades")
	if err != nil {
		return err
	}
	for _, m := range tradeMigrations {
		if existing[m.column] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("migrate trades.%s: %w", m.column, err)
		}
	}
	return nil
}

// columns devuelve el conjunto de columnas de una tabla.
func (s *SQLiteStorage) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM pragma_table_info('%s')`, table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("table info %s: scan: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
