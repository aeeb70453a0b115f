package storage

// trades.go — ledger de ejecución. Una fila por decisión ejecutada; nunca se
// actualiza ni se borra. Es la única fuente de verdad de "esta señal ya se actuó".

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const tradeColumns = `id, ticker, side, action, count, yes_price_cents, implied_prob,
	confidence, dry_run, created_at, COALESCE(raw_llm_response, ''),
	COALESCE(balance_snapshot_cents, 0), client_order_id`

// AppendTrade inserta el registro en su propia transacción y devuelve el
// registro con ID y CreatedAt asignados.
func (s *SQLiteStorage) AppendTrade(ctx context.Context, rec domain.TradeRecord) (domain.TradeRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("storage.AppendTrade: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO trades
			(ticker, side, action, count, yes_price_cents, implied_prob, confidence,
			 dry_run, created_at, raw_llm_response, balance_snapshot_cents, client_order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Ticker, rec.Side, rec.Action, rec.Count, rec.PriceCents,
		rec.ImpliedProbability, rec.Confidence, boolToInt(rec.DryRun),
		rec.CreatedAt.Unix(), rec.RawEstimate, rec.BalanceCents, rec.ClientOrderID,
	)
	if err != nil {
		return rec, fmt.Errorf("storage.AppendTrade: insert %s: %w", rec.Ticker, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return rec, fmt.Errorf("storage.AppendTrade: last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("storage.AppendTrade: commit: %w", err)
	}

	rec.ID = id
	return rec, nil
}

// TradesByTicker devuelve todos los registros de un ticker, más antiguos primero.
func (s *SQLiteStorage) TradesByTicker(ctx context.Context, ticker string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE ticker = ? ORDER BY id`, ticker)
	if err != nil {
		return nil, fmt.Errorf("storage.TradesByTicker: query: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// TradesBetween devuelve los registros con created_at en [from, to], más antiguos primero.
func (s *SQLiteStorage) TradesBetween(ctx context.Context, from, to time.Time) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE created_at BETWEEN ? AND ? ORDER BY id`,
		from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("storage.TradesBetween: query: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// CountLiveTrades devuelve cuántas órdenes reales (dry_run = 0) tiene un ticker.
func (s *SQLiteStorage) CountLiveTrades(ctx context.Context, ticker string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE ticker = ? AND dry_run = 0`, ticker).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.CountLiveTrades: %w", err)
	}
	return n, nil
}

func scanTrades(rows *sql.Rows) ([]domain.TradeRecord, error) {
	var out []domain.TradeRecord
	for rows.Next() {
		var (
			rec       domain.TradeRecord
			dryRun    int
			createdAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Ticker,
			&rec.Side,
			&rec.Action,
			&rec.Count,
			&rec.PriceCents,
			&rec.ImpliedProbability,
			&rec.Confidence,
			&dryRun,
			&createdAt,
			&rec.RawEstimate,
			&rec.BalanceCents,
			&rec.ClientOrderID,
		); err != nil {
			return nil, fmt.Errorf("storage: scan trade row: %w", err)
		}
		rec.DryRun = dryRun == 1
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
