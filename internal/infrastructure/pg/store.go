package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
)

// Store is the Postgres-backed persistence layer. Alerts and price history
// hang off assets with ON DELETE CASCADE, so deleting an asset removes its
// dependents in the same statement. NUMERIC columns travel as text to keep
// exact decimal values.
type Store struct{ db *DB }

func NewStore(db *DB) *Store { return &Store{db: db} }

var _ application.Store = (*Store)(nil)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) GetAssets(ctx context.Context) ([]domain.Asset, error) {
	const q = `SELECT id, symbol, name, type, created_at FROM assets ORDER BY created_at`
	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("pg: list assets: %w", err)
	}
	defer rows.Close()

	var out []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("pg: scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAssetByID(ctx context.Context, id string) (domain.Asset, error) {
	const q = `SELECT id, symbol, name, type, created_at FROM assets WHERE id=$1`
	var a domain.Asset
	err := s.db.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Asset{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Asset{}, fmt.Errorf("pg: get asset: %w", err)
	}
	return a, nil
}

func (s *Store) CreateAsset(ctx context.Context, n domain.NewAsset) (domain.Asset, error) {
	a := domain.Asset{
		ID:        uuid.NewString(),
		Symbol:    n.Symbol,
		Name:      n.Name,
		Type:      n.Type,
		CreatedAt: time.Now().UTC(),
	}
	const q = `INSERT INTO assets(id, symbol, name, type, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.Pool.Exec(ctx, q, a.ID, a.Symbol, a.Name, a.Type, a.CreatedAt)
	if isUniqueViolation(err) {
		return domain.Asset{}, application.ErrConflict
	}
	if err != nil {
		return domain.Asset{}, fmt.Errorf("pg: create asset: %w", err)
	}
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("pg: delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

const alertCols = `id, asset_id, type, threshold::text, currency, is_active, is_triggered, triggered_at, created_at`

func scanAlert(row pgx.Row) (domain.Alert, error) {
	var a domain.Alert
	var threshold string
	if err := row.Scan(&a.ID, &a.AssetID, &a.Type, &threshold, &a.Currency,
		&a.IsActive, &a.IsTriggered, &a.TriggeredAt, &a.CreatedAt); err != nil {
		return domain.Alert{}, err
	}
	d, err := decimal.NewFromString(threshold)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("parse threshold %q: %w", threshold, err)
	}
	a.Threshold = d
	return a, nil
}

func (s *Store) alertsWhere(ctx context.Context, where string, args ...any) ([]domain.Alert, error) {
	q := `SELECT ` + alertCols + ` FROM alerts ` + where + ` ORDER BY created_at`
	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.alertsWhere(ctx, "")
}

func (s *Store) GetAlertsByAssetID(ctx context.Context, assetID string) ([]domain.Alert, error) {
	return s.alertsWhere(ctx, `WHERE asset_id=$1`, assetID)
}

func (s *Store) CreateAlert(ctx context.Context, n domain.NewAlert) (domain.Alert, error) {
	a := domain.Alert{
		ID:          uuid.NewString(),
		AssetID:     n.AssetID,
		Type:        n.Type,
		Threshold:   n.Threshold,
		Currency:    n.Currency,
		IsActive:    n.IsActive,
		IsTriggered: n.IsTriggered,
		TriggeredAt: n.TriggeredAt,
		CreatedAt:   time.Now().UTC(),
	}
	const q = `
        INSERT INTO alerts(id, asset_id, type, threshold, currency, is_active, is_triggered, triggered_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.Pool.Exec(ctx, q, a.ID, a.AssetID, a.Type, a.Threshold.String(), a.Currency,
		a.IsActive, a.IsTriggered, a.TriggeredAt, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.Alert{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Alert{}, fmt.Errorf("pg: create alert: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAlert(ctx context.Context, id string, patch domain.AlertPatch) (domain.Alert, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+alertCols+` FROM alerts WHERE id=$1`, id)
	a, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Alert{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Alert{}, fmt.Errorf("pg: get alert: %w", err)
	}
	patch.Apply(&a)

	const q = `
        UPDATE alerts
           SET type=$2, threshold=$3, currency=$4, is_active=$5, is_triggered=$6, triggered_at=$7
         WHERE id=$1`
	_, err = s.db.Pool.Exec(ctx, q, id, a.Type, a.Threshold.String(), a.Currency,
		a.IsActive, a.IsTriggered, a.TriggeredAt)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("pg: update alert: %w", err)
	}
	return a, nil
}

func (s *Store) DeleteAlert(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM alerts WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("pg: delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (s *Store) GetPriceHistory(ctx context.Context, assetID string, limit int) ([]domain.PriceHistory, error) {
	q := `SELECT id, asset_id, price_usd::text, price_jpy::text, volume::text, ts
            FROM price_history WHERE asset_id=$1 ORDER BY ts DESC`
	args := []any{assetID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list history: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceHistory
	for rows.Next() {
		var h domain.PriceHistory
		var usd, jpy string
		var vol *string
		if err := rows.Scan(&h.ID, &h.AssetID, &usd, &jpy, &vol, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("pg: scan history: %w", err)
		}
		if h.PriceUSD, err = decimal.NewFromString(usd); err != nil {
			return nil, fmt.Errorf("pg: parse price_usd %q: %w", usd, err)
		}
		if h.PriceJPY, err = decimal.NewFromString(jpy); err != nil {
			return nil, fmt.Errorf("pg: parse price_jpy %q: %w", jpy, err)
		}
		if vol != nil {
			v, err := decimal.NewFromString(*vol)
			if err != nil {
				return nil, fmt.Errorf("pg: parse volume %q: %w", *vol, err)
			}
			h.Volume = &v
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) AddPriceHistory(ctx context.Context, n domain.NewPriceHistory) (domain.PriceHistory, error) {
	h := domain.PriceHistory{
		ID:        uuid.NewString(),
		AssetID:   n.AssetID,
		PriceUSD:  n.PriceUSD,
		PriceJPY:  n.PriceJPY,
		Volume:    n.Volume,
		Timestamp: n.Timestamp,
	}
	var vol *string
	if n.Volume != nil {
		v := n.Volume.String()
		vol = &v
	}
	const q = `
        INSERT INTO price_history(id, asset_id, price_usd, price_jpy, volume, ts)
        VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.Pool.Exec(ctx, q, h.ID, h.AssetID, h.PriceUSD.String(), h.PriceJPY.String(), vol, h.Timestamp)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.PriceHistory{}, application.ErrNotFound
	}
	if err != nil {
		return domain.PriceHistory{}, fmt.Errorf("pg: add history: %w", err)
	}
	return h, nil
}
