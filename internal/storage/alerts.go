package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pricewatch/hardgamers-watcher/internal/models"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
)

const alertColumns = `id, search_text, target_price, is_active, created_at`

// AlertRepository stores alerts
type AlertRepository struct {
	db *DB
}

// Save inserts a with a fresh id when a.ID is zero, otherwise updates the stored row.
// CreatedAt is never rewritten by an update.
func (r *AlertRepository) Save(ctx context.Context, a models.Alert) (models.Alert, error) {
	if err := a.Validate(); err != nil {
		return models.Alert{}, err
	}

	if a.ID == 0 {
		return r.insert(ctx, a)
	}
	return r.update(ctx, a)
}

func (r *AlertRepository) insert(ctx context.Context, a models.Alert) (models.Alert, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO alerts (search_text, target_price, is_active, created_at) VALUES (?, ?, ?, ?)`,
		a.SearchText, a.TargetPrice.String(), boolToInt(a.IsActive), a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return models.Alert{}, apperrors.NewStorage(component, "failed to insert alert", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Alert{}, apperrors.NewStorage(component, "failed to read alert id", err)
	}
	a.ID = id

	r.db.log.Debug().Int64("alert_id", id).Msg("Alert inserted")
	return a, nil
}

func (r *AlertRepository) update(ctx context.Context, a models.Alert) (models.Alert, error) {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE alerts SET search_text = ?, target_price = ?, is_active = ? WHERE id = ?`,
		a.SearchText, a.TargetPrice.String(), boolToInt(a.IsActive), a.ID,
	)
	if err != nil {
		return models.Alert{}, apperrors.NewStorage(component, fmt.Sprintf("failed to update alert %d", a.ID), err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Alert{}, apperrors.NewNotFound("alerts", a.ID)
	}

	return r.GetByID(ctx, a.ID)
}

// GetByID returns the alert with id or a not_found error
func (r *AlertRepository) GetByID(ctx context.Context, id int64) (models.Alert, error) {
	row := r.db.conn.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Alert{}, apperrors.NewNotFound("alerts", id)
	}
	return a, err
}

// GetAll returns every alert, newest first
func (r *AlertRepository) GetAll(ctx context.Context) ([]models.Alert, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY created_at DESC, id DESC`)
}

// GetActive returns the active alerts, newest first
func (r *AlertRepository) GetActive(ctx context.Context) ([]models.Alert, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM alerts WHERE is_active = 1 ORDER BY created_at DESC, id DESC`)
}

// Delete removes the alert with id and reports whether it existed
func (r *AlertRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return false, apperrors.NewStorage(component, fmt.Sprintf("failed to delete alert %d", id), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorage(component, "failed to read affected rows", err)
	}
	return n > 0, nil
}

func (r *AlertRepository) query(ctx context.Context, q string, args ...any) ([]models.Alert, error) {
	rows, err := r.db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperrors.NewStorage(component, "failed to query alerts", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage(component, "failed to read alerts", err)
	}
	return alerts, nil
}

func scanAlert(s scanner) (models.Alert, error) {
	var (
		a         models.Alert
		target    string
		active    int
		createdAt string
	)

	if err := s.Scan(&a.ID, &a.SearchText, &target, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Alert{}, err
		}
		return models.Alert{}, apperrors.NewStorage(component, "failed to scan alert", err)
	}

	amount, err := decimal.NewFromString(target)
	if err != nil {
		return models.Alert{}, apperrors.NewStorage(component, fmt.Sprintf("alert %d has a corrupt target price %q", a.ID, target), err)
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Alert{}, apperrors.NewStorage(component, fmt.Sprintf("alert %d has a corrupt timestamp %q", a.ID, createdAt), err)
	}

	a.TargetPrice = amount
	a.IsActive = active != 0
	a.CreatedAt = created.UTC()
	return a, nil
}
