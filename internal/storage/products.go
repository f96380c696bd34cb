package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pricewatch/hardgamers-watcher/internal/models"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
)

const productColumns = `id, title, price, shop, url`

// ProductRepository stores scraped products
type ProductRepository struct {
	db *DB
}

// Save inserts p when p.ID is zero, otherwise updates the stored row
func (r *ProductRepository) Save(ctx context.Context, p models.Product) (models.Product, error) {
	if err := p.Validate(); err != nil {
		return models.Product{}, err
	}

	if p.ID != 0 {
		res, err := r.db.conn.ExecContext(ctx,
			`UPDATE products SET title = ?, price = ?, shop = ?, url = ? WHERE id = ?`,
			p.Title, p.Price.String(), p.Shop, p.URL, p.ID,
		)
		if err != nil {
			return models.Product{}, apperrors.NewStorage(component, fmt.Sprintf("failed to update product %d", p.ID), err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.Product{}, apperrors.NewNotFound("products", p.ID)
		}
		return p, nil
	}

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO products (title, price, shop, url) VALUES (?, ?, ?, ?)`,
		p.Title, p.Price.String(), p.Shop, p.URL,
	)
	if err != nil {
		return models.Product{}, apperrors.NewStorage(component, "failed to insert product", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Product{}, apperrors.NewStorage(component, "failed to read product id", err)
	}
	p.ID = id
	return p, nil
}

// SaveAll stores products in order and returns them with their ids
func (r *ProductRepository) SaveAll(ctx context.Context, products []models.Product) ([]models.Product, error) {
	saved := make([]models.Product, 0, len(products))
	for _, p := range products {
		s, err := r.Save(ctx, p)
		if err != nil {
			return saved, err
		}
		saved = append(saved, s)
	}

	r.db.log.Debug().Int("products", len(saved)).Msg("Products saved")
	return saved, nil
}

// GetByID returns the product with id or a not_found error
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (models.Product, error) {
	row := r.db.conn.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, apperrors.NewNotFound("products", id)
	}
	return p, err
}

// GetAll returns every product in insertion order
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// SearchByTitle returns products whose title contains text, ordered by title
func (r *ProductRepository) SearchByTitle(ctx context.Context, text string) ([]models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE title LIKE ? ORDER BY title`, "%"+text+"%")
}

// Recent returns the last limit products stored, newest first
func (r *ProductRepository) Recent(ctx context.Context, limit int) ([]models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id DESC LIMIT ?`, limit)
}

// Delete removes the product with id and reports whether it existed
func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, apperrors.NewStorage(component, fmt.Sprintf("failed to delete product %d", id), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorage(component, "failed to read affected rows", err)
	}
	return n > 0, nil
}

func (r *ProductRepository) query(ctx context.Context, q string, args ...any) ([]models.Product, error) {
	rows, err := r.db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperrors.NewStorage(component, "failed to query products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage(component, "failed to read products", err)
	}
	return products, nil
}

func scanProduct(s scanner) (models.Product, error) {
	var (
		p     models.Product
		price string
	)

	if err := s.Scan(&p.ID, &p.Title, &price, &p.Shop, &p.URL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, err
		}
		return models.Product{}, apperrors.NewStorage(component, "failed to scan product", err)
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return models.Product{}, apperrors.NewStorage(component, fmt.Sprintf("product %d has a corrupt price %q", p.ID, price), err)
	}
	p.Price = amount
	return p, nil
}
