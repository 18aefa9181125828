package sqlite

import (
	"context"
	"database/sql"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
)

const productColumns = `id, name, image, category, featured, description, price, created_at, updated_at`

type productRepository struct {
	db *sql.DB
}

func (r productRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrapError("products.list", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapError("products.list", err)
		}
		out = append(out, p)
	}
	return out, wrapError("products.list", rows.Err())
}

func (r productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, wrapError("products.get", err)
	}
	return p, nil
}

func (r productRepository) Insert(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Image, p.Category, p.Featured, p.Description, p.Price,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return wrapError("products.insert", err)
}

func (r productRepository) Update(ctx context.Context, p domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, image = ?, category = ?, featured = ?, description = ?, price = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Image, p.Category, p.Featured, p.Description, p.Price, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return wrapError("products.update", err)
	}
	return expectOne("products.update", res)
}

func (r productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return wrapError("products.delete", err)
	}
	return expectOne("products.delete", res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p                    domain.Product
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Image, &p.Category, &p.Featured, &p.Description, &p.Price, &createdAt, &updatedAt); err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}
