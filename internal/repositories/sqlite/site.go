package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
)

type categoryRepository struct {
	db *sql.DB
}

func (r categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, wrapError("categories.list", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, wrapError("categories.list", err)
		}
		out = append(out, c)
	}
	return out, wrapError("categories.list", rows.Err())
}

func (r categoryRepository) Insert(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (id, name, slug) VALUES (?, ?, ?)`, c.ID, c.Name, c.Slug)
	return wrapError("categories.insert", err)
}

func (r categoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return wrapError("categories.delete", err)
	}
	return expectOne("categories.delete", res)
}

type detailsRepository struct {
	db *sql.DB
}

func (r detailsRepository) Get(ctx context.Context) (domain.Details, error) {
	var (
		d                    domain.Details
		images               string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, phone_number, catalog_url, hero_images, created_at, updated_at FROM details ORDER BY created_at LIMIT 1`,
	).Scan(&d.ID, &d.PhoneNumber, &d.CatalogURL, &images, &createdAt, &updatedAt)
	if err != nil {
		return domain.Details{}, wrapError("details.get", err)
	}
	if err := json.Unmarshal([]byte(images), &d.HeroImages); err != nil {
		return domain.Details{}, wrapError("details.get", err)
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}

func (r detailsRepository) Save(ctx context.Context, d domain.Details) error {
	images := d.HeroImages
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return wrapError("details.save", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO details (id, phone_number, catalog_url, hero_images, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phone_number = excluded.phone_number,
			catalog_url = excluded.catalog_url,
			hero_images = excluded.hero_images,
			updated_at = excluded.updated_at`,
		d.ID, d.PhoneNumber, d.CatalogURL, string(encoded), formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	return wrapError("details.save", err)
}

type textContentRepository struct {
	db *sql.DB
}

func (r textContentRepository) List(ctx context.Context) ([]domain.TextContentEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, section, title, content, created_at, updated_at FROM text_content ORDER BY section, created_at`)
	if err != nil {
		return nil, wrapError("text_content.list", err)
	}
	defer rows.Close()

	var out []domain.TextContentEntry
	for rows.Next() {
		var (
			e                    domain.TextContentEntry
			createdAt, updatedAt string
		)
		if err := rows.Scan(&e.ID, &e.Section, &e.Title, &e.Content, &createdAt, &updatedAt); err != nil {
			return nil, wrapError("text_content.list", err)
		}
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		out = append(out, e)
	}
	return out, wrapError("text_content.list", rows.Err())
}

func (r textContentRepository) Upsert(ctx context.Context, e domain.TextContentEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO text_content (id, section, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			section = excluded.section,
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at`,
		e.ID, e.Section, e.Title, e.Content, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	return wrapError("text_content.upsert", err)
}

func (r textContentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM text_content WHERE id = ?`, id)
	if err != nil {
		return wrapError("text_content.delete", err)
	}
	return expectOne("text_content.delete", res)
}

type adminKeyRepository struct {
	db *sql.DB
}

func (r adminKeyRepository) FindByKey(ctx context.Context, accessKey string) (domain.AdminKey, error) {
	var (
		k         domain.AdminKey
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, access_key, created_at FROM admin_keys WHERE access_key = ?`, accessKey,
	).Scan(&k.ID, &k.AccessKey, &createdAt)
	if err != nil {
		return domain.AdminKey{}, wrapError("admin_keys.find", err)
	}
	k.CreatedAt = parseTime(createdAt)
	return k, nil
}

func (r adminKeyRepository) Insert(ctx context.Context, k domain.AdminKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_keys (id, access_key, created_at) VALUES (?, ?, ?)`,
		k.ID, k.AccessKey, formatTime(k.CreatedAt))
	return wrapError("admin_keys.insert", err)
}

func (r adminKeyRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_keys`).Scan(&n); err != nil {
		return 0, wrapError("admin_keys.count", err)
	}
	return n, nil
}
