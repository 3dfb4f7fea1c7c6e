package categorization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
	"github.com/FACorreiaa/statement-tracker/pkg/db"
)

const uniqueViolation = "23505"

// Category is a flat spending label.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// MajorCategory is the top level of the hierarchical scheme.
type MajorCategory struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Minors []MinorCategory `json:"minorCategories"`
}

// MinorCategory belongs to exactly one MajorCategory.
type MinorCategory struct {
	ID              uuid.UUID `json:"id"`
	MajorCategoryID uuid.UUID `json:"majorCategoryId"`
	Name            string    `json:"name"`
}

// StoreMapping assigns a flat category to a store name.
type StoreMapping struct {
	StoreName    string    `json:"storeName"`
	CategoryID   uuid.UUID `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
}

// StoreHierarchicalMapping assigns a (major, minor) pair to a store name.
type StoreHierarchicalMapping struct {
	StoreName         string     `json:"storeName"`
	MajorCategoryID   uuid.UUID  `json:"majorCategoryId"`
	MajorCategoryName string     `json:"majorCategoryName"`
	MinorCategoryID   *uuid.UUID `json:"minorCategoryId,omitempty"`
	MinorCategoryName *string    `json:"minorCategoryName,omitempty"`
}

// Repository handles database operations for categorization
type Repository struct {
	db db.Querier
}

// NewRepository creates a new categorization repository
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// ListCategories returns flat categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns nil, nil when the category does not exist.
func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// CreateCategory inserts a flat category. Duplicate names are a validation error.
func (r *Repository) CreateCategory(ctx context.Context, name string) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, mapInsertError(err, "category")
	}
	return &c, nil
}

// ListMajorCategories returns majors with their minors, both ordered by name.
func (r *Repository) ListMajorCategories(ctx context.Context) ([]MajorCategory, error) {
	query := `
		SELECT ma.id, ma.name, mi.id, mi.name
		FROM major_categories ma
		LEFT JOIN minor_categories mi ON mi.major_category_id = ma.id
		ORDER BY ma.name, mi.name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list major categories: %w", err)
	}
	defer rows.Close()

	var out []MajorCategory
	for rows.Next() {
		var (
			majorID   uuid.UUID
			majorName string
			minorID   *uuid.UUID
			minorName *string
		)
		if err := rows.Scan(&majorID, &majorName, &minorID, &minorName); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].ID != majorID {
			out = append(out, MajorCategory{ID: majorID, Name: majorName, Minors: []MinorCategory{}})
		}
		if minorID != nil {
			last := &out[len(out)-1]
			last.Minors = append(last.Minors, MinorCategory{ID: *minorID, MajorCategoryID: majorID, Name: deref(minorName)})
		}
	}
	return out, rows.Err()
}

// GetMajorCategory returns nil, nil when the major category does not exist.
func (r *Repository) GetMajorCategory(ctx context.Context, id uuid.UUID) (*MajorCategory, error) {
	var m MajorCategory
	err := r.db.QueryRow(ctx, `SELECT id, name FROM major_categories WHERE id = $1`, id).Scan(&m.ID, &m.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get major category: %w", err)
	}
	return &m, nil
}

// CreateMajorCategory inserts a major category.
func (r *Repository) CreateMajorCategory(ctx context.Context, name string) (*MajorCategory, error) {
	m := MajorCategory{Minors: []MinorCategory{}}
	err := r.db.QueryRow(ctx,
		`INSERT INTO major_categories (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&m.ID, &m.Name)
	if err != nil {
		return nil, mapInsertError(err, "major category")
	}
	return &m, nil
}

// GetMinorCategory returns nil, nil when the minor category does not exist.
func (r *Repository) GetMinorCategory(ctx context.Context, id uuid.UUID) (*MinorCategory, error) {
	var m MinorCategory
	err := r.db.QueryRow(ctx,
		`SELECT id, major_category_id, name FROM minor_categories WHERE id = $1`, id,
	).Scan(&m.ID, &m.MajorCategoryID, &m.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get minor category: %w", err)
	}
	return &m, nil
}

// CreateMinorCategory inserts a minor category under majorID.
func (r *Repository) CreateMinorCategory(ctx context.Context, majorID uuid.UUID, name string) (*MinorCategory, error) {
	var m MinorCategory
	err := r.db.QueryRow(ctx,
		`INSERT INTO minor_categories (major_category_id, name) VALUES ($1, $2)
		 RETURNING id, major_category_id, name`, majorID, name,
	).Scan(&m.ID, &m.MajorCategoryID, &m.Name)
	if err != nil {
		return nil, mapInsertError(err, "minor category")
	}
	return &m, nil
}

// ListStoreMappings returns every flat mapping ordered by store name.
func (r *Repository) ListStoreMappings(ctx context.Context) ([]StoreMapping, error) {
	query := `
		SELECT m.store_name, m.category_id, c.name
		FROM store_category_mappings m
		JOIN categories c ON c.id = m.category_id
		ORDER BY m.store_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list store mappings: %w", err)
	}
	defer rows.Close()

	var out []StoreMapping
	for rows.Next() {
		var m StoreMapping
		if err := rows.Scan(&m.StoreName, &m.CategoryID, &m.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertStoreMapping replaces the flat category of storeName.
func (r *Repository) UpsertStoreMapping(ctx context.Context, storeName string, categoryID uuid.UUID) error {
	query := `
		INSERT INTO store_category_mappings (store_name, category_id)
		VALUES ($1, $2)
		ON CONFLICT (store_name) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, storeName, categoryID); err != nil {
		return fmt.Errorf("failed to upsert store mapping: %w", err)
	}
	return nil
}

// DeleteStoreMapping reports whether a mapping was removed.
func (r *Repository) DeleteStoreMapping(ctx context.Context, storeName string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM store_category_mappings WHERE store_name = $1`, storeName)
	if err != nil {
		return false, fmt.Errorf("failed to delete store mapping: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListStoreHierarchicalMappings returns every (major, minor) mapping
// ordered by store name.
func (r *Repository) ListStoreHierarchicalMappings(ctx context.Context) ([]StoreHierarchicalMapping, error) {
	query := `
		SELECT m.store_name, m.major_category_id, ma.name, m.minor_category_id, mi.name
		FROM store_hierarchical_category_mappings m
		JOIN major_categories ma ON ma.id = m.major_category_id
		LEFT JOIN minor_categories mi ON mi.id = m.minor_category_id
		ORDER BY m.store_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hierarchical mappings: %w", err)
	}
	defer rows.Close()

	var out []StoreHierarchicalMapping
	for rows.Next() {
		var m StoreHierarchicalMapping
		if err := rows.Scan(
			&m.StoreName,
			&m.MajorCategoryID,
			&m.MajorCategoryName,
			&m.MinorCategoryID,
			&m.MinorCategoryName,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertStoreHierarchicalMapping replaces the (major, minor) pair of storeName.
func (r *Repository) UpsertStoreHierarchicalMapping(ctx context.Context, storeName string, majorID uuid.UUID, minorID *uuid.UUID) error {
	query := `
		INSERT INTO store_hierarchical_category_mappings (store_name, major_category_id, minor_category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (store_name) DO UPDATE SET
			major_category_id = EXCLUDED.major_category_id,
			minor_category_id = EXCLUDED.minor_category_id,
			updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, storeName, majorID, minorID); err != nil {
		return fmt.Errorf("failed to upsert hierarchical mapping: %w", err)
	}
	return nil
}

// DeleteStoreHierarchicalMapping reports whether a mapping was removed.
func (r *Repository) DeleteStoreHierarchicalMapping(ctx context.Context, storeName string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM store_hierarchical_category_mappings WHERE store_name = $1`, storeName)
	if err != nil {
		return false, fmt.Errorf("failed to delete hierarchical mapping: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func mapInsertError(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.NewValidation("name", what+" already exists")
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
