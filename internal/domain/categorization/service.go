package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
)

// ErrMinorNotInMajor is the message for a cross-tree hierarchical mapping.
const ErrMinorNotInMajor = "minor category does not belong to the given major category"

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)

	ListMajorCategories(ctx context.Context) ([]MajorCategory, error)
	GetMajorCategory(ctx context.Context, id uuid.UUID) (*MajorCategory, error)
	CreateMajorCategory(ctx context.Context, name string) (*MajorCategory, error)
	GetMinorCategory(ctx context.Context, id uuid.UUID) (*MinorCategory, error)
	CreateMinorCategory(ctx context.Context, majorID uuid.UUID, name string) (*MinorCategory, error)

	ListStoreMappings(ctx context.Context) ([]StoreMapping, error)
	UpsertStoreMapping(ctx context.Context, storeName string, categoryID uuid.UUID) error
	DeleteStoreMapping(ctx context.Context, storeName string) (bool, error)

	ListStoreHierarchicalMappings(ctx context.Context) ([]StoreHierarchicalMapping, error)
	UpsertStoreHierarchicalMapping(ctx context.Context, storeName string, majorID uuid.UUID, minorID *uuid.UUID) error
	DeleteStoreHierarchicalMapping(ctx context.Context, storeName string) (bool, error)
}

// Service manages categories and store mappings and builds resolvers.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new categorization service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// FlatResolver loads every flat mapping in one query.
func (s *Service) FlatResolver(ctx context.Context) (*FlatResolver, error) {
	mappings, err := s.store.ListStoreMappings(ctx)
	if err != nil {
		return nil, err
	}
	r := NewFlatResolver(mappings)
	s.logger.DebugContext(ctx, "flat mappings loaded", slog.Int("stores", r.Len()))
	return r, nil
}

// HierarchicalResolver loads every hierarchical mapping in one query.
func (s *Service) HierarchicalResolver(ctx context.Context) (*HierarchicalResolver, error) {
	mappings, err := s.store.ListStoreHierarchicalMappings(ctx)
	if err != nil {
		return nil, err
	}
	r := NewHierarchicalResolver(mappings)
	s.logger.DebugContext(ctx, "hierarchical mappings loaded", slog.Int("stores", r.Len()))
	return r, nil
}

// ListCategories returns flat categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateCategory adds a flat category.
func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	return s.store.CreateCategory(ctx, name)
}

// ListMajorCategories returns the category tree.
func (s *Service) ListMajorCategories(ctx context.Context) ([]MajorCategory, error) {
	return s.store.ListMajorCategories(ctx)
}

// CreateMajorCategory adds a major category.
func (s *Service) CreateMajorCategory(ctx context.Context, name string) (*MajorCategory, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	return s.store.CreateMajorCategory(ctx, name)
}

// CreateMinorCategory adds a minor category under an existing major.
func (s *Service) CreateMinorCategory(ctx context.Context, majorID uuid.UUID, name string) (*MinorCategory, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	major, err := s.store.GetMajorCategory(ctx, majorID)
	if err != nil {
		return nil, err
	}
	if major == nil {
		return nil, apperr.NotFoundf("major category %s", majorID)
	}
	return s.store.CreateMinorCategory(ctx, majorID, name)
}

// ListStoreMappings returns every flat mapping.
func (s *Service) ListStoreMappings(ctx context.Context) ([]StoreMapping, error) {
	return s.store.ListStoreMappings(ctx)
}

// SetStoreCategory upserts the flat mapping of a store. Existing
// transactions keep the category they were imported with.
func (s *Service) SetStoreCategory(ctx context.Context, storeName string, categoryID uuid.UUID) error {
	storeName, err := requireStore(storeName)
	if err != nil {
		return err
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return apperr.NotFoundf("category %s", categoryID)
	}

	if err := s.store.UpsertStoreMapping(ctx, storeName, categoryID); err != nil {
		return err
	}
	s.logger.Info("store category mapping updated",
		slog.String("store", storeName),
		slog.String("category", category.Name),
	)
	return nil
}

// DeleteStoreCategory removes the flat mapping of a store.
func (s *Service) DeleteStoreCategory(ctx context.Context, storeName string) error {
	deleted, err := s.store.DeleteStoreMapping(ctx, strings.TrimSpace(storeName))
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFoundf("store mapping %q", storeName)
	}
	return nil
}

// ListStoreHierarchicalMappings returns every (major, minor) mapping.
func (s *Service) ListStoreHierarchicalMappings(ctx context.Context) ([]StoreHierarchicalMapping, error) {
	return s.store.ListStoreHierarchicalMappings(ctx)
}

// SetStoreHierarchicalCategory upserts the (major, minor) mapping of a
// store. A minor that does not belong to majorID is rejected before any
// write.
func (s *Service) SetStoreHierarchicalCategory(ctx context.Context, storeName string, majorID uuid.UUID, minorID *uuid.UUID) error {
	storeName, err := requireStore(storeName)
	if err != nil {
		return err
	}

	major, err := s.store.GetMajorCategory(ctx, majorID)
	if err != nil {
		return err
	}
	if major == nil {
		return apperr.NotFoundf("major category %s", majorID)
	}

	if minorID != nil {
		minor, err := s.store.GetMinorCategory(ctx, *minorID)
		if err != nil {
			return err
		}
		if minor == nil || minor.MajorCategoryID != majorID {
			return apperr.NewValidation("minorCategoryId", ErrMinorNotInMajor)
		}
	}

	if err := s.store.UpsertStoreHierarchicalMapping(ctx, storeName, majorID, minorID); err != nil {
		return err
	}
	s.logger.Info("store hierarchical mapping updated",
		slog.String("store", storeName),
		slog.String("major", major.Name),
	)
	return nil
}

// DeleteStoreHierarchicalCategory removes the hierarchical mapping of a store.
func (s *Service) DeleteStoreHierarchicalCategory(ctx context.Context, storeName string) error {
	deleted, err := s.store.DeleteStoreHierarchicalMapping(ctx, strings.TrimSpace(storeName))
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFoundf("store hierarchical mapping %q", storeName)
	}
	return nil
}

// SuggestMappings proposes categories for an unmapped store from mapped
// stores with similar names.
func (s *Service) SuggestMappings(ctx context.Context, storeName string, limit int) ([]Suggestion, error) {
	storeName, err := requireStore(storeName)
	if err != nil {
		return nil, err
	}

	flat, err := s.store.ListStoreMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flat mappings: %w", err)
	}
	hier, err := s.store.ListStoreHierarchicalMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hierarchical mappings: %w", err)
	}

	matcher := NewFuzzyMatcher(NewFlatResolver(flat), NewHierarchicalResolver(hier))
	return matcher.Suggest(storeName, limit), nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.NewValidation("name", "name is required")
	}
	return name, nil
}

func requireStore(storeName string) (string, error) {
	storeName = strings.TrimSpace(storeName)
	if storeName == "" {
		return "", apperr.NewValidation("storeName", "store name is required")
	}
	return storeName, nil
}
