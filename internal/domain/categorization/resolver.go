package categorization

import "github.com/google/uuid"

// Label is a category id with its display name.
type Label struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Resolution is the category a store name maps to. Flat mappings only
// fill Major; hierarchical mappings may also carry a Minor.
type Resolution struct {
	Major Label  `json:"major"`
	Minor *Label `json:"minor,omitempty"`
}

// Resolver looks up the category of a store name.
type Resolver interface {
	Resolve(storeName string) (Resolution, bool)
}

// FlatResolver resolves through store_category_mappings.
type FlatResolver struct {
	byStore map[string]Resolution
}

// NewFlatResolver indexes flat mappings by store name.
func NewFlatResolver(mappings []StoreMapping) *FlatResolver {
	r := &FlatResolver{byStore: make(map[string]Resolution, len(mappings))}
	for _, m := range mappings {
		r.byStore[m.StoreName] = Resolution{
			Major: Label{ID: m.CategoryID, Name: m.CategoryName},
		}
	}
	return r
}

// Resolve returns the flat category for storeName.
func (r *FlatResolver) Resolve(storeName string) (Resolution, bool) {
	res, ok := r.byStore[storeName]
	return res, ok
}

// Len reports how many stores are mapped.
func (r *FlatResolver) Len() int { return len(r.byStore) }

// HierarchicalResolver resolves through store_hierarchical_category_mappings.
type HierarchicalResolver struct {
	byStore map[string]Resolution
}

// NewHierarchicalResolver indexes (major, minor) mappings by store name.
func NewHierarchicalResolver(mappings []StoreHierarchicalMapping) *HierarchicalResolver {
	r := &HierarchicalResolver{byStore: make(map[string]Resolution, len(mappings))}
	for _, m := range mappings {
		res := Resolution{Major: Label{ID: m.MajorCategoryID, Name: m.MajorCategoryName}}
		if m.MinorCategoryID != nil {
			minor := Label{ID: *m.MinorCategoryID}
			if m.MinorCategoryName != nil {
				minor.Name = *m.MinorCategoryName
			}
			res.Minor = &minor
		}
		r.byStore[m.StoreName] = res
	}
	return r
}

// Resolve returns the (major, minor) pair for storeName.
func (r *HierarchicalResolver) Resolve(storeName string) (Resolution, bool) {
	res, ok := r.byStore[storeName]
	return res, ok
}

// Len reports how many stores are mapped.
func (r *HierarchicalResolver) Len() int { return len(r.byStore) }

var (
	_ Resolver = (*FlatResolver)(nil)
	_ Resolver = (*HierarchicalResolver)(nil)
)
