package main

import (
	"context"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	importservice "github.com/FACorreiaa/statement-tracker/internal/domain/import/service"
)

// categorizationAdapter adapts categorization.Service to import's CategorizationService interface
type categorizationAdapter struct {
	svc *categorization.Service
}

func newCategorizationAdapter(svc *categorization.Service) importservice.CategorizationService {
	return &categorizationAdapter{svc: svc}
}

// Snapshot implements importservice.CategorizationService. Both mapping
// tables are read once, before the import transaction starts.
func (a *categorizationAdapter) Snapshot(ctx context.Context) (importservice.CategoryLookup, error) {
	flat, err := a.svc.FlatResolver(ctx)
	if err != nil {
		return nil, err
	}
	hier, err := a.svc.HierarchicalResolver(ctx)
	if err != nil {
		return nil, err
	}
	return &storeLookup{flat: flat, hier: hier}, nil
}

type storeLookup struct {
	flat *categorization.FlatResolver
	hier *categorization.HierarchicalResolver
}

// Assign stamps the flat category and, independently, the hierarchical
// (major, minor) pair of a store.
func (l *storeLookup) Assign(storeName string) importservice.CategoryAssignment {
	var out importservice.CategoryAssignment
	if res, ok := l.flat.Resolve(storeName); ok {
		id := res.Major.ID
		out.CategoryID = &id
	}
	if res, ok := l.hier.Resolve(storeName); ok {
		major := res.Major.ID
		out.MajorCategoryID = &major
		if res.Minor != nil {
			minor := res.Minor.ID
			out.MinorCategoryID = &minor
		}
	}
	return out
}
