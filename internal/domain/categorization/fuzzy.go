package categorization

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Scheme names which mapping table a suggestion came from.
type Scheme string

const (
	SchemeFlat         Scheme = "flat"
	SchemeHierarchical Scheme = "hierarchical"
)

// Suggestion is a mapped store whose name resembles the queried store.
type Suggestion struct {
	StoreName  string     `json:"storeName"`
	Scheme     Scheme     `json:"scheme"`
	Resolution Resolution `json:"resolution"`
	Distance   int        `json:"distance"`
}

// FuzzyMatcher ranks mapped store names against an unmapped one.
// Card statements mix full- and half-width forms of the same store
// ("ｾﾌﾞﾝ" and "セブン"), so names are width-folded before matching.
type FuzzyMatcher struct {
	candidates []candidate
}

type candidate struct {
	folded     string
	storeName  string
	scheme     Scheme
	resolution Resolution
}

// NewFuzzyMatcher indexes the stores known to both resolvers.
func NewFuzzyMatcher(flat *FlatResolver, hier *HierarchicalResolver) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	for name, res := range flat.byStore {
		fm.candidates = append(fm.candidates, candidate{fold(name), name, SchemeFlat, res})
	}
	for name, res := range hier.byStore {
		fm.candidates = append(fm.candidates, candidate{fold(name), name, SchemeHierarchical, res})
	}
	return fm
}

// Suggest returns up to limit candidates where one name is a fuzzy
// subsequence of the other, closest first. Exact matches are excluded
// because the resolver already handles them.
func (fm *FuzzyMatcher) Suggest(storeName string, limit int) []Suggestion {
	query := fold(storeName)

	var out []Suggestion
	for _, c := range fm.candidates {
		if c.storeName == storeName {
			continue
		}
		if !fuzzy.MatchNormalizedFold(c.folded, query) && !fuzzy.MatchNormalizedFold(query, c.folded) {
			continue
		}
		out = append(out, Suggestion{
			StoreName:  c.storeName,
			Scheme:     c.scheme,
			Resolution: c.resolution,
			Distance:   fuzzy.LevenshteinDistance(query, c.folded),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].StoreName != out[j].StoreName {
			return out[i].StoreName < out[j].StoreName
		}
		return out[i].Scheme < out[j].Scheme
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// fold maps half-width katakana to full width and recomposes the
// detached voiced marks that produces.
func fold(s string) string {
	return norm.NFC.String(width.Fold.String(s))
}
