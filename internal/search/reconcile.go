package search

import (
	"strings"

	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

// Reconcile reshapes a raw upstream search payload into a display-ready
// result set. It strips the private wire fields from every property,
// applies the active sub-type filter to that sub-type's category only (the
// upstream restricts by category but does not guarantee an exact sub-type
// match), and derives the flat AllResults list. Empty category arrays are
// normal, not errors.
//
// The legacy `{results: []}` envelope is normalized by treating the flat
// array as apartments with the other categories empty.
func Reconcile(raw *models.RawSearchPayload, f FilterState) models.SearchResultSet {
	set := models.EmptyResultSet()
	if raw == nil {
		return set
	}

	data := raw.Data
	if data == nil {
		data = &models.RawSearchData{Apartments: raw.Results}
	}

	activeCategory, subType := f.ActiveSubType()

	set.Apartments = reconcileCategory(data.Apartments, activeCategory == CategoryApartment, subType)
	set.Houses = reconcileCategory(data.Houses, activeCategory == CategoryHouse, subType)
	set.Land = reconcileCategory(data.Land, activeCategory == CategoryLand, subType)
	set.Commercial = reconcileCategory(data.Commercial, activeCategory == CategoryCommercial, subType)

	set.AllResults = make([]models.Property, 0,
		len(set.Apartments)+len(set.Houses)+len(set.Land)+len(set.Commercial))
	set.AllResults = append(set.AllResults, set.Apartments...)
	set.AllResults = append(set.AllResults, set.Houses...)
	set.AllResults = append(set.AllResults, set.Land...)
	set.AllResults = append(set.AllResults, set.Commercial...)

	return set
}

// reconcileCategory sanitizes one category array and, when this is the
// category the active sub-type refines, keeps only properties whose type
// matches it exactly, case-insensitively.
func reconcileCategory(in []models.Property, filterByType bool, subType string) []models.Property {
	out := make([]models.Property, 0, len(in))
	for _, p := range in {
		if filterByType && !strings.EqualFold(p.PropertyType, subType) {
			continue
		}
		out = append(out, sanitize(p))
	}
	return out
}

// sanitize drops the wire-only fields the UI must never show.
func sanitize(p models.Property) models.Property {
	p.UserID = ""
	p.CreatedAt = ""
	p.UpdatedAt = ""
	return p
}
