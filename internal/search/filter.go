package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Purpose values as sent to the upstream search endpoint. PurposeReset is a
// UI transition only and is never serialized into a query.
const (
	PurposeSale      = "sale"
	PurposeRent      = "rent"
	PurposeShortStay = "short_stay"
	PurposeReset     = "reset"
)

// Property categories selectable in the filter bar.
const (
	CategoryApartment  = "Apartment"
	CategoryHouse      = "House"
	CategoryLand       = "Land"
	CategoryCommercial = "Commercial"
)

// FilterState is the transient filter selection owned by one search session.
// At most one of the four sub-type fields is ever non-empty; the Set*Type
// transitions enforce that atomically.
type FilterState struct {
	Purpose  string `json:"purpose,omitempty"`
	Location string `json:"location,omitempty"`

	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`

	Category string `json:"category,omitempty"`

	BedroomType    string `json:"bedroom_type,omitempty"`
	HouseType      string `json:"house_type,omitempty"`
	LandType       string `json:"land_type,omitempty"`
	CommercialType string `json:"commercial_type,omitempty"`

	Amenities []string `json:"amenities,omitempty"`

	// Keyword overrides the structured filters entirely when non-empty.
	Keyword string `json:"keyword,omitempty"`
}

// SetPurpose records the primary purpose filter. The "reset" value clears
// the entire filter state rather than being stored.
func (f *FilterState) SetPurpose(purpose string) {
	if purpose == PurposeReset {
		*f = FilterState{}
		return
	}
	f.Purpose = purpose
}

// SetCategory switches the primary property category and atomically clears
// all four sub-type selections, so a stale sub-type from a previous category
// can never leak into the next query.
func (f *FilterState) SetCategory(category string) {
	f.Category = category
	f.clearSubTypes()
}

func (f *FilterState) clearSubTypes() {
	f.BedroomType = ""
	f.HouseType = ""
	f.LandType = ""
	f.CommercialType = ""
}

// SetBedroomType selects an apartment bedroom count, clearing the siblings.
func (f *FilterState) SetBedroomType(v string) {
	f.clearSubTypes()
	f.BedroomType = v
}

// SetHouseType selects a house style, clearing the siblings.
func (f *FilterState) SetHouseType(v string) {
	f.clearSubTypes()
	f.HouseType = v
}

// SetLandType selects a land use, clearing the siblings.
func (f *FilterState) SetLandType(v string) {
	f.clearSubTypes()
	f.LandType = v
}

// SetCommercialType selects a commercial unit type, clearing the siblings.
func (f *FilterState) SetCommercialType(v string) {
	f.clearSubTypes()
	f.CommercialType = v
}

// SetAmenities replaces the amenity selection, deduplicating and dropping
// empty entries. Order of selection is irrelevant; a sorted copy is kept so
// query composition is stable.
func (f *FilterState) SetAmenities(amenities []string) {
	seen := make(map[string]bool, len(amenities))
	cleaned := make([]string, 0, len(amenities))
	for _, a := range amenities {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		cleaned = append(cleaned, a)
	}
	sort.Strings(cleaned)
	f.Amenities = cleaned
}

// SetKeyword sets the free-text keyword. A non-empty keyword routes the
// dispatch to the keyword endpoint and the structured filters are not sent.
func (f *FilterState) SetKeyword(keyword string) {
	f.Keyword = strings.TrimSpace(keyword)
}

// ActiveSubType returns the one active sub-type value and the category it
// refines, or empty strings when no sub-type is selected.
func (f *FilterState) ActiveSubType() (category, value string) {
	switch {
	case f.BedroomType != "":
		return CategoryApartment, f.BedroomType
	case f.HouseType != "":
		return CategoryHouse, f.HouseType
	case f.LandType != "":
		return CategoryLand, f.LandType
	case f.CommercialType != "":
		return CategoryCommercial, f.CommercialType
	}
	return "", ""
}

// BuildQuery composes the canonical query string for the structured search
// endpoint. Parameters are emitted in a fixed order so that composing the
// same state always yields the same string, and empty parameters are never
// emitted at all.
func BuildQuery(f FilterState) string {
	if f.Purpose == PurposeReset {
		// Selecting a new primary filter invalidates incompatible prior
		// selections.
		f.Purpose = ""
		f.clearSubTypes()
	}

	var b strings.Builder
	appendParam := func(key, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	appendParam("purpose", f.Purpose)
	appendParam("location", f.Location)
	if f.MinPrice != nil {
		appendParam("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		appendParam("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	appendParam("keyword", f.Keyword)

	// Exactly one of the four sub-types may be active; no property_type
	// param at all means the search spans every category.
	switch {
	case f.BedroomType != "":
		appendParam("property_type", "apartments")
		appendParam("bedrooms", f.BedroomType)
	case f.HouseType != "":
		appendParam("property_type", "houses")
		appendParam("house_type", f.HouseType)
	case f.LandType != "":
		appendParam("property_type", "land")
		appendParam("land_type", f.LandType)
	case f.CommercialType != "":
		appendParam("property_type", "commercial")
		appendParam("commercial_type", f.CommercialType)
	}

	if len(f.Amenities) > 0 {
		appendParam("filter", "advanced")
		appendParam("sort_by", "price")
		appendParam("amenities", strings.Join(f.Amenities, ","))
	}

	return b.String()
}

// DispatchedQuery reports the query string a dispatch of this state actually
// sends upstream. A non-empty keyword routes to the free-text endpoint,
// which receives only the keyword; the structured parameters are never part
// of that request.
func DispatchedQuery(f FilterState) string {
	if f.Keyword != "" {
		return "keyword=" + url.QueryEscape(f.Keyword)
	}
	return BuildQuery(f)
}

// ParseQuery rebuilds a FilterState from a composed query string. It is the
// inverse of BuildQuery for any state BuildQuery can produce, and is also
// used to decode incoming filter parameters on the API surface.
func ParseQuery(query string) (FilterState, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return FilterState{}, err
	}

	var f FilterState
	f.Purpose = values.Get("purpose")
	f.Location = values.Get("location")
	f.Keyword = values.Get("keyword")

	if v := values.Get("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return FilterState{}, err
		}
		f.MinPrice = &p
	}
	if v := values.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return FilterState{}, err
		}
		f.MaxPrice = &p
	}

	switch values.Get("property_type") {
	case "apartments":
		f.SetBedroomType(values.Get("bedrooms"))
		f.Category = CategoryApartment
	case "houses":
		f.SetHouseType(values.Get("house_type"))
		f.Category = CategoryHouse
	case "land":
		f.SetLandType(values.Get("land_type"))
		f.Category = CategoryLand
	case "commercial":
		f.SetCommercialType(values.Get("commercial_type"))
		f.Category = CategoryCommercial
	}

	if v := values.Get("amenities"); v != "" {
		f.SetAmenities(strings.Split(v, ","))
	}

	return f, nil
}
