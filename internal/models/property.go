package models

// Property is a marketplace property as served by the upstream API.
// The upstream still sends user_id/created_at/updated_at over the wire;
// they are stripped during reconciliation before anything is displayed,
// hence the omitempty tags on those fields.
type Property struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	PropertyType       string   `json:"property_type"`
	Town               string   `json:"town"`
	Location           string   `json:"location"`
	Price              float64  `json:"price"`
	Purpose            string   `json:"purpose"`
	Amenities          []string `json:"amenities"`
	Images             []string `json:"images"`
	Likes              int      `json:"likes"`
	UserName           string   `json:"user_name"`
	AvailabilityStatus string   `json:"availability_status"`
	ManuallyVerified   bool     `json:"manually_verified"`

	// Stripped before display.
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// RawSearchPayload is the upstream search response envelope. Modern
// responses carry the four category arrays under "data"; the legacy shape
// is a flat "results" array which reconciliation treats as apartments.
type RawSearchPayload struct {
	Data    *RawSearchData `json:"data,omitempty"`
	Results []Property     `json:"results,omitempty"`
}

// RawSearchData holds the per-category arrays of a modern search response.
type RawSearchData struct {
	Apartments []Property `json:"apartments"`
	Houses     []Property `json:"houses"`
	Land       []Property `json:"land"`
	Commercial []Property `json:"commercial"`
}

// SearchResultSet is the reconciled, display-ready view of a search
// response. It is recreated on every successful fetch and cleared when a
// new search is dispatched.
type SearchResultSet struct {
	Apartments []Property `json:"apartments"`
	Houses     []Property `json:"houses"`
	Land       []Property `json:"land"`
	Commercial []Property `json:"commercial"`
	AllResults []Property `json:"all_results"`
}

// EmptyResultSet returns a result set with all categories initialised to
// empty (non-nil) slices, suitable for the cleared state shown while a
// fetch is in flight.
func EmptyResultSet() SearchResultSet {
	return SearchResultSet{
		Apartments: []Property{},
		Houses:     []Property{},
		Land:       []Property{},
		Commercial: []Property{},
		AllResults: []Property{},
	}
}
