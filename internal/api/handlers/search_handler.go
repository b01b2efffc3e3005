package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DevMandate/LinknaMali-sub000/internal/booking"
	"github.com/DevMandate/LinknaMali-sub000/internal/search"
	"github.com/DevMandate/LinknaMali-sub000/internal/upstream"
)

// SearchHandler handles REST requests for property search.
type SearchHandler struct {
	searchService search.ISearchService
	wizardService booking.IWizardService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService search.ISearchService, wizardService booking.IWizardService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		wizardService: wizardService,
	}
}

// sessionID identifies the SPA session that owns the search state. Falls
// back to client IP so curl still works.
func sessionID(c *gin.Context) string {
	if id := c.GetHeader("X-Session-ID"); id != "" {
		return id
	}
	return c.ClientIP()
}

// filterFromQuery builds a FilterState from request query parameters.
func filterFromQuery(c *gin.Context) (search.FilterState, error) {
	var f search.FilterState
	f.SetPurpose(c.Query("purpose"))
	f.Location = strings.TrimSpace(c.Query("location"))
	f.SetKeyword(c.Query("keyword"))

	if v := c.Query("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, errors.New("min_price must be a number")
		}
		f.MinPrice = &p
	}
	if v := c.Query("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, errors.New("max_price must be a number")
		}
		f.MaxPrice = &p
	}

	if v := c.Query("category"); v != "" {
		f.SetCategory(v)
	}
	switch {
	case c.Query("bedrooms") != "":
		f.SetBedroomType(c.Query("bedrooms"))
	case c.Query("house_type") != "":
		f.SetHouseType(c.Query("house_type"))
	case c.Query("land_type") != "":
		f.SetLandType(c.Query("land_type"))
	case c.Query("commercial_type") != "":
		f.SetCommercialType(c.Query("commercial_type"))
	}

	if v := c.Query("amenities"); v != "" {
		f.SetAmenities(strings.Split(v, ","))
	}
	return f, nil
}

// Search handles GET /v1/search. It dispatches a query for the caller's
// session and returns the reconciled result set.
func (h *SearchHandler) Search(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), sessionID(c), f)
	if err != nil {
		if errors.Is(err, search.ErrSuperseded) {
			// A newer query on this session already replaced this one.
			c.JSON(http.StatusConflict, gin.H{"error": "Search superseded by a newer request"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach the search engine"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      result.Set,
		"not_found": result.NotFound,
		"query":     search.DispatchedQuery(f),
	})
}

// CurrentResults handles GET /v1/search/results: the latest committed result
// set for the caller's session, without dispatching anything.
func (h *SearchHandler) CurrentResults(c *gin.Context) {
	result := h.searchService.Current(sessionID(c))
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No search session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      result.Set,
		"not_found": result.NotFound,
	})
}

// BlockedDates handles GET /v1/properties/:id/blocked-dates.
func (h *SearchHandler) BlockedDates(c *gin.Context) {
	propertyID := c.Param("id")
	dates, err := h.wizardService.BlockedDates(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch blocked dates"})
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"blocked_dates": dates})
}
