package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/DevMandate/LinknaMali-sub000/internal/config"
	"github.com/DevMandate/LinknaMali-sub000/internal/models"
)

// ErrNotFound is returned when the upstream answers 404. Callers must treat
// it differently from an empty result set.
var ErrNotFound = errors.New("upstream resource not found")

// IClient defines the marketplace backend operations this service consumes.
type IClient interface {
	Search(ctx context.Context, query string) (*models.RawSearchPayload, error)
	KeywordSearch(ctx context.Context, keyword string) (*models.RawSearchPayload, error)
	GetProperty(ctx context.Context, propertyID string) (*models.Property, error)
	BlockedDates(ctx context.Context, propertyID string) ([]string, error)
	CreateBooking(ctx context.Context, draft *models.BookingDraft) (*models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, update *models.BookingUpdate) (*models.Booking, error)
}

// client implements IClient over JSON/HTTPS.
type client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an upstream API client. The HTTP timeout bounds every
// call so a slow upstream cannot hang a wizard or a search indefinitely.
func NewClient(cfg *config.Config) IClient {
	return &client{
		baseURL:    cfg.UpstreamBaseURL,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

// Search performs a structured search with an already-composed query string.
func (c *client) Search(ctx context.Context, query string) (*models.RawSearchPayload, error) {
	endpoint := c.baseURL + "/engine/search"
	if query != "" {
		endpoint += "?" + query
	}
	var payload models.RawSearchPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// KeywordSearch hits the free-text endpoint; used whenever a keyword is set.
func (c *client) KeywordSearch(ctx context.Context, keyword string) (*models.RawSearchPayload, error) {
	endpoint := fmt.Sprintf("%s/property/propertylocationsearch?keyword=%s",
		c.baseURL, url.QueryEscape(keyword))
	var payload models.RawSearchPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetProperty fetches a single property, used to resolve the daily rate and
// category when a wizard starts.
func (c *client) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	endpoint := fmt.Sprintf("%s/property/%s", c.baseURL, url.PathEscape(propertyID))
	var property models.Property
	if err := c.getJSON(ctx, endpoint, &property); err != nil {
		return nil, err
	}
	return &property, nil
}

// BlockedDates fetches the property's reserved calendar dates (YYYY-MM-DD).
func (c *client) BlockedDates(ctx context.Context, propertyID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/bookings/blocked-dates/%s", c.baseURL, url.PathEscape(propertyID))
	var resp models.BlockedDatesResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.BlockedDates, nil
}

// CreateBooking submits a new booking record.
func (c *client) CreateBooking(ctx context.Context, draft *models.BookingDraft) (*models.Booking, error) {
	var booking models.Booking
	err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/bookings/createbookings", draft, &booking)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking updates an existing booking. The update payload type cannot
// carry property_id/property_type/user_id, so those stay immutable.
func (c *client) UpdateBooking(ctx context.Context, bookingID string, update *models.BookingUpdate) (*models.Booking, error) {
	endpoint := fmt.Sprintf("%s/bookings/updatebookings/%s", c.baseURL, url.PathEscape(bookingID))
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPut, endpoint, update, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, dest)
}

// doJSON performs one JSON request/response round trip against the upstream.
func (c *client) doJSON(ctx context.Context, method, endpoint string, body, dest interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode upstream request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create upstream request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error calling upstream %s %s: %v", method, endpoint, err)
		return fmt.Errorf("failed to contact upstream service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Upstream %s %s returned status %d - Body: %s", method, endpoint, resp.StatusCode, string(respBody))
		return fmt.Errorf("upstream request failed with status %d", resp.StatusCode)
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		log.Printf("Error unmarshalling upstream response from %s: %v - Body: %s", endpoint, err, string(respBody))
		return fmt.Errorf("failed to parse upstream response: %w", err)
	}
	return nil
}
