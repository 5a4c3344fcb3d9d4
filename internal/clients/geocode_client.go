package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roro/internal/models"
)

// ErrZipNotFound means the upstream answered but knows no such postal code.
var ErrZipNotFound = errors.New("postal code not found")

type GeocodeClient interface {
	Lookup(ctx context.Context, zipcode string) (*models.GeoPoint, error)
}

type geocodeClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGeocodeClient(baseURL string, timeout time.Duration) GeocodeClient {
	return &geocodeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ZipCloud envelope. Plain ZipCloud carries no coordinates, so GEOCODER_URL must
// point at a compatible service that adds lat/lng to each result.
type geocodeResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Results []struct {
		Zipcode  string      `json:"zipcode"`
		Address1 string      `json:"address1"`
		Address2 string      `json:"address2"`
		Address3 string      `json:"address3"`
		Lat      json.Number `json:"lat"`
		Lng      json.Number `json:"lng"`
	} `json:"results"`
}

func (c *geocodeClient) Lookup(ctx context.Context, zipcode string) (*models.GeoPoint, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder url: %w", err)
	}
	q := u.Query()
	q.Set("zipcode", zipcode)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "RoRo-Backend/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, string(body))
	}

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if data.Status != 0 && data.Status != http.StatusOK {
		return nil, fmt.Errorf("geocoder error %d: %s", data.Status, data.Message)
	}
	if len(data.Results) == 0 {
		return nil, ErrZipNotFound
	}

	r := data.Results[0]
	lat, errLat := strconv.ParseFloat(r.Lat.String(), 64)
	lng, errLng := strconv.ParseFloat(r.Lng.String(), 64)
	if errLat != nil || errLng != nil {
		return nil, fmt.Errorf("%s has no coordinates: %w", zipcode, ErrZipNotFound)
	}

	return &models.GeoPoint{
		Zipcode: zipcode,
		Lat:     lat,
		Lng:     lng,
		Address: strings.TrimSpace(r.Address1 + r.Address2 + r.Address3),
	}, nil
}
