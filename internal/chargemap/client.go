// Package chargemap looks up public charging stations on Open Charge Map.
package chargemap

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"evcircle/internal/observability"
)

const (
	DefaultBaseURL    = "https://api.openchargemap.io/v3"
	DefaultDistanceKm = 10
	DefaultMaxResults = 20
	MaxDistanceKm     = 200
	MaxResults        = 100

	requestTimeout = 10 * time.Second
)

// ErrUpstream is returned when Open Charge Map answers with a non-2xx status
// or an undecodable body.
var ErrUpstream = errors.New("charging station lookup failed")

// Query is a radius search around a point.
type Query struct {
	Latitude   float64
	Longitude  float64
	DistanceKm int
	MaxResults int
}

// Normalize fills defaults and clamps the radius and result count.
func (q Query) Normalize() Query {
	if q.DistanceKm <= 0 {
		q.DistanceKm = DefaultDistanceKm
	}
	if q.DistanceKm > MaxDistanceKm {
		q.DistanceKm = MaxDistanceKm
	}
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MaxResults > MaxResults {
		q.MaxResults = MaxResults
	}
	return q
}

// Station is a public charger in the shape the API serves.
type Station struct {
	ExternalID string   `json:"external_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Connectors []string `json:"connectors"`
	Network    string   `json:"network"`
	PowerKW    float64  `json:"power_kw"`
	Distance   float64  `json:"distance_km"`
}

// Client talks to the Open Charge Map POI endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL uses the public API.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Nearby returns stations within q.DistanceKm of the given point, nearest first.
func (c *Client) Nearby(ctx context.Context, q Query) (stations []Station, err error) {
	q = q.Normalize()
	ctx, span := observability.StartSpan(ctx, "chargemap.nearby", trace.SpanKindClient,
		attribute.Float64("geo.lat", q.Latitude),
		attribute.Float64("geo.lng", q.Longitude),
		attribute.Int("chargemap.distance_km", q.DistanceKm),
	)
	defer func() {
		span.SetAttributes(attribute.Int("chargemap.results", len(stations)))
		observability.EndSpan(span, err)
	}()

	params := url.Values{}
	params.Set("output", "json")
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("distance", strconv.Itoa(q.DistanceKm))
	params.Set("distanceunit", "KM")
	params.Set("maxresults", strconv.Itoa(q.MaxResults))
	params.Set("compact", "true")
	params.Set("verbose", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/poi/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.ChargemapRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		observability.ChargemapRequestsTotal.WithLabelValues("upstream_status").Inc()
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var pois []poi
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		observability.ChargemapRequestsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	observability.ChargemapRequestsTotal.WithLabelValues("ok").Inc()

	out := make([]Station, 0, len(pois))
	for _, p := range pois {
		out = append(out, p.station())
	}
	return out, nil
}
