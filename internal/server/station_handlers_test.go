package server

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"evcircle/internal/chargemap"
	"evcircle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamPOIs = `[
  {
    "ID": 7,
    "OperatorID": 23,
    "AddressInfo": {"Title": "Supercharger Oberhausen", "Latitude": 51.49, "Longitude": 6.87, "Distance": 1.2},
    "Connections": [{"ConnectionTypeID": 27, "PowerKW": 250}]
  }
]`

func TestChargingStationsProxyAndCache(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamPOIs))
	}))
	defer upstream.Close()

	env := newTestServer(t, upstream.URL)

	for i := 0; i < 2; i++ {
		resp := env.do(t, http.MethodGet, "/api/charging-stations?latitude=51.49&longitude=6.87&distance=10", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var stations []chargemap.Station
		decode(t, resp, &stations)
		require.Len(t, stations, 1)
		assert.Equal(t, "Supercharger Oberhausen", stations[0].Name)
		assert.Equal(t, "Tesla", stations[0].Network)
		assert.Equal(t, []string{"Tesla Supercharger"}, stations[0].Connectors)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second lookup should be served from cache")
}

func TestChargingStationsUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	env := newTestServer(t, upstream.URL)

	resp := env.do(t, http.MethodGet, "/api/charging-stations?latitude=48.1&longitude=11.5", "", nil)
	assertErrorCode(t, resp, fiber.StatusBadGateway, "UPSTREAM_ERROR")
}

func TestChargingStationsValidatesCoordinates(t *testing.T) {
	env := newTestServer(t, "")

	tests := []struct {
		name  string
		query string
	}{
		{"missing latitude", "?longitude=6.8"},
		{"not a number", "?latitude=north&longitude=6.8"},
		{"out of range", "?latitude=95&longitude=6.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/charging-stations"+tt.query, "", nil)
			assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)
		})
	}
}

func TestStationsAndBookmarks(t *testing.T) {
	env := newTestServer(t, "")
	alice, _ := env.register(t, "alice")
	bob, _ := env.register(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/stations", alice, fiber.Map{"name": "No coords"})
	assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodPost, "/api/stations", alice, fiber.Map{
		"name":       "Village Hall",
		"latitude":   52.52,
		"longitude":  13.40,
		"connectors": []string{"Type 2", "CCS"},
		"network":    "Allego",
		"power_kw":   22,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var station models.Station
	decode(t, resp, &station)

	resp = env.do(t, http.MethodPut, "/api/stations/"+station.ID, bob, fiber.Map{"name": "Mine now"})
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodPost, "/api/bookmarks", bob, fiber.Map{"kind": "station", "id": station.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var bookmark models.Bookmark
	decode(t, resp, &bookmark)

	resp = env.do(t, http.MethodGet, "/api/stations/"+station.ID, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &station)
	assert.Equal(t, 1, station.BookmarksCount)

	resp = env.do(t, http.MethodGet, "/api/bookmarks?kind=station", bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var bookmarks []models.Bookmark
	decode(t, resp, &bookmarks)
	assert.Len(t, bookmarks, 1)

	resp = env.do(t, http.MethodPost, "/api/bookmarks", bob, fiber.Map{"kind": "user", "id": station.ID})
	assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodDelete, "/api/bookmarks/"+bookmark.ID, alice, nil)
	assertErrorCode(t, resp, fiber.StatusNotFound, models.CodeNotFound)

	resp = env.do(t, http.MethodDelete, "/api/bookmarks/"+bookmark.ID, bob, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
