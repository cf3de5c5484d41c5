package chargemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePOIs = `[
  {
    "ID": 101,
    "OperatorID": 3534,
    "AddressInfo": {"Title": "IONITY Hilden", "AddressLine1": "Ellerstr. 1", "Town": "Hilden", "Postcode": "40721",
                    "Latitude": 51.17, "Longitude": 6.93, "Distance": 2.4},
    "Connections": [
      {"ConnectionTypeID": 33, "PowerKW": 350},
      {"ConnectionTypeID": 33, "PowerKW": 150},
      {"ConnectionTypeID": 2, "PowerKW": 50}
    ]
  },
  {
    "ID": 102,
    "OperatorInfo": {"ID": 9999, "Title": "Stadtwerke"},
    "AddressInfo": {"Title": "Marktplatz", "Latitude": 51.1, "Longitude": 6.9},
    "Connections": [{"ConnectionTypeID": 4242, "ConnectionType": {"Title": "Schuko"}}]
  }
]`

func TestNearbyBuildsRequestAndTranslates(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePOIs))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret")
	stations, err := client.Nearby(context.Background(), Query{Latitude: 51.17, Longitude: 6.93, DistanceKm: 5, MaxResults: 2})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/poi/", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "json", q.Get("output"))
	assert.Equal(t, "51.17", q.Get("latitude"))
	assert.Equal(t, "6.93", q.Get("longitude"))
	assert.Equal(t, "5", q.Get("distance"))
	assert.Equal(t, "KM", q.Get("distanceunit"))
	assert.Equal(t, "2", q.Get("maxresults"))
	assert.Equal(t, "true", q.Get("compact"))
	assert.Equal(t, "false", q.Get("verbose"))
	assert.Equal(t, "secret", got.Header.Get("X-API-Key"))

	require.Len(t, stations, 2)
	first := stations[0]
	assert.Equal(t, "101", first.ExternalID)
	assert.Equal(t, "IONITY Hilden", first.Name)
	assert.Equal(t, "Ellerstr. 1, Hilden, 40721", first.Address)
	assert.Equal(t, "IONITY", first.Network)
	assert.Equal(t, []string{"CCS (Type 2)", "CHAdeMO"}, first.Connectors)
	assert.Equal(t, 350.0, first.PowerKW)
	assert.Equal(t, 2.4, first.Distance)

	second := stations[1]
	assert.Equal(t, "Stadtwerke", second.Network)
	assert.Equal(t, []string{"Schuko"}, second.Connectors)
	assert.Zero(t, second.PowerKW)
}

func TestNearbyUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Nearby(context.Background(), Query{Latitude: 1, Longitude: 2})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNearbyBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Nearby(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNearbyOmitsEmptyAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	stations, err := NewClient(srv.URL, "").Nearby(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, stations)
	assert.NotNil(t, stations)
}

func TestQueryNormalize(t *testing.T) {
	t.Parallel()
	q := Query{}.Normalize()
	assert.Equal(t, DefaultDistanceKm, q.DistanceKm)
	assert.Equal(t, DefaultMaxResults, q.MaxResults)

	q = Query{DistanceKm: 10000, MaxResults: 10000}.Normalize()
	assert.Equal(t, MaxDistanceKm, q.DistanceKm)
	assert.Equal(t, MaxResults, q.MaxResults)
}
