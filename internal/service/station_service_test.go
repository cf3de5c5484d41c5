package service

import (
	"context"
	"testing"

	"evcircle/internal/models"
	"evcircle/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adder := f.user(t, "adder", models.RoleUser)
	other := f.user(t, "other", models.RoleUser)
	mod := f.user(t, "mod", models.RoleModerator)

	_, err := f.svc.Stations.CreateStation(ctx, adder, CreateStationInput{Name: "X", Latitude: 95})
	assertCode(t, err, models.CodeValidation)
	_, err = f.svc.Stations.CreateStation(ctx, adder, CreateStationInput{Name: "X", PowerKW: -1})
	assertCode(t, err, models.CodeValidation)

	station, err := f.svc.Stations.CreateStation(ctx, adder, CreateStationInput{
		Name: "Fastned A9", Latitude: 52.3, Longitude: 4.9, Connectors: []string{" CCS ", "", "CHAdeMO"}, Network: "Fastned", PowerKW: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CCS", "CHAdeMO"}, []string(station.Connectors))
	assert.Equal(t, adder.ID, station.AddedBy)

	power := 350.0
	_, err = f.svc.Stations.UpdateStation(ctx, other, station.ID, UpdateStationInput{PowerKW: &power})
	assertCode(t, err, models.CodeForbidden)

	lat := -91.0
	_, err = f.svc.Stations.UpdateStation(ctx, adder, station.ID, UpdateStationInput{Latitude: &lat})
	assertCode(t, err, models.CodeValidation)

	updated, err := f.svc.Stations.UpdateStation(ctx, mod, station.ID, UpdateStationInput{PowerKW: &power})
	require.NoError(t, err)
	assert.Equal(t, 350.0, updated.PowerKW)

	list, err := f.svc.Stations.ListStations(ctx, storage.StationFilter{Connector: "ccs"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.Stations.DeleteStation(ctx, mod, station.ID))
	_, err = f.svc.Stations.GetStation(ctx, station.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestBookmarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u", models.RoleUser)
	other := f.user(t, "other", models.RoleUser)

	station, err := f.svc.Stations.CreateStation(ctx, u, CreateStationInput{Name: "Home", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	target := models.NewTarget(models.TargetStation, station.ID)

	_, err = f.svc.Stations.CreateBookmark(ctx, u, models.NewTarget(models.TargetUser, other.ID))
	assertCode(t, err, models.CodeValidation)
	_, err = f.svc.Stations.CreateBookmark(ctx, u, models.NewTarget(models.TargetPost, "missing"))
	assertCode(t, err, models.CodeNotFound)

	b1, err := f.svc.Stations.CreateBookmark(ctx, u, target)
	require.NoError(t, err)
	b2, err := f.svc.Stations.CreateBookmark(ctx, u, target)
	require.NoError(t, err)
	assert.Equal(t, b1.ID, b2.ID)

	got, err := f.svc.Stations.GetStation(ctx, station.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookmarksCount)

	list, err := f.svc.Stations.ListBookmarks(ctx, u, models.TargetStation)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = f.svc.Stations.ListBookmarks(ctx, u, "BOGUS")
	assertCode(t, err, models.CodeValidation)

	assertCode(t, f.svc.Stations.DeleteBookmark(ctx, other, b1.ID), models.CodeNotFound)
	require.NoError(t, f.svc.Stations.DeleteBookmark(ctx, u, b1.ID))

	got, err = f.svc.Stations.GetStation(ctx, station.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BookmarksCount)
}
