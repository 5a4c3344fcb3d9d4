package repository

import (
	"context"
	"errors"
	"testing"

	"roro/internal/geo"
	"roro/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

var nearbyColumns = []string{"facility_id", "name", "category", "lat", "lng", "address", "distance"}

func TestFindNearbyHaversineQueryShape(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFacilityRepository(db, geo.NewHaversine())

	mock.ExpectQuery(`SELECT \* FROM \(SELECT facility_id, name, category, lat, lng, address, 2 \* 6371000 \* ASIN\(.+\) AS distance FROM facilities WHERE lat BETWEEN .+ AND lng BETWEEN .+ AND category = .+\) AS f WHERE distance <= .+ ORDER BY distance ASC, facility_id ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows(nearbyColumns).
			AddRow(3, "Dog Cafe", "cafe", 35.681, 139.767, "Chiyoda", 120.5).
			AddRow(1, "Cat Cafe", "cafe", 35.682, 139.768, "Chiyoda", 80.0))

	got, err := repo.FindNearby(context.Background(), NearbyQuery{
		Lat: 35.6812, Lng: 139.7671, Radius: 2000, Limit: 20, Category: "cafe",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].ID)
	assert.Equal(t, uint(3), got[1].ID)
	assert.Equal(t, "haversine", repo.Strategy())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNearbyNativePostgres(t *testing.T) {
	db, mock := newMockDB(t)
	native, err := geo.NewNative("postgres")
	require.NoError(t, err)
	repo := NewFacilityRepository(db, native)

	mock.ExpectQuery(`ST_DistanceSphere\(ST_MakePoint\(lng, lat\), ST_MakePoint\(\$1, \$2\)\) AS distance FROM facilities WHERE lat BETWEEN \$3 AND \$4 AND lng BETWEEN \$5 AND \$6\) AS f WHERE distance <= \$7`).
		WillReturnRows(sqlmock.NewRows(nearbyColumns))

	got, err := repo.FindNearby(context.Background(), NearbyQuery{Lat: 35.0, Lng: 139.0, Radius: 500, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNearbyWrapsQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFacilityRepository(db, nil)

	mock.ExpectQuery(`SELECT \* FROM`).WillReturnError(errors.New("connection reset"))

	_, err := repo.FindNearby(context.Background(), NearbyQuery{Lat: 35.0, Lng: 139.0, Radius: 500, Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNormalizeNearby(t *testing.T) {
	rows := []models.NearbyFacility{
		{ID: 9, Distance: 50},
		{ID: 4, Distance: -0.0001},
		{ID: 2, Distance: 50},
		{ID: 7, Distance: 2000.5},
		{ID: 5, Distance: 1999.9},
		{ID: 1, Distance: 10},
	}

	got := normalizeNearby(rows, 2000, 4)

	require.Len(t, got, 4)
	ids := []uint{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	assert.Equal(t, []uint{4, 1, 2, 9}, ids)
	assert.Equal(t, 0.0, got[0].Distance)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
}
