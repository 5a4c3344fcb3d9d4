package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	d, err := Dialector(Config{Driver: "postgres", Host: "db", Port: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(Config{Driver: "mysql", Host: "db", Port: "3306"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialector(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMySQLHasDistanceSphere(t *testing.T) {
	cases := map[string]bool{
		"8.0.36":                  true,
		"5.7.44-log":              true,
		"5.6.51":                  false,
		"10.5.23-MariaDB":         true,
		"10.4.32-MariaDB-1:10.4":  false,
		"11.2.2-MariaDB-1:11.2.2": true,
		"garbage":                 false,
	}
	for version, want := range cases {
		assert.Equal(t, want, mysqlHasDistanceSphere(version), version)
	}
}

func TestNativeDistanceAvailablePostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM pg_extension").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	assert.True(t, NativeDistanceAvailable(context.Background(), db))

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM pg_extension").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	assert.False(t, NativeDistanceAvailable(context.Background(), db))

	require.NoError(t, mock.ExpectationsWereMet())
}
