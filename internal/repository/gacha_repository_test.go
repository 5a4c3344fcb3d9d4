package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"roro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }
func strPtr(v string) *string { return &v }

func seedGachaFixtures(t *testing.T, repo GachaRepository, now time.Time) {
	t.Helper()
	db := repo.(*gachaRepository).db

	require.NoError(t, db.Create(&[]models.Facility{
		{ID: 7, Name: "Ueno Dog Run", Category: "park", Lat: 35.71, Lng: 139.77, Species: "dog"},
		{ID: 8, Name: "Cat House", Category: "park", Lat: 35.70, Lng: 139.76, Species: "cat"},
		{ID: 9, Name: "Shiba Park", Category: "park", Lat: 35.65, Lng: 139.75, Species: "both"},
	}).Error)

	require.NoError(t, db.Create(&[]models.Advice{
		{ID: 1, Code: "walk-basics", Title: "Walking basics", Body: "...", Category: "park"},
	}).Error)

	require.NoError(t, db.Create(&[]models.CategoryZipMapping{
		{Species: "dog", Category: "park", Zipcode: "1000001", FacilityID: uintPtr(7)},
		{Species: "dog", Category: "park", Zipcode: "1500001", FacilityID: uintPtr(9), AdviceCode: strPtr("walk-basics")},
		{Species: "cat", Category: "park", Zipcode: "1000001", FacilityID: uintPtr(8)},
	}).Error)

	require.NoError(t, db.Create(&[]models.Event{
		{ID: 11, Title: "Dog-friendly picnic", Category: "park", StartTime: now.Add(48 * time.Hour), EndTime: now.Add(50 * time.Hour), FacilityID: 7},
		{ID: 12, Title: "Past meetup", Category: "park", StartTime: now.Add(-48 * time.Hour), EndTime: now.Add(-46 * time.Hour), FacilityID: 7},
		{ID: 13, Title: "Cat yoga", Category: "park", StartTime: now.Add(24 * time.Hour), EndTime: now.Add(26 * time.Hour), FacilityID: 8},
	}).Error)

	require.NoError(t, db.Create(&[]models.Material{
		{ID: 21, Title: "Cat toy guide", Category: "park", TargetSpecies: "cat"},
		{ID: 22, Title: "Grooming kit", Category: "salon", TargetSpecies: "both"},
	}).Error)
}

func TestFindCandidatesScenario(t *testing.T) {
	repo := NewGachaRepository(newSQLiteDB(t))
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	seedGachaFixtures(t, repo, now)

	pool, err := repo.FindCandidates(context.Background(), CandidateQuery{
		Species: "dog", Category: "park", Zipcode: "1000001", Now: now,
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Prize{
		{Type: models.PrizeFacility, ID: 7, Name: "Ueno Dog Run"},
		{Type: models.PrizeEvent, ID: 11, Name: "Dog-friendly picnic"},
	}, pool)
}

func TestFindCandidatesPrefixAdviceAndSpeciesFilters(t *testing.T) {
	repo := NewGachaRepository(newSQLiteDB(t))
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	seedGachaFixtures(t, repo, now)
	ctx := context.Background()

	pool, err := repo.FindCandidates(ctx, CandidateQuery{Species: "dog", Category: "park", Zipcode: "150", Now: now})
	require.NoError(t, err)
	assert.Equal(t, []models.Prize{
		{Type: models.PrizeFacility, ID: 9, Name: "Shiba Park"},
		{Type: models.PrizeAdvice, ID: 1, Name: "Walking basics"},
		{Type: models.PrizeEvent, ID: 11, Name: "Dog-friendly picnic"},
	}, pool)

	pool, err = repo.FindCandidates(ctx, CandidateQuery{Species: "cat", Category: "park", Now: now})
	require.NoError(t, err)
	assert.Equal(t, []models.Prize{
		{Type: models.PrizeEvent, ID: 13, Name: "Cat yoga"},
		{Type: models.PrizeMaterial, ID: 21, Name: "Cat toy guide"},
	}, pool)

	pool, err = repo.FindCandidates(ctx, CandidateQuery{Species: "dog", Category: "hotel", Zipcode: "1000001", Now: now})
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestFindCandidatesEscapesLikeWildcards(t *testing.T) {
	repo := NewGachaRepository(newSQLiteDB(t))
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	seedGachaFixtures(t, repo, now)

	pool, err := repo.FindCandidates(context.Background(), CandidateQuery{Species: "dog", Category: "park", Zipcode: "%", Now: now})
	require.NoError(t, err)
	assert.Equal(t, []models.Prize{{Type: models.PrizeEvent, ID: 11, Name: "Dog-friendly picnic"}}, pool)
}

func TestAppendLogChecksPrizeExists(t *testing.T) {
	repo := NewGachaRepository(newSQLiteDB(t))
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	seedGachaFixtures(t, repo, now)
	ctx := context.Background()

	entry := &models.GachaLogEntry{CustomerID: "42", PrizeType: models.PrizeFacility, PrizeID: 7, Policy: "uniform", CreatedAt: now}
	require.NoError(t, repo.AppendLog(ctx, entry))
	assert.NotZero(t, entry.SpinID)

	err := repo.AppendLog(ctx, &models.GachaLogEntry{CustomerID: "42", PrizeType: models.PrizeMaterial, PrizeID: 999, Policy: "uniform", CreatedAt: now})
	assert.True(t, errors.Is(err, ErrPrizeNotFound))

	err = repo.AppendLog(ctx, &models.GachaLogEntry{CustomerID: "42", PrizeType: "coupon", PrizeID: 1, Policy: "uniform", CreatedAt: now})
	assert.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
