package service

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"roro/internal/apperr"
	"roro/internal/models"
	"roro/internal/ratelimit"
	"roro/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var spinNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func uintPtr(v uint) *uint { return &v }

// seedPicnicScenario: dog/park/1000001 maps to facility #7, and one upcoming park event exists.
func seedPicnicScenario(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Facility{ID: 7, Name: "Hibiya Dog Run", Category: "park", Lat: 35.67, Lng: 139.75, Species: "dog"}).Error)
	require.NoError(t, db.Create(&models.CategoryZipMapping{Species: "dog", Category: "park", Zipcode: "1000001", FacilityID: uintPtr(7)}).Error)
	require.NoError(t, db.Create(&models.Event{
		ID: 31, Title: "Dog-friendly picnic", Category: "park",
		StartTime: spinNow.Add(72 * time.Hour), EndTime: spinNow.Add(75 * time.Hour), FacilityID: 7,
	}).Error)
}

func newGachaFixture(t *testing.T, limiter ratelimit.Limiter, seed uint64) (*gachaService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	seedPicnicScenario(t, db)

	svc := NewGachaService(repository.NewGachaRepository(db), limiter, NewUniformPolicy(), rand.New(rand.NewPCG(seed, seed+1))).(*gachaService)
	svc.now = func() time.Time { return spinNow }
	return svc, db
}

func TestSpinPicnicScenarioIsRoughlyFiftyFifty(t *testing.T) {
	svc, db := newGachaFixture(t, nil, 42)
	ctx := context.Background()

	const spins = 1000
	counts := map[string]int{}
	for i := 0; i < spins; i++ {
		res, err := svc.Spin(ctx, SpinRequest{CustomerID: "42", Species: "dog", Category: "park", Zipcode: "1000001"})
		require.NoError(t, err)
		counts[res.Prize.Type]++

		var logged models.GachaLogEntry
		require.NoError(t, db.First(&logged, res.SpinID).Error)
		assert.Equal(t, res.Prize.Type, logged.PrizeType)
		assert.Equal(t, res.Prize.ID, logged.PrizeID)
	}

	assert.Len(t, counts, 2)
	assert.InDelta(t, 0.5, float64(counts[models.PrizeFacility])/spins, 0.06)
	assert.InDelta(t, 0.5, float64(counts[models.PrizeEvent])/spins, 0.06)

	var total int64
	require.NoError(t, db.Model(&models.GachaLogEntry{}).Count(&total).Error)
	assert.Equal(t, int64(spins), total)
}

func TestSpinLogsOneEntryWithMeta(t *testing.T) {
	svc, db := newGachaFixture(t, nil, 1)

	res, err := svc.Spin(context.Background(), SpinRequest{CustomerID: "ip:10.0.0.1", Species: " DOG ", Category: "Park", Zipcode: "100-0001"})
	require.NoError(t, err)
	assert.NotZero(t, res.SpinID)
	assert.NotEmpty(t, res.Prize.Name)

	var entries []models.GachaLogEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "ip:10.0.0.1", entries[0].CustomerID)
	assert.Equal(t, PolicyUniform, entries[0].Policy)
	assert.True(t, entries[0].CreatedAt.Equal(spinNow))

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(entries[0].Meta, &meta))
	assert.Equal(t, float64(2), meta["pool_size"])
	assert.Equal(t, "1000001", meta["zipcode"])
}

func TestSpinEmptyPoolWritesNoLog(t *testing.T) {
	svc, db := newGachaFixture(t, nil, 1)

	_, err := svc.Spin(context.Background(), SpinRequest{CustomerID: "42", Species: "cat", Category: "hotel", Zipcode: "9999999"})
	appErr := apperr.From(err)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Equal(t, "no_candidates", appErr.Code)

	var total int64
	require.NoError(t, db.Model(&models.GachaLogEntry{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestSpinValidation(t *testing.T) {
	svc, _ := newGachaFixture(t, &stubLimiter{allowed: true}, 1)

	for name, req := range map[string]SpinRequest{
		"species":      {CustomerID: "42", Species: "bird", Category: "park"},
		"no species":   {CustomerID: "42", Category: "park"},
		"category":     {CustomerID: "42", Species: "dog", Category: "   "},
		"zipcode":      {CustomerID: "42", Species: "dog", Category: "park", Zipcode: "10a"},
		"long zipcode": {CustomerID: "42", Species: "dog", Category: "park", Zipcode: "10000011"},
	} {
		_, err := svc.Spin(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
	assert.Empty(t, svc.limiter.(*stubLimiter).calls)
}

func TestSpinRequiresCustomer(t *testing.T) {
	svc, _ := newGachaFixture(t, nil, 1)

	_, err := svc.Spin(context.Background(), SpinRequest{Species: "dog", Category: "park"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestSpinRateLimited(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	svc, db := newGachaFixture(t, limiter, 1)

	_, err := svc.Spin(context.Background(), SpinRequest{CustomerID: "42", Identity: "user:42:ip:10.0.0.1", Species: "dog", Category: "park"})
	assert.True(t, apperr.Is(err, apperr.KindRateLimited))
	assert.Equal(t, []string{"gacha|user:42:ip:10.0.0.1"}, limiter.calls)

	var total int64
	require.NoError(t, db.Model(&models.GachaLogEntry{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestSpinWeightedPolicyIsLogged(t *testing.T) {
	db := newTestDB(t)
	seedPicnicScenario(t, db)
	policy, err := NewWeightedPolicy(map[string]float64{models.PrizeEvent: 1})
	require.NoError(t, err)
	svc := NewGachaService(repository.NewGachaRepository(db), nil, policy, rand.New(rand.NewPCG(3, 4))).(*gachaService)
	svc.now = func() time.Time { return spinNow }

	res, err := svc.Spin(context.Background(), SpinRequest{CustomerID: "42", Species: "dog", Category: "park", Zipcode: "1000001"})
	require.NoError(t, err)
	assert.Equal(t, models.Prize{Type: models.PrizeEvent, ID: 31, Name: "Dog-friendly picnic"}, res.Prize)

	var logged models.GachaLogEntry
	require.NoError(t, db.First(&logged, res.SpinID).Error)
	assert.Equal(t, PolicyWeighted, logged.Policy)
}

func TestSpinZeroWeightPoolIsNotFound(t *testing.T) {
	db := newTestDB(t)
	seedPicnicScenario(t, db)
	policy, err := NewWeightedPolicy(map[string]float64{
		models.PrizeFacility: 0, models.PrizeAdvice: 0.5, models.PrizeEvent: 0, models.PrizeMaterial: 0.5,
	})
	require.NoError(t, err)
	svc := NewGachaService(repository.NewGachaRepository(db), nil, policy, rand.New(rand.NewPCG(3, 4))).(*gachaService)
	svc.now = func() time.Time { return spinNow }

	_, err = svc.Spin(context.Background(), SpinRequest{CustomerID: "42", Species: "dog", Category: "park", Zipcode: "1000001"})
	appErr := apperr.From(err)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Equal(t, "no_candidates", appErr.Code)

	var total int64
	require.NoError(t, db.Model(&models.GachaLogEntry{}).Count(&total).Error)
	assert.Zero(t, total)
}
