package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roro/internal/models"

	"gorm.io/gorm"
)

// ErrPrizeNotFound is returned by AppendLog when the prize row no longer exists.
var ErrPrizeNotFound = errors.New("prize does not exist")

// CandidateQuery is an already validated gacha request.
type CandidateQuery struct {
	Species  string
	Category string
	Zipcode  string
	Now      time.Time
}

type GachaRepository interface {
	FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Prize, error)
	AppendLog(ctx context.Context, entry *models.GachaLogEntry) error
	Count(ctx context.Context) (int64, error)
}

type gachaRepository struct {
	db *gorm.DB
}

func NewGachaRepository(db *gorm.DB) GachaRepository {
	return &gachaRepository{db: db}
}

// FindCandidates returns the prize pool in a fixed order: facilities, advice,
// events, materials, each by id.
func (r *gachaRepository) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Prize, error) {
	db := r.db.WithContext(ctx)
	var pool []models.Prize

	var facilityIDs []uint
	var adviceCodes []string
	if q.Zipcode != "" {
		var mappings []models.CategoryZipMapping
		err := db.
			Where("species = ? AND category = ? AND zipcode LIKE ? ESCAPE '!'", q.Species, q.Category, escapeLike(q.Zipcode)+"%").
			Find(&mappings).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load zip mappings: %w", err)
		}
		for _, m := range mappings {
			if m.FacilityID != nil {
				facilityIDs = append(facilityIDs, *m.FacilityID)
			}
			if m.AdviceCode != nil && *m.AdviceCode != "" {
				adviceCodes = append(adviceCodes, *m.AdviceCode)
			}
		}
	}

	if len(facilityIDs) > 0 {
		var facilities []models.Facility
		if err := db.Where("facility_id IN ?", facilityIDs).Order("facility_id ASC").Find(&facilities).Error; err != nil {
			return nil, fmt.Errorf("failed to load mapped facilities: %w", err)
		}
		for _, f := range facilities {
			pool = append(pool, models.Prize{Type: models.PrizeFacility, ID: f.ID, Name: f.Name})
		}
	}

	if len(adviceCodes) > 0 {
		var advices []models.Advice
		if err := db.Where("advice_code IN ?", adviceCodes).Order("advice_id ASC").Find(&advices).Error; err != nil {
			return nil, fmt.Errorf("failed to load mapped advice: %w", err)
		}
		for _, a := range advices {
			pool = append(pool, models.Prize{Type: models.PrizeAdvice, ID: a.ID, Name: a.Title})
		}
	}

	var events []models.Event
	err := db.
		Joins("JOIN facilities ON facilities.facility_id = events.facility_id").
		Where("events.category = ? AND events.start_time >= ? AND facilities.species IN ?",
			q.Category, q.Now, []string{q.Species, "both"}).
		Order("events.event_id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming events: %w", err)
	}
	for _, e := range events {
		pool = append(pool, models.Prize{Type: models.PrizeEvent, ID: e.ID, Name: e.Title})
	}

	var materials []models.Material
	err = db.
		Where("category = ? AND target_species IN ?", q.Category, []string{q.Species, "both"}).
		Order("material_id ASC").
		Find(&materials).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}
	for _, m := range materials {
		pool = append(pool, models.Prize{Type: models.PrizeMaterial, ID: m.ID, Name: m.Title})
	}

	return pool, nil
}

// AppendLog checks the prize still exists and inserts the log row in one transaction.
func (r *gachaRepository) AppendLog(ctx context.Context, entry *models.GachaLogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, column, err := prizeTable(entry.PrizeType)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(model).Where(column+" = ?", entry.PrizeID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check %s %d: %w", entry.PrizeType, entry.PrizeID, err)
		}
		if count == 0 {
			return fmt.Errorf("%s %d: %w", entry.PrizeType, entry.PrizeID, ErrPrizeNotFound)
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append gacha log: %w", err)
		}
		return nil
	})
}

func (r *gachaRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GachaLogEntry{}).Count(&count).Error
	return count, err
}

func prizeTable(prizeType string) (interface{}, string, error) {
	switch prizeType {
	case models.PrizeFacility:
		return &models.Facility{}, "facility_id", nil
	case models.PrizeAdvice:
		return &models.Advice{}, "advice_id", nil
	case models.PrizeEvent:
		return &models.Event{}, "event_id", nil
	case models.PrizeMaterial:
		return &models.Material{}, "material_id", nil
	default:
		return nil, "", fmt.Errorf("unknown prize type %q", prizeType)
	}
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
