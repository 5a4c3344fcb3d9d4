package models

import "time"

type Advice struct {
	ID        uint      `gorm:"column:advice_id;primaryKey" json:"id"`
	Code      string    `gorm:"column:advice_code;size:64;not null;uniqueIndex" json:"code"`
	Title     string    `gorm:"size:120;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Category  string    `gorm:"size:32;not null;index" json:"category"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Advice) TableName() string {
	return "advices"
}

type Event struct {
	ID         uint      `gorm:"column:event_id;primaryKey" json:"id"`
	Title      string    `gorm:"size:160;not null" json:"title"`
	Category   string    `gorm:"size:32;not null;index:idx_event_category_start,priority:1" json:"category"`
	StartTime  time.Time `gorm:"not null;index:idx_event_category_start,priority:2" json:"start_time"`
	EndTime    time.Time `gorm:"not null" json:"end_time"`
	FacilityID uint      `gorm:"not null;index" json:"facility_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Facility *Facility `gorm:"foreignKey:FacilityID;references:ID" json:"facility,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

type Material struct {
	ID            uint      `gorm:"column:material_id;primaryKey" json:"id"`
	Title         string    `gorm:"size:160;not null" json:"title"`
	Category      string    `gorm:"size:32;not null;index" json:"category"`
	TargetSpecies string    `gorm:"size:8;not null;default:both" json:"target_species"`
	Price         float64   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Material) TableName() string {
	return "materials"
}

// CategoryZipMapping narrows gacha candidates by locale. Either FacilityID or
// AdviceCode may be empty on a given row.
type CategoryZipMapping struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Species    string  `gorm:"size:8;not null;index:idx_mapping_lookup,priority:1" json:"species"`
	Category   string  `gorm:"size:32;not null;index:idx_mapping_lookup,priority:2" json:"category"`
	Zipcode    string  `gorm:"size:8;not null;index:idx_mapping_lookup,priority:3" json:"zipcode"`
	FacilityID *uint   `json:"facility_id,omitempty"`
	AdviceCode *string `gorm:"size:64" json:"advice_code,omitempty"`
}

func (CategoryZipMapping) TableName() string {
	return "category_zip_mappings"
}
