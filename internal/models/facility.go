package models

import "time"

// Facility categories accepted by search and by the gacha pool.
var FacilityCategories = []string{"cafe", "hospital", "salon", "park", "hotel", "school", "store"}

func IsFacilityCategory(category string) bool {
	for _, c := range FacilityCategories {
		if c == category {
			return true
		}
	}
	return false
}

type Facility struct {
	ID        uint      `gorm:"column:facility_id;primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Category  string    `gorm:"size:20;not null;index:idx_facility_category" json:"category"`
	Lat       float64   `gorm:"not null;index:idx_facility_lat_lng,priority:1" json:"lat"`
	Lng       float64   `gorm:"not null;index:idx_facility_lat_lng,priority:2" json:"lng"`
	Address   string    `gorm:"size:191" json:"address,omitempty"`
	Phone     string    `gorm:"size:32" json:"phone,omitempty"`
	Species   string    `gorm:"size:8;not null;default:both" json:"species"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Facility) TableName() string {
	return "facilities"
}

// NearbyFacility is a facility row annotated with its great-circle distance in meters.
type NearbyFacility struct {
	ID       uint    `gorm:"column:facility_id" json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Address  string  `json:"address,omitempty"`
	Distance float64 `json:"distance"`
}
