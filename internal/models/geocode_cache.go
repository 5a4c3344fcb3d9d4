package models

import "time"

// GeocodeCache keeps postal-code lookups for a long TTL so they survive Redis flushes.
type GeocodeCache struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Zipcode   string    `gorm:"size:8;not null;uniqueIndex" json:"zipcode"`
	Lat       float64   `gorm:"not null" json:"lat"`
	Lng       float64   `gorm:"not null" json:"lng"`
	Address   string    `gorm:"size:255" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"-"`
}

func (GeocodeCache) TableName() string {
	return "geocode_cache"
}

// GeoPoint is a resolved postal code.
type GeoPoint struct {
	Zipcode string  `json:"zipcode"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}
