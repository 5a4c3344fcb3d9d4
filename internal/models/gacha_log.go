package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PrizeFacility = "facility"
	PrizeAdvice   = "advice"
	PrizeEvent    = "event"
	PrizeMaterial = "material"
)

// PrizeTypes is the fixed order in which candidate pools are assembled.
var PrizeTypes = []string{PrizeFacility, PrizeAdvice, PrizeEvent, PrizeMaterial}

// GachaLogEntry is the append-only audit row written once per successful spin.
type GachaLogEntry struct {
	SpinID     uint           `gorm:"column:spin_id;primaryKey" json:"spin_id"`
	CustomerID string         `gorm:"size:128;not null;index:idx_gacha_customer_date,priority:1" json:"customer_id"`
	PrizeType  string         `gorm:"size:16;not null;index" json:"prize_type"`
	PrizeID    uint           `gorm:"not null" json:"prize_id"`
	Policy     string         `gorm:"size:16;not null" json:"policy"`
	Meta       datatypes.JSON `json:"meta,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index;index:idx_gacha_customer_date,priority:2" json:"created_at"`
}

func (GachaLogEntry) TableName() string {
	return "gacha_logs"
}

// Prize is the descriptor of one drawable candidate.
type Prize struct {
	Type string `json:"type"`
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
