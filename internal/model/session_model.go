package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MentorSession persists a full session aggregate as one JSONB document.
// The hot columns are duplicated out of the document for cheap filtering.
type MentorSession struct {
	Id            string         `gorm:"type:text;primaryKey"`
	CurrentNodeId string         `gorm:"type:text;not null;index"`
	CurrentPeriod int            `gorm:"not null;default:1"`
	MessageCount  int            `gorm:"not null;default:0"`
	Document      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (MentorSession) TableName() string {
	return "mentor_sessions"
}
