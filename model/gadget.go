package model

import (
	"time"

	"gorm.io/datatypes"
)

// Gadget is a bundle of overlays and triggers attached to an entity.
type Gadget struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID       string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name       string         `gorm:"size:64;not null" json:"name"`
	EntityUUID string         `gorm:"index:idx_gadget_entity;size:36;not null" json:"entity_uuid"`
	Overlays   datatypes.JSON `json:"overlays"`
	Triggers   datatypes.JSON `json:"triggers"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// Record is one immutable audit row describing a settled mutation.
type Record struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID       string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	EntityUUID string         `gorm:"index:idx_record_entity;size:36;not null" json:"entity_uuid"`
	Type       string         `gorm:"size:32;not null" json:"type"`
	Subtype    string         `gorm:"size:64" json:"subtype"`
	OldAmount  int            `json:"old_amount"`
	NewAmount  int            `json:"new_amount"`
	OldText    string         `gorm:"size:128" json:"old_text"`
	NewText    string         `gorm:"size:128" json:"new_text"`
	Comments   datatypes.JSON `json:"comments"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
