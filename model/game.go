package model

import (
	"time"

	"gorm.io/datatypes"
)

// Game holds the per-game configuration lists.
type Game struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name      string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Skills    datatypes.JSON `json:"skills"`
	Resources datatypes.JSON `json:"resources"`
	Zodiacs   datatypes.JSON `json:"zodiacs"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// Job is one occupation characters can hold.
type Job struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID               string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name               string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Type               string         `gorm:"size:16;not null" json:"type"`
	Rank               int            `gorm:"default:0" json:"rank"`
	Promotions         datatypes.JSON `json:"promotions"`
	DeckName           string         `gorm:"size:64;not null" json:"deck_name"`
	BaseSkills         datatypes.JSON `json:"base_skills"`
	EncounterDistances datatypes.JSON `json:"encounter_distances"`
}

// TemplateDeck is a named deck of template cards.
type TemplateDeck struct {
	ID    int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Cards datatypes.JSON `json:"cards"`
}

// HexDeckState is the drawn-down remainder of a terrain encounter deck,
// shared by every character traveling that terrain.
type HexDeckState struct {
	ID      int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Terrain string         `gorm:"uniqueIndex;size:64;not null" json:"terrain"`
	Cards   datatypes.JSON `json:"cards"`
}

func (HexDeckState) TableName() string { return "hex_deck_states" }
