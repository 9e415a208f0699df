package model

import (
	"time"

	"gorm.io/datatypes"
)

// Character is the persisted form of a player character. Scalar turn state
// lives in columns; the card piles and other nested structures are stored
// as JSON blobs, since the engine always loads and saves a character whole.
type Character struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID           string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name           string         `gorm:"uniqueIndex;size:32;not null" json:"name"`
	PlayerUUID     string         `gorm:"index:idx_player;size:36;not null" json:"player_uuid"`
	JobName        string         `gorm:"size:64;not null" json:"job_name"`
	Health         int            `gorm:"not null" json:"health"`
	Coins          int            `gorm:"default:0" json:"coins"`
	Reputation     int            `gorm:"default:0" json:"reputation"`
	Luck           int            `gorm:"default:0" json:"luck"`
	Speed          int            `gorm:"default:0" json:"speed"`
	RemainingTurns int            `gorm:"default:0" json:"remaining_turns"`
	Resources      datatypes.JSON `json:"resources"`
	SkillXP        datatypes.JSON `json:"skill_xp"`
	TurnFlags      datatypes.JSON `json:"turn_flags"`
	Tableau        datatypes.JSON `json:"tableau"`
	Encounter      datatypes.JSON `json:"encounter"`
	Queued         datatypes.JSON `json:"queued"`
	JobDeck        datatypes.JSON `json:"job_deck"`
	TravelDeck     datatypes.JSON `json:"travel_deck"`
	CampDeck       datatypes.JSON `json:"camp_deck"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
