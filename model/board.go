package model

import "gorm.io/datatypes"

// Hex is one board cell, addressed by cube coordinates (x+y+z = 0).
type Hex struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Terrain string `gorm:"size:64;not null" json:"terrain"`
	Country string `gorm:"index:idx_country;size:64;not null" json:"country"`
	X       int    `gorm:"index:idx_cube,priority:1;not null" json:"x"`
	Y       int    `gorm:"index:idx_cube,priority:2;not null" json:"y"`
	Z       int    `gorm:"index:idx_cube,priority:3;not null" json:"z"`
	Danger  int    `gorm:"default:0" json:"danger"`
}

// Country groups hexes and orders their resource richness: the first listed
// resource is plentiful, the second common, the rest scarce.
type Country struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Resources datatypes.JSON `json:"resources"`
}

// Token places an entity on the board.
type Token struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityUUID string `gorm:"uniqueIndex;size:36;not null" json:"entity_uuid"`
	Location   string `gorm:"size:64;not null" json:"location"`
}

// ResourceDeckState is the drawn-down remainder of a country's resource
// deck.
type ResourceDeckState struct {
	ID      int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Country string         `gorm:"uniqueIndex;size:64;not null" json:"country"`
	Cards   datatypes.JSON `json:"cards"`
}

func (ResourceDeckState) TableName() string { return "resource_deck_states" }
