package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/calybre/wayfarer/model"
	"github.com/calybre/wayfarer/testutil"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Account
	acc := &model.Account{UUID: "player-1", Username: "test_user", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(acc).Error)
	assert.Greater(t, acc.ID, int64(0))

	var found model.Account
	require.NoError(t, db.First(&found, acc.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	// Game
	game := &model.Game{UUID: "game-1", Name: "Demo", Skills: datatypes.JSON(`["Riding"]`)}
	require.NoError(t, db.Create(game).Error)

	// Job
	job := &model.Job{UUID: "job-1", Name: "Scout", Rank: 1, DeckName: "Scout"}
	require.NoError(t, db.Create(job).Error)

	// Board
	hex := &model.Hex{Name: "AA01", Terrain: "Forest", Country: "Wild", X: 0, Y: 0, Z: 0}
	require.NoError(t, db.Create(hex).Error)
	token := &model.Token{EntityUUID: "ch-1", Location: "AA01"}
	require.NoError(t, db.Create(token).Error)
	country := &model.Country{Name: "Wild", Resources: datatypes.JSON(`[]`)}
	require.NoError(t, db.Create(country).Error)

	// Character
	char := &model.Character{
		UUID:       "ch-1",
		Name:       "Hero",
		PlayerUUID: acc.UUID,
		JobName:    "Scout",
		Health:     20,
	}
	require.NoError(t, db.Create(char).Error)
	assert.Greater(t, char.ID, int64(0))

	// Gadget
	gadget := &model.Gadget{UUID: "g-1", Name: "Veteran Scout", EntityUUID: char.UUID}
	require.NoError(t, db.Create(gadget).Error)

	// Record
	rec := &model.Record{UUID: "r-1", EntityUUID: char.UUID, Type: "modify_coins", NewAmount: 5}
	require.NoError(t, db.Create(rec).Error)

	// Deck states
	hd := &model.HexDeckState{Terrain: "Forest", Cards: datatypes.JSON(`[]`)}
	require.NoError(t, db.Create(hd).Error)
	rd := &model.ResourceDeckState{Country: "Wild", Cards: datatypes.JSON(`[]`)}
	require.NoError(t, db.Create(rd).Error)

	var chars []model.Character
	require.NoError(t, db.Where("player_uuid = ?", acc.UUID).Find(&chars).Error)
	assert.Len(t, chars, 1)
}
