package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillRankBreakpoints(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	for xp, want := range map[int]int{0: 0, 19: 0, 20: 1, 44: 1, 45: 2, 69: 2, 70: 3, 94: 3, 95: 4, 124: 4, 125: 5, 500: 5} {
		ch.SkillXP["Riding"] = xp
		rank, err := ec.SkillRank(ch, "Riding", false)
		require.NoError(t, err)
		assert.Equal(t, want, rank, "xp %d", xp)
	}
}

func TestSkillRankOverlay(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	store.gadgets = append(store.gadgets, Gadget{
		UUID:       "g1",
		Name:       "Fine Saddle",
		EntityUUID: ch.UUID,
		Overlays:   []Overlay{{UUID: "ov1", Type: OverlaySkillRank, Subtype: "Riding", Amount: 1}},
	})

	rank, err := ec.SkillRank(ch, "Riding", false)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	// skipOverlays reads the bare xp-derived rank
	rank, err = ec.SkillRank(ch, "Riding", true)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)

	// a different skill is untouched
	rank, err = ec.SkillRank(ch, "Archery", false)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)
}

func TestPrivateOverlayOnlyForOwner(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	other := newTestCharacter(t, store, board, "bren")
	store.gadgets = append(store.gadgets, Gadget{
		UUID:       "g1",
		Name:       "Lucky Charm",
		EntityUUID: other.UUID,
		Overlays:   []Overlay{{UUID: "ov1", Type: OverlayMaxLuck, Amount: 2, IsPrivate: true}},
	})

	got, err := ec.MaxLuck(ch)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = ec.MaxLuck(other)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestOverlayFilterGates(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	store.gadgets = append(store.gadgets, Gadget{
		UUID:       "g1",
		Name:       "Home Advantage",
		EntityUUID: ch.UUID,
		Overlays: []Overlay{{
			UUID:    "ov1",
			Type:    OverlayMaxHealth,
			Amount:  3,
			Filters: []Filter{{Type: FilterInCountry, Country: "Wild"}},
		}},
	})

	got, err := ec.MaxHealth(ch)
	require.NoError(t, err)
	assert.Equal(t, 20, got)

	require.NoError(t, board.MoveToken(ec.ctx, ch.UUID, "swamp", false))
	got, err = ec.MaxHealth(ch)
	require.NoError(t, err)
	assert.Equal(t, 23, got)
}

func TestJobTypeLimits(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	cases := []struct {
		job       string
		speed     int
		resources int
	}{
		{"Farmhand", 0, 1},
		{"Scout", 3, 3},
		{"Pathfinder", 2, 10},
		{"Warlord", 1, 100},
	}
	for _, tc := range cases {
		ch.JobName = tc.job
		speed, err := ec.InitSpeed(ch)
		require.NoError(t, err)
		assert.Equal(t, tc.speed, speed, tc.job)
		res, err := ec.MaxResources(ch)
		require.NoError(t, err)
		assert.Equal(t, tc.resources, res, tc.job)
	}
}

func TestSwitchJobResetsState(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Reputation = 0
	ch.Tableau = []TableauCard{{Age: 1, Location: "origin"}}
	ch.JobDeck = []TemplateCard{{Name: "Patrol"}}

	require.NoError(t, ec.SwitchJob(ch, "Pathfinder"))
	assert.Equal(t, "Pathfinder", ch.JobName)
	assert.Nil(t, ch.Tableau)
	assert.Nil(t, ch.JobDeck)
	assert.Equal(t, 3, ch.Reputation)
}

func TestSwitchJobUnknown(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	err := ec.SwitchJob(ch, "Astronaut")
	require.Error(t, err)
	assert.Equal(t, "Scout", ch.JobName)
}

func TestFindPromoteJob(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	promo, err := ec.FindPromoteJob(ch)
	require.NoError(t, err)
	assert.Equal(t, "Pathfinder", promo)

	ch.JobName = "Warlord"
	promo, err = ec.FindPromoteJob(ch)
	require.NoError(t, err)
	assert.Empty(t, promo)
}

func TestFindDemoteJobPrefersFeeder(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	// Farmhand is rank 0 and promotes into Scout
	demo, err := ec.FindDemoteJob(ch)
	require.NoError(t, err)
	assert.Equal(t, "Farmhand", demo)

	ch.JobName = "Pathfinder"
	demo, err = ec.FindDemoteJob(ch)
	require.NoError(t, err)
	assert.Equal(t, "Scout", demo)
}

func TestTriggerEffectsBySubtype(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	store.gadgets = append(store.gadgets, Gadget{
		UUID:       "g1",
		Name:       "Border Post",
		EntityUUID: ch.UUID,
		Triggers: []Trigger{
			{UUID: "tr1", Type: TriggerEnterHex, Subtype: "swamp", Effects: []Effect{{Type: EffectModifyHealth, Amount: -1}}},
			{UUID: "tr2", Type: TriggerEnterHex, Effects: []Effect{{Type: EffectModifyCoins, Amount: 1}}},
		},
	})

	effects, err := ec.RunTriggers(ch, TriggerEnterHex, "swamp")
	require.NoError(t, err)
	assert.Len(t, effects, 2)

	effects, err = ec.RunTriggers(ch, TriggerEnterHex, "east1")
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectModifyCoins, effects[0].Type)
}

func TestActionByUUID(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	store.gadgets = append(store.gadgets, Gadget{
		UUID:       "g1",
		Name:       "Field Kit",
		EntityUUID: ch.UUID,
		Triggers: []Trigger{{
			UUID:    "act1",
			Name:    "Patch Up",
			Type:    TriggerAction,
			Costs:   []Effect{{Type: EffectModifyCoins, Amount: -2}},
			Effects: []Effect{{Type: EffectModifyHealth, Amount: 3}},
		}},
	})

	action, err := ec.ActionByUUID(ch.UUID, "act1")
	require.NoError(t, err)
	assert.Equal(t, "Patch Up", action.Name)

	_, err = ec.ActionByUUID(ch.UUID, "nope")
	require.Error(t, err)
	assert.True(t, IsBadState(err))
}

func TestGadgetMemoInvalidation(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	got, err := ec.MaxLuck(ch)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	store.gadgets = append(store.gadgets, Gadget{
		UUID:       "g1",
		Name:       "Lucky Charm",
		EntityUUID: ch.UUID,
		Overlays:   []Overlay{{UUID: "ov1", Type: OverlayMaxLuck, Amount: 1}},
	})

	// the memoized view is stale until invalidated
	got, err = ec.MaxLuck(ch)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	ec.InvalidateGadgets(ch.UUID)
	got, err = ec.MaxLuck(ch)
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestCheckFiltersSkillGte(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.SkillXP["Riding"] = 50 // rank 2

	require.NoError(t, ec.CheckFilters(ch, []Filter{{Type: FilterSkillGte, Skill: "Riding", Value: 2}}))

	err := ec.CheckFilters(ch, []Filter{{Type: FilterSkillGte, Skill: "Riding", Value: 3}})
	require.Error(t, err)
	assert.True(t, IsIllegalMove(err))
	assert.Contains(t, err.Error(), "at least 3")

	err = ec.CheckFilters(ch, []Filter{{Type: FilterSkillGte, Skill: "Riding", Value: 2, Reverse: true}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "less than")
}

func TestCheckFiltersNearHex(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	require.NoError(t, ec.CheckFilters(ch, []Filter{{Type: FilterNearHex, Hex: "east2", Distance: 2}}))

	err := ec.CheckFilters(ch, []Filter{{Type: FilterNearHex, Hex: "east5", Distance: 2}})
	require.Error(t, err)
	assert.True(t, IsIllegalMove(err))
}

func TestCheckFiltersNearToken(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	other := newTestCharacter(t, store, board, "bren")
	require.NoError(t, board.MoveToken(ec.ctx, other.UUID, "east2", false))

	require.NoError(t, ec.CheckFilters(ch, []Filter{{Type: FilterNearToken, EntityUUID: other.UUID, Distance: 2}}))

	err := ec.CheckFilters(ch, []Filter{{Type: FilterNearToken, EntityUUID: other.UUID, Distance: 1}})
	require.Error(t, err)
	assert.True(t, IsIllegalMove(err))
}

func TestCheckFiltersInCountry(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	require.NoError(t, ec.CheckFilters(ch, []Filter{{Type: FilterInCountry, Country: "Bravado"}}))
	require.NoError(t, ec.CheckFilters(ch, []Filter{{Type: FilterInCountry, Country: "Wild", Reverse: true}}))

	err := ec.CheckFilters(ch, []Filter{{Type: FilterInCountry, Country: "Wild"}})
	require.Error(t, err)
	assert.True(t, IsIllegalMove(err))
}
