package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRelativeAmount(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyCoins, Amount: 5}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 5, ch.Coins)

	require.Len(t, recs, 1)
	assert.Equal(t, EffectModifyCoins, recs[0].Type)
	assert.Equal(t, 0, recs[0].OldAmount)
	assert.Equal(t, 5, recs[0].NewAmount)
	assert.Equal(t, []string{"+5"}, recs[0].Comments)
	assert.Equal(t, ch.UUID, recs[0].EntityUUID)
	assert.NotEmpty(t, recs[0].UUID)
}

func TestApplyAbsoluteWinsOverRelative(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	// the absolute set sorts after the relative bumps, so it overwrites
	var recs []Record
	err := ec.Apply(ch, nil, []Effect{
		{Type: EffectModifyCoins, IsAbsolute: true, Amount: 10},
		{Type: EffectModifyCoins, Amount: 3},
	}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 10, ch.Coins)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"+3", "set to 10"}, recs[0].Comments)
}

func TestApplyCostEnforced(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Coins = 3

	var recs []Record
	err := ec.Apply(ch, []Effect{{Type: EffectModifyCoins, Amount: -5}}, nil, true, &recs)
	require.Error(t, err)
	assert.True(t, IsIllegalMove(err))
	assert.Contains(t, err.Error(), "you do not have enough coins")
}

func TestApplyCostUnenforcedClamps(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Coins = 3

	var recs []Record
	err := ec.Apply(ch, []Effect{{Type: EffectModifyCoins, Amount: -5}}, nil, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.Coins)
}

func TestApplyHealthClampsAtMax(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Health = 12

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyHealth, Amount: 50}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 20, ch.Health)
	require.Len(t, recs, 1)
	assert.Equal(t, 12, recs[0].OldAmount)
	assert.Equal(t, 20, recs[0].NewAmount)
}

func TestApplyHealthClampsAtZero(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyHealth, Amount: -50}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.Health)
}

func TestApplyCustomCommentKept(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyLuck, Amount: -1, Comment: "bribed the gatekeeper"}}, false, &recs)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"bribed the gatekeeper"}, recs[0].Comments)
}

func TestApplyTypedXP(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyXP, Subtype: "Riding", Amount: 5}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 5, ch.SkillXP["Riding"])
	require.Len(t, recs, 1)
	assert.Equal(t, "Riding", recs[0].Subtype)
}

func TestApplyUnassignedXPQueuesAssignCard(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyXP, Amount: 10}}, false, &recs)
	require.NoError(t, err)
	assert.Empty(t, ch.SkillXP)

	require.Len(t, ch.Queued, 1)
	card := ch.Queued[0]
	assert.Equal(t, "Assign XP", card.Name)
	require.NotNil(t, card.Choices)
	require.Len(t, card.Choices.List, len(store.game.Skills))
	for i, choice := range card.Choices.List {
		assert.Equal(t, store.game.Skills[i], choice.Name)
		require.Len(t, choice.Effects, 1)
		assert.Equal(t, 10, choice.Effects[0].Amount)
	}
}

func TestApplyResourceDraw(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	board.draws = []ResourceCard{
		{Name: "Timber Stand", Resource: "Timber", Value: 1},
		{Name: "Nothing"},
	}

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyResources, Amount: 2}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Resources["Timber"])

	meta := recordsOfType(recs, EffectModifyResources)
	require.NotEmpty(t, meta)
	assert.Equal(t, []string{"Timber Stand", "Nothing"}, meta[0].Comments)
	// the typed effect settles separately
	require.Len(t, meta, 2)
	assert.Equal(t, "Timber", meta[1].Subtype)
	assert.Equal(t, 1, meta[1].NewAmount)
}

func TestApplyResourceDiscard(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Resources["Timber"] = 2
	ch.Resources["Wine"] = 1

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyResources, Amount: -2}}, false, &recs)
	require.NoError(t, err)

	total := 0
	for _, cnt := range ch.Resources {
		total += cnt
	}
	assert.Equal(t, 1, total)
}

func TestApplyResourceDiscardAllWhenShort(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Resources["Wine"] = 1

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyResources, Amount: -3}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.Resources["Wine"])
}

func TestApplyTransportMovesWithinBand(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectTransport, Amount: 5}}, false, &recs)
	require.NoError(t, err)

	dist, err := board.Distance(ec.ctx, "origin", board.tokens[ch.UUID])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, dist, 3)
	assert.LessOrEqual(t, dist, 7)

	moves := recordsOfType(recs, EffectModifyLocation)
	require.Len(t, moves, 1)
	assert.Equal(t, "origin", moves[0].OldText)
	assert.Equal(t, board.tokens[ch.UUID], moves[0].NewText)
}

func TestApplyTransportNoLandingHex(t *testing.T) {
	store, board := newTestWorld()
	board.hexes = map[string]Hex{"origin": board.hexes["origin"]}
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectTransport, Amount: 5}}, false, &recs)
	require.Error(t, err)
	assert.True(t, IsBadState(err))
	assert.Contains(t, err.Error(), "no hex within transport range")
}

func TestApplyLocationMove(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectModifyLocation, Str: "east3"}}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, "east3", board.tokens[ch.UUID])
	moves := recordsOfType(recs, EffectModifyLocation)
	require.Len(t, moves, 1)
	assert.Equal(t, "origin", moves[0].OldText)
	assert.Equal(t, "east3", moves[0].NewText)
}

func TestApplyLeadershipQueuesChallenge(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectLeadership, Amount: -1}}, false, &recs)
	require.NoError(t, err)

	require.Len(t, ch.Queued, 1)
	card := ch.Queued[0]
	assert.Equal(t, CardSpecial, card.Kind)
	assert.Equal(t, SpecialLeadership, card.Special)
	assert.Equal(t, "-1", card.Annotations[AnnotationLeadershipDifficulty])
}

func TestApplyModifyJobLastWins(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.Reputation = 1
	ch.Tableau = []TableauCard{{Age: 2, Location: "origin"}}

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{
		{Type: EffectModifyJob, Str: "Farmhand"},
		{Type: EffectModifyJob, Str: "Pathfinder"},
	}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, "Pathfinder", ch.JobName)
	assert.Nil(t, ch.Tableau)
	assert.Nil(t, ch.JobDeck)
	assert.Equal(t, 3, ch.Reputation)

	jobs := recordsOfType(recs, EffectModifyJob)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Scout", jobs[0].OldText)
	assert.Equal(t, "Pathfinder", jobs[0].NewText)
}

func TestApplyAddTitleInsertsGadget(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	title := &Title{
		Name:     "Swamp Warden",
		Overlays: []Overlay{{Type: OverlayMaxHealth, Amount: 2}},
	}
	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectAddTitle, Title: title}}, false, &recs)
	require.NoError(t, err)

	require.Len(t, store.gadgets, 1)
	g := store.gadgets[0]
	assert.Equal(t, "Swamp Warden", g.Name)
	assert.Equal(t, ch.UUID, g.EntityUUID)
	assert.NotEmpty(t, g.UUID)
	require.Len(t, g.Overlays, 1)
	assert.NotEmpty(t, g.Overlays[0].UUID)

	titles := recordsOfType(recs, EffectAddTitle)
	require.Len(t, titles, 1)
	assert.Equal(t, "Swamp Warden", titles[0].NewText)

	// the overlay takes effect immediately
	mh, err := ec.MaxHealth(ch)
	require.NoError(t, err)
	assert.Equal(t, 22, mh)
}

func TestApplyQueueEncounterReifiesCard(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	tmpl := store.decks["ScoutDeck"][0]
	var recs []Record
	err := ec.Apply(ch, nil, []Effect{{Type: EffectQueueEncounter, Card: &tmpl}}, false, &recs)
	require.NoError(t, err)

	require.Len(t, ch.Queued, 1)
	card := ch.Queued[0]
	assert.Equal(t, "Patrol", card.Name)
	assert.Equal(t, ContextAction, card.Context)
	assert.Len(t, card.Checks, 3)
}

func TestApplyActivityFlag(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	require.NoError(t, ec.Apply(ch, nil, []Effect{{Type: EffectModifyActivity, Amount: -1}}, false, &recs))
	assert.True(t, ch.TurnFlags[FlagActed])

	require.NoError(t, ec.Apply(ch, nil, []Effect{{Type: EffectModifyActivity, Amount: 1}}, false, &recs))
	assert.False(t, ch.TurnFlags[FlagActed])
}

func TestApplyActivityCostEnforced(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	ch.TurnFlags[FlagActed] = true

	var recs []Record
	err := ec.Apply(ch, []Effect{{Type: EffectModifyActivity, Amount: -1}}, nil, true, &recs)
	require.Error(t, err)
	assert.True(t, IsIllegalMove(err))
}

func TestApplyRoutesToTargetCharacter(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")
	other := newTestCharacter(t, store, board, "bren")

	var recs []Record
	err := ec.Apply(ch, nil, []Effect{
		{Type: EffectModifyCoins, Amount: 5},
		{Type: EffectModifyCoins, Amount: 2, TargetUUID: other.UUID},
	}, false, &recs)
	require.NoError(t, err)
	assert.Equal(t, 5, ch.Coins)
	assert.Equal(t, 2, other.Coins)
	assert.Contains(t, store.saved, other.UUID)

	require.Len(t, recs, 2)
	assert.Equal(t, ch.UUID, recs[0].EntityUUID)
	assert.Equal(t, other.UUID, recs[1].EntityUUID)
}

func TestApplyEmptyEffectsNoop(t *testing.T) {
	store, board := newTestWorld()
	ec := newTestContext(t, store, board)
	ch := newTestCharacter(t, store, board, "alda")

	var recs []Record
	require.NoError(t, ec.Apply(ch, nil, nil, true, &recs))
	assert.Empty(t, recs)
}
