package rules

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

func newUUID() string { return uuid.NewString() }

// engineAppliers returns the engine's applier list in settlement order. Meta
// appliers sit ahead of the plain amount appliers they expand into, so one
// pass normally settles everything.
func engineAppliers() []applier {
	return []applier{
		newLeadershipApplier(),
		&modifyJobApplier{},
		&resourceApplier{},
		newTransportApplier(),
		&modifyLocationApplier{},
		newActivityApplier(),
		simpleAmount("coins", EffectModifyCoins,
			func(ch *Character) int { return ch.Coins },
			func(ch *Character, v int) { ch.Coins = v },
			nil),
		&addTitleApplier{},
		&queueEncounterApplier{},
		simpleAmount("luck", EffectModifyLuck,
			func(ch *Character) int { return ch.Luck },
			func(ch *Character, v int) { ch.Luck = v },
			nil),
		simpleAmount("reputation", EffectModifyReputation,
			func(ch *Character) int { return ch.Reputation },
			func(ch *Character, v int) { ch.Reputation = v },
			nil),
		simpleAmount("health", EffectModifyHealth,
			func(ch *Character) int { return ch.Health },
			func(ch *Character, v int) { ch.Health = v },
			func(st *applyState) (*int, error) {
				mh, err := st.ec.MaxHealth(st.ch)
				if err != nil {
					return nil, err
				}
				return &mh, nil
			}),
		simpleAmount("turns", EffectModifyTurns,
			func(ch *Character) int { return ch.RemainingTurns },
			func(ch *Character, v int) { ch.RemainingTurns = v },
			nil),
		// speed resets to its init value each turn but may run over within
		// one turn
		simpleAmount("speed", EffectModifySpeed,
			func(ch *Character) int { return ch.Speed },
			func(ch *Character, v int) { ch.Speed = v },
			nil),
		&xpApplier{},
	}
}

func simpleAmount(name string, typ EffectType, get func(*Character) int, set func(*Character, int), max func(*applyState) (*int, error)) *amountApplier {
	return &amountApplier{
		name:    name,
		typ:     typ,
		subtype: "",
		get: func(st *applyState, _ string) (int, error) {
			return get(st.ch), nil
		},
		set: func(st *applyState, _ string, v int) (bool, error) {
			set(st.ch, v)
			return true, nil
		},
		max: max,
	}
}

// ---------------------------------------------------------------------------
// leadership

// A leadership effect does not move a number; its folded amount becomes the
// difficulty of a queued leadership challenge card, actualized when drawn.
func newLeadershipApplier() *amountApplier {
	return &amountApplier{
		name: "leadership challenge",
		typ:  EffectLeadership,
		get:  func(*applyState, string) (int, error) { return 0, nil },
		set: func(st *applyState, _ string, val int) (bool, error) {
			st.ch.Queued = append(st.ch.Queued, FullCard{
				UUID:        newUUID(),
				Name:        "Leadership Challenge",
				Desc:        "A challenge to (or opportunity for) your leadership.",
				Kind:        CardSpecial,
				Special:     SpecialLeadership,
				Annotations: map[string]string{AnnotationLeadershipDifficulty: strconv.Itoa(val)},
			})
			return true, nil
		},
		min: func(*applyState) (*int, error) { return intPtr(-20), nil },
		max: func(*applyState) (*int, error) { return intPtr(20), nil },
	}
}

// ---------------------------------------------------------------------------
// job

type modifyJobApplier struct{}

func (a *modifyJobApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	return textClaim(buckets, EffectModifyJob)
}

// Only the last job effect wins; switching through intermediate jobs would
// wrongly reset reputation more than once.
func (a *modifyJobApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	eff := effects[len(effects)-1]
	oldJob := st.ch.JobName
	if err := st.ec.SwitchJob(st.ch, eff.Str); err != nil {
		return err
	}
	st.record(Record{
		Type:     EffectModifyJob,
		OldText:  oldJob,
		NewText:  st.ch.JobName,
		Comments: commentList(eff),
	})
	return nil
}

// ---------------------------------------------------------------------------
// resources

// resourceApplier settles the whole modify_resources family. The untyped
// bucket is the meta form: a positive total draws from the local resource
// deck, a negative total discards random held units; both expand into typed
// effects settled later in the same pass.
type resourceApplier struct{}

func (a *resourceApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	return familyClaim(buckets, EffectModifyResources)
}

func (a *resourceApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	if key.Subtype != "" {
		inner := &amountApplier{
			name:    "resources",
			typ:     EffectModifyResources,
			subtype: key.Subtype,
			get: func(st *applyState, sub string) (int, error) {
				return st.ch.Resources[sub], nil
			},
			set: func(st *applyState, sub string, v int) (bool, error) {
				st.ch.Resources[sub] = v
				return true, nil
			},
		}
		return inner.apply(st, key, effects)
	}

	sortBucket(effects)
	val := 0
	for _, eff := range effects {
		if eff.IsAbsolute {
			panic("absolute untyped resource effects are not supported")
		}
		val += eff.Amount
	}
	switch {
	case val > 0:
		return a.draw(st, val)
	case val < 0:
		return a.discard(st, val)
	}
	return nil
}

func (a *resourceApplier) draw(st *applyState, val int) error {
	loc, err := st.ec.board.TokenHex(st.ec.ctx, st.ch.UUID)
	if err != nil {
		return err
	}
	var comments []string
	for i := 0; i < val; i++ {
		draw, err := st.ec.board.DrawResourceCard(st.ec.ctx, loc.Name)
		if err != nil {
			return err
		}
		if draw.Value != 0 {
			st.emit(Effect{
				Type:    EffectModifyResources,
				Subtype: draw.Resource,
				Amount:  draw.Value,
			})
		}
		comments = append(comments, draw.Name)
	}
	st.record(Record{
		Type:      EffectModifyResources,
		OldAmount: 0,
		NewAmount: val,
		Comments:  comments,
	})
	return nil
}

func (a *resourceApplier) discard(st *applyState, val int) error {
	var held []string
	for _, rs := range sortedKeys(st.ch.Resources) {
		for i := 0; i < st.ch.Resources[rs]; i++ {
			held = append(held, rs)
		}
	}
	toDrop := held
	if len(held) > -val {
		st.ec.rng.Shuffle(len(held), func(i, j int) { held[i], held[j] = held[j], held[i] })
		toDrop = held[:-val]
	}
	drops := make(map[string]int)
	for _, rs := range toDrop {
		drops[rs]++
	}
	var comments []string
	for _, rs := range sortedKeys(drops) {
		cnt := drops[rs]
		st.emit(Effect{
			Type:    EffectModifyResources,
			Subtype: rs,
			Amount:  -cnt,
			Comment: fmt.Sprintf("random pick %d", -cnt),
		})
		comments = append(comments, fmt.Sprintf("%s x%d", rs, cnt))
	}
	st.record(Record{
		Type:      EffectModifyResources,
		OldAmount: 0,
		NewAmount: val,
		Comments:  comments,
	})
	return nil
}

// ---------------------------------------------------------------------------
// transport

// A transport effect flings the character roughly its amount in hexes away;
// the landing hex is random within a widening band and the move itself is
// settled by the location applier.
func newTransportApplier() *amountApplier {
	return &amountApplier{
		name: "transport",
		typ:  EffectTransport,
		get:  func(*applyState, string) (int, error) { return 0, nil },
		set: func(st *applyState, _ string, val int) (bool, error) {
			if val <= 0 {
				return false, nil
			}
			mod := val/5 + 1
			tpMin := clamp(val-mod, intPtr(1), nil)
			tpMax := val + mod
			hexes, err := st.ec.board.FindEntityNeighbors(st.ec.ctx, st.ch.UUID, tpMin, tpMax)
			if err != nil {
				return false, err
			}
			if len(hexes) == 0 {
				return false, badStatef("no hex within transport range %d-%d", tpMin, tpMax)
			}
			dest := hexes[st.ec.rng.Intn(len(hexes))]
			st.emit(Effect{
				Type:    EffectModifyLocation,
				Str:     dest.Name,
				Comment: fmt.Sprintf("random %d-%d hex transport", tpMin, tpMax),
			})
			return false, nil
		},
	}
}

// ---------------------------------------------------------------------------
// location

type modifyLocationApplier struct{}

func (a *modifyLocationApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	return textClaim(buckets, EffectModifyLocation)
}

func (a *modifyLocationApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	eff := effects[len(effects)-1]
	old, err := st.ec.board.TokenHex(st.ec.ctx, st.ch.UUID)
	if err != nil {
		return err
	}
	if err := st.ec.board.MoveToken(st.ec.ctx, st.ch.UUID, eff.Str, false); err != nil {
		return err
	}
	cur, err := st.ec.board.TokenHex(st.ec.ctx, st.ch.UUID)
	if err != nil {
		return err
	}
	st.record(Record{
		Type:     EffectModifyLocation,
		OldText:  old.Name,
		NewText:  cur.Name,
		Comments: commentList(eff),
	})
	return nil
}

// ---------------------------------------------------------------------------
// activity

// The activity pseudo-field reads 1 while the character may still act this
// turn and 0 once they have; writing it flips the acted flag.
func newActivityApplier() *amountApplier {
	return &amountApplier{
		name: "available activity",
		typ:  EffectModifyActivity,
		get: func(st *applyState, _ string) (int, error) {
			if st.ch.TurnFlags[FlagActed] {
				return 0, nil
			}
			return 1, nil
		},
		set: func(st *applyState, _ string, val int) (bool, error) {
			if val <= 0 {
				st.ch.TurnFlags[FlagActed] = true
			} else {
				delete(st.ch.TurnFlags, FlagActed)
			}
			return true, nil
		},
	}
}

// ---------------------------------------------------------------------------
// titles

type addTitleApplier struct{}

func (a *addTitleApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	return textClaim(buckets, EffectAddTitle)
}

func (a *addTitleApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	for _, eff := range effects {
		if eff.Title == nil {
			panic("add_title effect without a title payload")
		}
		g := Gadget{
			UUID:       newUUID(),
			Name:       eff.Title.Name,
			EntityUUID: st.ch.UUID,
			Overlays:   eff.Title.Overlays,
			Triggers:   eff.Title.Triggers,
		}
		for i := range g.Overlays {
			if g.Overlays[i].UUID == "" {
				g.Overlays[i].UUID = newUUID()
			}
		}
		for i := range g.Triggers {
			if g.Triggers[i].UUID == "" {
				g.Triggers[i].UUID = newUUID()
			}
		}
		if err := st.ec.store.InsertGadget(st.ec.ctx, g); err != nil {
			return err
		}
		st.ec.InvalidateGadgets(st.ch.UUID)
		st.record(Record{
			Type:     EffectAddTitle,
			NewText:  eff.Title.Name,
			Comments: commentList(eff),
		})
	}
	return nil
}

// ---------------------------------------------------------------------------
// queued encounters

type queueEncounterApplier struct{}

func (a *queueEncounterApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	return textClaim(buckets, EffectQueueEncounter)
}

func (a *queueEncounterApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	for _, eff := range effects {
		if eff.Card == nil {
			panic("queue_encounter effect without a card payload")
		}
		card, err := st.ec.ReifyCard(st.ch, *eff.Card, nil, 1, ContextAction)
		if err != nil {
			return err
		}
		st.ch.Queued = append(st.ch.Queued, card)
		st.record(Record{
			Type:     EffectQueueEncounter,
			NewText:  eff.Card.Name,
			Comments: commentList(eff),
		})
	}
	return nil
}

// ---------------------------------------------------------------------------
// xp

// xpApplier settles the modify_xp family: typed buckets adjust one skill's
// xp, the untyped bucket is unassigned xp and queues an assignment card.
type xpApplier struct{}

func (a *xpApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	return familyClaim(buckets, EffectModifyXP)
}

func (a *xpApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	if key.Subtype != "" {
		inner := &amountApplier{
			name:    "xp",
			typ:     EffectModifyXP,
			subtype: key.Subtype,
			get: func(st *applyState, sub string) (int, error) {
				return st.ch.SkillXP[sub], nil
			},
			set: func(st *applyState, sub string, v int) (bool, error) {
				st.ch.SkillXP[sub] = v
				return true, nil
			},
		}
		return inner.apply(st, key, effects)
	}
	inner := &amountApplier{
		name: "unassigned xp",
		typ:  EffectModifyXP,
		get:  func(*applyState, string) (int, error) { return 0, nil },
		set: func(st *applyState, _ string, val int) (bool, error) {
			if val <= 0 {
				return false, nil
			}
			card, err := makeAssignXPCard(st.ec, val)
			if err != nil {
				return false, err
			}
			st.ch.Queued = append(st.ch.Queued, card)
			return true, nil
		},
	}
	return inner.apply(st, key, effects)
}

// ---------------------------------------------------------------------------
// claim helpers

func textClaim(buckets map[bucketKey][]Effect, typ EffectType) []bucketKey {
	key := bucketKey{typ, ""}
	if _, ok := buckets[key]; ok {
		return []bucketKey{key}
	}
	return nil
}

// familyClaim claims every bucket of the type, the untyped meta bucket
// first so its expansions settle in the same pass.
func familyClaim(buckets map[bucketKey][]Effect, typ EffectType) []bucketKey {
	var keys []bucketKey
	for k := range buckets {
		if k.Type == typ {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Subtype < keys[j].Subtype })
	return keys
}

func commentList(eff Effect) []string {
	if eff.Comment == "" {
		return nil
	}
	return []string{eff.Comment}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
