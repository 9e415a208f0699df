package rules

import (
	"fmt"
	"sort"
	"strconv"
)

// The effect engine. Incoming effects are bucketed by (type, subtype) and a
// fixed, ordered list of appliers repeatedly claims and settles buckets.
// Appliers may emit new effects into other buckets (a resource draw expands
// into per-resource effects, a transport expands into a location move); the
// outer loop runs until a full pass makes no progress. The applier order is
// part of the engine's determinism contract and must not be reshuffled.

type bucketKey struct {
	Type    EffectType
	Subtype string
}

type applyState struct {
	ec      *Context
	ch      *Character
	buckets map[bucketKey][]Effect
	records *[]Record
	enforce bool
}

func (st *applyState) emit(eff Effect) {
	key := bucketKey{eff.Type, eff.Subtype}
	st.buckets[key] = append(st.buckets[key], eff)
}

func (st *applyState) record(rec Record) {
	rec.UUID = newUUID()
	rec.EntityUUID = st.ch.UUID
	*st.records = append(*st.records, rec)
}

type applier interface {
	// claim returns the bucket keys this applier settles on this pass.
	claim(buckets map[bucketKey][]Effect) []bucketKey
	apply(st *applyState, key bucketKey, effects []Effect) error
}

// Apply runs costs and then effects against the character, returning one
// Record per settled mutation. Costs are enforced: if paying one would
// drive a field below its floor, the whole call fails with IllegalMove and
// nothing is recorded (the surrounding transaction discards any partial
// writes). Effects are never enforced; they clamp at the field's bounds.
//
// enforceCosts=false turns cost enforcement off entirely ("apply
// regardless"), used when the engine itself generates the cost.
func (ec *Context) Apply(ch *Character, costs, effects []Effect, enforceCosts bool, records *[]Record) error {
	if err := ec.applyShared(ch, costs, enforceCosts, records); err != nil {
		return err
	}
	return ec.applyShared(ch, effects, false, records)
}

func (ec *Context) applyShared(ch *Character, effects []Effect, enforce bool, records *[]Record) error {
	if len(effects) == 0 {
		return nil
	}

	var own []Effect
	others := make(map[string][]Effect)
	var otherOrder []string
	for _, eff := range effects {
		if eff.TargetUUID == "" || eff.TargetUUID == ch.UUID {
			own = append(own, eff)
			continue
		}
		if _, ok := others[eff.TargetUUID]; !ok {
			otherOrder = append(otherOrder, eff.TargetUUID)
		}
		others[eff.TargetUUID] = append(others[eff.TargetUUID], eff)
	}

	if len(own) > 0 {
		if err := ec.applyOne(ch, own, enforce, records); err != nil {
			return err
		}
	}
	for _, uuid := range otherOrder {
		other, err := ec.store.CharacterByUUID(ec.ctx, uuid)
		if err != nil {
			return err
		}
		if err := ec.applyOne(other, others[uuid], enforce, records); err != nil {
			return err
		}
		if err := ec.store.SaveCharacter(ec.ctx, other); err != nil {
			return err
		}
	}
	return nil
}

func (ec *Context) applyOne(ch *Character, effects []Effect, enforce bool, records *[]Record) error {
	st := &applyState{
		ec:      ec,
		ch:      ch,
		buckets: make(map[bucketKey][]Effect),
		records: records,
		enforce: enforce,
	}
	for _, eff := range effects {
		st.emit(eff)
	}

	appliers := engineAppliers()
	limit := 2 * len(appliers)
	for pass := 0; pass < limit && len(st.buckets) > 0; pass++ {
		progressed := false
		for _, a := range appliers {
			for _, key := range a.claim(st.buckets) {
				effs := st.buckets[key]
				delete(st.buckets, key)
				if len(effs) == 0 {
					continue
				}
				progressed = true
				if err := a.apply(st, key, effs); err != nil {
					return err
				}
			}
		}
		if !progressed {
			break
		}
	}
	if len(st.buckets) > 0 {
		keys := make([]string, 0, len(st.buckets))
		for k := range st.buckets {
			keys = append(keys, fmt.Sprintf("%s/%s", k.Type, k.Subtype))
		}
		sort.Strings(keys)
		panic(fmt.Sprintf("effects remaining unprocessed: %v", keys))
	}
	return nil
}

// sortBucket orders a bucket deterministically: relative adjustments first,
// absolute sets last (an absolute overwrite wins regardless of position),
// ties broken by amount so costs are paid from the pre-turn baseline rather
// than from benefits emitted this same call.
func sortBucket(effects []Effect) {
	sort.SliceStable(effects, func(i, j int) bool {
		if effects[i].IsAbsolute != effects[j].IsAbsolute {
			return !effects[i].IsAbsolute
		}
		return effects[i].Amount < effects[j].Amount
	})
}

// amountApplier settles one numeric bucket: fold the running value, clamp,
// write back via set. set reports whether the engine should emit the
// standard amount record; meta appliers record their own.
type amountApplier struct {
	name string
	typ  EffectType
	// fixed subtype; claimAll instead handles every subtyped bucket
	subtype  string
	claimAll bool
	get      func(st *applyState, subtype string) (int, error)
	set      func(st *applyState, subtype string, val int) (bool, error)
	min      func(st *applyState) (*int, error)
	max      func(st *applyState) (*int, error)
}

func (a *amountApplier) claim(buckets map[bucketKey][]Effect) []bucketKey {
	if !a.claimAll {
		key := bucketKey{a.typ, a.subtype}
		if _, ok := buckets[key]; ok {
			return []bucketKey{key}
		}
		return nil
	}
	var keys []bucketKey
	for k := range buckets {
		if k.Type == a.typ && k.Subtype != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Subtype < keys[j].Subtype })
	return keys
}

func (a *amountApplier) apply(st *applyState, key bucketKey, effects []Effect) error {
	sortBucket(effects)

	init, err := a.get(st, key.Subtype)
	if err != nil {
		return err
	}
	cur := init
	var comments []string
	for _, eff := range effects {
		if eff.IsAbsolute {
			cur = eff.Amount
			comments = append(comments, commentOr(eff, "set to "+strconv.Itoa(eff.Amount)))
		} else {
			cur += eff.Amount
			comments = append(comments, commentOr(eff, fmt.Sprintf("%+d", eff.Amount)))
		}
		if st.enforce && cur < 0 {
			return illegalMovef("you do not have enough %s to do this", a.displayName(key.Subtype))
		}
	}

	minv, maxv := intPtr(0), (*int)(nil)
	if a.min != nil {
		if minv, err = a.min(st); err != nil {
			return err
		}
	}
	if a.max != nil {
		if maxv, err = a.max(st); err != nil {
			return err
		}
	}
	cur = clamp(cur, minv, maxv)

	if cur == init && len(comments) == 0 {
		return nil
	}
	addRecord, err := a.set(st, key.Subtype, cur)
	if err != nil {
		return err
	}
	if addRecord {
		st.record(Record{
			Type:      a.typ,
			Subtype:   key.Subtype,
			OldAmount: init,
			NewAmount: cur,
			Comments:  comments,
		})
	}
	return nil
}

func (a *amountApplier) displayName(subtype string) string {
	if a.claimAll && subtype != "" {
		return subtype + " " + a.name
	}
	return a.name
}

func commentOr(eff Effect, def string) string {
	if eff.Comment != "" {
		return eff.Comment
	}
	return def
}
