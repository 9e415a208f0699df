package rules

import (
	"fmt"
	"sort"
	"strconv"
)

// Encounter resolution. The client resolves encounters locally for
// responsiveness and submits the derived commands; the server replays them
// against its own stored rolls and rejects the submission on any mismatch.

// PerformCommands replays the submitted commands against the encounter and
// returns the costs and effects they settle to.
func (ec *Context) PerformCommands(ch *Character, enc *Encounter, commands EncounterCommands) (costs, effects []Effect, err error) {
	if commands.EncounterUUID != enc.Card.UUID {
		return nil, nil, badStatef("command uuid %s mismatch with expected uuid %s", commands.EncounterUUID, enc.Card.UUID)
	}
	switch enc.Card.Kind {
	case CardChallenge:
		return ec.performChallenge(ch, enc, commands)
	case CardChoice:
		return ec.performChoices(ch, enc, commands.Choices)
	default:
		panic("bad card kind in active encounter: " + string(enc.Card.Kind))
	}
}

func (ec *Context) performChallenge(ch *Character, enc *Encounter, commands EncounterCommands) ([]Effect, []Effect, error) {
	checks := enc.Card.Checks
	rolls := enc.EffectiveRolls()
	luckSpent := 0

	var costs, effects []Effect

	// rerun the commands to validate them, tracking the luck they cost
	for _, adj := range commands.Adjusts {
		if adj < 0 || adj >= len(rolls) {
			return nil, nil, badStatef("adjust out of range: %d", adj)
		}
		luckSpent++
		rolls[adj]++
	}
	for _, tr := range commands.Transfers {
		from, to := tr[0], tr[1]
		if from < 0 || from >= len(rolls) || to < 0 || to >= len(rolls) {
			return nil, nil, badStatef("transfer out of range: %d -> %d", from, to)
		}
		if rolls[from] < 2 {
			return nil, nil, badStatef("from roll not enough for transfer")
		}
		rolls[from] -= 2
		rolls[to]++
	}
	if commands.Flee {
		luckSpent++
	}

	if luckSpent != commands.LuckSpent {
		return nil, nil, badStatef("computed luck doesn't match: expected %d, got %d", luckSpent, commands.LuckSpent)
	}
	if len(rolls) != len(commands.Rolls) {
		return nil, nil, badStatef("computed rolls don't match: expected %v, got %v", rolls, commands.Rolls)
	}
	for i := range rolls {
		if rolls[i] != commands.Rolls[i] {
			return nil, nil, badStatef("computed rolls don't match: expected %v, got %v", rolls, commands.Rolls)
		}
	}

	if luckSpent > 0 {
		costs = append(costs, Effect{Type: EffectModifyLuck, Amount: -luckSpent, Comment: "encounter commands"})
	}
	if commands.Flee {
		return costs, effects, nil
	}

	counts := make(map[Outcome]int)
	var order []Outcome
	failures := 0
	for idx, check := range checks {
		oc := check.Reward
		if rolls[idx] < check.TargetNumber {
			oc = check.Penalty
			failures++
		}
		if counts[oc] == 0 {
			order = append(order, oc)
		}
		counts[oc]++
	}

	for _, oc := range order {
		ocEffects, err := ec.convertOutcome(ch, enc.Card, oc, counts[oc], checks[0].Skill)
		if err != nil {
			return nil, nil, err
		}
		effects = append(effects, ocEffects...)
	}
	// a consolation: failed checks teach the skill being tested
	if failures > 0 {
		effects = append(effects, Effect{Type: EffectModifyXP, Subtype: checks[0].Skill, Amount: failures})
	}
	return costs, effects, nil
}

// convertOutcome turns a tallied outcome into concrete effects. Repeat
// rewards scale triangularly (1, 3, 6, ...) so a run of successes on one
// card pays off much better than the same successes spread across cards.
func (ec *Context) convertOutcome(ch *Character, card FullCard, outcome Outcome, cnt int, defaultSkill string) ([]Effect, error) {
	sumTil := func(v int) int { return (v*v + v) / 2 }
	switch outcome {
	case OutcomeGainCoins:
		return []Effect{{Type: EffectModifyCoins, Amount: sumTil(cnt)}}, nil
	case OutcomeLoseCoins:
		return []Effect{{Type: EffectModifyCoins, Amount: -cnt}}, nil
	case OutcomeGainReputation:
		return []Effect{{Type: EffectModifyReputation, Amount: sumTil(cnt)}}, nil
	case OutcomeLoseReputation:
		return []Effect{{Type: EffectModifyReputation, Amount: -cnt}}, nil
	case OutcomeGainHealing:
		return []Effect{{Type: EffectModifyHealth, Amount: cnt * 3}}, nil
	case OutcomeDamage:
		return []Effect{{Type: EffectModifyHealth, Amount: -sumTil(cnt)}}, nil
	case OutcomeGainXP:
		return []Effect{{Type: EffectModifyXP, Subtype: defaultSkill, Amount: cnt * 5}}, nil
	case OutcomeGainResources:
		return []Effect{{Type: EffectModifyResources, Amount: cnt}}, nil
	case OutcomeLoseResources:
		return []Effect{{Type: EffectModifyResources, Amount: -cnt}}, nil
	case OutcomeGainTurns:
		return []Effect{{Type: EffectModifyTurns, Amount: cnt}}, nil
	case OutcomeLoseTurns:
		return []Effect{{Type: EffectModifyTurns, Amount: -cnt}}, nil
	case OutcomeGainSpeed:
		return []Effect{{Type: EffectModifySpeed, Amount: cnt * 2}}, nil
	case OutcomeLoseSpeed:
		return []Effect{{Type: EffectModifySpeed, Amount: -cnt}}, nil
	case OutcomeTransport:
		return []Effect{{Type: EffectTransport, Amount: cnt * 5}}, nil
	case OutcomeLoseLeadership:
		return []Effect{{Type: EffectLeadership, Amount: -cnt}}, nil
	case OutcomeVictory:
		return ec.convertVictory(ch, card, cnt)
	case OutcomeNothing:
		return nil, nil
	default:
		panic("unknown outcome: " + string(outcome))
	}
}

// convertVictory settles a leadership challenge. Any victory holds the
// current post; victories on an opportunity (positive difficulty) promote,
// while a total failure demotes.
func (ec *Context) convertVictory(ch *Character, card FullCard, victories int) ([]Effect, error) {
	if card.Annotations[AnnotationVictory] != SpecialLeadership {
		return nil, badStatef("victory outcome on non-leadership card %s", card.Name)
	}
	difficulty, _ := strconv.Atoi(card.Annotations[AnnotationLeadershipDifficulty])

	if victories <= 0 {
		demotion, err := ec.FindDemoteJob(ch)
		if err != nil {
			return nil, err
		}
		if demotion == "" || demotion == ch.JobName {
			return []Effect{{Type: EffectModifyReputation, Amount: -2, Comment: "leadership challenge failed"}}, nil
		}
		return []Effect{{Type: EffectModifyJob, Str: demotion, Comment: "leadership challenge failed"}}, nil
	}

	if difficulty <= 0 {
		// position held, nothing changes
		return nil, nil
	}
	promotion, err := ec.FindPromoteJob(ch)
	if err != nil {
		return nil, err
	}
	if promotion == "" {
		return []Effect{{Type: EffectModifyReputation, Amount: 2, Comment: "no higher post to rise to"}}, nil
	}
	promoCard, err := ec.makePromoCard(ch.JobName)
	if err != nil {
		return nil, err
	}
	ch.Queued = append(ch.Queued, promoCard)
	return []Effect{{Type: EffectModifyJob, Str: promotion, Comment: "leadership opportunity seized"}}, nil
}

func (ec *Context) performChoices(ch *Character, enc *Encounter, selections map[int]int) ([]Effect, []Effect, error) {
	choices := enc.Card.Choices
	if choices == nil {
		panic("choice encounter without choices payload: " + enc.Card.Name)
	}

	if choices.IsRandom {
		rolled := make(map[int]int)
		for _, seq := range enc.Rolls {
			if len(seq) > 0 {
				rolled[seq[len(seq)-1]-1]++
			}
		}
		if len(rolled) != len(selections) {
			return nil, nil, badStatef("choice should match roll for random (%v, %v)", rolled, selections)
		}
		for idx, cnt := range rolled {
			if selections[idx] != cnt {
				return nil, nil, badStatef("choice should match roll for random (%v, %v)", rolled, selections)
			}
		}
	}

	idxs := make([]int, 0, len(selections))
	for idx := range selections {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	tot := 0
	for _, idx := range idxs {
		if idx < 0 || idx >= len(choices.List) {
			return nil, nil, badStatef("choice out of range: %d", idx)
		}
		choice := choices.List[idx]
		cnt := selections[idx]
		tot += cnt
		if cnt < choice.MinChoices {
			return nil, nil, illegalMovef("must choose %s at least %s", choiceName(choice), withS(choice.MinChoices, "time"))
		}
		if cnt > choice.MaxTimes() {
			return nil, nil, illegalMovef("must choose %s at most %s", choiceName(choice), withS(choice.MaxTimes(), "time"))
		}
	}
	if tot < choices.MinChoices {
		return nil, nil, illegalMovef("must select at least %s", withS(choices.MinChoices, "choice"))
	}
	if tot > choices.MaxChoices {
		return nil, nil, illegalMovef("must select at most %s", withS(choices.MaxChoices, "choice"))
	}

	var costs, effects []Effect
	if len(selections) > 0 {
		costs = append(costs, choices.Costs...)
		effects = append(effects, choices.Effects...)
	}
	for _, idx := range idxs {
		choice := choices.List[idx]
		for i := 0; i < selections[idx]; i++ {
			costs = append(costs, choice.Costs...)
			effects = append(effects, choice.Effects...)
		}
	}
	return costs, effects, nil
}

func choiceName(c Choice) string {
	if c.Name != "" {
		return c.Name
	}
	return "this"
}

func withS(cnt int, noun string) string {
	if cnt == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", cnt, noun)
}
