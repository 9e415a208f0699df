package rules

import "go.uber.org/zap"

// Turn and tableau control. A season is a fixed number of turns; each turn
// the tableau refills with job encounters placed on nearby hexes, and end of
// turn runs the bookkeeping gauntlet (triggers, reputation check, resource
// discard, tableau aging) with any queued encounter pausing it.

// StartSeason resets the season counters and starts the first turn.
func (ec *Context) StartSeason(ch *Character, records *[]Record) error {
	turns, err := ec.InitTurns(ch)
	if err != nil {
		return err
	}
	ch.RemainingTurns = turns
	luck, err := ec.MaxLuck(ch)
	if err != nil {
		return err
	}
	ch.Luck = luck
	return ec.StartTurn(ch, records)
}

// StartTurn resets speed and the turn flags and refills the tableau up to
// its size cap. Each refill draws the next job deck card, pins it to a hex
// at one of the job's encounter distances, and ages it from the initial age.
func (ec *Context) StartTurn(ch *Character, records *[]Record) error {
	speed, err := ec.InitSpeed(ch)
	if err != nil {
		return err
	}
	ch.Speed = speed
	ch.TurnFlags = make(map[TurnFlag]bool)

	maxSize, err := ec.MaxTableauSize(ch)
	if err != nil {
		return err
	}
	for len(ch.Tableau) < maxSize {
		job, err := ec.store.Job(ec.ctx, ch.JobName)
		if err != nil {
			return err
		}
		if len(ch.JobDeck) == 0 {
			if ch.JobDeck, err = ec.LoadDeck(job.DeckName); err != nil {
				return err
			}
			if len(ch.JobDeck) == 0 {
				return badStatef("job deck %s is empty", job.DeckName)
			}
		}

		dst := job.EncounterDistances[ec.rng.Intn(len(job.EncounterDistances))]
		neighbors, err := ec.board.FindEntityNeighbors(ec.ctx, ch.UUID, dst, dst)
		if err != nil {
			return err
		}
		if len(neighbors) == 0 {
			// character is off the board, no encounters for them
			break
		}

		tmpl := ch.JobDeck[0]
		ch.JobDeck = ch.JobDeck[1:]
		card, err := ec.ReifyCard(ch, tmpl, job.BaseSkills, job.Rank+1, ContextJob)
		if err != nil {
			return err
		}
		age, err := ec.InitTableauAge(ch)
		if err != nil {
			return err
		}
		ch.Tableau = append(ch.Tableau, TableauCard{
			Card:     card,
			Age:      age,
			Location: neighbors[ec.rng.Intn(len(neighbors))].Name,
		})
	}

	if err := ec.runTriggerEffects(ch, TriggerStartTurn, records); err != nil {
		return err
	}
	return ec.IntraTurn(ch)
}

// EndTurn runs the end-of-turn gauntlet. Every step that can queue an
// encounter is followed by a check; an active encounter stops the turn from
// ending until it is resolved, at which point the player calls EndTurn
// again and the once-per-turn flags skip the finished steps.
func (ec *Context) EndTurn(ch *Character, records *[]Record) error {
	if err := ec.IntraTurn(ch); err != nil {
		return err
	}
	if ch.Encounter != nil {
		return nil
	}

	if !ch.CheckSetFlag(FlagRanEndTurnTriggers) {
		if err := ec.runTriggerEffects(ch, TriggerEndTurn, records); err != nil {
			return err
		}
		if err := ec.IntraTurn(ch); err != nil {
			return err
		}
		if ch.Encounter != nil {
			return nil
		}
	}

	ec.queueBadReputationCheck(ch)
	if err := ec.IntraTurn(ch); err != nil {
		return err
	}
	if ch.Encounter != nil {
		return nil
	}

	if err := ec.queueDiscardResources(ch); err != nil {
		return err
	}
	if err := ec.IntraTurn(ch); err != nil {
		return err
	}
	if ch.Encounter != nil {
		return nil
	}

	// age out the tableau; cards too old or now too far away are dropped
	nearby := make(map[string]bool)
	neighbors, err := ec.board.FindEntityNeighbors(ec.ctx, ch.UUID, 0, 5)
	if err != nil {
		return err
	}
	for _, h := range neighbors {
		nearby[h.Name] = true
	}
	kept := ch.Tableau[:0]
	for _, t := range ch.Tableau {
		t.Age--
		if t.Age > 0 && nearby[t.Location] {
			kept = append(kept, t)
		}
	}
	ch.Tableau = kept

	ch.RemainingTurns--
	if ch.RemainingTurns > 0 {
		return ec.StartTurn(ch, records)
	}
	return ec.EndSeason(ch, records)
}

// EndSeason closes out the season. Deck state is dropped so the next season
// starts from fresh shuffles.
func (ec *Context) EndSeason(ch *Character, records *[]Record) error {
	ch.Tableau = nil
	ch.JobDeck = nil
	ch.TravelDeck = nil
	ch.CampDeck = nil
	ec.log.Info("season over", zap.String("character", ch.Name))
	return nil
}

// IntraTurn promotes the next queued card into the active encounter, if the
// slot is free.
func (ec *Context) IntraTurn(ch *Character) error {
	_, err := ec.EncounterCheck(ch)
	return err
}

// EncounterCheck reports whether an encounter is (now) active, promoting
// the head of the queue if needed.
func (ec *Context) EncounterCheck(ch *Character) (bool, error) {
	if ch.Encounter != nil {
		return true, nil
	}
	if len(ch.Queued) == 0 {
		return false, nil
	}
	card := ch.Queued[0]
	ch.Queued = ch.Queued[1:]
	enc, err := ec.MakeEncounter(ch, card)
	if err != nil {
		return false, err
	}
	ch.Encounter = enc
	return true, nil
}

func (ec *Context) runTriggerEffects(ch *Character, typ TriggerType, records *[]Record) error {
	effects, err := ec.RunTriggers(ch, typ, "")
	if err != nil {
		return err
	}
	return ec.Apply(ch, nil, effects, false, records)
}

// CreateCharacter builds a fresh character in the given job. The caller
// creates the board token and then starts the first season.
func (ec *Context) CreateCharacter(name, playerUUID, jobName string) (*Character, error) {
	ch := &Character{
		UUID:       newUUID(),
		Name:       name,
		PlayerUUID: playerUUID,
		JobName:    jobName,
		Resources:  make(map[string]int),
		SkillXP:    make(map[string]int),
		TurnFlags:  make(map[TurnFlag]bool),
	}
	if _, err := ec.store.Job(ec.ctx, jobName); err != nil {
		return nil, err
	}
	health, err := ec.MaxHealth(ch)
	if err != nil {
		return nil, err
	}
	ch.Health = health
	rep, err := ec.InitReputation(ch)
	if err != nil {
		return nil, err
	}
	ch.Reputation = rep
	return ch, nil
}
