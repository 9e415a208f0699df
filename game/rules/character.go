package rules

// Derived character values. Every getter starts from a base value and folds
// in matching overlays, clamped to a sane range.

// SkillRank converts xp into a rank (breakpoints 20/45/70/95/125) and
// applies skill-rank overlays unless skipOverlays is set. Overlay filter
// evaluation itself asks for ranks with skipOverlays=true, so a rank-gated
// rank overlay cannot loop.
func (ec *Context) SkillRank(ch *Character, skill string, skipOverlays bool) (int, error) {
	xp := ch.SkillXP[skill]
	var base int
	switch {
	case xp < 20:
		base = 0
	case xp < 45:
		base = 1
	case xp < 70:
		base = 2
	case xp < 95:
		base = 3
	case xp < 125:
		base = 4
	default:
		base = 5
	}
	if skipOverlays {
		return base, nil
	}
	return ec.clampOverlay(ch, base, OverlaySkillRank, skill, intPtr(0), intPtr(6))
}

// ReliableSkill returns the reroll floor for the skill (0 = no reroll).
func (ec *Context) ReliableSkill(ch *Character, skill string) (int, error) {
	return ec.clampOverlay(ch, 0, OverlayReliableSkill, skill, intPtr(0), intPtr(4))
}

func (ec *Context) InitTurns(ch *Character) (int, error) {
	return ec.clampOverlay(ch, 20, OverlayInitTurns, "", intPtr(10), intPtr(40))
}

func (ec *Context) MaxLuck(ch *Character) (int, error) {
	return ec.clampOverlay(ch, 5, OverlayMaxLuck, "", intPtr(0), intPtr(10))
}

func (ec *Context) MaxTableauSize(ch *Character) (int, error) {
	return ec.clampOverlay(ch, 3, OverlayMaxTableauSize, "", intPtr(1), intPtr(6))
}

func (ec *Context) InitTableauAge(ch *Character) (int, error) {
	return ec.clampOverlay(ch, 3, OverlayInitTableauAge, "", intPtr(1), intPtr(10))
}

func (ec *Context) MaxHealth(ch *Character) (int, error) {
	return ec.clampOverlay(ch, 20, OverlayMaxHealth, "", intPtr(1), intPtr(40))
}

func (ec *Context) InitReputation(ch *Character) (int, error) {
	return ec.clampOverlay(ch, 3, OverlayInitReputation, "", intPtr(0), intPtr(10))
}

// TradePrice is the coins-per-unit price for one resource at a trade card.
func (ec *Context) TradePrice(ch *Character, resource string) (int, error) {
	return ec.clampOverlay(ch, 5, OverlayTradePrice, resource, intPtr(1), intPtr(10))
}

// MaxResources is the inventory cap, set by the job type.
func (ec *Context) MaxResources(ch *Character) (int, error) {
	job, err := ec.store.Job(ec.ctx, ch.JobName)
	if err != nil {
		return 0, err
	}
	var base int
	switch job.Type {
	case JobLackey:
		base = 1
	case JobSolo:
		base = 3
	case JobCaptain:
		base = 10
	case JobKing:
		base = 100
	default:
		panic("unknown job type: " + string(job.Type))
	}
	return ec.clampOverlay(ch, base, OverlayMaxResources, "", intPtr(0), nil)
}

// InitSpeed is the per-turn speed reset value, set by the job type. Lackeys
// do not travel.
func (ec *Context) InitSpeed(ch *Character) (int, error) {
	job, err := ec.store.Job(ec.ctx, ch.JobName)
	if err != nil {
		return 0, err
	}
	var base int
	switch job.Type {
	case JobLackey:
		return 0, nil
	case JobSolo:
		base = 3
	case JobCaptain:
		base = 2
	case JobKing:
		base = 1
	default:
		panic("unknown job type: " + string(job.Type))
	}
	return ec.clampOverlay(ch, base, OverlayInitSpeed, "", intPtr(0), nil)
}

func (ec *Context) clampOverlay(ch *Character, base int, typ OverlayType, subtype string, min, max *int) (int, error) {
	adj, err := ec.OverlayValue(ch.UUID, typ, subtype, func(f Filter) (bool, error) {
		return ec.checkFilter(ch, f, checkOpts{skipOverlays: true})
	})
	if err != nil {
		return 0, err
	}
	return clamp(base+adj, min, max), nil
}

// RunTriggers collects the effects of every matching trigger for the event.
func (ec *Context) RunTriggers(ch *Character, typ TriggerType, subtype string) ([]Effect, error) {
	return ec.TriggerEffects(ch.UUID, typ, subtype, func(f Filter) (bool, error) {
		return ec.checkFilter(ch, f, checkOpts{skipOverlays: true})
	})
}

// SwitchJob moves the character to a new job, discarding the tableau and
// job deck and resetting reputation.
func (ec *Context) SwitchJob(ch *Character, jobName string) error {
	if _, err := ec.store.Job(ec.ctx, jobName); err != nil {
		return err
	}
	ch.JobName = jobName
	ch.Tableau = nil
	ch.JobDeck = nil
	rep, err := ec.InitReputation(ch)
	if err != nil {
		return err
	}
	ch.Reputation = rep
	return nil
}

// FindPromoteJob picks a random promotion target of the current job, or ""
// if the job has none.
func (ec *Context) FindPromoteJob(ch *Character) (string, error) {
	job, err := ec.store.Job(ec.ctx, ch.JobName)
	if err != nil {
		return "", err
	}
	if len(job.Promotions) == 0 {
		return "", nil
	}
	return job.Promotions[ec.rng.Intn(len(job.Promotions))], nil
}

// FindDemoteJob picks a job one rank below the current one, preferring jobs
// that promote into it, falling back to any rank-0 job.
func (ec *Context) FindDemoteJob(ch *Character) (string, error) {
	cur, err := ec.store.Job(ec.ctx, ch.JobName)
	if err != nil {
		return "", err
	}
	all, err := ec.store.Jobs(ec.ctx)
	if err != nil {
		return "", err
	}
	var lowers, prevs []*Job
	for _, j := range all {
		if j.Rank != cur.Rank-1 {
			continue
		}
		lowers = append(lowers, j)
		for _, p := range j.Promotions {
			if p == cur.Name {
				prevs = append(prevs, j)
				break
			}
		}
	}
	if len(prevs) > 0 {
		return prevs[ec.rng.Intn(len(prevs))].Name, nil
	}
	if len(lowers) > 0 {
		return lowers[ec.rng.Intn(len(lowers))].Name, nil
	}
	var worst []*Job
	for _, j := range all {
		if j.Rank == 0 {
			worst = append(worst, j)
		}
	}
	if len(worst) > 0 {
		return worst[ec.rng.Intn(len(worst))].Name, nil
	}
	return "", nil
}
