package rules

type checkOpts struct {
	doRaise      bool
	skipOverlays bool
}

// CheckFilters validates every filter against the character, returning an
// IllegalMoveError describing the first one that fails.
func (ec *Context) CheckFilters(ch *Character, filters []Filter) error {
	for _, f := range filters {
		if _, err := ec.checkFilter(ch, f, checkOpts{doRaise: true}); err != nil {
			return err
		}
	}
	return nil
}

func (ec *Context) checkFilter(ch *Character, f Filter, opts checkOpts) (bool, error) {
	ns := ""
	if f.Reverse {
		ns = "not "
	}
	switch f.Type {
	case FilterSkillGte:
		rank, err := ec.SkillRank(ch, f.Skill, opts.skipOverlays)
		if err != nil {
			return false, err
		}
		if (rank >= f.Value) == f.Reverse {
			if !opts.doRaise {
				return false, nil
			}
			rel := "at least"
			if f.Reverse {
				rel = "less than"
			}
			return false, illegalMovef("%s is %d and must be %s %d", f.Skill, rank, rel, f.Value)
		}
		return true, nil
	case FilterNearHex:
		loc, err := ec.board.TokenHex(ec.ctx, ch.UUID)
		if err != nil {
			return false, err
		}
		dist, err := ec.board.Distance(ec.ctx, loc.Name, f.Hex)
		if err != nil {
			return false, err
		}
		if (dist <= f.Distance) == f.Reverse {
			if !opts.doRaise {
				return false, nil
			}
			return false, illegalMovef("distance from %s is %d and must %sbe within %d", f.Hex, dist, ns, f.Distance)
		}
		return true, nil
	case FilterNearToken:
		loc, err := ec.board.TokenHex(ec.ctx, ch.UUID)
		if err != nil {
			return false, err
		}
		other, err := ec.board.TokenHex(ec.ctx, f.EntityUUID)
		if err != nil {
			return false, err
		}
		dist, err := ec.board.Distance(ec.ctx, loc.Name, other.Name)
		if err != nil {
			return false, err
		}
		if (dist <= f.Distance) == f.Reverse {
			if !opts.doRaise {
				return false, nil
			}
			return false, illegalMovef("distance from %s is %d and must %sbe within %d", other.Name, dist, ns, f.Distance)
		}
		return true, nil
	case FilterInCountry:
		loc, err := ec.board.TokenHex(ec.ctx, ch.UUID)
		if err != nil {
			return false, err
		}
		if (loc.Country == f.Country) == f.Reverse {
			if !opts.doRaise {
				return false, nil
			}
			return false, illegalMovef("country is %s and must %sbe %s", loc.Country, ns, f.Country)
		}
		return true, nil
	default:
		panic("unknown filter type: " + string(f.Type))
	}
}
