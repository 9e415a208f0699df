package rules

// Overlay/trigger resolution. Both paths scan every gadget visible to the
// entity (public attachments, or private ones on a gadget the entity owns),
// bucket the attachments by (type, subtype), and memoize the bucketing on
// the Context for the rest of the transaction.

// OverlayValue sums every matching overlay whose filters pass. An overlay
// already being evaluated higher up the stack contributes 0; that keeps a
// filter that itself consults overlays from recursing forever.
func (ec *Context) OverlayValue(entityUUID string, typ OverlayType, subtype string, filterOK func(Filter) (bool, error)) (int, error) {
	buckets, err := ec.overlayBuckets(entityUUID)
	if err != nil {
		return 0, err
	}

	var list []Overlay
	if subtype != "" {
		list = append(list, buckets[gadgetKey{string(typ), ""}]...)
	}
	list = append(list, buckets[gadgetKey{string(typ), subtype}]...)

	val := 0
	for _, ov := range list {
		if ec.inUse[ov.UUID] {
			continue
		}
		ok, err := ec.overlayFiltersPass(ov, filterOK)
		if err != nil {
			return 0, err
		}
		if ok {
			val += ov.Amount
		}
	}
	return val, nil
}

func (ec *Context) overlayFiltersPass(ov Overlay, filterOK func(Filter) (bool, error)) (bool, error) {
	ec.inUse[ov.UUID] = true
	defer delete(ec.inUse, ov.UUID)
	for _, f := range ov.Filters {
		ok, err := filterOK(f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// TriggerEffects collects the effects of every matching trigger whose
// filters pass, in gadget order.
func (ec *Context) TriggerEffects(entityUUID string, typ TriggerType, subtype string, filterOK func(Filter) (bool, error)) ([]Effect, error) {
	triggers, err := ec.matchingTriggers(entityUUID, typ, subtype, filterOK)
	if err != nil {
		return nil, err
	}
	var effects []Effect
	for _, tr := range triggers {
		effects = append(effects, tr.Effects...)
	}
	return effects, nil
}

// Actions returns the action triggers visible to the entity. Filters are
// not evaluated here; action filters gate execution, not visibility.
func (ec *Context) Actions(entityUUID string) ([]Trigger, error) {
	buckets, err := ec.triggerBuckets(entityUUID)
	if err != nil {
		return nil, err
	}
	return buckets[gadgetKey{string(TriggerAction), ""}], nil
}

// ActionByUUID finds one visible action trigger.
func (ec *Context) ActionByUUID(entityUUID, actionUUID string) (*Trigger, error) {
	actions, err := ec.Actions(entityUUID)
	if err != nil {
		return nil, err
	}
	for i := range actions {
		if actions[i].UUID == actionUUID {
			return &actions[i], nil
		}
	}
	return nil, badStatef("no such action: %s", actionUUID)
}

func (ec *Context) matchingTriggers(entityUUID string, typ TriggerType, subtype string, filterOK func(Filter) (bool, error)) ([]Trigger, error) {
	buckets, err := ec.triggerBuckets(entityUUID)
	if err != nil {
		return nil, err
	}

	var list []Trigger
	if subtype != "" {
		list = append(list, buckets[gadgetKey{string(typ), ""}]...)
	}
	list = append(list, buckets[gadgetKey{string(typ), subtype}]...)

	var out []Trigger
	for _, tr := range list {
		pass := true
		for _, f := range tr.Filters {
			ok, err := filterOK(f)
			if err != nil {
				return nil, err
			}
			if !ok {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (ec *Context) overlayBuckets(entityUUID string) (map[gadgetKey][]Overlay, error) {
	if b, ok := ec.overlays[entityUUID]; ok {
		return b, nil
	}
	gadgets, err := ec.store.VisibleGadgets(ec.ctx, entityUUID)
	if err != nil {
		return nil, err
	}
	b := make(map[gadgetKey][]Overlay)
	for _, g := range gadgets {
		for _, ov := range g.Overlays {
			if ov.IsPrivate && g.EntityUUID != entityUUID {
				continue
			}
			k := gadgetKey{string(ov.Type), ov.Subtype}
			b[k] = append(b[k], ov)
		}
	}
	ec.overlays[entityUUID] = b
	return b, nil
}

func (ec *Context) triggerBuckets(entityUUID string) (map[gadgetKey][]Trigger, error) {
	if b, ok := ec.triggers[entityUUID]; ok {
		return b, nil
	}
	gadgets, err := ec.store.VisibleGadgets(ec.ctx, entityUUID)
	if err != nil {
		return nil, err
	}
	b := make(map[gadgetKey][]Trigger)
	for _, g := range gadgets {
		for _, tr := range g.Triggers {
			if tr.IsPrivate && g.EntityUUID != entityUUID {
				continue
			}
			k := gadgetKey{string(tr.Type), tr.Subtype}
			b[k] = append(b[k], tr)
		}
	}
	ec.triggers[entityUUID] = b
	return b, nil
}
