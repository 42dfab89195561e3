package main

import (
	"log"
	"sort"
)

// pickNextRequest selects the single request to present, by strict
// precedence: an active battle, then due scheduled events (info before
// normal), then due scheduled combats (crises preempt), then crisis
// conditions, then required needs, then the random event pool. Each tier
// short-circuits.
func pickNextRequest(s *GameState) string {
	if s.ActiveCombat != nil {
		return combatRoundID(s.ActiveCombat.CombatID)
	}

	if id := pickDueScheduledEvent(s); id != "" {
		return id
	}

	if id := pickDueCombat(s); id != "" {
		return id
	}

	if id := pickCrisis(s); id != "" {
		return id
	}

	if id := pickRequiredNeed(s); id != "" {
		return id
	}

	return pickRandomEvent(s)
}

// pickDueScheduledEvent returns the first eligible due queue entry, trying
// the whole info partition before any normal entry. Within a partition,
// FIFO by (scheduledAtTick, targetTick). Ineligible entries are skipped in
// place, never dropped here.
func pickDueScheduledEvent(s *GameState) string {
	var info, normal []ScheduledEvent
	for _, ev := range s.ScheduledEvents {
		if ev.TargetTick > s.Tick {
			continue
		}
		if ev.Priority == PriorityInfo {
			info = append(info, ev)
		} else {
			normal = append(normal, ev)
		}
	}
	fifo := func(evs []ScheduledEvent) {
		sort.SliceStable(evs, func(i, j int) bool {
			if evs[i].ScheduledAtTick != evs[j].ScheduledAtTick {
				return evs[i].ScheduledAtTick < evs[j].ScheduledAtTick
			}
			return evs[i].TargetTick < evs[j].TargetTick
		})
	}
	fifo(info)
	fifo(normal)

	for _, ev := range append(info, normal...) {
		if isCombatReportID(ev.RequestID) {
			return ev.RequestID
		}
		req, ok := s.cat.request(ev.RequestID)
		if !ok {
			log.Printf("picker: scheduled request %s not in catalog, skipping", ev.RequestID)
			continue
		}
		if atTriggerCap(s, req) {
			continue
		}
		if !s.hasUnlocks(req.Requires) {
			continue
		}
		return ev.RequestID
	}
	return ""
}

// pickDueCombat starts the earliest-scheduled due battle, unless a crisis
// is burning: a crisis outranks the march to the field.
func pickDueCombat(s *GameState) string {
	var due *ScheduledCombat
	for i := range s.ScheduledCombats {
		sc := &s.ScheduledCombats[i]
		if sc.DueTick > s.Tick {
			continue
		}
		if due == nil || sc.ScheduledAtTick < due.ScheduledAtTick {
			due = sc
		}
	}
	if due == nil {
		return ""
	}
	if id := pickCrisis(s); id != "" {
		return id
	}
	return combatStartID(due.CombatID)
}

// pickCrisis checks the crisis conditions in fixed order. A crisis that was
// the immediately-previous request is skipped so the same prompt never
// repeats back-to-back.
func pickCrisis(s *GameState) string {
	type crisis struct {
		id  string
		hit bool
	}
	for _, c := range []crisis{
		{s.cat.CrisisIDs.Fire, s.Stats.FireRisk > fireCrisisThreshold},
		{s.cat.CrisisIDs.Disease, s.Stats.Health < healthCrisisThreshold},
		{s.cat.CrisisIDs.Unrest, s.Stats.Satisfaction < unrestCrisisThreshold},
	} {
		if !c.hit || c.id == s.LastRequestID {
			continue
		}
		return c.id
	}
	return ""
}

// pickRequiredNeed draws uniformly among the needs that currently demand
// attention, avoiding an immediate repeat when there is an alternative.
func pickRequiredNeed(s *GameState) string {
	needs := requiredNeeds(s)
	if len(needs) == 0 {
		return ""
	}
	var ids []string
	for _, need := range needs {
		ids = append(ids, s.cat.NeedsCfg[need].RequestID)
	}
	if len(ids) > 1 {
		filtered := ids[:0]
		for _, id := range ids {
			if id != s.LastRequestID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			ids = filtered
		}
	}
	return ids[s.rng.Intn(len(ids))]
}

// pickRandomEvent draws uniformly from the eligible event pool. The
// progressive fallback below should never fire with valid content; when it
// does, that is a content bug worth a loud log line, not normal operation.
func pickRandomEvent(s *GameState) string {
	eligible := func(r *Request, strict bool) bool {
		if r.Category != CategoryEvent || s.cat.isCrisisID(r.ID) {
			return false
		}
		if !strict {
			return true
		}
		if r.ID == s.LastRequestID || !r.CanTriggerRandomly {
			return false
		}
		if atTriggerCap(s, r) || chainStartBlocked(s, r) {
			return false
		}
		if !s.hasUnlocks(r.Requires) {
			return false
		}
		if g := r.AuthorityGate; g != nil && (s.Stats.Authority < g.Min || s.Stats.Authority > g.Max) {
			return false
		}
		return true
	}

	collect := func(strict, allowCrisis bool) []string {
		var ids []string
		for i := range s.cat.Requests {
			r := &s.cat.Requests[i]
			if allowCrisis {
				if r.Category == CategoryEvent {
					ids = append(ids, r.ID)
				}
				continue
			}
			if eligible(r, strict) {
				ids = append(ids, r.ID)
			}
		}
		return ids
	}

	if ids := collect(true, false); len(ids) > 0 {
		return ids[s.rng.Intn(len(ids))]
	}
	log.Printf("picker fallback: no strictly eligible random event at tick %d", s.Tick)
	if ids := collect(false, false); len(ids) > 0 {
		return ids[s.rng.Intn(len(ids))]
	}
	log.Printf("picker fallback: no event-category request outside crises at tick %d", s.Tick)
	if ids := collect(false, true); len(ids) > 0 {
		return ids[s.rng.Intn(len(ids))]
	}
	// Unreachable with a validated catalog.
	log.Printf("picker fallback: catalog has no event requests at all")
	return ""
}
