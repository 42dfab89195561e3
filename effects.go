package main

// ModifierHook may rewrite the pending delta and append extra audit records.
// Hooks run in order, only for event-category requests, before the final
// delta is committed.
type ModifierHook func(s *GameState, req *Request, optionIndex int, delta Effect) (Effect, []AppliedChange)

func defaultModifiers() []ModifierHook {
	return []ModifierHook{firewoodModifier, wellModifier}
}

// firewoodModifier: with an active firewood need, a positive fireRisk delta
// is halved some of the time. The reduction is logged as its own correction
// entry so the causal trail stays complete.
func firewoodModifier(s *GameState, req *Request, optionIndex int, delta Effect) (Effect, []AppliedChange) {
	if !s.Needs[NeedFirewood] || delta.FireRisk <= 0 {
		return delta, nil
	}
	if !s.rng.Chance(s.tun.FirewoodHalveChance) {
		return delta, nil
	}
	halved := delta.FireRisk / 2
	correction := AppliedChange{
		Stat:   "fireRisk",
		Amount: float64(halved - delta.FireRisk),
		Source: "need:firewood",
		Note:   "the woodcutter's stores slow the flames",
	}
	delta.FireRisk = halved
	return delta, []AppliedChange{correction}
}

// wellModifier: with an active well need, a positive health delta sometimes
// gains one extra point.
func wellModifier(s *GameState, req *Request, optionIndex int, delta Effect) (Effect, []AppliedChange) {
	if !s.Needs[NeedWell] || delta.Health <= 0 {
		return delta, nil
	}
	if !s.rng.Chance(s.tun.WellHealChance) {
		return delta, nil
	}
	extra := AppliedChange{
		Stat:   "health",
		Amount: 1,
		Source: "need:well",
		Note:   "clean water does quiet work",
	}
	delta.Health++
	return delta, []AppliedChange{extra}
}

// runEffectPipeline applies an option's effect through the modifier hooks
// and commits the final delta, returning the full audit trail. Modifiers
// only run for plain event requests; need and info prompts take their
// effects verbatim.
func runEffectPipeline(s *GameState, req *Request, optionIndex int, hooks []ModifierHook) []AppliedChange {
	delta := copyEffect(req.Options[optionIndex].Effect)
	var changes []AppliedChange
	if req.Category == CategoryEvent {
		for _, hook := range hooks {
			var extra []AppliedChange
			delta, extra = hook(s, req, optionIndex, delta)
			changes = append(changes, extra...)
		}
	}
	changes = append(changes, commitEffect(s, delta, "base")...)
	return changes
}

// commitEffect applies a delta to stats and need flags, records one audit
// entry per nonzero stat field, and clamps. This is the single write path
// for every effect in the engine.
func commitEffect(s *GameState, delta Effect, source string) []AppliedChange {
	var changes []AppliedChange
	record := func(stat string, amount float64) {
		if amount != 0 {
			changes = append(changes, AppliedChange{Stat: stat, Amount: amount, Source: source})
		}
	}

	s.Stats.Gold += delta.Gold
	record("gold", float64(delta.Gold))
	s.Stats.Satisfaction += delta.Satisfaction
	record("satisfaction", float64(delta.Satisfaction))
	s.Stats.Health += delta.Health
	record("health", float64(delta.Health))
	s.Stats.FireRisk += delta.FireRisk
	record("fireRisk", float64(delta.FireRisk))
	s.Stats.Farmers += delta.Farmers
	record("farmers", float64(delta.Farmers))
	s.Stats.LandForces += delta.LandForces
	record("landForces", float64(delta.LandForces))
	s.Stats.Authority += delta.Authority
	record("authority", delta.Authority)

	for need, active := range delta.Needs {
		s.Needs[need] = active
	}

	s.clampStats()
	return changes
}

func copyEffect(e Effect) Effect {
	out := e
	if e.Needs != nil {
		out.Needs = make(map[NeedType]bool, len(e.Needs))
		for k, v := range e.Needs {
			out.Needs[k] = v
		}
	}
	return out
}
