package main

import (
	"fmt"
	"log"
	"math"
)

// Action is one player decision. CombatCommit carries the forces wagered on
// a fight option; AuthorityCommit, when non-nil, carries the authority
// wagered on an option with an authority check.
type Action struct {
	OptionIndex     int  `json:"optionIndex"`
	CombatCommit    int  `json:"combatCommit,omitempty"`
	AuthorityCommit *int `json:"authorityCommit,omitempty"`
}

// applyAction is the single state transition: one action against the
// current request produces the next state. Returns false when the input was
// invalid and the state is untouched. Internal invariant violations roll the
// whole transition back.
func applyAction(s *GameState, a Action) bool {
	if s.GameOver {
		return false
	}

	snapshot := s.clone()
	totalForcesBefore := s.totalForces()
	ref := parseRequestID(s.CurrentRequestID)
	current := ref.id

	switch ref.kind {
	case kindCombatStart:
		if a.OptionIndex != 0 {
			return false
		}
		if !startCombat(s, ref.combatID) {
			// Logic bug; repick so the player is not stranded on a
			// dangling marker.
			s.restoreFrom(snapshot)
		}
		finishSelection(s, current)

	case kindCombatReport:
		if a.OptionIndex != 0 {
			return false
		}
		dequeueScheduledEvent(s, current)
		finishSelection(s, current)

	case kindCombatRound:
		if s.ActiveCombat == nil {
			log.Printf("reducer: round marker %s with no active combat", current)
			finishSelection(s, current)
			break
		}
		switch a.OptionIndex {
		case 0:
			if outcome := resolveCombatRound(s); outcome != "" {
				finishCombat(s, outcome)
			}
		case 1:
			withdrawCombat(s)
		default:
			return false
		}
		finishSelection(s, current)

	default:
		req, ok := s.cat.request(current)
		if !ok {
			log.Printf("reducer: current request %s not in catalog, repicking", current)
			finishSelection(s, current)
			break
		}
		if !applyCatalogChoice(s, req, a) {
			return false
		}
	}

	if !verifyForceConservation(s, totalForcesBefore) {
		s.restoreFrom(snapshot)
		return false
	}
	return true
}

// applyCatalogChoice handles a real catalog request: dispatches the option
// to the combat-commit, authority-commit or plain-effect path, then runs
// the shared bookkeeping. Returns false when the input was invalid and the
// state is untouched.
func applyCatalogChoice(s *GameState, req *Request, a Action) bool {
	if a.OptionIndex < 0 || a.OptionIndex >= len(req.Options) {
		return false
	}
	opt := req.Options[a.OptionIndex]
	farmersBefore := s.Stats.Farmers

	combatPath := req.Combat != nil && a.OptionIndex == req.Combat.FightOptionIndex
	authorityPath := !combatPath && opt.AuthorityCheck != nil && a.AuthorityCommit != nil

	var ctx *commitContext
	var changes []AppliedChange
	switch {
	case combatPath:
		if !commitCombat(s, req, a.CombatCommit) {
			return false
		}
		changes = runEffectPipeline(s, req, a.OptionIndex, defaultModifiers())
	case authorityPath:
		if !commitAuthorityCheck(s, req, a.OptionIndex, *a.AuthorityCommit) {
			return false
		}
		// The check's outcome effects replace the option's base effect.
		ctx = &commitContext{committed: *a.AuthorityCommit, check: opt.AuthorityCheck}
	default:
		changes = runEffectPipeline(s, req, a.OptionIndex, defaultModifiers())
	}

	s.syncUnlockTokens()
	updateChainStatus(s, req)
	recordTrigger(s, req.ID)

	if len(changes) > 0 {
		s.appendLog(LogEntry{
			Tick:    s.Tick,
			Source:  "Request Decision",
			Text:    req.Title,
			Changes: changes,
		})
	}

	scheduleFollowUps(s, req.FollowUps, a.OptionIndex, ctx, req.ID)
	dequeueScheduledEvent(s, req.ID)
	if req.Category == CategoryNeed {
		handleNeedChoice(s, req, a.OptionIndex)
	}

	if checkBankruptcy(s) {
		s.LastRequestID = req.ID
		return true
	}

	// Combat commits and tickless requests resolve within the same tick.
	if combatPath || req.Tickless {
		finishSelection(s, req.ID)
		return true
	}

	applyBaselineEconomy(s)
	if checkBankruptcy(s) {
		s.LastRequestID = req.ID
		return true
	}

	resolveDueAuthorityChecks(s, s.Tick+1)
	if checkBankruptcy(s) {
		s.LastRequestID = req.ID
		return true
	}

	if need, ok := detectNewlyUnlockedNeeds(s, farmersBefore, s.Stats.Farmers); ok {
		s.appendLog(LogEntry{
			Tick:   s.Tick,
			Source: "Village Growth",
			Text:   fmt.Sprintf("The village has grown enough to want a %s.", need),
		})
	}
	s.syncUnlockTokens()

	s.Tick++
	finishSelection(s, req.ID)
	return true
}

// applyBaselineEconomy adds the per-tick tax income and population growth,
// plus the bread-need bonus when it procs.
func applyBaselineEconomy(s *GameState) {
	taxIncome := int(math.Floor(s.tun.TaxRate * float64(s.Stats.Farmers) *
		float64(s.Stats.Satisfaction-s.tun.TaxSatisfactionOffset) / 100))
	if taxIncome != 0 {
		s.Stats.Gold += taxIncome
		s.appendLog(LogEntry{
			Tick:    s.Tick,
			Source:  "Tax Income",
			Changes: []AppliedChange{{Stat: "gold", Amount: float64(taxIncome), Source: "Tax Income"}},
		})
	}

	growth := int(math.Floor(float64(s.Stats.Health-s.tun.GrowthHealthOffset) / float64(s.tun.GrowthDivisor)))
	if growth != 0 {
		s.Stats.Farmers += growth
		s.appendLog(LogEntry{
			Tick:    s.Tick,
			Source:  "Population Growth",
			Changes: []AppliedChange{{Stat: "farmers", Amount: float64(growth), Source: "Population Growth"}},
		})
	}

	if s.Needs[NeedBread] && s.rng.Chance(s.tun.BreadBonusChance) {
		s.Stats.Farmers++
		s.appendLog(LogEntry{
			Tick:    s.Tick,
			Source:  "Population Growth",
			Text:    "Fresh bread draws a newcomer to the village.",
			Changes: []AppliedChange{{Stat: "farmers", Amount: 1, Source: "need:bread"}},
		})
	}

	s.clampStats()
}

// checkBankruptcy marks the game terminal when the treasury has sunk to the
// floor. Terminal regardless of anything later in the transition.
func checkBankruptcy(s *GameState) bool {
	if s.GameOver {
		return true
	}
	if s.Stats.Gold > bankruptcyGoldFloor {
		return false
	}
	s.GameOver = true
	s.GameOverReason = "bankruptcy"
	s.appendLog(LogEntry{
		Tick:   s.Tick,
		Source: "Game Over",
		Text:   "The treasury is empty and the creditors have come. Your time as reeve is done.",
	})
	return true
}

// finishSelection finalizes a transition: remember what was answered, pick
// what comes next, and pin the RNG stream offset for persistence.
func finishSelection(s *GameState, answered string) {
	s.LastRequestID = answered
	s.CurrentRequestID = pickNextRequest(s)
	s.RandPos = s.rng.Position()
}
