package main

// isNeedUnlocked: a need enters play once the population reaches its
// threshold.
func isNeedUnlocked(cfg NeedConfig, farmers int) bool {
	return farmers >= cfg.UnlockThreshold
}

// calculateRequiredBuildings: zero below the threshold, then one plus one
// more per perBuilding farmers above it.
func calculateRequiredBuildings(cfg NeedConfig, farmers int) int {
	if farmers < cfg.UnlockThreshold {
		return 0
	}
	return 1 + (farmers-cfg.UnlockThreshold)/cfg.PerBuilding
}

func isNeedRequired(s *GameState, need NeedType) bool {
	cfg := s.cat.NeedsCfg[need]
	return s.NeedsTracking[need].BuildingCount < calculateRequiredBuildings(cfg, s.Stats.Farmers)
}

func isNeedOnCooldown(s *GameState, need NeedType) bool {
	return s.Tick < s.NeedsTracking[need].NextEligibleTick
}

// handleNeedChoice runs the tracker bookkeeping after a need prompt was
// answered: fulfilling increments the building count (never decremented)
// and, on the first-ever fulfillment that satisfies the requirement,
// schedules the need's one-time report for the next tick; declining starts
// the cooldown.
func handleNeedChoice(s *GameState, req *Request, optionIndex int) {
	cfg, ok := s.cat.NeedsCfg[req.Need]
	if !ok || cfg.RequestID != req.ID {
		return
	}
	tracking := s.NeedsTracking[req.Need]

	switch optionIndex {
	case cfg.FulfillOptionIndex:
		deficientBefore := tracking.BuildingCount < calculateRequiredBuildings(cfg, s.Stats.Farmers)
		tracking.BuildingCount++
		metNow := tracking.BuildingCount >= calculateRequiredBuildings(cfg, s.Stats.Farmers)
		if deficientBefore && metNow && tracking.BuildingCount == 1 {
			scheduleEvent(s, ScheduledEvent{
				TargetTick:      s.Tick + 1,
				RequestID:       cfg.InfoRequestID,
				ScheduledAtTick: s.Tick,
				Priority:        PriorityInfo,
			})
		}
	case cfg.DeclineOptionIndex:
		tracking.NextEligibleTick = s.Tick + 1 + declineCooldownTicks
	}
}

// detectNewlyUnlockedNeeds reports at most one need whose threshold was
// crossed by a farmers change this transition, scanning in the fixed need
// order and only considering needs whose benefit flag is still off.
func detectNewlyUnlockedNeeds(s *GameState, farmersBefore, farmersAfter int) (NeedType, bool) {
	for _, need := range needOrder {
		if s.Needs[need] {
			continue
		}
		cfg := s.cat.NeedsCfg[need]
		if farmersBefore < cfg.UnlockThreshold && farmersAfter >= cfg.UnlockThreshold {
			return need, true
		}
	}
	return "", false
}

// requiredNeeds lists every need that is unlocked, off cooldown, and short
// of buildings, in the fixed enumeration order.
func requiredNeeds(s *GameState) []NeedType {
	var out []NeedType
	for _, need := range needOrder {
		cfg := s.cat.NeedsCfg[need]
		if !isNeedUnlocked(cfg, s.Stats.Farmers) {
			continue
		}
		if isNeedOnCooldown(s, need) {
			continue
		}
		if !isNeedRequired(s, need) {
			continue
		}
		out = append(out, need)
	}
	return out
}
