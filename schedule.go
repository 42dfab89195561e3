package main

import "log"

func scheduleEvent(s *GameState, ev ScheduledEvent) {
	s.ScheduledEvents = append(s.ScheduledEvents, ev)
}

// dequeueScheduledEvent removes the first due queue entry for the given
// request id. Entries are only dropped when actually consumed; the picker
// merely skips ineligible ones.
func dequeueScheduledEvent(s *GameState, requestID string) {
	for i, ev := range s.ScheduledEvents {
		if ev.RequestID == requestID && ev.TargetTick <= s.Tick {
			s.ScheduledEvents = append(s.ScheduledEvents[:i], s.ScheduledEvents[i+1:]...)
			return
		}
	}
}

// commitContext carries the authority commit that accompanied a choice, so
// follow-up candidate weights can be boosted before the draw.
type commitContext struct {
	committed int
	check     *AuthorityCheck
}

func (c *commitContext) boostFor(requestID string) float64 {
	if c == nil || c.check == nil || c.committed <= 0 {
		return 0
	}
	ratio := 0.0
	if c.check.MaxCommit > 0 {
		ratio = float64(c.committed) / float64(c.check.MaxCommit)
	}
	total := 0.0
	for _, boost := range c.check.FollowUpBoosts {
		if boost.TargetRequestID != requestID {
			continue
		}
		switch boost.Type {
		case BoostLinear:
			total += ratio * boost.Value
		case BoostThreshold:
			if c.committed >= c.check.Threshold {
				total += boost.Value
			}
		case BoostStepped:
			if boost.Steps > 0 {
				total += float64(int(ratio*float64(boost.Steps))) * boost.Value
			}
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// scheduleFollowUps draws and queues one candidate for every follow-up pool
// attached to the chosen option.
func scheduleFollowUps(s *GameState, followUps []FollowUp, optionIndex int, ctx *commitContext, note string) {
	for _, fu := range followUps {
		if fu.OnOptionIndex != optionIndex {
			continue
		}
		scheduleFollowUpPool(s, fu, ctx, note)
	}
}

// scheduleFollowUpPool reweights, draws, and queues a single pool. Empty or
// zero-weight pools yield nothing.
func scheduleFollowUpPool(s *GameState, fu FollowUp, ctx *commitContext, note string) {
	candidates := make([]weightedCandidate, 0, len(fu.Candidates))
	for _, cand := range fu.Candidates {
		w := cand.Weight + ctx.boostFor(cand.RequestID)
		if w < 0 {
			w = 0
		}
		candidates = append(candidates, weightedCandidate{id: cand.RequestID, weight: w})
	}
	chosen := pickWeighted(s.rng, candidates)
	if chosen == "" {
		return
	}
	delay := fu.DelayMinTicks + s.rng.Between(0, fu.DelayMaxTicks-fu.DelayMinTicks)
	scheduleEvent(s, ScheduledEvent{
		TargetTick:      s.Tick + 1 + delay,
		RequestID:       chosen,
		ScheduledAtTick: s.Tick,
		Note:            note,
	})
}

// updateChainStatus runs the chain bookkeeping for an answered request:
// starts activate, ends deactivate and stamp the completion tick.
func updateChainStatus(s *GameState, req *Request) {
	if req.ChainID == "" {
		return
	}
	st := s.Chains[req.ChainID]
	if st == nil {
		st = &ChainStatus{}
		s.Chains[req.ChainID] = st
	}
	switch req.ChainRole {
	case ChainStart:
		st.Active = true
	case ChainEnd:
		if !st.Active {
			log.Printf("chain %s: end request %s answered while chain inactive", req.ChainID, req.ID)
		}
		st.Active = false
		st.Completed = true
		st.CompletedTick = s.Tick
	}
}

// chainStartBlocked reports whether a chain-start request is excluded from
// random selection: while the chain runs, and through the restart cooldown
// after it completes.
func chainStartBlocked(s *GameState, req *Request) bool {
	if req.ChainRole != ChainStart {
		return false
	}
	st := s.Chains[req.ChainID]
	if st == nil {
		return false
	}
	if st.Active {
		return true
	}
	if st.Completed && s.Tick < st.CompletedTick+req.ChainRestartCooldownTicks {
		return true
	}
	return false
}

func recordTrigger(s *GameState, requestID string) {
	s.TriggerCounts[requestID]++
}

// atTriggerCap reports whether a request has exhausted its lifetime trigger
// budget. Zero means uncapped.
func atTriggerCap(s *GameState, req *Request) bool {
	return req.MaxTriggers > 0 && s.TriggerCounts[req.ID] >= req.MaxTriggers
}
