package main

import (
	"fmt"
	"log"
)

// commitAuthorityCheck reserves the wagered authority and queues the check
// for resolution exactly one tick later. Returns false (state untouched) on
// an invalid commit.
func commitAuthorityCheck(s *GameState, req *Request, optionIndex, committed int) bool {
	check := req.Options[optionIndex].AuthorityCheck
	if check == nil {
		return false
	}
	if committed < check.MinCommit || committed > check.MaxCommit {
		return false
	}
	if float64(committed) > s.Stats.Authority {
		return false
	}

	s.Stats.Authority -= float64(committed)
	s.clampStats()

	s.NextCheckSeq++
	s.PendingChecks = append(s.PendingChecks, PendingAuthorityCheck{
		CheckID:         fmt.Sprintf("check-%d", s.NextCheckSeq),
		InitiatedTick:   s.Tick,
		ResolveTick:     s.Tick + 1,
		OriginRequestID: req.ID,
		OptionIndex:     optionIndex,
		Committed:       committed,
	})
	if committed != 0 {
		s.appendLog(LogEntry{
			Tick:    s.Tick,
			Source:  "Authority Commit",
			Changes: []AppliedChange{{Stat: "authority", Amount: float64(-committed), Source: "Authority Commit"}},
		})
	}
	return true
}

// resolveDueAuthorityChecks resolves every pending check whose resolveTick
// has arrived. Called during the transition to newTick, before the tick
// counter itself advances.
func resolveDueAuthorityChecks(s *GameState, newTick int) {
	if len(s.PendingChecks) == 0 {
		return
	}
	remaining := s.PendingChecks[:0]
	due := make([]PendingAuthorityCheck, 0, len(s.PendingChecks))
	for _, pc := range s.PendingChecks {
		if pc.ResolveTick > newTick {
			remaining = append(remaining, pc)
			continue
		}
		due = append(due, pc)
	}
	s.PendingChecks = append([]PendingAuthorityCheck(nil), remaining...)
	for _, pc := range due {
		resolveAuthorityCheck(s, pc, newTick)
	}
}

func resolveAuthorityCheck(s *GameState, pc PendingAuthorityCheck, newTick int) {
	check := lookupAuthorityCheck(s, pc)
	if check == nil {
		// Logic bug: the origin request vanished from under a pending
		// check. Refund in full rather than eat the wager.
		log.Printf("authority check %s: origin %s option %d has no check config; refunding",
			pc.CheckID, pc.OriginRequestID, pc.OptionIndex)
		s.Stats.Authority += float64(pc.Committed)
		s.clampStats()
		return
	}

	// A check with no outcome effects is a pure follow-up-weight wager:
	// everything comes back, nothing else happens.
	if check.boostOnly() {
		s.Stats.Authority += float64(pc.Committed)
		s.clampStats()
		if pc.Committed != 0 {
			s.appendLog(LogEntry{
				Tick:    pc.ResolveTick,
				Source:  "Authority Refund",
				Changes: []AppliedChange{{Stat: "authority", Amount: float64(pc.Committed), Source: "Authority Refund"}},
			})
		}
		return
	}

	success := check.Threshold == 0 || pc.Committed >= check.Threshold
	if !success {
		success = s.rng.Chance(float64(pc.Committed) / float64(check.Threshold))
	}

	refund := 0
	if success {
		refund = pc.Committed * check.RefundOnSuccessPercent / 100
	}
	s.Stats.Authority += float64(refund)
	if !success && check.ExtraLossOnFailure > 0 {
		s.Stats.Authority -= float64(check.ExtraLossOnFailure)
	}
	s.clampStats()

	var changes []AppliedChange
	if refund != 0 {
		changes = append(changes, AppliedChange{Stat: "authority", Amount: float64(refund), Source: "Authority Refund"})
	}
	if !success && check.ExtraLossOnFailure > 0 {
		changes = append(changes, AppliedChange{Stat: "authority", Amount: float64(-check.ExtraLossOnFailure), Source: "Authority Penalty"})
	}

	outcome := "fails"
	if success {
		outcome = "holds"
	}
	s.appendLog(LogEntry{
		Tick:    pc.ResolveTick,
		Source:  "Authority Check",
		Text:    fmt.Sprintf("Your wager of %d authority %s.", pc.Committed, outcome),
		Changes: changes,
	})

	if success && check.OnSuccess != nil {
		effects := commitEffect(s, *check.OnSuccess, "authority:success")
		if len(effects) > 0 {
			s.appendLog(LogEntry{Tick: pc.ResolveTick, Source: "Authority Check", Changes: effects})
		}
	}
	if !success && check.OnFailure != nil {
		effects := commitEffect(s, *check.OnFailure, "authority:failure")
		if len(effects) > 0 {
			s.appendLog(LogEntry{Tick: pc.ResolveTick, Source: "Authority Check", Changes: effects})
		}
	}

	feedbackID := check.FailureFeedbackRequestID
	if success {
		feedbackID = check.SuccessFeedbackRequestID
	}
	if feedbackID != "" {
		scheduleEvent(s, ScheduledEvent{
			TargetTick:      newTick,
			RequestID:       feedbackID,
			ScheduledAtTick: s.Tick,
			Priority:        PriorityNormal,
			Note:            pc.CheckID,
		})
	}
}

func lookupAuthorityCheck(s *GameState, pc PendingAuthorityCheck) *AuthorityCheck {
	req, ok := s.cat.request(pc.OriginRequestID)
	if !ok {
		return nil
	}
	if pc.OptionIndex < 0 || pc.OptionIndex >= len(req.Options) {
		return nil
	}
	return req.Options[pc.OptionIndex].AuthorityCheck
}
