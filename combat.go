package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Synthetic request id namespaces. The engine never stores a presentable
// combat request in the catalog; the ids below are decoded on the fly by
// presentableRequest.
const (
	combatStartPrefix  = "COMBAT_START::"
	combatRoundPrefix  = "COMBAT_ROUND::"
	combatReportPrefix = "COMBAT_REPORT::"
)

// BattleReport is the payload embedded in a COMBAT_REPORT id: outcome,
// round count, losses on both sides and the stat changes the outcome
// applied.
type BattleReport struct {
	CombatID     string          `json:"combatId"`
	Outcome      string          `json:"outcome"`
	Rounds       int             `json:"rounds"`
	PlayerLosses int             `json:"playerLosses"`
	EnemyLosses  int             `json:"enemyLosses"`
	Survivors    int             `json:"survivors"`
	Changes      []AppliedChange `json:"changes,omitempty"`
}

const (
	outcomeWin      = "win"
	outcomeLose     = "lose"
	outcomeWithdraw = "withdraw"
)

const battleReportSchemaSrc = `{
	"type": "object",
	"required": ["combatId", "outcome", "rounds", "playerLosses", "enemyLosses", "survivors"],
	"properties": {
		"combatId":     {"type": "string", "minLength": 1},
		"outcome":      {"enum": ["win", "lose", "withdraw"]},
		"rounds":       {"type": "integer", "minimum": 0},
		"playerLosses": {"type": "integer", "minimum": 0},
		"enemyLosses":  {"type": "integer", "minimum": 0},
		"survivors":    {"type": "integer", "minimum": 0},
		"changes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["stat", "amount", "source"],
				"properties": {
					"stat":   {"type": "string"},
					"amount": {"type": "number"},
					"source": {"type": "string"},
					"note":   {"type": "string"}
				}
			}
		}
	}
}`

var battleReportSchema = jsonschema.MustCompileString("battle_report.schema.json", battleReportSchemaSrc)

func combatStartID(combatID string) string { return combatStartPrefix + combatID }
func combatRoundID(combatID string) string { return combatRoundPrefix + combatID }

func combatReportID(rep BattleReport) string {
	payload, err := json.Marshal(rep)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the id well-formed
		// anyway so the picker never chokes on it.
		log.Printf("battle report marshal for %s: %v", rep.CombatID, err)
		payload = []byte("{}")
	}
	return combatReportPrefix + rep.CombatID + "::" + url.QueryEscape(string(payload))
}

type requestKind int

const (
	kindCatalog requestKind = iota
	kindCombatStart
	kindCombatRound
	kindCombatReport
)

// requestRef is the parsed form of a request id. The string prefixes remain
// the wire format; everything past the boundary switches on the kind tag
// instead of re-inspecting the string.
type requestRef struct {
	kind     requestKind
	id       string
	combatID string
}

func parseRequestID(id string) requestRef {
	switch {
	case strings.HasPrefix(id, combatStartPrefix):
		return requestRef{kind: kindCombatStart, id: id, combatID: strings.TrimPrefix(id, combatStartPrefix)}
	case strings.HasPrefix(id, combatRoundPrefix):
		return requestRef{kind: kindCombatRound, id: id, combatID: strings.TrimPrefix(id, combatRoundPrefix)}
	case strings.HasPrefix(id, combatReportPrefix):
		rest := strings.TrimPrefix(id, combatReportPrefix)
		combatID, _, _ := strings.Cut(rest, "::")
		return requestRef{kind: kindCombatReport, id: id, combatID: combatID}
	default:
		return requestRef{kind: kindCatalog, id: id}
	}
}

func isCombatReportID(id string) bool { return strings.HasPrefix(id, combatReportPrefix) }

// decodeBattleReport parses a COMBAT_REPORT id back into its payload,
// validating the embedded JSON against the report schema. Any decode or
// validation failure returns a minimal fallback report so a garbled id
// still renders.
func decodeBattleReport(id string) BattleReport {
	rest := strings.TrimPrefix(id, combatReportPrefix)
	combatID, escaped, found := strings.Cut(rest, "::")
	fallback := BattleReport{CombatID: combatID, Outcome: outcomeLose}
	if !found {
		log.Printf("battle report id %q: missing payload separator", id)
		return fallback
	}
	raw, err := url.QueryUnescape(escaped)
	if err != nil {
		log.Printf("battle report %s: payload unescape: %v", combatID, err)
		return fallback
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Printf("battle report %s: payload parse: %v", combatID, err)
		return fallback
	}
	if err := battleReportSchema.Validate(doc); err != nil {
		log.Printf("battle report %s: payload rejected: %v", combatID, err)
		return fallback
	}
	var rep BattleReport
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		log.Printf("battle report %s: payload decode: %v", combatID, err)
		return fallback
	}
	return rep
}

// commitCombat reserves forces for a battle that begins after the prep
// delay. Returns false (state untouched) on an invalid commit.
func commitCombat(s *GameState, req *Request, committed int) bool {
	spec := req.Combat
	if spec == nil {
		return false
	}
	if committed < 1 || committed > s.Stats.LandForces {
		return false
	}

	s.Stats.LandForces -= committed
	s.NextCombatSeq++
	id := fmt.Sprintf("combat-%d", s.NextCombatSeq)
	delay := s.rng.Between(spec.PrepDelayMinTicks, spec.PrepDelayMaxTicks)
	s.ScheduledCombats = append(s.ScheduledCombats, ScheduledCombat{
		CombatID:        id,
		OriginRequestID: req.ID,
		DueTick:         s.Tick + delay,
		ScheduledAtTick: s.Tick,
		EnemyForces:     spec.EnemyForces,
		CommittedForces: committed,
	})
	s.appendLog(LogEntry{
		Tick:    s.Tick,
		Source:  "Combat Commit",
		Text:    fmt.Sprintf("%d men march out to meet %d foes.", committed, spec.EnemyForces),
		Changes: []AppliedChange{{Stat: "landForces", Amount: float64(-committed), Source: "Combat Commit"}},
	})
	return true
}

// startCombat moves a scheduled combat into the active slot. Only one combat
// can be active at a time; the picker never offers a combat start while one
// is running.
func startCombat(s *GameState, combatID string) bool {
	if s.ActiveCombat != nil {
		log.Printf("combat %s: cannot start while %s is active", combatID, s.ActiveCombat.CombatID)
		return false
	}
	for i, sc := range s.ScheduledCombats {
		if sc.CombatID != combatID {
			continue
		}
		s.ScheduledCombats = append(s.ScheduledCombats[:i], s.ScheduledCombats[i+1:]...)
		s.ActiveCombat = &ActiveCombat{
			ScheduledCombat:        sc,
			EnemyRemaining:         sc.EnemyForces,
			CommittedRemaining:     sc.CommittedForces,
			InitialEnemyForces:     sc.EnemyForces,
			InitialCommittedForces: sc.CommittedForces,
		}
		s.appendLog(LogEntry{
			Tick:   s.Tick,
			Source: "Battle",
			Text:   fmt.Sprintf("The battle is joined: %d against %d.", sc.CommittedForces, sc.EnemyForces),
		})
		return true
	}
	log.Printf("combat %s: not found in scheduled combats", combatID)
	return false
}

// resolveCombatRound fights one round of paired die duels and applies the
// losses. Returns the terminal outcome, or "" when the battle continues.
func resolveCombatRound(s *GameState) string {
	ac := s.ActiveCombat
	duels := minInt(ac.CommittedRemaining, ac.EnemyRemaining)
	playerLosses, enemyLosses := 0, 0
	for i := 0; i < duels; i++ {
		ours := s.rng.Die(duelDieSides)
		theirs := s.rng.Die(duelDieSides)
		switch {
		case ours > theirs:
			enemyLosses++
		case theirs > ours:
			playerLosses++
		}
	}
	ac.CommittedRemaining = maxInt(0, ac.CommittedRemaining-playerLosses)
	ac.EnemyRemaining = maxInt(0, ac.EnemyRemaining-enemyLosses)
	ac.Round++
	ac.LastRound = &RoundResult{PlayerLosses: playerLosses, EnemyLosses: enemyLosses}
	s.appendLog(LogEntry{
		Tick:   s.Tick,
		Source: "Battle",
		Text: fmt.Sprintf("Round %d: we lose %d, they lose %d. %d stand against %d.",
			ac.Round, playerLosses, enemyLosses, ac.CommittedRemaining, ac.EnemyRemaining),
	})

	// Mutual annihilation counts as a loss.
	if ac.CommittedRemaining == 0 {
		return outcomeLose
	}
	if ac.EnemyRemaining == 0 {
		return outcomeWin
	}
	return ""
}

// finishCombat resolves a terminal outcome: survivors return home on a win
// or withdrawal, the origin request's outcome effects and follow-ups fire,
// and a battle report is queued for the same tick.
func finishCombat(s *GameState, outcome string) {
	ac := s.ActiveCombat
	s.ActiveCombat = nil

	survivors := ac.CommittedRemaining
	var survivorChange []AppliedChange
	if outcome == outcomeWin || outcome == outcomeWithdraw {
		if survivors > 0 {
			s.Stats.LandForces += survivors
			s.clampStats()
			survivorChange = []AppliedChange{{Stat: "landForces", Amount: float64(survivors), Source: "combat:" + outcome}}
		}
	}

	var effect Effect
	var followUps []FollowUp
	if origin, ok := s.cat.request(ac.OriginRequestID); ok && origin.Combat != nil {
		if outcome == outcomeWin {
			effect = origin.Combat.OnWin
			followUps = origin.Combat.FollowUpsOnWin
		} else {
			effect = origin.Combat.OnLose
			followUps = origin.Combat.FollowUpsOnLose
		}
	} else {
		log.Printf("combat %s: origin request %s has no combat config", ac.CombatID, ac.OriginRequestID)
	}

	changes := append(survivorChange, commitEffect(s, effect, "combat:"+outcome)...)

	var text string
	switch outcome {
	case outcomeWin:
		text = fmt.Sprintf("Victory. %d of %d return home.", survivors, ac.InitialCommittedForces)
	case outcomeWithdraw:
		text = fmt.Sprintf("The men break off and fall back with %d still standing.", survivors)
	default:
		text = fmt.Sprintf("Defeat. All %d committed are lost or scattered.", ac.InitialCommittedForces)
	}
	s.appendLog(LogEntry{Tick: s.Tick, Source: "Battle", Text: text, Changes: changes})

	for _, fu := range followUps {
		scheduleFollowUpPool(s, fu, nil, ac.CombatID)
	}

	rep := BattleReport{
		CombatID:     ac.CombatID,
		Outcome:      outcome,
		Rounds:       ac.Round,
		PlayerLosses: ac.InitialCommittedForces - ac.CommittedRemaining,
		EnemyLosses:  ac.InitialEnemyForces - ac.EnemyRemaining,
		Survivors:    survivors,
		Changes:      changes,
	}
	scheduleEvent(s, ScheduledEvent{
		TargetTick:      s.Tick,
		RequestID:       combatReportID(rep),
		ScheduledAtTick: s.Tick,
		Priority:        PriorityInfo,
		Note:            ac.CombatID,
	})
}

// withdrawCombat abandons an active battle: survivors come home but the
// outcome is treated as a loss.
func withdrawCombat(s *GameState) {
	finishCombat(s, outcomeWithdraw)
}

// verifyForceConservation is the defensive check run after every combat
// transition: reserved plus available forces must never grow, and available
// forces must never be negative. clampStats already guards the latter; a
// violation here means a logic bug upstream.
func verifyForceConservation(s *GameState, totalBefore int) bool {
	if s.Stats.LandForces < 0 {
		log.Printf("force conservation: negative landForces %d", s.Stats.LandForces)
		return false
	}
	if after := s.totalForces(); after > totalBefore {
		log.Printf("force conservation: total forces grew %d -> %d", totalBefore, after)
		return false
	}
	return true
}

// presentableRequest resolves any request id into something displayable,
// synthesizing requests for the three combat namespaces and falling back to
// a plain catalog lookup otherwise.
func presentableRequest(s *GameState, id string) *Request {
	ref := parseRequestID(id)
	switch ref.kind {
	case kindCombatStart:
		var enemy, committed int
		for _, sc := range s.ScheduledCombats {
			if sc.CombatID == ref.combatID {
				enemy, committed = sc.EnemyForces, sc.CommittedForces
				break
			}
		}
		return &Request{
			ID:       id,
			Category: CategoryEvent,
			Title:    "The Battle Begins",
			Body:     fmt.Sprintf("Your %d men have reached the field. %d foes await.", committed, enemy),
			Options:  []Option{{Text: "To arms"}},
			Tickless: true,
		}
	case kindCombatRound:
		ac := s.ActiveCombat
		body := "The lines clash."
		if ac != nil {
			body = fmt.Sprintf("%d of your men face %d foes.", ac.CommittedRemaining, ac.EnemyRemaining)
			if ac.LastRound != nil {
				body += fmt.Sprintf(" Last round cost you %d and them %d.",
					ac.LastRound.PlayerLosses, ac.LastRound.EnemyLosses)
			}
		}
		return &Request{
			ID:       id,
			Category: CategoryEvent,
			Title:    "Battle",
			Body:     body,
			Options:  []Option{{Text: "Press the attack"}, {Text: "Withdraw"}},
			Tickless: true,
		}
	case kindCombatReport:
		rep := decodeBattleReport(id)
		var body string
		switch rep.Outcome {
		case outcomeWin:
			body = fmt.Sprintf("After %d rounds the enemy is broken. We lost %d, they lost %d; %d men return.",
				rep.Rounds, rep.PlayerLosses, rep.EnemyLosses, rep.Survivors)
		case outcomeWithdraw:
			body = fmt.Sprintf("We broke off after %d rounds, losing %d men; %d came home.",
				rep.Rounds, rep.PlayerLosses, rep.Survivors)
		default:
			body = fmt.Sprintf("The field is lost after %d rounds. %d men will not come home.",
				rep.Rounds, rep.PlayerLosses)
		}
		return &Request{
			ID:       id,
			Category: CategoryInfo,
			Title:    "Word from the Field",
			Body:     body,
			Options:  []Option{{Text: "So be it"}},
			Tickless: true,
		}
	default:
		req, ok := s.cat.request(id)
		if !ok {
			return nil
		}
		return req
	}
}
