package main

import (
	"fmt"
	"sort"
)

type NeedType string

const (
	NeedMarketplace NeedType = "marketplace"
	NeedBread       NeedType = "bread"
	NeedBeer        NeedType = "beer"
	NeedFirewood    NeedType = "firewood"
	NeedWell        NeedType = "well"
)

// needOrder is the fixed enumeration order used wherever needs are scanned.
var needOrder = []NeedType{NeedMarketplace, NeedBread, NeedBeer, NeedFirewood, NeedWell}

type RequestCategory string

const (
	CategoryNeed  RequestCategory = "need"
	CategoryInfo  RequestCategory = "info"
	CategoryEvent RequestCategory = "event"
)

type ChainRole string

const (
	ChainStart  ChainRole = "start"
	ChainMember ChainRole = "member"
	ChainEnd    ChainRole = "end"
)

// Effect is a sparse set of stat deltas plus need-flag assignments. Zero
// fields mean "no change"; the Needs map is nil when no flag is touched.
type Effect struct {
	Gold         int               `json:"gold,omitempty"`
	Satisfaction int               `json:"satisfaction,omitempty"`
	Health       int               `json:"health,omitempty"`
	FireRisk     int               `json:"fireRisk,omitempty"`
	Farmers      int               `json:"farmers,omitempty"`
	LandForces   int               `json:"landForces,omitempty"`
	Authority    float64           `json:"authority,omitempty"`
	Needs        map[NeedType]bool `json:"needs,omitempty"`
}

func (e Effect) isZero() bool {
	return e.Gold == 0 && e.Satisfaction == 0 && e.Health == 0 && e.FireRisk == 0 &&
		e.Farmers == 0 && e.LandForces == 0 && e.Authority == 0 && len(e.Needs) == 0
}

type BoostType string

const (
	BoostLinear    BoostType = "linear"
	BoostThreshold BoostType = "threshold"
	BoostStepped   BoostType = "stepped"
)

// FollowUpBoost reweights one follow-up candidate based on how much authority
// was committed alongside the choice.
type FollowUpBoost struct {
	TargetRequestID string
	Type            BoostType
	Value           float64
	Steps           int // stepped only
}

// AuthorityCheck describes a wager of authority resolved one tick after the
// commit.
type AuthorityCheck struct {
	MinCommit                int
	MaxCommit                int
	Threshold                int
	OnSuccess                *Effect
	OnFailure                *Effect
	RefundOnSuccessPercent   int
	ExtraLossOnFailure       int
	SuccessFeedbackRequestID string
	FailureFeedbackRequestID string
	FollowUpBoosts           []FollowUpBoost
}

// boostOnly reports whether the check wagers nothing but follow-up weight:
// no outcome effects means full refund and no feedback.
func (c *AuthorityCheck) boostOnly() bool {
	return c.OnSuccess == nil && c.OnFailure == nil
}

type Option struct {
	Text           string
	Effect         Effect
	AuthorityCheck *AuthorityCheck
}

type FollowUpCandidate struct {
	RequestID string
	Weight    float64
}

// FollowUp schedules one request from a weighted pool after a triggering
// choice, delayed by 1 + uniform(delayMin, delayMax) ticks.
type FollowUp struct {
	OnOptionIndex int
	DelayMinTicks int
	DelayMaxTicks int
	Candidates    []FollowUpCandidate
}

// CombatSpec attaches a schedulable battle to a request. The fight option
// reserves forces immediately; the battle begins after the prep delay.
type CombatSpec struct {
	EnemyForces       int
	FightOptionIndex  int
	PrepDelayMinTicks int
	PrepDelayMaxTicks int
	OnWin             Effect
	OnLose            Effect
	FollowUpsOnWin    []FollowUp
	FollowUpsOnLose   []FollowUp
}

// AuthorityGate restricts random triggering to an authority band.
type AuthorityGate struct {
	Min float64
	Max float64
}

type Request struct {
	ID       string
	Category RequestCategory
	Title    string
	Body     string
	Options  []Option

	Combat        *CombatSpec
	AuthorityGate *AuthorityGate

	ChainID                   string
	ChainRole                 ChainRole
	ChainRestartCooldownTicks int

	Requires           []string
	CanTriggerRandomly bool
	Tickless           bool // true = answering never advances the tick
	MaxTriggers        int  // 0 = unlimited

	FollowUps []FollowUp

	// Need requests and their one-time fulfillment reports carry the need
	// they belong to.
	Need NeedType
}

// NeedConfig is the static per-need configuration: population threshold to
// unlock, population per additional required unit, and the catalog entries
// tied to the need.
type NeedConfig struct {
	Need               NeedType
	UnlockThreshold    int
	PerBuilding        int
	RequestID          string
	InfoRequestID      string
	FulfillOptionIndex int
	DeclineOptionIndex int
}

// Catalog is the immutable content the engine consumes: every request keyed
// by id plus the need and crisis wiring.
type Catalog struct {
	Requests  []Request
	ByID      map[string]*Request
	NeedsCfg  map[NeedType]NeedConfig
	CrisisIDs CrisisIDs
}

type CrisisIDs struct {
	Fire    string
	Disease string
	Unrest  string
}

func (c *Catalog) request(id string) (*Request, bool) {
	r, ok := c.ByID[id]
	return r, ok
}

func (c *Catalog) isCrisisID(id string) bool {
	return id == c.CrisisIDs.Fire || id == c.CrisisIDs.Disease || id == c.CrisisIDs.Unrest
}

func buildCatalog(requests []Request, needs []NeedConfig, crisis CrisisIDs) (*Catalog, error) {
	cat := &Catalog{
		Requests:  requests,
		ByID:      make(map[string]*Request, len(requests)),
		NeedsCfg:  make(map[NeedType]NeedConfig, len(needs)),
		CrisisIDs: crisis,
	}
	for i := range cat.Requests {
		r := &cat.Requests[i]
		if _, dup := cat.ByID[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate request id %q", r.ID)
		}
		cat.ByID[r.ID] = r
	}
	for _, n := range needs {
		cat.NeedsCfg[n.Need] = n
	}
	if err := validateCatalog(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// validateCatalog rejects content that could strand the picker or dangle a
// reference. The picker's emergency fallback exists, but reaching it is a
// content bug; this check keeps it unreachable for shipped content.
func validateCatalog(cat *Catalog) error {
	var problems []string
	addProblem := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for i := range cat.Requests {
		r := &cat.Requests[i]
		if r.ID == "" {
			addProblem("request %d: empty id", i)
			continue
		}
		if n := len(r.Options); n < 1 || n > 2 {
			addProblem("request %s: %d options, want 1-2", r.ID, n)
		}
		for _, fu := range r.FollowUps {
			if fu.OnOptionIndex < 0 || fu.OnOptionIndex >= len(r.Options) {
				addProblem("request %s: follow-up on option %d out of range", r.ID, fu.OnOptionIndex)
			}
			if fu.DelayMaxTicks < fu.DelayMinTicks {
				addProblem("request %s: follow-up delay max < min", r.ID)
			}
			for _, cand := range fu.Candidates {
				if _, ok := cat.ByID[cand.RequestID]; !ok {
					addProblem("request %s: follow-up candidate %s not in catalog", r.ID, cand.RequestID)
				}
			}
		}
		if r.Combat != nil {
			if r.Combat.EnemyForces < 1 {
				addProblem("request %s: combat with no enemy forces", r.ID)
			}
			if r.Combat.FightOptionIndex < 0 || r.Combat.FightOptionIndex >= len(r.Options) {
				addProblem("request %s: combat fight option out of range", r.ID)
			}
			for _, fu := range append(append([]FollowUp{}, r.Combat.FollowUpsOnWin...), r.Combat.FollowUpsOnLose...) {
				for _, cand := range fu.Candidates {
					if _, ok := cat.ByID[cand.RequestID]; !ok {
						addProblem("request %s: combat follow-up candidate %s not in catalog", r.ID, cand.RequestID)
					}
				}
			}
		}
		for _, opt := range r.Options {
			ac := opt.AuthorityCheck
			if ac == nil {
				continue
			}
			if ac.MaxCommit < ac.MinCommit {
				addProblem("request %s: authority check max < min commit", r.ID)
			}
			for _, fb := range []string{ac.SuccessFeedbackRequestID, ac.FailureFeedbackRequestID} {
				if fb == "" {
					continue
				}
				if _, ok := cat.ByID[fb]; !ok {
					addProblem("request %s: feedback request %s not in catalog", r.ID, fb)
				}
			}
			for _, boost := range ac.FollowUpBoosts {
				if _, ok := cat.ByID[boost.TargetRequestID]; !ok {
					addProblem("request %s: boost target %s not in catalog", r.ID, boost.TargetRequestID)
				}
				if boost.Type == BoostStepped && boost.Steps < 1 {
					addProblem("request %s: stepped boost needs steps >= 1", r.ID)
				}
			}
		}
		if (r.ChainID == "") != (r.ChainRole == "") {
			addProblem("request %s: chain id and role must be set together", r.ID)
		}
	}

	for _, crisisID := range []string{cat.CrisisIDs.Fire, cat.CrisisIDs.Disease, cat.CrisisIDs.Unrest} {
		if _, ok := cat.ByID[crisisID]; !ok {
			addProblem("crisis request %s not in catalog", crisisID)
		}
	}
	for _, need := range needOrder {
		ncfg, ok := cat.NeedsCfg[need]
		if !ok {
			addProblem("need %s has no config", need)
			continue
		}
		req, ok := cat.ByID[ncfg.RequestID]
		if !ok {
			addProblem("need %s: request %s not in catalog", need, ncfg.RequestID)
		} else if req.Category != CategoryNeed {
			addProblem("need %s: request %s is not need-category", need, ncfg.RequestID)
		}
		if _, ok := cat.ByID[ncfg.InfoRequestID]; !ok {
			addProblem("need %s: info request %s not in catalog", need, ncfg.InfoRequestID)
		}
		if ncfg.PerBuilding < 1 {
			addProblem("need %s: per-building step must be >= 1", need)
		}
	}

	// The random pool must hold at least one event that is always eligible:
	// randomly triggerable, uncapped, unconditional, not a crisis or chain
	// start. Without one, the picker could exhaust its normal tiers.
	alwaysEligible := 0
	for i := range cat.Requests {
		r := &cat.Requests[i]
		if r.Category != CategoryEvent || !r.CanTriggerRandomly || cat.isCrisisID(r.ID) {
			continue
		}
		if r.MaxTriggers > 0 || len(r.Requires) > 0 || r.ChainRole == ChainStart || r.AuthorityGate != nil {
			continue
		}
		alwaysEligible++
	}
	if alwaysEligible < 2 {
		addProblem("random pool needs at least 2 always-eligible events, found %d", alwaysEligible)
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("catalog validation failed:\n  %s", joinLines(problems))
	}
	return nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n  "
		}
		out += l
	}
	return out
}
