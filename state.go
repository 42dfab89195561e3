package main

const maxLogEntries = 500

// Stats is the fixed set of village statistics. Domains are enforced by
// clampStats after every mutation: satisfaction/health/fireRisk in [0,100],
// authority in [0, authorityCap], gold no lower than the bankruptcy floor,
// farmers and landForces never negative.
type Stats struct {
	Gold         int     `json:"gold"`
	Satisfaction int     `json:"satisfaction"`
	Health       int     `json:"health"`
	FireRisk     int     `json:"fireRisk"`
	Farmers      int     `json:"farmers"`
	LandForces   int     `json:"landForces"`
	Authority    float64 `json:"authority"`
}

// AppliedChange is one audit record of a committed stat mutation. Source
// distinguishes base option effects from modifier-generated corrections.
type AppliedChange struct {
	Stat   string  `json:"stat"`
	Amount float64 `json:"amount"`
	Source string  `json:"source"`
	Note   string  `json:"note,omitempty"`
}

type LogEntry struct {
	Tick    int             `json:"tick"`
	Source  string          `json:"source"`
	Text    string          `json:"text,omitempty"`
	Changes []AppliedChange `json:"changes,omitempty"`
}

// NeedTracking holds the persistent per-need counters. BuildingCount never
// decreases; NextEligibleTick is the cooldown floor after a decline.
type NeedTracking struct {
	BuildingCount    int `json:"buildingCount"`
	NextEligibleTick int `json:"nextEligibleTick"`
}

type EventPriority string

const (
	PriorityInfo   EventPriority = "info"
	PriorityNormal EventPriority = "normal"
)

// ScheduledEvent queues a request for future presentation. ScheduledAtTick
// breaks ties FIFO; info-priority entries preempt normal ones among due
// events.
type ScheduledEvent struct {
	TargetTick      int           `json:"targetTick"`
	RequestID       string        `json:"requestId"`
	ScheduledAtTick int           `json:"scheduledAtTick"`
	Priority        EventPriority `json:"priority,omitempty"`
	Note            string        `json:"note,omitempty"`
}

// ScheduledCombat reserves committed forces until the battle begins at
// DueTick.
type ScheduledCombat struct {
	CombatID        string `json:"combatId"`
	OriginRequestID string `json:"originRequestId"`
	DueTick         int    `json:"dueTick"`
	ScheduledAtTick int    `json:"scheduledAtTick"`
	EnemyForces     int    `json:"enemyForces"`
	CommittedForces int    `json:"committedForces"`
}

type RoundResult struct {
	PlayerLosses int `json:"playerLosses"`
	EnemyLosses  int `json:"enemyLosses"`
}

type ActiveCombat struct {
	ScheduledCombat
	EnemyRemaining         int          `json:"enemyRemaining"`
	CommittedRemaining     int          `json:"committedRemaining"`
	InitialEnemyForces     int          `json:"initialEnemyForces"`
	InitialCommittedForces int          `json:"initialCommittedForces"`
	Round                  int          `json:"round"`
	LastRound              *RoundResult `json:"lastRound,omitempty"`
}

// PendingAuthorityCheck records a wagered commit awaiting resolution exactly
// one tick after it was made. The check configuration is looked up from the
// origin request and option, never copied into state.
type PendingAuthorityCheck struct {
	CheckID         string `json:"checkId"`
	InitiatedTick   int    `json:"initiatedTick"`
	ResolveTick     int    `json:"resolveTick"`
	OriginRequestID string `json:"originRequestId"`
	OptionIndex     int    `json:"optionIndex"`
	Committed       int    `json:"committed"`
}

type ChainStatus struct {
	Active        bool `json:"active"`
	Completed     bool `json:"completed"`
	CompletedTick int  `json:"completedTick,omitempty"`
}

// GameState is the aggregate root: mutated exclusively by the reducer, one
// action per call, never destroyed mid-game, only marked terminal.
type GameState struct {
	Tick  int   `json:"tick"`
	Stats Stats `json:"stats"`

	Needs         map[NeedType]bool          `json:"needs"`
	NeedsTracking map[NeedType]*NeedTracking `json:"needsTracking"`

	CurrentRequestID string `json:"currentRequestId"`
	LastRequestID    string `json:"lastRequestId"`

	Log []LogEntry `json:"log"`

	GameOver       bool   `json:"gameOver"`
	GameOverReason string `json:"gameOverReason,omitempty"`

	ScheduledEvents  []ScheduledEvent        `json:"scheduledEvents"`
	ScheduledCombats []ScheduledCombat       `json:"scheduledCombats"`
	ActiveCombat     *ActiveCombat           `json:"activeCombat,omitempty"`
	PendingChecks    []PendingAuthorityCheck `json:"pendingAuthorityChecks"`
	Chains           map[string]*ChainStatus `json:"chainStatus"`

	TriggerCounts map[string]int  `json:"requestTriggerCounts"`
	Unlocks       map[string]bool `json:"unlocks"`

	Seed          int64 `json:"seed"`
	RandPos       int64 `json:"randPos"`
	NextCombatSeq int   `json:"nextCombatSeq"`
	NextCheckSeq  int   `json:"nextCheckSeq"`

	rng *Rand
	cat *Catalog
	tun Tuning
}

func newGameState(cat *Catalog, tun Tuning, seed int64) *GameState {
	s := &GameState{
		Stats: Stats{
			Gold:         tun.StartGold,
			Satisfaction: tun.StartSatisfaction,
			Health:       tun.StartHealth,
			FireRisk:     tun.StartFireRisk,
			Farmers:      tun.StartFarmers,
			LandForces:   tun.StartLandForces,
			Authority:    tun.StartAuthority,
		},
		Needs:         map[NeedType]bool{},
		NeedsTracking: map[NeedType]*NeedTracking{},
		Chains:        map[string]*ChainStatus{},
		TriggerCounts: map[string]int{},
		Unlocks:       map[string]bool{},
		Seed:          seed,
		rng:           newRand(seed),
		cat:           cat,
		tun:           tun,
	}
	for _, need := range needOrder {
		s.NeedsTracking[need] = &NeedTracking{}
	}
	s.syncUnlockTokens()
	s.CurrentRequestID = pickNextRequest(s)
	s.RandPos = s.rng.Position()
	s.appendLog(LogEntry{Tick: 0, Source: "Game Start", Text: "The village looks to its new reeve."})
	return s
}

// rebind reattaches the unexported runtime references after a state was
// deserialized, fast-forwarding the RNG stream to its saved offset.
func (s *GameState) rebind(cat *Catalog, tun Tuning) {
	s.cat = cat
	s.tun = tun
	s.rng = restoreRand(s.Seed, s.RandPos)
	if s.Needs == nil {
		s.Needs = map[NeedType]bool{}
	}
	if s.NeedsTracking == nil {
		s.NeedsTracking = map[NeedType]*NeedTracking{}
	}
	for _, need := range needOrder {
		if s.NeedsTracking[need] == nil {
			s.NeedsTracking[need] = &NeedTracking{}
		}
	}
	if s.Chains == nil {
		s.Chains = map[string]*ChainStatus{}
	}
	if s.TriggerCounts == nil {
		s.TriggerCounts = map[string]int{}
	}
	if s.Unlocks == nil {
		s.Unlocks = map[string]bool{}
	}
}

func (s *GameState) appendLog(e LogEntry) {
	s.Log = append(s.Log, e)
	if len(s.Log) > maxLogEntries {
		s.Log = s.Log[len(s.Log)-maxLogEntries:]
	}
}

// clampStats enforces every stat domain. Called after every mutation.
func (s *GameState) clampStats() {
	s.Stats.Satisfaction = clampInt(s.Stats.Satisfaction, 0, 100)
	s.Stats.Health = clampInt(s.Stats.Health, 0, 100)
	s.Stats.FireRisk = clampInt(s.Stats.FireRisk, 0, 100)
	s.Stats.Authority = clampFloat(s.Stats.Authority, 0, authorityCap)
	if s.Stats.Gold < bankruptcyGoldFloor {
		s.Stats.Gold = bankruptcyGoldFloor
	}
	if s.Stats.Farmers < 0 {
		s.Stats.Farmers = 0
	}
	if s.Stats.LandForces < 0 {
		s.Stats.LandForces = 0
	}
}

// totalForces is the conserved quantity: available forces plus everything
// reserved in scheduled or active combats. It may only decrease, via combat
// losses.
func (s *GameState) totalForces() int {
	total := s.Stats.LandForces
	for _, sc := range s.ScheduledCombats {
		total += sc.CommittedForces
	}
	if s.ActiveCombat != nil {
		total += s.ActiveCombat.CommittedRemaining
	}
	return total
}

// syncUnlockTokens grants the need-derived tokens. Tokens ratchet: once
// granted they are never revoked, matching BuildingCount's monotonicity.
func (s *GameState) syncUnlockTokens() {
	for _, need := range needOrder {
		cfg := s.cat.NeedsCfg[need]
		if s.Stats.Farmers >= cfg.UnlockThreshold {
			s.Unlocks["unlocked:"+string(need)] = true
		}
		if s.NeedsTracking[need].BuildingCount >= 1 {
			s.Unlocks["built:"+string(need)] = true
		}
	}
}

func (s *GameState) hasUnlocks(tokens []string) bool {
	for _, tok := range tokens {
		if !s.Unlocks[tok] {
			return false
		}
	}
	return true
}

// clone deep-copies the serialized portion of the state. The runtime
// references (rng, catalog, tuning) are shared: a restored clone continues
// the same draw stream.
func (s *GameState) clone() *GameState {
	c := *s
	c.Needs = make(map[NeedType]bool, len(s.Needs))
	for k, v := range s.Needs {
		c.Needs[k] = v
	}
	c.NeedsTracking = make(map[NeedType]*NeedTracking, len(s.NeedsTracking))
	for k, v := range s.NeedsTracking {
		cp := *v
		c.NeedsTracking[k] = &cp
	}
	c.Log = append([]LogEntry(nil), s.Log...)
	c.ScheduledEvents = append([]ScheduledEvent(nil), s.ScheduledEvents...)
	c.ScheduledCombats = append([]ScheduledCombat(nil), s.ScheduledCombats...)
	if s.ActiveCombat != nil {
		ac := *s.ActiveCombat
		if s.ActiveCombat.LastRound != nil {
			lr := *s.ActiveCombat.LastRound
			ac.LastRound = &lr
		}
		c.ActiveCombat = &ac
	}
	c.PendingChecks = append([]PendingAuthorityCheck(nil), s.PendingChecks...)
	c.Chains = make(map[string]*ChainStatus, len(s.Chains))
	for k, v := range s.Chains {
		cp := *v
		c.Chains[k] = &cp
	}
	c.TriggerCounts = make(map[string]int, len(s.TriggerCounts))
	for k, v := range s.TriggerCounts {
		c.TriggerCounts[k] = v
	}
	c.Unlocks = make(map[string]bool, len(s.Unlocks))
	for k, v := range s.Unlocks {
		c.Unlocks[k] = v
	}
	return &c
}

// restoreFrom copies a clone's data back over this state, keeping the live
// runtime references. Used by the defensive invariant checks to fail safe.
func (s *GameState) restoreFrom(c *GameState) {
	rng, cat, tun := s.rng, s.cat, s.tun
	*s = *c
	s.rng, s.cat, s.tun = rng, cat, tun
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
