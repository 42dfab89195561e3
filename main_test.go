package main

import (
	"encoding/json"
	"testing"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	needs := []NeedConfig{
		{Need: NeedMarketplace, UnlockThreshold: 15, PerBuilding: 20, RequestID: "need-marketplace", InfoRequestID: "info-marketplace", DeclineOptionIndex: 1},
		{Need: NeedBread, UnlockThreshold: 25, PerBuilding: 25, RequestID: "need-bread", InfoRequestID: "info-bread", DeclineOptionIndex: 1},
		{Need: NeedBeer, UnlockThreshold: 40, PerBuilding: 35, RequestID: "need-beer", InfoRequestID: "info-beer", DeclineOptionIndex: 1},
		{Need: NeedFirewood, UnlockThreshold: 10, PerBuilding: 15, RequestID: "need-firewood", InfoRequestID: "info-firewood", DeclineOptionIndex: 1},
		{Need: NeedWell, UnlockThreshold: 30, PerBuilding: 30, RequestID: "need-well", InfoRequestID: "info-well", DeclineOptionIndex: 1},
	}

	var requests []Request
	for _, n := range needs {
		requests = append(requests,
			Request{
				ID:       n.RequestID,
				Category: CategoryNeed,
				Title:    "Need " + string(n.Need),
				Need:     n.Need,
				Options: []Option{
					{Text: "Build", Effect: Effect{Gold: -10, Needs: map[NeedType]bool{n.Need: true}}},
					{Text: "Decline", Effect: Effect{Satisfaction: -2}},
				},
			},
			Request{
				ID:       n.InfoRequestID,
				Category: CategoryInfo,
				Title:    "Built " + string(n.Need),
				Need:     n.Need,
				Tickless: true,
				Options:  []Option{{Text: "Good"}},
			},
		)
	}

	requests = append(requests,
		Request{ID: "crisis-fire", Category: CategoryEvent, Title: "Fire",
			Options: []Option{{Text: "Fight it", Effect: Effect{Gold: -10, FireRisk: -30}}, {Text: "Let it burn", Effect: Effect{Health: -10, FireRisk: -20}}}},
		Request{ID: "crisis-disease", Category: CategoryEvent, Title: "Disease",
			Options: []Option{{Text: "Hire a healer", Effect: Effect{Gold: -10, Health: 15}}, {Text: "Pray", Effect: Effect{Health: 5}}}},
		Request{ID: "crisis-unrest", Category: CategoryEvent, Title: "Unrest",
			Options: []Option{{Text: "Hold a feast", Effect: Effect{Gold: -15, Satisfaction: 15}}, {Text: "Stare them down", Effect: Effect{Satisfaction: 5, Authority: -2}}}},

		Request{ID: "ev-neutral", Category: CategoryEvent, Title: "A Quiet Day", CanTriggerRandomly: true,
			Options: []Option{{Text: "Walk the fields"}, {Text: "Rest"}}},
		Request{ID: "ev-coin", Category: CategoryEvent, Title: "Coin Matters", CanTriggerRandomly: true,
			Options: []Option{{Text: "Spend", Effect: Effect{Gold: -10}}, {Text: "Collect", Effect: Effect{Gold: 5}}}},
		Request{ID: "ev-raid", Category: CategoryEvent, Title: "Raiders", CanTriggerRandomly: true,
			Combat: &CombatSpec{
				EnemyForces: 3, FightOptionIndex: 0, PrepDelayMinTicks: 1, PrepDelayMaxTicks: 1,
				OnWin:  Effect{Gold: 20, Satisfaction: 5},
				OnLose: Effect{Satisfaction: -10},
			},
			Options: []Option{{Text: "Fight"}, {Text: "Pay them off", Effect: Effect{Gold: -15}}}},
		Request{ID: "ev-wager", Category: CategoryEvent, Title: "The Wager", CanTriggerRandomly: true,
			Options: []Option{
				{Text: "Stake your name", AuthorityCheck: &AuthorityCheck{
					MinCommit: 0, MaxCommit: 50, Threshold: 30,
					OnSuccess: &Effect{Gold: 10}, OnFailure: &Effect{Satisfaction: -5},
					RefundOnSuccessPercent: 50, ExtraLossOnFailure: 5,
					SuccessFeedbackRequestID: "info-won", FailureFeedbackRequestID: "info-lost",
					FollowUpBoosts: []FollowUpBoost{{TargetRequestID: "ev-neutral", Type: BoostLinear, Value: 4}},
				}},
				{Text: "Stay out of it"},
			}},
		Request{ID: "ev-pure-boost", Category: CategoryEvent, Title: "Quiet Influence", CanTriggerRandomly: true,
			Options: []Option{
				{Text: "Lean on the council", AuthorityCheck: &AuthorityCheck{
					MinCommit: 0, MaxCommit: 20, Threshold: 0, RefundOnSuccessPercent: 100,
					FollowUpBoosts: []FollowUpBoost{{TargetRequestID: "ev-coin", Type: BoostStepped, Value: 2, Steps: 4}},
				}},
				{Text: "Hold back"},
			}},
		Request{ID: "info-won", Category: CategoryInfo, Title: "It Held", Tickless: true, Options: []Option{{Text: "Good"}}},
		Request{ID: "info-lost", Category: CategoryInfo, Title: "It Broke", Tickless: true, Options: []Option{{Text: "So be it"}}},

		Request{ID: "ev-chain-start", Category: CategoryEvent, Title: "Tracks in the Snow", CanTriggerRandomly: true,
			ChainID: "wolves", ChainRole: ChainStart, ChainRestartCooldownTicks: 10,
			FollowUps: []FollowUp{{OnOptionIndex: 0, DelayMinTicks: 1, DelayMaxTicks: 1,
				Candidates: []FollowUpCandidate{{RequestID: "ev-chain-end", Weight: 1}}}},
			Options: []Option{{Text: "Follow them"}, {Text: "Ignore them", Effect: Effect{Satisfaction: -1}}}},
		Request{ID: "ev-chain-end", Category: CategoryEvent, Title: "The Den", CanTriggerRandomly: false,
			ChainID: "wolves", ChainRole: ChainEnd,
			Options: []Option{{Text: "Clear it out", Effect: Effect{Satisfaction: 5}}, {Text: "Leave it", Effect: Effect{Satisfaction: -3}}}},

		Request{ID: "ev-once", Category: CategoryEvent, Title: "The Old Mill", CanTriggerRandomly: true, MaxTriggers: 1,
			Options: []Option{{Text: "Repair it", Effect: Effect{Gold: -20, Satisfaction: 5}}, {Text: "Let it rot"}}},
		Request{ID: "ev-gated", Category: CategoryEvent, Title: "Market Day", CanTriggerRandomly: true,
			Requires: []string{"built:marketplace"},
			Options:  []Option{{Text: "Open the stalls", Effect: Effect{Gold: 10}}, {Text: "Keep it small", Effect: Effect{Gold: 3}}}},
	)

	cat, err := buildCatalog(requests, needs, CrisisIDs{Fire: "crisis-fire", Disease: "crisis-disease", Unrest: "crisis-unrest"})
	if err != nil {
		t.Fatalf("build test catalog: %v", err)
	}
	return cat
}

func newTestGame(t *testing.T, seed int64) *GameState {
	t.Helper()
	return newGameState(testCatalog(t), defaultTuning(), seed)
}

// forceRequest pins the current request so scenarios do not depend on what
// the picker happened to draw.
func forceRequest(g *GameState, id string) {
	g.CurrentRequestID = id
}

func TestBaselineEconomyScenario(t *testing.T) {
	g := newTestGame(t, 1)
	if g.Stats.Gold != 50 || g.Stats.Farmers != 20 || g.Stats.Satisfaction != 60 {
		t.Fatalf("unexpected start stats: %+v", g.Stats)
	}

	forceRequest(g, "ev-coin")
	applyAction(g, Action{OptionIndex: 0}) // -10 gold

	// 50 - 10, then tax floor(0.1*20*(60-10)/100) = 1 and growth
	// floor((60-25)/20) = 1.
	if g.Stats.Gold != 41 {
		t.Fatalf("gold = %d, want 41", g.Stats.Gold)
	}
	if g.Stats.Farmers != 21 {
		t.Fatalf("farmers = %d, want 21", g.Stats.Farmers)
	}
	if g.Tick != 1 {
		t.Fatalf("tick = %d, want 1", g.Tick)
	}
}

func TestBankruptcyIsTerminal(t *testing.T) {
	g := newTestGame(t, 1)
	g.Stats.Gold = -45
	forceRequest(g, "ev-coin")
	before := g.CurrentRequestID

	applyAction(g, Action{OptionIndex: 0}) // -10 gold drives it to the floor

	if !g.GameOver || g.GameOverReason != "bankruptcy" {
		t.Fatalf("expected bankruptcy, got over=%v reason=%q", g.GameOver, g.GameOverReason)
	}
	if g.Stats.Gold != bankruptcyGoldFloor {
		t.Fatalf("gold = %d, want clamped to %d", g.Stats.Gold, bankruptcyGoldFloor)
	}
	if g.CurrentRequestID != before {
		t.Fatalf("no further request should be picked after game over")
	}

	tickBefore := g.Tick
	applyAction(g, Action{OptionIndex: 1})
	if g.Tick != tickBefore {
		t.Fatalf("actions after game over must be no-ops")
	}
}

func TestInvalidInputsAreNoOps(t *testing.T) {
	g := newTestGame(t, 1)
	forceRequest(g, "ev-coin")
	snapshot, _ := json.Marshal(g)

	applyAction(g, Action{OptionIndex: -1})
	applyAction(g, Action{OptionIndex: 5})

	after, _ := json.Marshal(g)
	if string(snapshot) != string(after) {
		t.Fatalf("out-of-range option index mutated state")
	}
}

func TestClampInvariantHolds(t *testing.T) {
	g := newTestGame(t, 7)
	g.Stats.Satisfaction = 1
	g.Stats.Health = 99
	forceRequest(g, "crisis-unrest")
	applyAction(g, Action{OptionIndex: 1})

	for i := 0; i < 40 && !g.GameOver; i++ {
		applyAction(g, Action{OptionIndex: i % 2})
		st := g.Stats
		if st.Satisfaction < 0 || st.Satisfaction > 100 || st.Health < 0 || st.Health > 100 ||
			st.FireRisk < 0 || st.FireRisk > 100 {
			t.Fatalf("percent stat out of domain at step %d: %+v", i, st)
		}
		if st.Authority < 0 || st.Authority > authorityCap {
			t.Fatalf("authority out of domain at step %d: %v", i, st.Authority)
		}
		if st.Gold < bankruptcyGoldFloor || st.Farmers < 0 || st.LandForces < 0 {
			t.Fatalf("floor stat out of domain at step %d: %+v", i, st)
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() string {
		g := newTestGame(t, 99)
		for i := 0; i < 60 && !g.GameOver; i++ {
			req := presentableRequest(g, g.CurrentRequestID)
			if req == nil {
				t.Fatalf("unresolvable request %q at step %d", g.CurrentRequestID, i)
			}
			a := Action{OptionIndex: i % len(req.Options)}
			if req.Combat != nil && a.OptionIndex == req.Combat.FightOptionIndex {
				a.CombatCommit = 1
			}
			if req.Options[a.OptionIndex].AuthorityCheck != nil {
				commit := 5
				a.AuthorityCommit = &commit
			}
			applyAction(g, a)
		}
		blob, err := json.Marshal(g)
		if err != nil {
			t.Fatalf("marshal state: %v", err)
		}
		return string(blob)
	}

	first := run()
	second := run()
	if first != second {
		t.Fatalf("same seed and actions produced different states")
	}
}

func TestRestoredGameContinuesSameStream(t *testing.T) {
	g := newTestGame(t, 123)
	for i := 0; i < 10 && !g.GameOver; i++ {
		forceRequest(g, "ev-neutral")
		applyAction(g, Action{OptionIndex: 0})
	}

	blob, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored GameState
	if err := json.Unmarshal(blob, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored.rebind(g.cat, g.tun)

	forceRequest(g, "ev-neutral")
	forceRequest(&restored, "ev-neutral")
	applyAction(g, Action{OptionIndex: 1})
	applyAction(&restored, Action{OptionIndex: 1})

	a, _ := json.Marshal(g)
	b, _ := json.Marshal(&restored)
	if string(a) != string(b) {
		t.Fatalf("restored game diverged from the original")
	}
}

func TestCatalogValidationRejectsDanglers(t *testing.T) {
	needs := []NeedConfig{
		{Need: NeedMarketplace, UnlockThreshold: 15, PerBuilding: 20, RequestID: "need-marketplace", InfoRequestID: "missing-info"},
	}
	requests := []Request{
		{ID: "need-marketplace", Category: CategoryNeed, Need: NeedMarketplace,
			Options: []Option{{Text: "Build"}, {Text: "Decline"}}},
	}
	_, err := buildCatalog(requests, needs, CrisisIDs{Fire: "crisis-fire", Disease: "crisis-disease", Unrest: "crisis-unrest"})
	if err == nil {
		t.Fatalf("expected validation failure for dangling references")
	}
}

func TestShippedContentValidates(t *testing.T) {
	if gameContent == nil {
		t.Fatalf("shipped catalog failed to build")
	}
	if len(gameContent.Requests) == 0 {
		t.Fatalf("shipped catalog is empty")
	}
}
