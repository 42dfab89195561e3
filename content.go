package main

// The content below is the compiled-in catalog the engine consumes. It is
// deliberately small but exercises every subsystem: needs with unlock
// thresholds, crises, a combat event, authority checks (wagered and
// boost-only), a narrative chain, follow-up pools, trigger caps, and
// requirement-gated entries.

const (
	crisisFireID    = "crisis-fire"
	crisisDiseaseID = "crisis-disease"
	crisisUnrestID  = "crisis-unrest"
)

var gameContent = mustContent()

func mustContent() *Catalog {
	cat, err := buildCatalog(contentRequests(), contentNeeds(), CrisisIDs{
		Fire:    crisisFireID,
		Disease: crisisDiseaseID,
		Unrest:  crisisUnrestID,
	})
	if err != nil {
		panic(err)
	}
	return cat
}

func contentNeeds() []NeedConfig {
	return []NeedConfig{
		{Need: NeedMarketplace, UnlockThreshold: 15, PerBuilding: 20, RequestID: "need-marketplace", InfoRequestID: "info-marketplace-built", FulfillOptionIndex: 0, DeclineOptionIndex: 1},
		{Need: NeedBread, UnlockThreshold: 25, PerBuilding: 25, RequestID: "need-bread", InfoRequestID: "info-bread-built", FulfillOptionIndex: 0, DeclineOptionIndex: 1},
		{Need: NeedBeer, UnlockThreshold: 40, PerBuilding: 35, RequestID: "need-beer", InfoRequestID: "info-beer-built", FulfillOptionIndex: 0, DeclineOptionIndex: 1},
		{Need: NeedFirewood, UnlockThreshold: 10, PerBuilding: 15, RequestID: "need-firewood", InfoRequestID: "info-firewood-built", FulfillOptionIndex: 0, DeclineOptionIndex: 1},
		{Need: NeedWell, UnlockThreshold: 30, PerBuilding: 30, RequestID: "need-well", InfoRequestID: "info-well-built", FulfillOptionIndex: 0, DeclineOptionIndex: 1},
	}
}

func contentRequests() []Request {
	return []Request{
		// Need prompts. Option 0 builds, option 1 declines (cooldown applies).
		{
			ID: "need-marketplace", Category: CategoryNeed, Need: NeedMarketplace,
			Title: "A Place to Trade",
			Body:  "Peddlers sell from mud and cart-beds. The village asks for a marketplace.",
			Options: []Option{
				{Text: "Raise a marketplace (-25 gold)", Effect: Effect{Gold: -25, Satisfaction: 5, Needs: map[NeedType]bool{NeedMarketplace: true}}},
				{Text: "The mud will do for now", Effect: Effect{Satisfaction: -4}},
			},
		},
		{
			ID: "need-bread", Category: CategoryNeed, Need: NeedBread,
			Title: "The Ovens Are Cold",
			Body:  "Grain rots in sacks while families grind flour by hand. A bakery would feed them all.",
			Options: []Option{
				{Text: "Build a bakery (-30 gold)", Effect: Effect{Gold: -30, Health: 3, Needs: map[NeedType]bool{NeedBread: true}}},
				{Text: "Hand mills were good enough for our fathers", Effect: Effect{Satisfaction: -5}},
			},
		},
		{
			ID: "need-beer", Category: CategoryNeed, Need: NeedBeer,
			Title: "A Dry Village",
			Body:  "The men drink river water and grumble. A brewery would lift spirits considerably.",
			Options: []Option{
				{Text: "Commission a brewery (-35 gold)", Effect: Effect{Gold: -35, Satisfaction: 8, Needs: map[NeedType]bool{NeedBeer: true}}},
				{Text: "Sobriety builds character", Effect: Effect{Satisfaction: -6}},
			},
		},
		{
			ID: "need-firewood", Category: CategoryNeed, Need: NeedFirewood,
			Title: "Winter Is Not Asking",
			Body:  "Stacked wood runs low and the cold months are close. A woodcutter's hut would keep the hearths fed.",
			Options: []Option{
				{Text: "Build a woodcutter's hut (-20 gold)", Effect: Effect{Gold: -20, Needs: map[NeedType]bool{NeedFirewood: true}}},
				{Text: "Let each family fell its own", Effect: Effect{Satisfaction: -3, FireRisk: 5}},
			},
		},
		{
			ID: "need-well", Category: CategoryNeed, Need: NeedWell,
			Title: "Water from the River",
			Body:  "Every bucket is hauled uphill from the river, and sickness travels with it. Dig a well?",
			Options: []Option{
				{Text: "Dig a well (-30 gold)", Effect: Effect{Gold: -30, Health: 5, Needs: map[NeedType]bool{NeedWell: true}}},
				{Text: "The river has always served", Effect: Effect{Health: -3}},
			},
		},

		// One-time fulfillment reports, scheduled with info priority the
		// first time a need is met. Tickless.
		{ID: "info-marketplace-built", Category: CategoryInfo, Need: NeedMarketplace, Tickless: true,
			Title: "Market Day", Body: "Stalls rise in the square. Traders already haggle over the first pig.",
			Options: []Option{{Text: "Good"}}},
		{ID: "info-bread-built", Category: CategoryInfo, Need: NeedBread, Tickless: true,
			Title: "Fresh Bread", Body: "The bakery's first loaves draw a line down the lane. The miller beams.",
			Options: []Option{{Text: "Good"}}},
		{ID: "info-beer-built", Category: CategoryInfo, Need: NeedBeer, Tickless: true,
			Title: "First Pour", Body: "The brewery taps its first cask. Songs last well past dark.",
			Options: []Option{{Text: "Good"}}},
		{ID: "info-firewood-built", Category: CategoryInfo, Need: NeedFirewood, Tickless: true,
			Title: "Stacked High", Body: "Cord after cord of split wood lines the huts. Winter can come.",
			Options: []Option{{Text: "Good"}}},
		{ID: "info-well-built", Category: CategoryInfo, Need: NeedWell, Tickless: true,
			Title: "Sweet Water", Body: "The new well draws clear and cold. The river path grows quiet.",
			Options: []Option{{Text: "Good"}}},

		// Crises. Offered by the picker when a stat crosses its threshold;
		// excluded from the random pool.
		{
			ID: crisisFireID, Category: CategoryEvent, Title: "Fire!",
			Body: "Smoke over the granary roofs. Flames leap between thatch faster than men can run.",
			Options: []Option{
				{Text: "Organize bucket lines (-15 gold)", Effect: Effect{Gold: -15, FireRisk: -30}},
				{Text: "Let it burn out", Effect: Effect{Health: -8, Satisfaction: -10, FireRisk: -20}},
			},
		},
		{
			ID: crisisDiseaseID, Category: CategoryEvent, Title: "Sickness in the Rows",
			Body: "Fever moves from house to house. The herbalist asks for coin and quiet.",
			Options: []Option{
				{Text: "Pay the herbalist (-20 gold)", Effect: Effect{Gold: -20, Health: 15}},
				{Text: "Pray it passes", Effect: Effect{Health: 5, Satisfaction: -8}},
			},
		},
		{
			ID: crisisUnrestID, Category: CategoryEvent, Title: "Grumbling Turns Loud",
			Body: "A crowd gathers at your door with complaints older than the harvest.",
			Options: []Option{
				{Text: "Hear them out and open a cask (-10 gold)", Effect: Effect{Gold: -10, Satisfaction: 12}},
				{Text: "Send them home", Effect: Effect{Satisfaction: 4, Authority: -3}},
			},
		},

		// Random event pool.
		{
			ID: "ev-harvest", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "A Heavy Harvest",
			Body:  "The fields gave more than anyone guessed. Carts groan on the way to the barns.",
			Options: []Option{
				{Text: "Sell the surplus (+15 gold)", Effect: Effect{Gold: 15, Satisfaction: 3}},
				{Text: "Store it against lean years", Effect: Effect{Health: 4, Satisfaction: 2}},
			},
		},
		{
			ID: "ev-caravan", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "A Merchant Caravan",
			Body:  "Wagons with southern cloth and salt stop at the edge of the village.",
			Options: []Option{
				{Text: "Trade generously (-10 gold)", Effect: Effect{Gold: -10, Satisfaction: 6}},
				{Text: "Charge them for the road (+8 gold)", Effect: Effect{Gold: 8, Satisfaction: -2}},
			},
		},
		{
			ID: "ev-storm", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "Dry Storm",
			Body:  "Lightning without rain. A barn smolders and sparks ride the wind.",
			Options: []Option{
				{Text: "Post a fire watch (-5 gold)", Effect: Effect{Gold: -5, FireRisk: 10}},
				{Text: "Trust the night", Effect: Effect{FireRisk: 18, Health: -2}},
			},
		},
		{
			ID: "ev-brawl", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "Brawl at the Crossing",
			Body:  "Two families settle a fence line with fists. Teeth are lost; so is goodwill.",
			Options: []Option{
				{Text: "Fine them both (+6 gold)", Effect: Effect{Gold: 6, Satisfaction: -4}},
				{Text: "Judge the fence yourself", Effect: Effect{Satisfaction: 5, Authority: 2}},
			},
			FollowUps: []FollowUp{
				{OnOptionIndex: 0, DelayMinTicks: 1, DelayMaxTicks: 3, Candidates: []FollowUpCandidate{
					{RequestID: "ev-grudge", Weight: 1},
				}},
			},
		},
		{
			ID: "ev-grudge", Category: CategoryEvent, CanTriggerRandomly: false,
			Title: "The Grudge Festers",
			Body:  "The fined families now feud in earnest. Fences fall in the night.",
			Options: []Option{
				{Text: "Broker a peace over supper (-8 gold)", Effect: Effect{Gold: -8, Satisfaction: 6}},
				{Text: "Let them tire of it", Effect: Effect{Satisfaction: -5}},
			},
		},
		{
			ID: "ev-raiders", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "Riders on the Ridge",
			Body:  "Armed men watch the village from the tree line. They will come, paid or fought.",
			Options: []Option{
				{Text: "Muster the levy and fight", Effect: Effect{Satisfaction: 2}},
				{Text: "Pay them off (-25 gold)", Effect: Effect{Gold: -25, Satisfaction: -5}},
			},
			Combat: &CombatSpec{
				EnemyForces:       4,
				FightOptionIndex:  0,
				PrepDelayMinTicks: 1,
				PrepDelayMaxTicks: 3,
				OnWin:             Effect{Gold: 30, Satisfaction: 10, Authority: 3},
				OnLose:            Effect{Gold: -20, Satisfaction: -10, FireRisk: 10},
				FollowUpsOnWin: []FollowUp{
					{DelayMinTicks: 1, DelayMaxTicks: 2, Candidates: []FollowUpCandidate{
						{RequestID: "ev-spoils", Weight: 1},
					}},
				},
				FollowUpsOnLose: []FollowUp{
					{DelayMinTicks: 1, DelayMaxTicks: 2, Candidates: []FollowUpCandidate{
						{RequestID: "ev-grudge", Weight: 1},
					}},
				},
			},
			FollowUps: []FollowUp{
				{OnOptionIndex: 1, DelayMinTicks: 2, DelayMaxTicks: 5, Candidates: []FollowUpCandidate{
					{RequestID: "ev-raiders", Weight: 3},
					{RequestID: "ev-caravan", Weight: 1},
				}},
			},
		},
		{
			ID: "ev-spoils", Category: CategoryEvent, CanTriggerRandomly: false,
			Title: "Dividing the Spoils",
			Body:  "Captured horses and a strongbox. The levy watches how you split it.",
			Options: []Option{
				{Text: "Share it with the levy", Effect: Effect{Gold: 5, Satisfaction: 8}},
				{Text: "The treasury needs it more (+20 gold)", Effect: Effect{Gold: 20, Satisfaction: -6}},
			},
		},
		{
			ID: "ev-edict", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "The Grain Edict",
			Body:  "The elders resist your new grain levy. Spend standing to force it through, or let it lapse.",
			Options: []Option{
				{
					Text: "Press the edict",
					AuthorityCheck: &AuthorityCheck{
						MinCommit: 5, MaxCommit: 50, Threshold: 30,
						OnSuccess:                &Effect{Gold: 40, Satisfaction: -5},
						OnFailure:                &Effect{Satisfaction: -10},
						RefundOnSuccessPercent:   50,
						ExtraLossOnFailure:       5,
						SuccessFeedbackRequestID: "info-edict-upheld",
						FailureFeedbackRequestID: "info-edict-defied",
						FollowUpBoosts: []FollowUpBoost{
							{TargetRequestID: "ev-envoy", Type: BoostLinear, Value: 4},
						},
					},
				},
				{Text: "Let it lapse", Effect: Effect{Satisfaction: 5, Gold: -10}},
			},
			FollowUps: []FollowUp{
				{OnOptionIndex: 0, DelayMinTicks: 1, DelayMaxTicks: 3, Candidates: []FollowUpCandidate{
					{RequestID: "ev-envoy", Weight: 0},
					{RequestID: "ev-grudge", Weight: 2},
				}},
			},
		},
		{ID: "info-edict-upheld", Category: CategoryInfo, Tickless: true,
			Title: "The Edict Holds", Body: "The elders sign, sour but silent. Grain moves to the common stores.",
			Options: []Option{{Text: "Noted"}}},
		{ID: "info-edict-defied", Category: CategoryInfo, Tickless: true,
			Title: "The Edict Fails", Body: "The elders tear the notice from the post. Your name is said without the title.",
			Options: []Option{{Text: "Noted"}}},
		{
			ID: "ev-envoy", Category: CategoryEvent, CanTriggerRandomly: false,
			Title: "An Envoy from the Crown",
			Body:  "Word of your firm hand reached the county seat. An envoy arrives with questions and a purse.",
			Options: []Option{
				{Text: "Host the envoy (-10 gold)", Effect: Effect{Gold: -10, Authority: 8}},
				{Text: "Plead a busy season", Effect: Effect{Authority: -2}},
			},
		},
		{
			ID: "ev-festival", Category: CategoryEvent, CanTriggerRandomly: true,
			Title: "Petition for a Festival",
			Body:  "The village asks for a harvest festival. Lend your name to it and it may become something to remember.",
			Options: []Option{
				{
					Text:   "Grant it (-15 gold)",
					Effect: Effect{Gold: -15, Satisfaction: 8},
					AuthorityCheck: &AuthorityCheck{
						MinCommit: 0, MaxCommit: 20, Threshold: 0,
						RefundOnSuccessPercent: 100,
						FollowUpBoosts: []FollowUpBoost{
							{TargetRequestID: "ev-famous-fair", Type: BoostStepped, Value: 2, Steps: 4},
						},
					},
				},
				{Text: "Not this year", Effect: Effect{Satisfaction: -6}},
			},
			FollowUps: []FollowUp{
				{OnOptionIndex: 0, DelayMinTicks: 1, DelayMaxTicks: 2, Candidates: []FollowUpCandidate{
					{RequestID: "ev-famous-fair", Weight: 0},
					{RequestID: "ev-caravan", Weight: 1},
				}},
			},
		},
		{
			ID: "ev-famous-fair", Category: CategoryEvent, CanTriggerRandomly: false,
			Title: "A Fair Worth the Road",
			Body:  "Your festival drew traders from three valleys. The village has never been louder, or richer.",
			Options: []Option{
				{Text: "Savor it (+25 gold)", Effect: Effect{Gold: 25, Satisfaction: 10}},
			},
		},
		{
			ID: "ev-market-day", Category: CategoryEvent, CanTriggerRandomly: true,
			Requires: []string{"built:marketplace"},
			Title:    "A Thriving Market",
			Body:     "The marketplace hums. Stall fees alone could mend the church roof.",
			Options: []Option{
				{Text: "Collect the fees (+12 gold)", Effect: Effect{Gold: 12}},
				{Text: "Waive them this week", Effect: Effect{Satisfaction: 6}},
			},
		},
		{
			ID: "ev-old-mill", Category: CategoryEvent, CanTriggerRandomly: true, MaxTriggers: 1,
			Title: "The Old Mill",
			Body:  "The derelict mill on the stream could be restored, once, if you pay for it.",
			Options: []Option{
				{Text: "Restore it (-30 gold)", Effect: Effect{Gold: -30, Health: 5, Satisfaction: 5}},
				{Text: "Leave it to the ivy", Effect: Effect{}},
			},
		},
		{
			ID: "ev-county-court", Category: CategoryEvent, CanTriggerRandomly: true,
			AuthorityGate: &AuthorityGate{Min: 30, Max: 999.999},
			Title:         "Summons to the County Court",
			Body:          "Only a reeve of real standing is called to sit at the county court. You have been called.",
			Options: []Option{
				{Text: "Attend (-10 gold)", Effect: Effect{Gold: -10, Authority: 10}},
				{Text: "Send apologies", Effect: Effect{Authority: -5}},
			},
		},

		// The wolves chain: start -> member -> end, with a restart cooldown.
		{
			ID: "ev-wolves-start", Category: CategoryEvent, CanTriggerRandomly: true,
			ChainID: "wolves", ChainRole: ChainStart, ChainRestartCooldownTicks: 10,
			Title: "Something Takes the Sheep",
			Body:  "Three ewes gone in two nights, and tracks too large for any dog.",
			Options: []Option{
				{Text: "Send trackers (-5 gold)", Effect: Effect{Gold: -5}},
				{Text: "Losses happen", Effect: Effect{Satisfaction: -4}},
			},
			FollowUps: []FollowUp{
				{OnOptionIndex: 0, DelayMinTicks: 1, DelayMaxTicks: 2, Candidates: []FollowUpCandidate{
					{RequestID: "ev-wolves-tracks", Weight: 1},
				}},
			},
		},
		{
			ID: "ev-wolves-tracks", Category: CategoryEvent, CanTriggerRandomly: false,
			ChainID: "wolves", ChainRole: ChainMember,
			Title: "The Trail Leads Up",
			Body:  "The trackers found a den in the high rocks, and counted more eyes than they liked.",
			Options: []Option{
				{Text: "Hire hunters (-15 gold)", Effect: Effect{Gold: -15}},
				{Text: "Fence the pastures instead (-10 gold)", Effect: Effect{Gold: -10, Satisfaction: -2}},
			},
			FollowUps: []FollowUp{
				{OnOptionIndex: 0, DelayMinTicks: 1, DelayMaxTicks: 3, Candidates: []FollowUpCandidate{
					{RequestID: "ev-wolves-den", Weight: 1},
				}},
				{OnOptionIndex: 1, DelayMinTicks: 2, DelayMaxTicks: 4, Candidates: []FollowUpCandidate{
					{RequestID: "ev-wolves-den", Weight: 1},
				}},
			},
		},
		{
			ID: "ev-wolves-den", Category: CategoryEvent, CanTriggerRandomly: false,
			ChainID: "wolves", ChainRole: ChainEnd,
			Title: "The Den Is Cleared",
			Body:  "Pelts hang by the gate. The shepherds sleep through the night again.",
			Options: []Option{
				{Text: "Pay the hunters their bounty (-10 gold)", Effect: Effect{Gold: -10, Satisfaction: 8}},
				{Text: "The pelts are payment enough", Effect: Effect{Gold: 5, Satisfaction: 2}},
			},
		},
	}
}
