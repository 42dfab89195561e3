package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

// Proof-of-concept for the village decision loop: a stdin-driven version of
// the turn engine with a tiny hardcoded event table. The real server keeps
// the full catalog, scheduling and combat; this exists to feel out the
// baseline economy and the one-request-per-turn rhythm.

type Stats struct {
	Gold         int
	Satisfaction int
	Health       int
	FireRisk     int
	Farmers      int
}

type Choice struct {
	Text         string
	Gold         int
	Satisfaction int
	Health       int
	FireRisk     int
}

type Prompt struct {
	Title   string
	Body    string
	Choices []Choice
}

type World struct {
	Tick     int
	Stats    Stats
	Current  Prompt
	GameOver bool
	rng      *rand.Rand
	lastIdx  int
}

var prompts = []Prompt{
	{
		Title: "A Good Harvest",
		Body:  "The fields have given more than expected.",
		Choices: []Choice{
			{Text: "Sell the surplus", Gold: 15, Satisfaction: -2},
			{Text: "Share it out", Satisfaction: 8, Health: 2},
		},
	},
	{
		Title: "A Passing Caravan",
		Body:  "Merchants offer goods at a fair price.",
		Choices: []Choice{
			{Text: "Trade with them", Gold: 8, Satisfaction: 3},
			{Text: "Send them on", Satisfaction: -1},
		},
	},
	{
		Title: "Dry Weeks",
		Body:  "No rain for a month. Thatch crackles underfoot.",
		Choices: []Choice{
			{Text: "Hire water carriers", Gold: -8, FireRisk: -10},
			{Text: "Trust to luck", FireRisk: 12},
		},
	},
	{
		Title: "A Quarrel at the Mill",
		Body:  "Two families dispute who grinds first.",
		Choices: []Choice{
			{Text: "Judge the matter", Satisfaction: 4},
			{Text: "Let them sort it out", Satisfaction: -4, Health: -1},
		},
	},
}

func main() {
	seedFlag := flag.Int64("seed", 0, "seed for rng")
	flag.Parse()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	world := newWorld(seed)
	renderStatus(world)
	renderPrompt(world)

	reader := bufio.NewReader(os.Stdin)
	for {
		if world.GameOver {
			fmt.Println("The treasury is empty. Game over.")
			return
		}
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(strings.ToLower(line))
		switch line {
		case "":
			continue
		case "status":
			renderStatus(world)
		case "quit":
			return
		default:
			idx, err := strconv.Atoi(line)
			if err != nil || idx < 1 || idx > len(world.Current.Choices) {
				fmt.Println("Pick a choice number, or: status, quit")
				continue
			}
			world.Apply(idx - 1)
			renderStatus(world)
			if !world.GameOver {
				renderPrompt(world)
			}
		}
	}
}

func newWorld(seed int64) *World {
	w := &World{
		Stats: Stats{Gold: 50, Satisfaction: 60, Health: 60, FireRisk: 20, Farmers: 20},
		rng:   rand.New(rand.NewSource(seed)),
	}
	w.Current = w.nextPrompt()
	return w
}

func (w *World) Apply(choiceIdx int) {
	c := w.Current.Choices[choiceIdx]
	w.Stats.Gold += c.Gold
	w.Stats.Satisfaction = clamp(w.Stats.Satisfaction+c.Satisfaction, 0, 100)
	w.Stats.Health = clamp(w.Stats.Health+c.Health, 0, 100)
	w.Stats.FireRisk = clamp(w.Stats.FireRisk+c.FireRisk, 0, 100)

	// Baseline economy, same formulas the full engine uses.
	tax := int(math.Floor(0.1 * float64(w.Stats.Farmers) * float64(w.Stats.Satisfaction-10) / 100))
	w.Stats.Gold += tax
	growth := int(math.Floor(float64(w.Stats.Health-25) / 20))
	w.Stats.Farmers += growth
	if w.Stats.Farmers < 0 {
		w.Stats.Farmers = 0
	}

	if w.Stats.Gold <= -50 {
		w.Stats.Gold = -50
		w.GameOver = true
		return
	}

	w.Tick++
	w.Current = w.nextPrompt()
}

func (w *World) nextPrompt() Prompt {
	idx := w.rng.Intn(len(prompts))
	if len(prompts) > 1 {
		for idx == w.lastIdx {
			idx = w.rng.Intn(len(prompts))
		}
	}
	w.lastIdx = idx
	return prompts[idx]
}

func renderStatus(w *World) {
	fmt.Printf("[tick %d] gold=%d satisfaction=%d health=%d fireRisk=%d farmers=%d\n",
		w.Tick, w.Stats.Gold, w.Stats.Satisfaction, w.Stats.Health, w.Stats.FireRisk, w.Stats.Farmers)
}

func renderPrompt(w *World) {
	fmt.Printf("\n%s\n%s\n", w.Current.Title, w.Current.Body)
	for i, c := range w.Current.Choices {
		fmt.Printf("  %d) %s\n", i+1, c.Text)
	}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
