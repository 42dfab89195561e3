package main

import (
	"html/template"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Prototype of the village decision screen: one shared game, a handful of
// hardcoded prompts, inline template. Predates the session store, catalog,
// scheduling and combat of the full server.

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

type LogLine struct {
	Tick int
	Text string
}

type Store struct {
	mu       sync.Mutex
	tick     int
	stats    Stats
	current  int
	gameOver bool
	log      []LogLine
	rng      *rand.Rand
}

type ViewData struct {
	Tick     int
	Stats    Stats
	Prompt   Prompt
	PromptID int
	GameOver bool
	Log      []LogLine
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
		Title: "Fire in the Lanes",
		Body:  "Smoke rises over the rooftops.",
		Choices: []Choice{
			{Text: "Pay for a bucket line", Gold: -12, FireRisk: -25},
			{Text: "Let it burn out", Health: -6, Satisfaction: -8, FireRisk: -15},
		},
	},
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Village Reeve (prototype)</title>
<style>body{font-family:ui-sans-serif,system-ui;background:#0b0f14;color:#e5ecf4;max-width:700px;margin:24px auto;padding:0 12px}
.card{background:#121923;border:1px solid #2a3442;border-radius:8px;padding:16px;margin-bottom:12px}
button{background:#1f6feb;color:#fff;border:0;padding:8px 14px;border-radius:6px;cursor:pointer;margin-right:8px}
.log{font-size:13px;color:#8b98a9}</style></head><body>
<h1>Village Reeve (prototype)</h1>
<div class="card">tick {{.Tick}} · gold {{.Stats.Gold}} · satisfaction {{.Stats.Satisfaction}} · health {{.Stats.Health}} · fire {{.Stats.FireRisk}} · farmers {{.Stats.Farmers}}</div>
{{if .GameOver}}
<div class="card"><h2>Game over</h2><p>The treasury is empty.</p>
<form method="post" action="/reset"><button>Restart</button></form></div>
{{else}}
<div class="card"><h2>{{.Prompt.Title}}</h2><p>{{.Prompt.Body}}</p>
{{range $i, $c := .Prompt.Choices}}
<form style="display:inline" method="post" action="/choose">
<input type="hidden" name="choice" value="{{$i}}">
<button>{{$c.Text}}</button></form>
{{end}}</div>
{{end}}
<div class="card log">{{range .Log}}<div>[{{.Tick}}] {{.Text}}</div>{{end}}</div>
</body></html>`))

func main() {
	store := newStore()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		render(w, store)
	})
	mux.HandleFunc("/choose", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		idx, err := strconv.Atoi(r.FormValue("choice"))
		store.mu.Lock()
		defer store.mu.Unlock()
		if err == nil && !store.gameOver {
			store.apply(idx)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	mux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		store.mu.Lock()
		*store = *newStore()
		store.mu.Unlock()
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	log.Println("listening on http://localhost:8081")
	log.Fatal(http.ListenAndServe(":8081", mux))
}

func newStore() *Store {
	s := &Store{
		stats: Stats{Gold: 50, Satisfaction: 60, Health: 60, FireRisk: 20, Farmers: 20},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.current = s.rng.Intn(len(prompts))
	s.addLog("The village looks to its new reeve.")
	return s
}

func (s *Store) apply(choiceIdx int) {
	p := prompts[s.current]
	if choiceIdx < 0 || choiceIdx >= len(p.Choices) {
		return
	}
	c := p.Choices[choiceIdx]
	s.stats.Gold += c.Gold
	s.stats.Satisfaction = clamp(s.stats.Satisfaction+c.Satisfaction, 0, 100)
	s.stats.Health = clamp(s.stats.Health+c.Health, 0, 100)
	s.stats.FireRisk = clamp(s.stats.FireRisk+c.FireRisk, 0, 100)
	s.addLog(p.Title + ": " + c.Text)

	tax := int(math.Floor(0.1 * float64(s.stats.Farmers) * float64(s.stats.Satisfaction-10) / 100))
	s.stats.Gold += tax
	growth := int(math.Floor(float64(s.stats.Health-25) / 20))
	s.stats.Farmers += growth
	if s.stats.Farmers < 0 {
		s.stats.Farmers = 0
	}

	if s.stats.Gold <= -50 {
		s.stats.Gold = -50
		s.gameOver = true
		s.addLog("The treasury is empty.")
		return
	}

	s.tick++
	next := s.rng.Intn(len(prompts))
	for next == s.current && len(prompts) > 1 {
		next = s.rng.Intn(len(prompts))
	}
	// Fire crisis preempts the random draw.
	if s.stats.FireRisk > 70 {
		next = 3
	}
	s.current = next
}

func (s *Store) addLog(text string) {
	s.log = append(s.log, LogLine{Tick: s.tick, Text: text})
	if len(s.log) > 20 {
		s.log = s.log[len(s.log)-20:]
	}
}

func render(w http.ResponseWriter, s *Store) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := ViewData{
		Tick:     s.tick,
		Stats:    s.stats,
		Prompt:   prompts[s.current],
		PromptID: s.current,
		GameOver: s.gameOver,
		Log:      s.log,
	}
	if err := page.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
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
