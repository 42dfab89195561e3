package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	cookieName     = "rid"
	actionCooldown = 300 * time.Millisecond
	adminToken     = "DEV"
	defaultAddr    = ":8080"
	templateRoot   = "templates"
	maxLogVisible  = 30
)

// Store holds every live game keyed by session id. One mutex guards the
// whole thing: requests are short and the per-action work is cheap, so a
// single lock keeps reads and writes trivially consistent.
type Store struct {
	mu sync.Mutex

	Games map[string]*GameState

	LastActionAt   map[string]time.Time
	ToastBySession map[string]string

	cat *Catalog
	tun Tuning

	repo    *SQLRepository
	journal *JournalWriter
	hub     *ObserverHub

	seedSource func() int64
}

type StatView struct {
	Label string
	Value string
	Class string
}

type OptionView struct {
	Index int
	Text  string

	ShowForcesInput bool
	ForcesMax       int

	ShowAuthorityInput bool
	AuthorityMin       int
	AuthorityMax       int
}

type ChangeView struct {
	Stat   string
	Amount string
	Source string
	Note   string
}

type LogView struct {
	Tick    int
	Source  string
	Text    string
	Changes []ChangeView
}

type NeedView struct {
	Name     string
	Active   bool
	Built    int
	Required int
	Cooldown bool
}

type PageData struct {
	Tick           int
	Stats          []StatView
	RequestTitle   string
	RequestBody    string
	Options        []OptionView
	Log            []LogView
	Needs          []NeedView
	BattleUnderway bool
	GameOver       bool
	GameOverReason string
	Toast          string
	Seed           int64
}

func main() {
	_ = godotenv.Load()

	tun, err := loadTuning(strings.TrimSpace(os.Getenv("REEVE_TUNING")))
	if err != nil {
		log.Fatalf("tuning: %v", err)
	}
	store, err := newConfiguredStore(tun)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	tmpl := parseTemplates()
	mux := newMux(store, tmpl)

	addr := strings.TrimSpace(os.Getenv("REEVE_ADDR"))
	if addr == "" {
		addr = defaultAddr
	}
	log.Printf("listening on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func newStore(tun Tuning) *Store {
	return &Store{
		Games:          map[string]*GameState{},
		LastActionAt:   map[string]time.Time{},
		ToastBySession: map[string]string{},
		cat:            gameContent,
		tun:            tun,
		seedSource:     func() int64 { return time.Now().UnixNano() },
	}
}

func newMux(store *Store, tmpl *template.Template) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		sid, g := ensureGameLocked(store, w, r)
		renderPage(w, tmpl, "base", buildPageDataLocked(store, sid, g, true))
	})

	mux.HandleFunc("/frag/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		sid, g := ensureGameLocked(store, w, r)
		renderActionLikeResponse(w, tmpl, buildPageDataLocked(store, sid, g, false))
	})

	mux.HandleFunc("/frag/log", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		sid, g := ensureGameLocked(store, w, r)
		renderPage(w, tmpl, "log_inner", buildPageDataLocked(store, sid, g, false))
	})

	mux.HandleFunc("/action", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		sid, g := ensureGameLocked(store, w, r)
		now := time.Now().UTC()
		if tooSoon(store.LastActionAt[sid], now, actionCooldown) {
			setToastLocked(store, sid, "Give it a moment.")
			renderActionLikeResponse(w, tmpl, buildPageDataLocked(store, sid, g, true))
			return
		}
		store.LastActionAt[sid] = now

		action, ok := parseActionForm(r)
		if !ok {
			setToastLocked(store, sid, "That choice made no sense.")
			renderActionLikeResponse(w, tmpl, buildPageDataLocked(store, sid, g, true))
			return
		}

		handleActionLocked(store, sid, g, action)
		renderActionLikeResponse(w, tmpl, buildPageDataLocked(store, sid, g, true))
	})

	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		store.mu.Lock()
		sid, _ := ensureGameLocked(store, w, r)
		g := newGameState(store.cat, store.tun, store.seedSource())
		store.Games[sid] = g
		store.persistLocked(sid, g)
		setToastLocked(store, sid, "A fresh start. The village waits.")
		store.mu.Unlock()
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	mux.HandleFunc("/observer/ws", func(w http.ResponseWriter, r *http.Request) {
		if store.hub == nil {
			http.Error(w, "observer feed disabled", http.StatusNotFound)
			return
		}
		store.hub.ServeWS(w, r)
	})

	mux.HandleFunc("/admin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !isAdmin(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Admin</title><style>body{font-family:ui-sans-serif,system-ui;background:#0b0f14;color:#e5ecf4;padding:24px}pre{background:#121923;border:1px solid #2a3442;padding:12px;border-radius:8px;overflow:auto}</style></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>Admin</h1><p>%d live games</p>", len(store.Games))
		for sid, g := range store.Games {
			_, _ = fmt.Fprintf(w, "<h2>%s</h2><pre>tick=%d seed=%d request=%s over=%v\nstats=%+v</pre>",
				template.HTMLEscapeString(shortSession(sid)), g.Tick, g.Seed, template.HTMLEscapeString(g.CurrentRequestID), g.GameOver, g.Stats)
		}
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

// handleActionLocked runs one engine transition and fans the result out to
// the collaborators: database, journal, observers.
func handleActionLocked(store *Store, sid string, g *GameState, a Action) {
	if g.GameOver {
		setToastLocked(store, sid, "The game is over. Start anew when ready.")
		return
	}
	requestBefore := g.CurrentRequestID

	if !applyAction(g, a) {
		setToastLocked(store, sid, "Nothing came of that.")
		return
	}

	store.persistLocked(sid, g)
	if store.journal != nil {
		store.journal.Append(JournalRecord{
			Session:   shortSession(sid),
			Tick:      g.Tick,
			RequestID: requestBefore,
			Action:    a,
			Stats:     g.Stats,
			GameOver:  g.GameOver,
		})
	}
	if store.hub != nil {
		store.hub.Broadcast(observerSnapshot(sid, g))
	}
}

func parseActionForm(r *http.Request) (Action, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(r.FormValue("option_index")))
	if err != nil || idx < 0 {
		return Action{}, false
	}
	a := Action{OptionIndex: idx}
	if raw := strings.TrimSpace(r.FormValue("combat_commit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Action{}, false
		}
		a.CombatCommit = n
	}
	if raw := strings.TrimSpace(r.FormValue("authority_commit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Action{}, false
		}
		a.AuthorityCommit = &n
	}
	return a, true
}

func ensureGameLocked(store *Store, w http.ResponseWriter, r *http.Request) (string, *GameState) {
	var sid string
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		sid = c.Value
	} else {
		sid = generateID()
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	g := store.Games[sid]
	if g == nil {
		g = newGameState(store.cat, store.tun, store.seedSource())
		store.Games[sid] = g
		store.persistLocked(sid, g)
		setToastLocked(store, sid, "The village looks to you, reeve.")
	}
	return sid, g
}

func buildPageDataLocked(store *Store, sid string, g *GameState, consumeToast bool) PageData {
	req := presentableRequest(g, g.CurrentRequestID)
	data := PageData{
		Tick:           g.Tick,
		Stats:          statViews(g),
		Needs:          needViews(g),
		Log:            logViews(g),
		BattleUnderway: g.ActiveCombat != nil,
		GameOver:       g.GameOver,
		GameOverReason: g.GameOverReason,
		Seed:           g.Seed,
	}
	if req != nil {
		data.RequestTitle = req.Title
		data.RequestBody = req.Body
		data.Options = optionViews(g, req)
	}
	if consumeToast {
		data.Toast = popToastLocked(store, sid)
	} else {
		data.Toast = store.ToastBySession[sid]
	}
	return data
}

func statViews(g *GameState) []StatView {
	classify := func(v, warn, bad int, invert bool) string {
		if invert {
			if v >= bad {
				return "bad"
			}
			if v >= warn {
				return "warn"
			}
			return ""
		}
		if v <= bad {
			return "bad"
		}
		if v <= warn {
			return "warn"
		}
		return ""
	}
	return []StatView{
		{Label: "Gold", Value: strconv.Itoa(g.Stats.Gold), Class: classify(g.Stats.Gold, 10, 0, false)},
		{Label: "Satisfaction", Value: strconv.Itoa(g.Stats.Satisfaction), Class: classify(g.Stats.Satisfaction, 40, unrestCrisisThreshold, false)},
		{Label: "Health", Value: strconv.Itoa(g.Stats.Health), Class: classify(g.Stats.Health, 40, healthCrisisThreshold, false)},
		{Label: "Fire Risk", Value: strconv.Itoa(g.Stats.FireRisk), Class: classify(g.Stats.FireRisk, 50, fireCrisisThreshold, true)},
		{Label: "Farmers", Value: strconv.Itoa(g.Stats.Farmers)},
		{Label: "Forces", Value: strconv.Itoa(g.Stats.LandForces)},
		{Label: "Authority", Value: strconv.FormatFloat(g.Stats.Authority, 'f', -1, 64)},
	}
}

func optionViews(g *GameState, req *Request) []OptionView {
	out := make([]OptionView, 0, len(req.Options))
	for i, opt := range req.Options {
		v := OptionView{Index: i, Text: opt.Text}
		if req.Combat != nil && i == req.Combat.FightOptionIndex {
			v.ShowForcesInput = true
			v.ForcesMax = g.Stats.LandForces
		}
		if ac := opt.AuthorityCheck; ac != nil {
			v.ShowAuthorityInput = true
			v.AuthorityMin = ac.MinCommit
			v.AuthorityMax = minInt(ac.MaxCommit, int(g.Stats.Authority))
		}
		out = append(out, v)
	}
	return out
}

func needViews(g *GameState) []NeedView {
	var out []NeedView
	for _, need := range needOrder {
		cfg := g.cat.NeedsCfg[need]
		if !isNeedUnlocked(cfg, g.Stats.Farmers) {
			continue
		}
		out = append(out, NeedView{
			Name:     string(need),
			Active:   g.Needs[need],
			Built:    g.NeedsTracking[need].BuildingCount,
			Required: calculateRequiredBuildings(cfg, g.Stats.Farmers),
			Cooldown: isNeedOnCooldown(g, need),
		})
	}
	return out
}

func logViews(g *GameState) []LogView {
	entries := g.Log
	if len(entries) > maxLogVisible {
		entries = entries[len(entries)-maxLogVisible:]
	}
	out := make([]LogView, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		lv := LogView{Tick: e.Tick, Source: e.Source, Text: e.Text}
		for _, c := range e.Changes {
			lv.Changes = append(lv.Changes, ChangeView{
				Stat:   c.Stat,
				Amount: formatAmount(c.Amount),
				Source: c.Source,
				Note:   c.Note,
			})
		}
		out = append(out, lv)
	}
	return out
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%+d", int64(v))
	}
	return fmt.Sprintf("%+.2f", v)
}

func parseTemplates() *template.Template {
	base := template.Must(template.New("root").ParseGlob(filepath.Join(templateRoot, "*.html")))
	return template.Must(base.ParseGlob(filepath.Join(templateRoot, "fragments", "*.html")))
}

func renderPage(w http.ResponseWriter, tmpl *template.Template, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// htmx response strategy: /action and /frag/dashboard return the dashboard
// as the primary swap target plus out-of-band fragments so the header, log
// and toast stay in sync.
func renderActionLikeResponse(w http.ResponseWriter, tmpl *template.Template, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "dashboard", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = tmpl.ExecuteTemplate(w, "header_oob", data)
	_ = tmpl.ExecuteTemplate(w, "log_oob", data)
	_ = tmpl.ExecuteTemplate(w, "toast_oob", data)
}

func setToastLocked(store *Store, sid, text string) {
	store.ToastBySession[sid] = text
}

func popToastLocked(store *Store, sid string) string {
	msg := store.ToastBySession[sid]
	delete(store.ToastBySession, sid)
	return msg
}

func isAdmin(r *http.Request) bool {
	if r.URL.Query().Get("token") == adminToken {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return host == "localhost" || (ip != nil && ip.IsLoopback())
}

func generateID() string {
	buf := make([]byte, 18)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func shortSession(sid string) string {
	if len(sid) <= 8 {
		return sid
	}
	return sid[:8]
}

func tooSoon(last time.Time, now time.Time, d time.Duration) bool {
	if last.IsZero() {
		return false
	}
	return now.Sub(last) < d
}
