// Guessbox Number Game
//
// Players pick secret numbers between 0 and 100 on a shared device, then take
// turns guessing the next player's number out loud. The browser handles speech
// recognition and speech synthesis; the server owns the match.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Every client message is one render cycle: load, apply one action, save, broadcast the view
// - Narration (speech and sound effects) is broadcast in the order the game produced it
// - Voice captures carry the capture key they were mounted with; late captures from an old turn are dropped
// - Validation messages go only to the offending client
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - Players identified by cookie (guessbox_id)
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/guessbox/game"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string   `json:"type"`                 // "sync", "capture", or any game action kind
	Count      int      `json:"count,omitempty"`      // set_player_count
	Names      []string `json:"names,omitempty"`      // confirm_names
	Secret     string   `json:"secret,omitempty"`     // save_secret
	Key        string   `json:"key,omitempty"`        // capture
	Value      *int     `json:"value,omitempty"`      // capture, already parsed by the client
	Transcript string   `json:"transcript,omitempty"` // capture, raw recognition result
}

// ViewMessage carries everything needed to draw the current phase.
type ViewMessage struct {
	Type string    `json:"type"` // "view"
	View game.View `json:"view"`
}

// NarrationMessage is one speech or sound effect for the client to play.
type NarrationMessage struct {
	Type  string     `json:"type"` // "narrate"
	Kind  string     `json:"kind"` // "speak" or "sound"
	Text  string     `json:"text,omitempty"`
	Sound game.Sound `json:"sound,omitempty"`
}

// ErrorMessage is sent to a single client whose action was rejected.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type request struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	ctx     context.Context
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	requests chan request
	done     chan struct{}
	stop     sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	driver  *game.Driver
	metrics *Metrics
}

func newHub(ctx context.Context, gameID string, driver *game.Driver, metrics *Metrics) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		ctx:        ctx,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan request),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		driver:     driver,
		metrics:    metrics,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			ctx, cancel := context.WithTimeout(h.ctx, timeout)
			view, err := h.driver.View(ctx, h.id)
			cancel()
			if err != nil {
				logf(cfg, "ERROR: Loading %s for new client: %v", h.id, err)
				h.sendLocked(c, ErrorMessage{Type: "error", Message: "The game could not be loaded. Please try again."})
			} else {
				h.sendLocked(c, ViewMessage{Type: "view", View: view})
			}
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			h.handle(cfg, req)

		case <-h.done:
			return
		}
	}
}

// handle runs one render cycle for a client message.
func (h *Hub) handle(cfg *Config, req request) {
	c := req.client
	msg := req.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	ctx, cancel := context.WithTimeout(h.ctx, timeout)
	defer cancel()

	in := &game.CycleInput{
		SessionID: h.id,
		Narrator:  hubNarrator{h},
	}

	switch msg.Type {
	case "sync":
		out, err := h.driver.Cycle(ctx, in)
		if err != nil {
			h.reportLocked(cfg, c, msg.Type, err)
			return
		}
		h.sendLocked(c, ViewMessage{Type: "view", View: out.View})
		return

	case string(game.ActionCapture):
		in.Voice = captureFromMessage(msg)

		out, err := h.driver.Cycle(ctx, in)
		if err != nil {
			h.reportLocked(cfg, c, msg.Type, err)
			return
		}

		h.metrics.observeCapture(out.Captured)
		if !out.Captured {
			logf(cfg, "GAMES: Discarded capture with key %q in %s", msg.Key, h.id)
			return
		}

		h.broadcastLocked(ViewMessage{Type: "view", View: out.View})
		return
	}

	in.Action = &game.Action{
		Kind:   game.ActionKind(msg.Type),
		Count:  msg.Count,
		Names:  msg.Names,
		Secret: msg.Secret,
	}

	out, err := h.driver.Cycle(ctx, in)
	h.metrics.observeAction(in.Action.Kind, err)
	if err != nil {
		h.reportLocked(cfg, c, msg.Type, err)
		if out != nil {
			h.sendLocked(c, ViewMessage{Type: "view", View: out.View})
		}
		return
	}

	h.metrics.observeGuesses(out.Scored)
	for _, g := range out.Scored {
		logf(cfg, "GAMES: %q guessed %d for %q in %s: %s", g.Guesser, g.Guess, g.Target, h.id, g.Result)
	}
	if out.View.Phase == game.PhaseFinished && len(out.Scored) > 0 {
		logf(cfg, "GAMES: %q won %s", out.View.Winner, h.id)
	}

	h.broadcastLocked(ViewMessage{Type: "view", View: out.View})
}

func captureFromMessage(msg ClientMessage) game.VoiceSource {
	if msg.Value != nil {
		return game.NewCapture(msg.Key, *msg.Value)
	}

	if c := game.NewTranscriptCapture(msg.Key, msg.Transcript); c != nil {
		return c
	}

	return nil
}

// reportLocked tells the client why its message had no effect.
func (h *Hub) reportLocked(cfg *Config, c *Client, action string, err error) {
	text := err.Error()
	if !game.IsValidation(err) {
		logf(cfg, "ERROR: %s in %s: %v", action, h.id, err)
		text = "Something went wrong. Please try again."
	}

	h.sendLocked(c, ErrorMessage{Type: "error", Message: text})
}

// sendLocked assumes h.mu is already held.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcastLocked assumes h.mu is already held.
func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// hubNarrator broadcasts narration to every client in call order.
type hubNarrator struct {
	h *Hub
}

func (n hubNarrator) Speak(text string) {
	n.h.broadcastLocked(NarrationMessage{Type: "narrate", Kind: string(game.EffectSpeak), Text: text})
}

func (n hubNarrator) PlaySound(s game.Sound) {
	n.h.broadcastLocked(NarrationMessage{Type: "narrate", Kind: string(game.EffectSound), Sound: s})
}

// closeAll stops the hub and disconnects all of its clients.
func (h *Hub) closeAll() {
	h.stop.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "guessbox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	cfg *Config

	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	driver  *game.Driver
	metrics *Metrics
}

func newGameManager(cfg *Config, idleTimeout time.Duration, driver *game.Driver, metrics *Metrics) *GameManager {
	ctx, cancel := context.WithCancel(context.Background())

	gm := &GameManager{
		cfg:         cfg,
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		ctx:         ctx,
		cancel:      cancel,
		driver:      driver,
		metrics:     metrics,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.ctx, gameID, gm.driver, gm.metrics)
	gm.hubs[gameID] = hub
	gm.metrics.sessions.Inc()
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than
// idleTimeout, discarding their stored state.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				gm.metrics.sessions.Dec()
				go gm.reap(id, hub)
			}
		}
		gm.mu.Unlock()
	}
}

func (gm *GameManager) reap(id string, hub *Hub) {
	hub.closeAll()

	ctx, cancel := context.WithTimeout(gm.ctx, timeout)
	defer cancel()

	if err := gm.driver.End(ctx, id); err != nil {
		logf(gm.cfg, "ERROR: Reaping %s: %v", id, err)

		return
	}

	logf(gm.cfg, "GAMES: Reaped idle game %s", id)
}

// Close disconnects every client. Stored sessions are left in place so a
// persistent store survives a restart.
func (gm *GameManager) Close() {
	gm.mu.Lock()
	hubs := gm.hubs
	gm.hubs = make(map[string]*Hub)
	gm.mu.Unlock()

	for _, hub := range hubs {
		hub.closeAll()
		gm.metrics.sessions.Dec()
	}

	gm.cancel()
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Upgrading connection for %s: %v", gameID, err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 32),
			playerID: playerID,
		}

		logf(cfg, "GAMES: Player %s connected to %s from %s", playerID, gameID, realIP(r))

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type == "" {
			continue
		}

		select {
		case h.requests <- request{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// serveState returns the current view as JSON without touching the game.
func serveState(cfg *Config, driver *game.Driver, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		view, err := driver.View(r.Context(), ps.ByName("gameid"))
		if err != nil {
			logf(cfg, "ERROR: Loading state for %s: %v", ps.ByName("gameid"), err)
			http.Error(w, "unable to load game", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(view); err != nil {
			errs <- err
		}
	}
}

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/guess/index.html")
		if err != nil {
			http.Error(w, "missing client", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerGuessGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/state    → JSON view of that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerGuessGame(cfg *Config, path string, mux *httprouter.Router, store game.Store, metrics *Metrics, errs chan<- error) (*GameManager, error) {
	driver, err := game.NewDriver(&game.DriverConfig{
		Store: store,
		Lang:  cfg.voiceLang,
	})
	if err != nil {
		return nil, err
	}

	gm := newGameManager(cfg, cfg.sessionTimeout, driver, metrics)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/state", serveState(cfg, driver, errs))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm, nil
}
