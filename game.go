// Quikword game engine
//
// Players join a shared room, are shown a rotating category and a grid of
// letters, and take turns picking an unused letter (or typing a word, in
// text mode) before the countdown expires. Letting the countdown hit zero
// eliminates the player; the last survivor wins the round, and enough round
// wins end the game.
//
// Features:
// - WebSockets per room: /room/:roomid/ws
// - Players identified by a server-assigned id, sent in a welcome message
// - Rooms lock when a round starts; joins are rejected until round end
// - Selected letters are toggleable until the turn ends, then locked
// - Turn countdowns tick as events through the same serialized loop as
//   client actions, so a timer can never race a concurrent mutation
// - Stale countdowns are fenced off by a per-turn sequence number
// - Text mode collects a submitted word per turn instead of a letter
// - Empty rooms are destroyed; idle rooms are reaped after a timeout
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

type client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type inboundEvent struct {
	client *client
	msg    clientMessage
}

// Hub owns one Room. Every mutation flows through run's select loop, one
// event at a time; countdown goroutines only ever send tickEvents into it.
type Hub struct {
	cfg      *Config
	registry *Registry
	room     *Room

	clients map[*client]bool

	register chan *client
	unreg    chan *client
	events   chan inboundEvent
	ticks    chan tickEvent
	quit     chan struct{}

	quitOnce sync.Once

	mu           sync.RWMutex
	lastActive   time.Time
	seq          uint64
	tickInterval time.Duration
}

func newHub(cfg *Config, registry *Registry, room *Room) *Hub {
	return &Hub{
		cfg:          cfg,
		registry:     registry,
		room:         room,
		clients:      make(map[*client]bool),
		register:     make(chan *client),
		unreg:        make(chan *client),
		events:       make(chan inboundEvent),
		ticks:        make(chan tickEvent, 1),
		quit:         make(chan struct{}),
		lastActive:   time.Now(),
		tickInterval: time.Second,
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unreg:
			h.handleUnregister(c)
		case ev := <-h.events:
			h.dispatch(ev)
		case tick := <-h.ticks:
			h.handleTick(tick)
		}
	}
}

func (h *Hub) dispatch(ev inboundEvent) {
	switch ev.msg.Type {
	case "join":
		h.handleJoin(ev.client, ev.msg)
	case "countdown-started":
		h.handleStartCountdown()
	case "select-letter":
		h.handleSelectLetter(ev.client, ev.msg)
	case "end-turn":
		h.handleEndTurn(ev.client, ev.msg)
	case "reset-timer":
		h.handleResetTimer()
	case "set-text-mode":
		h.handleSetTextMode(ev.msg)
	case "leave-room":
		h.handleLeave(ev.client)
	default:
		log.Debug().Str("room", h.room.ID()).Str("type", ev.msg.Type).Msg("ignoring unknown message type")
	}
}

func (h *Hub) handleRegister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()
	h.clients[c] = true

	h.sendLocked(c, welcomeMessage{
		Type:     "welcome",
		PlayerID: c.playerID,
		RoomID:   h.room.ID(),
		Locked:   h.room.IsLocked(),
	})
}

func (h *Hub) handleUnregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	// A dropped connection leaves the room like an explicit leave would.
	h.removePlayerLocked(c.playerID)
}

func (h *Hub) handleJoin(c *client, msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if h.room.IsLocked() {
		h.sendLocked(c, roomLockedMessage{
			Type:    "room-locked",
			Message: "The round has already started; no new players may join.",
		})
		return
	}

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return
	}

	_, added := h.room.AddPlayer(c.playerID, name)
	if added && h.room.PlayerCount() == 1 {
		h.room.GrantTurn()
	}
	if added {
		log.Debug().Str("room", h.room.ID()).Str("player", c.playerID).Str("name", name).Msg("player joined")
	}

	h.broadcastLocked(roomJoinedMessage{
		Type:          "room-joined",
		Players:       h.room.PlayersView(),
		UsedLetters:   h.room.UsedLettersView(),
		CurrentPlayer: h.room.CurrentPlayerView(),
		PlayerCount:   h.room.PlayerCount(),
	})
}

func (h *Hub) handleStartCountdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if h.room.CountdownStarted() || h.room.PlayerCount() == 0 {
		return
	}

	h.room.LockRoom()
	h.room.SetCategory(randomCategory())
	h.startCountdownLocked()

	log.Debug().Str("room", h.room.ID()).Str("category", h.room.Category()).Msg("round started, room locked")

	h.broadcastLocked(roundStartedMessage{
		Type:          "round-started",
		Category:      h.room.Category(),
		UsedLetters:   h.room.UsedLettersView(),
		CurrentPlayer: h.room.CurrentPlayerView(),
	})
}

func (h *Hub) handleTick(ev tickEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A tick from a countdown that has since been reset or superseded.
	if ev.seq != h.seq || !h.room.CountdownStarted() {
		return
	}

	remaining := h.room.DecrementCountdown()
	h.broadcastLocked(tickMessage{
		Type:      "tick",
		Countdown: remaining,
	})

	if remaining > 0 {
		return
	}

	h.expireTurnLocked()
}

// expireTurnLocked is the countdown-expiry transition: eliminate the current
// player, hand the turn on, and close out the round or game when a single
// survivor remains.
func (h *Hub) expireTurnLocked() {
	h.room.ResetCountdown()

	eliminated := h.room.EliminateCurrentPlayer()
	if eliminated == nil {
		log.Error().Str("room", h.room.ID()).Msg("countdown expired with no players")
		return
	}

	h.advanceTurnLocked()

	log.Debug().Str("room", h.room.ID()).Str("player", eliminated.ID).Msg("player eliminated")

	h.broadcastLocked(playerEliminatedMessage{
		Type:             "player-eliminated",
		EliminatedPlayer: clonePlayer(eliminated),
	})

	if h.room.RemainingPlayerCount() > 1 {
		h.startCountdownLocked()
		h.broadcastStartTurnLocked()
		return
	}

	h.finishRoundLocked()
}

// finishRoundLocked awards the round to the sole survivor and closes out the
// round, or the game once the winner reaches the win threshold. With nobody
// left to award, the round is abandoned so the room can accept joins again.
func (h *Hub) finishRoundLocked() {
	winner := h.room.RemainingPlayer()
	if winner == nil {
		log.Error().Str("room", h.room.ID()).Msg("round finished with no remaining players")
		h.room.EndRound()
		h.room.UnlockRoom()
		h.broadcastLocked(roundEndedMessage{Type: "round-ended"})
		return
	}

	h.room.IncreasePlayerWinCount(winner.ID)
	winnerView := clonePlayer(winner)

	if gameWinner := h.room.GameWinner(); gameWinner != nil {
		gameWinnerView := clonePlayer(gameWinner)
		h.room.EndGame()
		h.room.UnlockRoom()

		log.Debug().Str("room", h.room.ID()).Str("player", gameWinnerView.ID).Msg("game ended")

		h.broadcastLocked(gameEndedMessage{
			Type:          "game-ended",
			GameWinner:    gameWinnerView,
			UsedLetters:   h.room.UsedLettersView(),
			CurrentPlayer: h.room.CurrentPlayerView(),
			PlayerCount:   h.room.PlayerCount(),
		})
		return
	}

	h.room.EndRound()
	h.room.UnlockRoom()

	log.Debug().Str("room", h.room.ID()).Str("player", winnerView.ID).Msg("round ended")

	h.broadcastLocked(roundEndedMessage{
		Type:          "round-ended",
		WinningPlayer: winnerView,
	})
}

func (h *Hub) handleSelectLetter(c *client, msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if !h.room.IsLocked() || msg.Letter == "" {
		return
	}

	cur := h.room.CurrentPlayer()
	if cur == nil || cur.ID != c.playerID {
		// Stale or out-of-turn selection.
		return
	}

	h.room.AddUsedLetter(msg.Letter)
	if msg.PrevLetter != "" {
		h.room.RemoveUsedLetter(msg.PrevLetter)
	}

	h.broadcastLocked(letterSelectedMessage{
		Type:        "letter-selected",
		UsedLetters: h.room.UsedLettersView(),
	})
}

func (h *Hub) handleEndTurn(c *client, msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if !h.room.IsLocked() {
		return
	}

	cur := h.room.CurrentPlayer()
	if cur == nil || cur.ID != c.playerID {
		// Stale end-turn: the sender's turn already ended, either by a
		// faster expiry or an earlier end-turn.
		return
	}

	if msg.SelectedLetter != "" {
		h.room.SetLetterUnselectable(msg.SelectedLetter)
	}
	if h.room.InTextMode() && msg.TextModeWord != "" {
		h.room.AddTextModeWord(msg.TextModeWord)
	}

	h.advanceTurnLocked()
	h.startCountdownLocked()
	h.broadcastStartTurnLocked()
}

func (h *Hub) handleResetTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if !h.room.IsLocked() {
		return
	}

	h.startCountdownLocked()
	h.broadcastLocked(tickMessage{
		Type:      "tick",
		Countdown: h.room.CountdownRemaining(),
	})
}

func (h *Hub) handleSetTextMode(msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if msg.IsInTextMode == nil {
		return
	}

	h.room.SetTextMode(*msg.IsInTextMode)
	h.broadcastLocked(textModeSetMessage{
		Type:         "text-mode-set",
		IsInTextMode: *msg.IsInTextMode,
	})
}

func (h *Hub) handleLeave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()
	h.removePlayerLocked(c.playerID)
}

// removePlayerLocked takes a player out of the room, reassigns the turn if
// the leaver held it, and destroys the room once nobody is left.
func (h *Hub) removePlayerLocked(playerID string) {
	p := h.room.Player(playerID)
	if p == nil {
		return
	}

	wasCurrent := p.IsTurn
	h.room.RemovePlayer(playerID)

	log.Debug().Str("room", h.room.ID()).Str("player", playerID).Msg("player left")

	if h.room.PlayerCount() == 0 {
		h.room.ResetCountdown()
		h.registry.RemoveRoom(h.room.ID())
		h.shutdownLocked()
		return
	}

	h.broadcastLocked(playerLeftMessage{
		Type:        "player-left",
		PlayerID:    playerID,
		PlayerCount: h.room.PlayerCount(),
	})

	// A mid-round leave can strand a sole survivor; that ends the round the
	// same way a countdown expiry would.
	if h.room.IsLocked() && h.room.RemainingPlayerCount() <= 1 {
		h.room.GrantTurn()
		if cur := h.room.CurrentPlayer(); cur != nil && cur.Eliminated {
			h.advanceTurnLocked()
		}
		h.finishRoundLocked()
		return
	}

	if wasCurrent {
		// The clamped index already points at the leaver's successor.
		granted := h.room.GrantTurn()
		if granted != nil && granted.Eliminated {
			h.advanceTurnLocked()
		}
		if h.room.CountdownStarted() {
			h.startCountdownLocked()
		}
		h.broadcastStartTurnLocked()
	}
}

// advanceTurnLocked hands the turn to the next non-eliminated player and
// fences off any countdown started for the previous turn.
func (h *Hub) advanceTurnLocked() {
	h.seq++

	count := h.room.PlayerCount()
	for i := 0; i < count; i++ {
		next := h.room.SetNextPlayer()
		if next == nil || !next.Eliminated {
			break
		}
	}
}

// startCountdownLocked cancels any running countdown and starts a fresh one
// stamped with a new sequence number.
func (h *Hub) startCountdownLocked() {
	h.seq++
	h.room.ResetCountdown()
	h.room.StartCountdown(h.seq, h.tickInterval, h.ticks)
}

func (h *Hub) broadcastStartTurnLocked() {
	h.broadcastLocked(startTurnMessage{
		Type:          "start-turn",
		CurrentPlayer: h.room.CurrentPlayerView(),
		TextModeWords: h.room.TextModeWords(),
		UsedLetters:   h.room.UsedLettersView(),
	})
}

func (h *Hub) sendLocked(c *client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) shutdownLocked() {
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.room.ResetCountdown()
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

// closeAll disconnects every client and stops the hub (used by the reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdownLocked()
}

// roomInfo is a reaper-safe snapshot for the REST handlers.
func (h *Hub) roomInfo() (id string, usedLetters map[string]bool, locked bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.room.ID(), h.room.UsedLettersView(), h.room.IsLocked()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket handler that resolves the hub from :roomid.
func serveWS(rg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")

		hub, err := rg.GetRoom(roomID)
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Str("room", roomID).Msg("websocket upgrade failed")
			return
		}

		c := &client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: uuid.NewString(),
		}

		select {
		case hub.register <- c:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go c.writePump()
		c.readPump(hub)
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.events <- inboundEvent{client: c, msg: msg}:
		case <-h.quit:
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
