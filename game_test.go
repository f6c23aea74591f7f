package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The hub handlers take their own lock, so tests drive them directly
// instead of going through run's channels.
func newTestHub(gameWinCount int) (*Hub, *Registry) {
	cfg := &Config{
		gameWinCount: gameWinCount,
		turnDuration: 10 * time.Second,
	}
	rg := newRegistry(cfg)

	room := NewRoom("brave-otter", cfg.turnSeconds(), cfg.gameWinCount)
	h := newHub(cfg, rg, room)
	// Keep real tickers from firing mid-test; expiry is driven manually.
	h.tickInterval = time.Hour
	rg.hubs[room.ID()] = h

	return h, rg
}

func addClient(h *Hub, playerID string) *client {
	c := &client{
		send:     make(chan any, 64),
		playerID: playerID,
	}
	h.handleRegister(c)
	return c
}

func joinRoom(h *Hub, c *client, name string) {
	h.handleJoin(c, clientMessage{Type: "join", Name: name})
}

func drain(c *client) []any {
	var msgs []any
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// expireCountdown feeds the hub exactly enough current-sequence ticks to
// bring the running countdown to zero.
func expireCountdown(t *testing.T, h *Hub) {
	t.Helper()
	require.True(t, h.room.CountdownStarted())

	for i := h.room.CountdownRemaining(); i > 0; i-- {
		h.handleTick(tickEvent{seq: h.seq})
	}
}

func lastMessageOfType[T any](t *testing.T, msgs []any) T {
	t.Helper()

	var found T
	ok := false
	for _, m := range msgs {
		if typed, is := m.(T); is {
			found = typed
			ok = true
		}
	}
	require.True(t, ok, "no message of type %T in %v", found, msgs)
	return found
}

func TestHub_FirstJoinBecomesCurrent(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")

	cur := h.room.CurrentPlayer()
	require.NotNil(t, cur)
	assert.Equal(t, "p1", cur.ID)
	assert.True(t, cur.IsTurn)

	joined := lastMessageOfType[roomJoinedMessage](t, drain(c1))
	assert.Equal(t, 1, joined.PlayerCount)
	assert.Equal(t, "p1", joined.CurrentPlayer.ID)
}

func TestHub_JoinLockedRoomRejected(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")
	h.handleStartCountdown()

	c2 := addClient(h, "p2")
	joinRoom(h, c2, "Ben")

	assert.Equal(t, 1, h.room.PlayerCount())
	rejection := lastMessageOfType[roomLockedMessage](t, drain(c2))
	assert.Equal(t, "room-locked", rejection.Type)
}

func TestHub_StartCountdownLocksAndPicksCategory(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")
	drain(c1)

	h.handleStartCountdown()

	assert.True(t, h.room.IsLocked())
	assert.True(t, h.room.CountdownStarted())
	assert.NotEmpty(t, h.room.Category())

	started := lastMessageOfType[roundStartedMessage](t, drain(c1))
	assert.Equal(t, h.room.Category(), started.Category)
	assert.Equal(t, "p1", started.CurrentPlayer.ID)

	// A second start while running is ignored.
	category := h.room.Category()
	h.handleStartCountdown()
	assert.Equal(t, category, h.room.Category())
}

// The full round from the reference play-through: three players, a letter
// pick, an end-turn, and two expiries ending with a round win.
func TestHub_RoundFlow(t *testing.T) {
	h, _ := newTestHub(2)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	c3 := addClient(h, "p3")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")
	joinRoom(h, c3, "Cat")

	h.handleStartCountdown()
	require.Equal(t, "p1", h.room.CurrentPlayer().ID)

	// Ana picks 'A' and ends her turn; the letter locks and Ben is up.
	h.handleSelectLetter(c1, clientMessage{Type: "select-letter", Letter: "A"})
	assert.Equal(t, map[string]bool{"A": true}, h.room.UsedLettersView())

	h.handleEndTurn(c1, clientMessage{Type: "end-turn", SelectedLetter: "A"})
	assert.Equal(t, map[string]bool{"A": false}, h.room.UsedLettersView())
	assert.Equal(t, "p2", h.room.CurrentPlayer().ID)
	assert.Equal(t, 10, h.room.CountdownRemaining())

	// Ben runs out of time: eliminated, Cat is up, round continues.
	before := h.room.RemainingPlayerCount()
	expireCountdown(t, h)

	assert.True(t, h.room.Player("p2").Eliminated)
	assert.Equal(t, before-1, h.room.RemainingPlayerCount())
	assert.Equal(t, "p3", h.room.CurrentPlayer().ID)
	assert.True(t, h.room.IsLocked())

	eliminated := lastMessageOfType[playerEliminatedMessage](t, drain(c2))
	assert.Equal(t, "p2", eliminated.EliminatedPlayer.ID)

	// Cat passes the turn to Ana, whose countdown then expires: Cat is the
	// sole survivor and wins the round.
	h.handleEndTurn(c3, clientMessage{Type: "end-turn"})
	require.Equal(t, "p1", h.room.CurrentPlayer().ID)

	expireCountdown(t, h)

	ended := lastMessageOfType[roundEndedMessage](t, drain(c3))
	assert.Equal(t, "p3", ended.WinningPlayer.ID)
	assert.Equal(t, 1, ended.WinningPlayer.WinCount)

	// Round-scoped state is reset; win counts persist.
	assert.False(t, h.room.IsLocked())
	assert.False(t, h.room.CountdownStarted())
	assert.Empty(t, h.room.UsedLettersView())
	assert.False(t, h.room.Player("p1").Eliminated)
	assert.False(t, h.room.Player("p2").Eliminated)
	assert.Equal(t, 1, h.room.Player("p3").WinCount)
}

func TestHub_SecondRoundWinEndsGame(t *testing.T) {
	h, _ := newTestHub(2)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")

	// Round one: Ana times out, Ben takes the round.
	h.handleStartCountdown()
	expireCountdown(t, h)
	require.Equal(t, 1, h.room.Player("p2").WinCount)

	// Round two: Ben is current after Ana's elimination reset; he passes
	// to Ana, she times out again, and Ben's second win ends the game.
	h.handleStartCountdown()
	require.Equal(t, "p2", h.room.CurrentPlayer().ID)
	h.handleEndTurn(c2, clientMessage{Type: "end-turn"})
	require.Equal(t, "p1", h.room.CurrentPlayer().ID)

	expireCountdown(t, h)

	ended := lastMessageOfType[gameEndedMessage](t, drain(c2))
	require.NotNil(t, ended.GameWinner)
	assert.Equal(t, "p2", ended.GameWinner.ID)
	assert.Equal(t, 2, ended.GameWinner.WinCount)

	// Every win count resets once the game is decided.
	assert.Equal(t, 0, h.room.Player("p1").WinCount)
	assert.Equal(t, 0, h.room.Player("p2").WinCount)
	assert.False(t, h.room.IsLocked())
}

func TestHub_StaleEndTurnIgnored(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")

	h.handleStartCountdown()
	h.handleEndTurn(c1, clientMessage{Type: "end-turn"})
	require.Equal(t, "p2", h.room.CurrentPlayer().ID)

	// Ana's turn already ended; her second end-turn must not advance Ben's.
	h.handleEndTurn(c1, clientMessage{Type: "end-turn"})
	assert.Equal(t, "p2", h.room.CurrentPlayer().ID)
}

func TestHub_StaleTickIgnored(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")
	h.handleStartCountdown()

	require.Equal(t, 10, h.room.CountdownRemaining())

	// A tick from a countdown that has since been superseded.
	h.handleTick(tickEvent{seq: h.seq - 1})
	assert.Equal(t, 10, h.room.CountdownRemaining())

	h.handleTick(tickEvent{seq: h.seq})
	assert.Equal(t, 9, h.room.CountdownRemaining())
}

func TestHub_OutOfTurnSelectIgnored(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")

	h.handleStartCountdown()

	h.handleSelectLetter(c2, clientMessage{Type: "select-letter", Letter: "Q"})
	assert.Empty(t, h.room.UsedLettersView())
}

func TestHub_SelectLetterReleasesPrevious(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")
	h.handleStartCountdown()

	h.handleSelectLetter(c1, clientMessage{Type: "select-letter", Letter: "A"})
	h.handleSelectLetter(c1, clientMessage{Type: "select-letter", Letter: "B", PrevLetter: "A"})

	assert.Equal(t, map[string]bool{"B": true}, h.room.UsedLettersView())
}

func TestHub_TextModeCollectsWords(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")

	enabled := true
	h.handleSetTextMode(clientMessage{Type: "set-text-mode", IsInTextMode: &enabled})
	require.True(t, h.room.InTextMode())

	h.handleStartCountdown()
	h.handleEndTurn(c1, clientMessage{Type: "end-turn", TextModeWord: "circle"})

	assert.Equal(t, []string{"circle"}, h.room.TextModeWords())

	turn := lastMessageOfType[startTurnMessage](t, drain(c2))
	assert.Equal(t, []string{"circle"}, turn.TextModeWords)

	h.room.EndRound()
	assert.Empty(t, h.room.TextModeWords())
}

func TestHub_LastLeaveDestroysRoom(t *testing.T) {
	h, rg := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")

	h.handleLeave(c1)

	_, err := rg.GetRoom(h.room.ID())
	assert.ErrorIs(t, err, ErrRoomNotFound)

	select {
	case <-h.quit:
	default:
		assert.Fail(t, "hub was not shut down")
	}
}

func TestHub_CurrentPlayerLeaveReassignsTurn(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	c3 := addClient(h, "p3")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")
	joinRoom(h, c3, "Cat")

	require.True(t, h.room.Player("p1").IsTurn)

	h.handleLeave(c1)

	cur := h.room.CurrentPlayer()
	require.NotNil(t, cur)
	assert.Equal(t, "p2", cur.ID)
	assert.True(t, cur.IsTurn)
	assert.Equal(t, 1, countTurnHolders(h.room))

	left := lastMessageOfType[playerLeftMessage](t, drain(c2))
	assert.Equal(t, "p1", left.PlayerID)
	assert.Equal(t, 2, left.PlayerCount)
}

func TestHub_ResetTimerRestartsCountdown(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")
	h.handleStartCountdown()

	h.handleTick(tickEvent{seq: h.seq})
	h.handleTick(tickEvent{seq: h.seq})
	require.Equal(t, 8, h.room.CountdownRemaining())

	oldSeq := h.seq
	h.handleResetTimer()

	assert.Equal(t, 10, h.room.CountdownRemaining())
	assert.True(t, h.room.CountdownStarted())

	// Ticks from the pre-reset countdown no longer count.
	h.handleTick(tickEvent{seq: oldSeq})
	assert.Equal(t, 10, h.room.CountdownRemaining())
}

func TestHub_SoloExpiryAbandonsRound(t *testing.T) {
	h, _ := newTestHub(2)

	c1 := addClient(h, "p1")
	joinRoom(h, c1, "Ana")

	h.handleStartCountdown()
	expireCountdown(t, h)

	// With nobody left to win, the round is abandoned instead of restarting
	// an endless eliminate-and-rearm cycle.
	assert.False(t, h.room.IsLocked())
	assert.False(t, h.room.CountdownStarted())
	assert.False(t, h.room.Player("p1").Eliminated)
	assert.Equal(t, 0, h.room.Player("p1").WinCount)

	ended := lastMessageOfType[roundEndedMessage](t, drain(c1))
	assert.Nil(t, ended.WinningPlayer)

	// The room is usable again: a fresh round can start.
	h.handleStartCountdown()
	assert.True(t, h.room.IsLocked())
	assert.True(t, h.room.CountdownStarted())
}

func TestHub_SurvivorLeaveEndsRound(t *testing.T) {
	h, _ := newTestHub(2)

	c1 := addClient(h, "p1")
	c2 := addClient(h, "p2")
	c3 := addClient(h, "p3")
	joinRoom(h, c1, "Ana")
	joinRoom(h, c2, "Ben")
	joinRoom(h, c3, "Cat")

	// Ana times out; Ben is up with Cat still in the round.
	h.handleStartCountdown()
	expireCountdown(t, h)
	require.True(t, h.room.Player("p1").Eliminated)
	require.Equal(t, "p2", h.room.CurrentPlayer().ID)

	// Ben leaves mid-round, stranding Cat as the sole survivor: the round
	// ends with Cat's win rather than ticking on.
	h.handleLeave(c2)

	ended := lastMessageOfType[roundEndedMessage](t, drain(c3))
	require.NotNil(t, ended.WinningPlayer)
	assert.Equal(t, "p3", ended.WinningPlayer.ID)
	assert.Equal(t, 1, h.room.Player("p3").WinCount)

	assert.False(t, h.room.IsLocked())
	assert.False(t, h.room.CountdownStarted())
	assert.Equal(t, 1, countTurnHolders(h.room))

	cur := h.room.CurrentPlayer()
	require.NotNil(t, cur)
	assert.Equal(t, "p3", cur.ID)
}

func TestHub_StartCountdownEmptyRoomIgnored(t *testing.T) {
	h, _ := newTestHub(1)

	// Connected but never joined.
	addClient(h, "p1")
	h.handleStartCountdown()

	assert.False(t, h.room.IsLocked())
	assert.False(t, h.room.CountdownStarted())
	assert.Empty(t, h.room.Category())
}

func TestHub_WelcomeCarriesPlayerID(t *testing.T) {
	h, _ := newTestHub(1)

	c1 := addClient(h, "p1")

	welcome := lastMessageOfType[welcomeMessage](t, drain(c1))
	assert.Equal(t, "p1", welcome.PlayerID)
	assert.Equal(t, h.room.ID(), welcome.RoomID)
	assert.False(t, welcome.Locked)
}
