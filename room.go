package main

import (
	"slices"

	"github.com/samber/lo"
)

// Player is one connected participant in a room. Insertion order into the
// room defines the turn order.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsTurn     bool   `json:"isTurn"`
	Eliminated bool   `json:"eliminated"`
	WinCount   int    `json:"winCount"`
}

func clonePlayer(p *Player) *Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Room holds all state for one game session. None of its methods lock;
// the owning hub serializes every mutation through its event loop.
//
// A letter key in usedLetters is tri-state: absent means unused, true means
// used but still de-selectable by the acting player, false means permanently
// locked for the round.
type Room struct {
	id           string
	players      map[string]*Player
	order        []string
	usedLetters  map[string]bool
	currentIndex int
	locked       bool
	inTextMode   bool
	textWords    []string
	gameWinCount int
	turnSeconds  int
	category     string

	cdStarted   bool
	cdRemaining int
	cdRunner    *countdown
}

func NewRoom(id string, turnSeconds, gameWinCount int) *Room {
	return &Room{
		id:           id,
		players:      make(map[string]*Player),
		order:        []string{},
		usedLetters:  make(map[string]bool),
		textWords:    []string{},
		gameWinCount: gameWinCount,
		turnSeconds:  turnSeconds,
		cdRemaining:  turnSeconds,
	}
}

func (r *Room) ID() string {
	return r.id
}

// AddPlayer appends a new player to the turn order. Adding an id that is
// already present is a no-op; the existing player is returned unchanged.
func (r *Room) AddPlayer(id, name string) (*Player, bool) {
	if existing, ok := r.players[id]; ok {
		return existing, false
	}

	p := &Player{
		ID:   id,
		Name: name,
	}
	r.players[id] = p
	r.order = append(r.order, id)

	return p, true
}

func (r *Room) Player(id string) *Player {
	return r.players[id]
}

func (r *Room) PlayerCount() int {
	return len(r.players)
}

// RemovePlayer deletes the player if present and re-clamps the current
// index so it always points at a still-present player. It does not reassign
// the turn; the engine decides who acts next.
func (r *Room) RemovePlayer(id string) {
	if _, ok := r.players[id]; !ok {
		return
	}

	delete(r.players, id)

	idx := slices.Index(r.order, id)
	r.order = slices.Delete(r.order, idx, idx+1)

	if len(r.order) == 0 {
		r.currentIndex = 0
		return
	}
	if idx < r.currentIndex {
		r.currentIndex--
	}
	if r.currentIndex >= len(r.order) {
		r.currentIndex = 0
	}
}

func (r *Room) CurrentPlayer() *Player {
	if len(r.order) == 0 {
		return nil
	}
	return r.players[r.order[r.currentIndex]]
}

// GrantTurn makes the player at the current index the sole turn holder.
func (r *Room) GrantTurn() *Player {
	p := r.CurrentPlayer()
	if p == nil {
		return nil
	}
	r.clearTurns()
	p.IsTurn = true
	return p
}

// SetNextPlayer advances the turn circularly. The previous holder is found
// by scanning for isTurn rather than trusting the stored index, which
// tolerates players having been removed since the index was last valid.
func (r *Room) SetNextPlayer() *Player {
	if len(r.order) == 0 {
		return nil
	}

	next := r.currentIndex + 1
	if next > len(r.order)-1 {
		next = 0
	}

	r.clearTurns()

	r.currentIndex = next
	p := r.players[r.order[next]]
	p.IsTurn = true

	return p
}

func (r *Room) clearTurns() {
	for _, p := range r.players {
		p.IsTurn = false
	}
}

// AddUsedLetter marks an unused letter as used and de-selectable. If the
// letter is already de-selectable, it is released entirely (a toggle).
// Locked letters stay locked.
func (r *Room) AddUsedLetter(letter string) {
	selectable, ok := r.usedLetters[letter]
	switch {
	case !ok:
		r.usedLetters[letter] = true
	case selectable:
		delete(r.usedLetters, letter)
	}
}

func (r *Room) RemoveUsedLetter(letter string) {
	delete(r.usedLetters, letter)
}

// SetLetterUnselectable locks a letter for the rest of the round.
func (r *Room) SetLetterUnselectable(letter string) {
	r.usedLetters[letter] = false
}

func (r *Room) ResetUsedLetters() {
	r.usedLetters = make(map[string]bool)
}

func (r *Room) LockRoom() {
	r.locked = true
}

func (r *Room) UnlockRoom() {
	r.locked = false
}

func (r *Room) IsLocked() bool {
	return r.locked
}

func (r *Room) EliminateCurrentPlayer() *Player {
	p := r.CurrentPlayer()
	if p == nil {
		return nil
	}
	p.Eliminated = true
	return p
}

func (r *Room) remainingPlayers() []*Player {
	return lo.FilterMap(r.order, func(id string, _ int) (*Player, bool) {
		p := r.players[id]
		return p, !p.Eliminated
	})
}

func (r *Room) RemainingPlayerCount() int {
	return len(r.remainingPlayers())
}

// RemainingPlayer returns the first non-eliminated player in turn order,
// which is the round winner whenever exactly one remains.
func (r *Room) RemainingPlayer() *Player {
	remaining := r.remainingPlayers()
	if len(remaining) == 0 {
		return nil
	}
	return remaining[0]
}

func (r *Room) IncreasePlayerWinCount(id string) {
	if p, ok := r.players[id]; ok {
		p.WinCount++
	}
}

func (r *Room) GameWinner() *Player {
	for _, id := range r.order {
		if p := r.players[id]; p.WinCount >= r.gameWinCount {
			return p
		}
	}
	return nil
}

// EndRound resets the round-scoped state. Win counts persist toward the
// game win threshold.
func (r *Room) EndRound() {
	r.ResetCountdown()
	r.ResetUsedLetters()
	for _, p := range r.players {
		p.Eliminated = false
	}
	r.ResetTextModeWords()
	r.category = ""
}

// EndGame resets everything EndRound does, plus every player's win count.
func (r *Room) EndGame() {
	r.EndRound()
	for _, p := range r.players {
		p.WinCount = 0
	}
}

func (r *Room) SetCategory(category string) {
	r.category = category
}

func (r *Room) Category() string {
	return r.category
}

func (r *Room) SetTextMode(enabled bool) {
	r.inTextMode = enabled
}

func (r *Room) InTextMode() bool {
	return r.inTextMode
}

func (r *Room) AddTextModeWord(word string) {
	r.textWords = append(r.textWords, word)
}

func (r *Room) ResetTextModeWords() {
	r.textWords = []string{}
}

// Snapshot accessors below return copies, so broadcast payloads can be
// marshaled from client write goroutines while the room keeps mutating.

func (r *Room) TextModeWords() []string {
	return slices.Clone(r.textWords)
}

func (r *Room) UsedLettersView() map[string]bool {
	return lo.Assign(map[string]bool{}, r.usedLetters)
}

func (r *Room) PlayersView() map[string]*Player {
	return lo.MapValues(r.players, func(p *Player, _ string) *Player {
		return clonePlayer(p)
	})
}

func (r *Room) CurrentPlayerView() *Player {
	return clonePlayer(r.CurrentPlayer())
}
