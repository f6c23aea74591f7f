package main

// Messages coming from clients. The room is implied by the socket path, so
// payloads only carry per-event data.
type clientMessage struct {
	Type           string `json:"type"`                     // "join", "countdown-started", "select-letter", "end-turn", "reset-timer", "set-text-mode", "leave-room"
	Name           string `json:"name,omitempty"`           // join
	Letter         string `json:"letter,omitempty"`         // select-letter
	PrevLetter     string `json:"prevLetter,omitempty"`     // select-letter
	SelectedLetter string `json:"selectedLetter,omitempty"` // end-turn
	TextModeWord   string `json:"textModeWord,omitempty"`   // end-turn
	IsInTextMode   *bool  `json:"isInTextMode,omitempty"`   // set-text-mode
}

// welcomeMessage is sent to a single client immediately on connect so it
// knows its server-assigned player id before joining.
type welcomeMessage struct {
	Type     string `json:"type"` // "welcome"
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	Locked   bool   `json:"locked"`
}

type roomJoinedMessage struct {
	Type          string             `json:"type"` // "room-joined"
	Players       map[string]*Player `json:"players"`
	UsedLetters   map[string]bool    `json:"usedLetters"`
	CurrentPlayer *Player            `json:"currentPlayer"`
	PlayerCount   int                `json:"playerCount"`
}

// Sent to a single client whose join was rejected.
type roomLockedMessage struct {
	Type    string `json:"type"` // "room-locked"
	Message string `json:"message"`
}

type roundStartedMessage struct {
	Type          string          `json:"type"` // "round-started"
	Category      string          `json:"category"`
	UsedLetters   map[string]bool `json:"usedLetters"`
	CurrentPlayer *Player         `json:"currentPlayer"`
}

type letterSelectedMessage struct {
	Type        string          `json:"type"` // "letter-selected"
	UsedLetters map[string]bool `json:"usedLetters"`
}

type startTurnMessage struct {
	Type          string          `json:"type"` // "start-turn"
	CurrentPlayer *Player         `json:"currentPlayer"`
	TextModeWords []string        `json:"textModeWords"`
	UsedLetters   map[string]bool `json:"usedLetters"`
}

type tickMessage struct {
	Type      string `json:"type"` // "tick"
	Countdown int    `json:"countdown"`
}

type playerEliminatedMessage struct {
	Type             string  `json:"type"` // "player-eliminated"
	EliminatedPlayer *Player `json:"eliminatedPlayer"`
}

type roundEndedMessage struct {
	Type          string  `json:"type"` // "round-ended"
	WinningPlayer *Player `json:"winningPlayer"`
}

type gameEndedMessage struct {
	Type          string          `json:"type"` // "game-ended"
	GameWinner    *Player         `json:"gameWinner"`
	UsedLetters   map[string]bool `json:"usedLetters"`
	CurrentPlayer *Player         `json:"currentPlayer"`
	PlayerCount   int             `json:"playerCount"`
}

type textModeSetMessage struct {
	Type         string `json:"type"` // "text-mode-set"
	IsInTextMode bool   `json:"isInTextMode"`
}

type playerLeftMessage struct {
	Type        string `json:"type"` // "player-left"
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
}
