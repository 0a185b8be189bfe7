/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package game holds the number guessing match: its state, the phase
// machine that advances it, the view projected from it, and the driver that
// runs one render cycle per interaction.
package game

import "fmt"

const (
	MinPlayers     = 2
	MaxPlayers     = 8
	DefaultPlayers = 2

	MinSecret = 0
	MaxSecret = 100
)

// Phase is the stage of the match, controlling which actions are legal.
type Phase string

const (
	PhaseSetupNames  Phase = "setup_names"
	PhaseSecretEntry Phase = "secret_entry"
	PhaseLocked      Phase = "locked"
	PhasePlaying     Phase = "playing"
	PhaseFinished    Phase = "finished"
)

// Result of a single guess.
type Result string

const (
	ResultCorrect Result = "CORRECT"
	ResultLower   Result = "LOWER"
	ResultHigher  Result = "HIGHER"
)

type Player struct {
	Name   string `json:"name"`
	Secret int    `json:"secret"`
}

// Guess is one entry of the match history.
type Guess struct {
	Guesser string `json:"guesser"`
	Target  string `json:"target"`
	Guess   int    `json:"guess"`
	Result  Result `json:"result"`
}

type Score struct {
	Wins     int `json:"wins"`
	Attempts int `json:"attempts"`
}

// State is the authoritative record of one session's match.
type State struct {
	Phase         Phase            `json:"phase"`
	NumPlayers    int              `json:"num_players"`
	Names         []string         `json:"names,omitempty"`
	Players       []Player         `json:"players,omitempty"`
	SecretIdx     int              `json:"secret_idx"`
	PassDevice    bool             `json:"pass_device"`
	Round         int              `json:"round"`
	TurnIdx       int              `json:"turn_idx"`
	TargetIdx     int              `json:"target_idx"`
	Winner        string           `json:"winner,omitempty"`
	History       []Guess          `json:"history,omitempty"`
	Scoreboard    map[string]Score `json:"scoreboard,omitempty"`
	RoundAttempts map[string]int   `json:"round_attempts,omitempty"`
	PendingGuess  *int             `json:"pending_guess,omitempty"`
	LastPrompt    string           `json:"last_prompt,omitempty"`
}

// New returns the state of a freshly created session.
func New() State {
	return State{
		Phase:         PhaseSetupNames,
		NumPlayers:    DefaultPlayers,
		TargetIdx:     1,
		Scoreboard:    map[string]Score{},
		RoundAttempts: map[string]int{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s

	c.Names = append([]string(nil), s.Names...)
	c.Players = append([]Player(nil), s.Players...)
	c.History = append([]Guess(nil), s.History...)

	c.Scoreboard = make(map[string]Score, len(s.Scoreboard))
	for k, v := range s.Scoreboard {
		c.Scoreboard[k] = v
	}

	c.RoundAttempts = make(map[string]int, len(s.RoundAttempts))
	for k, v := range s.RoundAttempts {
		c.RoundAttempts[k] = v
	}

	if s.PendingGuess != nil {
		g := *s.PendingGuess
		c.PendingGuess = &g
	}

	return c
}

// normalize fills in fields a decoded or zero-value state may be missing.
func (s *State) normalize() {
	if s.Phase == "" {
		s.Phase = PhaseSetupNames
	}
	if s.NumPlayers < MinPlayers || s.NumPlayers > MaxPlayers {
		s.NumPlayers = DefaultPlayers
	}
	if s.Scoreboard == nil {
		s.Scoreboard = map[string]Score{}
	}
	if s.RoundAttempts == nil {
		s.RoundAttempts = map[string]int{}
	}
}

// CaptureKey identifies the current listening context. It changes whenever
// a round begins, the turn advances or a guess is recorded, so a capture
// started under an older key can never be attributed to the current turn.
func CaptureKey(s State) string {
	return fmt.Sprintf("%d-%d-%d", s.Round, s.TurnIdx, len(s.History))
}

func (s State) guesser() Player {
	return s.Players[s.TurnIdx]
}

func (s State) target() Player {
	return s.Players[s.TargetIdx]
}

// SettingNumPlayers is the only setting preserved across a "new players" reset.
const SettingNumPlayers = "num_players"

func (s *State) applySetting(name string, value int) error {
	switch name {
	case SettingNumPlayers:
		if value < MinPlayers || value > MaxPlayers {
			return ErrPlayerCount
		}
		s.NumPlayers = value
	default:
		return ErrUnknownSetting
	}

	return nil
}
