/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"strconv"
	"strings"
)

type ActionKind string

const (
	ActionSetPlayerCount ActionKind = "set_player_count"
	ActionConfirmNames   ActionKind = "confirm_names"
	ActionBack           ActionKind = "back"
	ActionConfirmPass    ActionKind = "confirm_pass"
	ActionSaveSecret     ActionKind = "save_secret"
	ActionStart          ActionKind = "start"
	ActionCapture        ActionKind = "capture"
	ActionSubmit         ActionKind = "submit"
	ActionReplay         ActionKind = "replay"
	ActionNewSecrets     ActionKind = "new_secrets"
	ActionResetRound     ActionKind = "reset_round"
	ActionNewPlayers     ActionKind = "new_players"
	ActionResetAll       ActionKind = "reset_all"
)

// Action is one discrete user action. Only the fields relevant to Kind are
// read.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Count  int        `json:"count,omitempty"`
	Names  []string   `json:"names,omitempty"`
	Secret string     `json:"secret,omitempty"`
	Value  int        `json:"value,omitempty"`
}

// Reset tells the store to drop the session. A non-empty KeepSetting is
// reinstated on the fresh state.
type Reset struct {
	KeepSetting string
	Value       int
}

// Transition is the outcome of applying one action.
type Transition struct {
	State   State
	Effects []Effect

	// Scored is the history entry recorded by this action, if any.
	Scored *Guess

	// Reset is set when the action discards the whole session.
	Reset *Reset
}

// Apply computes the state that follows s after action a. The input state is
// never modified. On error the returned transition holds s unchanged and no
// effects.
func Apply(s State, a Action) (Transition, error) {
	next := s.Clone()
	next.normalize()

	sc := &script{state: &next}

	var (
		scored *Guess
		reset  *Reset
		err    error
	)

	switch a.Kind {
	case ActionSetPlayerCount:
		err = setPlayerCount(&next, a.Count)
	case ActionConfirmNames:
		err = confirmNames(&next, a.Names)
	case ActionBack:
		err = back(&next)
	case ActionConfirmPass:
		err = confirmPass(&next)
	case ActionSaveSecret:
		err = saveSecret(&next, a.Secret)
	case ActionStart:
		err = start(&next, sc)
	case ActionCapture:
		err = capture(&next, a.Value)
	case ActionSubmit:
		scored, err = submit(&next, sc)
	case ActionReplay:
		err = replay(&next, sc)
	case ActionResetRound:
		err = resetRound(&next, sc)
	case ActionNewSecrets:
		err = newSecrets(&next)
	case ActionNewPlayers:
		reset = &Reset{KeepSetting: SettingNumPlayers, Value: next.NumPlayers}
		next = New()
		next.NumPlayers = reset.Value
	case ActionResetAll:
		reset = &Reset{}
		next = New()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}

	if err != nil {
		return Transition{State: s}, err
	}

	return Transition{
		State:   next,
		Effects: sc.effects,
		Scored:  scored,
		Reset:   reset,
	}, nil
}

func requirePhase(s *State, phases ...Phase) error {
	for _, p := range phases {
		if s.Phase == p {
			return nil
		}
	}

	return ErrActionNotAllowed
}

func setPlayerCount(s *State, n int) error {
	if err := requirePhase(s, PhaseSetupNames); err != nil {
		return err
	}

	return s.applySetting(SettingNumPlayers, n)
}

func confirmNames(s *State, names []string) error {
	if err := requirePhase(s, PhaseSetupNames); err != nil {
		return err
	}

	if len(names) != s.NumPlayers {
		return ErrNameCount
	}

	trimmed := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return ErrEmptyName
		}
		if seen[n] {
			return ErrDuplicateName
		}
		seen[n] = true
		trimmed[i] = n
	}

	s.Names = trimmed
	s.Players = nil
	s.RoundAttempts = make(map[string]int, len(trimmed))
	for _, n := range trimmed {
		if _, ok := s.Scoreboard[n]; !ok {
			s.Scoreboard[n] = Score{}
		}
		s.RoundAttempts[n] = 0
	}

	s.Phase = PhaseSecretEntry
	s.SecretIdx = 0
	s.PassDevice = true

	return nil
}

func back(s *State) error {
	if err := requirePhase(s, PhaseSecretEntry); err != nil {
		return err
	}

	s.Players = nil
	s.SecretIdx = 0
	s.PassDevice = false
	s.Phase = PhaseSetupNames

	return nil
}

func confirmPass(s *State) error {
	if err := requirePhase(s, PhaseSecretEntry); err != nil {
		return err
	}

	s.PassDevice = false

	return nil
}

// ParseSecret validates a secret typed by a player.
func ParseSecret(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrSecretNotInteger
	}

	if v < MinSecret || v > MaxSecret {
		return 0, ErrSecretOutOfRange
	}

	return v, nil
}

func saveSecret(s *State, raw string) error {
	if err := requirePhase(s, PhaseSecretEntry); err != nil {
		return err
	}

	if s.PassDevice || s.SecretIdx >= len(s.Names) {
		return ErrActionNotAllowed
	}

	v, err := ParseSecret(raw)
	if err != nil {
		return err
	}

	s.Players = append(s.Players[:s.SecretIdx], Player{Name: s.Names[s.SecretIdx], Secret: v})
	s.SecretIdx++

	if s.SecretIdx == len(s.Names) {
		s.Phase = PhaseLocked
		s.PassDevice = false
		return nil
	}

	s.PassDevice = true

	return nil
}

// beginRound resets the per-round fields, keeping players, secrets and the
// scoreboard, and announces the first turn.
func beginRound(s *State, sc *script) {
	n := len(s.Players)

	s.Round++
	s.TurnIdx = 0
	s.TargetIdx = 1 % n
	s.Winner = ""
	s.History = nil
	s.PendingGuess = nil
	s.RoundAttempts = make(map[string]int, n)
	for _, p := range s.Players {
		s.RoundAttempts[p.Name] = 0
	}
	s.Phase = PhasePlaying

	sc.sound(SoundTurn)
	sc.speak(turnPrompt(*s))
}

func start(s *State, sc *script) error {
	if err := requirePhase(s, PhaseLocked); err != nil {
		return err
	}

	if len(s.Players) < MinPlayers {
		return ErrActionNotAllowed
	}

	beginRound(s, sc)

	return nil
}

func replay(s *State, sc *script) error {
	if err := requirePhase(s, PhaseFinished); err != nil {
		return err
	}

	beginRound(s, sc)

	return nil
}

func resetRound(s *State, sc *script) error {
	if err := requirePhase(s, PhasePlaying, PhaseFinished); err != nil {
		return err
	}

	beginRound(s, sc)

	return nil
}

func newSecrets(s *State) error {
	if err := requirePhase(s, PhaseFinished); err != nil {
		return err
	}

	s.Players = nil
	s.SecretIdx = 0
	s.PassDevice = true
	s.TurnIdx = 0
	s.TargetIdx = 1
	s.Winner = ""
	s.History = nil
	s.PendingGuess = nil
	for n := range s.RoundAttempts {
		s.RoundAttempts[n] = 0
	}
	s.Phase = PhaseSecretEntry

	return nil
}

func capture(s *State, v int) error {
	if err := requirePhase(s, PhasePlaying); err != nil {
		return err
	}

	v = Clamp(v)
	s.PendingGuess = &v

	return nil
}

func submit(s *State, sc *script) (*Guess, error) {
	if err := requirePhase(s, PhasePlaying); err != nil {
		return nil, err
	}

	if s.PendingGuess == nil {
		sc.sound(SoundFail)
		sc.speak("No guess captured yet. Speak your guess, then submit.")
		return nil, nil
	}

	guesser, target := s.guesser(), s.target()
	g := *s.PendingGuess

	score := s.Scoreboard[guesser.Name]
	score.Attempts++
	s.RoundAttempts[guesser.Name]++

	if g == target.Secret {
		score.Wins++
		s.Scoreboard[guesser.Name] = score

		entry := Guess{Guesser: guesser.Name, Target: target.Name, Guess: g, Result: ResultCorrect}
		s.History = append(s.History, entry)
		s.Winner = guesser.Name
		s.PendingGuess = nil
		s.Phase = PhaseFinished

		sc.sound(SoundSuccess)
		sc.speak(fmt.Sprintf("Correct! %s wins! %s's number was %d.", guesser.Name, target.Name, target.Secret))

		return &entry, nil
	}

	s.Scoreboard[guesser.Name] = score

	hint, result := "higher", ResultHigher
	if g > target.Secret {
		hint, result = "lower", ResultLower
	}

	entry := Guess{Guesser: guesser.Name, Target: target.Name, Guess: g, Result: result}
	s.History = append(s.History, entry)

	sc.sound(SoundFail)
	sc.speak(fmt.Sprintf("%s, your guess is %s than %s's number.", guesser.Name, hint, target.Name))

	n := len(s.Players)
	s.TurnIdx = (s.TurnIdx + 1) % n
	s.TargetIdx = (s.TurnIdx + 1) % n
	s.PendingGuess = nil

	sc.sound(SoundTurn)
	sc.speak(turnPrompt(*s))

	return &entry, nil
}
