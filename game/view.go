/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "sort"

const CaptureLabel = "Speak your guess"

type ScoreRow struct {
	Player        string `json:"player"`
	Wins          int    `json:"wins"`
	TotalAttempts int    `json:"total_attempts"`
	RoundAttempts int    `json:"round_attempts"`
}

// CaptureWidget describes how the client must mount its voice widget. The
// widget is remounted whenever Key changes.
type CaptureWidget struct {
	Label string `json:"label"`
	Lang  string `json:"lang"`
	Key   string `json:"key"`
}

// View is everything the client needs to draw the current phase. It never
// carries a secret before the round is finished.
type View struct {
	Phase      Phase    `json:"phase"`
	NumPlayers int      `json:"num_players"`
	MinPlayers int      `json:"min_players"`
	MaxPlayers int      `json:"max_players"`
	Names      []string `json:"names"`

	// secret entry
	SecretPlayer string `json:"secret_player,omitempty"`
	SecretIdx    int    `json:"secret_idx"`
	PassDevice   bool   `json:"pass_device"`

	// locked, playing, finished
	Players []string `json:"players,omitempty"`

	// playing
	Guesser      string         `json:"guesser,omitempty"`
	Target       string         `json:"target,omitempty"`
	PendingGuess *int           `json:"pending_guess,omitempty"`
	Capture      *CaptureWidget `json:"capture,omitempty"`

	// finished
	Winner  string   `json:"winner,omitempty"`
	Secrets []Player `json:"secrets,omitempty"`

	History    []Guess    `json:"history"`
	Scoreboard []ScoreRow `json:"scoreboard"`
	LastPrompt string     `json:"last_prompt"`
	Actions    []string   `json:"actions"`
}

var phaseActions = map[Phase][]ActionKind{
	PhaseSetupNames:  {ActionSetPlayerCount, ActionConfirmNames, ActionNewPlayers, ActionResetAll},
	PhaseSecretEntry: {ActionConfirmPass, ActionSaveSecret, ActionBack, ActionNewPlayers, ActionResetAll},
	PhaseLocked:      {ActionStart, ActionNewPlayers, ActionResetAll},
	PhasePlaying:     {ActionCapture, ActionSubmit, ActionResetRound, ActionNewPlayers, ActionResetAll},
	PhaseFinished:    {ActionReplay, ActionNewSecrets, ActionResetRound, ActionNewPlayers, ActionResetAll},
}

// Project renders s into a View. It reads s only.
func Project(s State, lang string) View {
	v := View{
		Phase:      s.Phase,
		NumPlayers: s.NumPlayers,
		MinPlayers: MinPlayers,
		MaxPlayers: MaxPlayers,
		Names:      append([]string{}, s.Names...),
		SecretIdx:  s.SecretIdx,
		PassDevice: s.PassDevice,
		History:    append([]Guess{}, s.History...),
		Scoreboard: scoreRows(s),
		LastPrompt: s.LastPrompt,
	}

	for _, a := range phaseActions[s.Phase] {
		v.Actions = append(v.Actions, string(a))
	}

	switch s.Phase {
	case PhaseSecretEntry:
		if s.SecretIdx < len(s.Names) {
			v.SecretPlayer = s.Names[s.SecretIdx]
		}
	case PhaseLocked, PhasePlaying, PhaseFinished:
		for _, p := range s.Players {
			v.Players = append(v.Players, p.Name)
		}
	}

	switch s.Phase {
	case PhasePlaying:
		if len(s.Players) >= MinPlayers {
			v.Guesser = s.guesser().Name
			v.Target = s.target().Name
		}
		if s.PendingGuess != nil {
			g := *s.PendingGuess
			v.PendingGuess = &g
		}
		v.Capture = &CaptureWidget{Label: CaptureLabel, Lang: lang, Key: CaptureKey(s)}
	case PhaseFinished:
		v.Winner = s.Winner
		v.Secrets = append([]Player{}, s.Players...)
	}

	return v
}

// scoreRows lists the current names in turn order, then any other players
// still on the scoreboard alphabetically.
func scoreRows(s State) []ScoreRow {
	rows := make([]ScoreRow, 0, len(s.Scoreboard))
	listed := make(map[string]bool, len(s.Scoreboard))

	row := func(name string) ScoreRow {
		sc := s.Scoreboard[name]
		return ScoreRow{
			Player:        name,
			Wins:          sc.Wins,
			TotalAttempts: sc.Attempts,
			RoundAttempts: s.RoundAttempts[name],
		}
	}

	for _, n := range s.Names {
		if _, ok := s.Scoreboard[n]; !ok || listed[n] {
			continue
		}
		listed[n] = true
		rows = append(rows, row(n))
	}

	var rest []string
	for n := range s.Scoreboard {
		if !listed[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)

	for _, n := range rest {
		rows = append(rows, row(n))
	}

	return rows
}
