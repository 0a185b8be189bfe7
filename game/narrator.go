/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Sound is a sound effect category understood by the client.
type Sound string

const (
	SoundTurn    Sound = "turn"
	SoundSuccess Sound = "success"
	SoundFail    Sound = "fail"
)

type EffectKind string

const (
	EffectSpeak EffectKind = "speak"
	EffectSound EffectKind = "sound"
)

// Effect is a single narration call produced by a transition.
type Effect struct {
	Kind  EffectKind `json:"kind"`
	Text  string     `json:"text,omitempty"`
	Sound Sound      `json:"sound,omitempty"`
}

// Narrator plays speech and sound effects on the client. Calls are fire and
// forget: there is no completion signal and playback may be unsupported.
type Narrator interface {
	Speak(text string)
	PlaySound(sound Sound)
}

// Narrate issues effects to n in the order they were produced.
func Narrate(n Narrator, effects []Effect) {
	if n == nil {
		return
	}

	for _, e := range effects {
		switch e.Kind {
		case EffectSpeak:
			n.Speak(e.Text)
		case EffectSound:
			n.PlaySound(e.Sound)
		}
	}
}

// script collects effects during a transition and mirrors the last spoken
// line into the state's prompt.
type script struct {
	state   *State
	effects []Effect
}

func (sc *script) speak(text string) {
	sc.state.LastPrompt = text
	sc.effects = append(sc.effects, Effect{Kind: EffectSpeak, Text: text})
}

func (sc *script) sound(s Sound) {
	sc.effects = append(sc.effects, Effect{Kind: EffectSound, Sound: s})
}

func turnPrompt(s State) string {
	return s.guesser().Name + ", it's your turn. Guess " + s.target().Name + "'s number."
}
