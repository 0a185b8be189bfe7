/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"errors"
)

type DriverConfig struct {
	Store Store

	// Lang is handed to the voice widget, e.g. "en-US".
	Lang string
}

// Driver runs one render cycle per interaction: load, dispatch at most one
// action, poll the voice widget once while playing, commit, project.
type Driver struct {
	store Store
	lang  string
}

func NewDriver(cfg *DriverConfig) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}

	lang := cfg.Lang
	if lang == "" {
		lang = "en-US"
	}

	return &Driver{
		store: cfg.Store,
		lang:  lang,
	}, nil
}

type CycleInput struct {
	SessionID string

	// Action is nil for a plain re-render.
	Action *Action

	// Voice is polled once if the cycle ends up rendering the playing phase.
	Voice VoiceSource

	Narrator Narrator
}

type CycleOutput struct {
	View    View
	Effects []Effect

	// Scored holds guesses recorded during this cycle, in order.
	Scored []Guess

	// Captured is set when the voice source yielded a value for the
	// current turn.
	Captured bool
}

// Cycle runs one render cycle. A validation error rejects the action, leaves
// the stored state untouched and still returns the current view.
func (d *Driver) Cycle(ctx context.Context, in *CycleInput) (*CycleOutput, error) {
	if in == nil {
		return nil, errors.New("input cannot be nil")
	}

	s, err := d.store.Load(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	out := &CycleOutput{}
	dirty := false

	if in.Action != nil {
		t, err := Apply(s, *in.Action)
		if err != nil {
			out.View = Project(s, d.lang)
			return out, err
		}

		if t.Reset != nil {
			if err := d.commitReset(ctx, in.SessionID, t.Reset); err != nil {
				return nil, err
			}
		} else {
			dirty = true
		}

		s = t.State
		out.Effects = append(out.Effects, t.Effects...)
		if t.Scored != nil {
			out.Scored = append(out.Scored, *t.Scored)
		}
	}

	if s.Phase == PhasePlaying && in.Voice != nil {
		if v, ok := in.Voice.Poll(CaptureKey(s)); ok {
			t, err := Apply(s, Action{Kind: ActionCapture, Value: v})
			if err != nil {
				return nil, err
			}
			s = t.State
			out.Captured = true
			dirty = true
		}
	}

	if dirty {
		if err := d.store.Save(ctx, in.SessionID, s); err != nil {
			return nil, err
		}
	}

	Narrate(in.Narrator, out.Effects)

	out.View = Project(s, d.lang)

	return out, nil
}

func (d *Driver) commitReset(ctx context.Context, sessionID string, r *Reset) error {
	if r.KeepSetting == "" {
		return d.store.Clear(ctx, sessionID)
	}

	return d.store.ClearKeepingSetting(ctx, sessionID, r.KeepSetting, r.Value)
}

// View renders the current state without dispatching anything.
func (d *Driver) View(ctx context.Context, sessionID string) (View, error) {
	out, err := d.Cycle(ctx, &CycleInput{SessionID: sessionID})
	if err != nil {
		return View{}, err
	}

	return out.View, nil
}

// End discards a session, used when its hub is reaped.
func (d *Driver) End(ctx context.Context, sessionID string) error {
	return d.store.Clear(ctx, sessionID)
}
