package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("protocol: unknown action")

type ActionKind string

const (
	ActionHandicap ActionKind = "handicap"
	ActionPlay     ActionKind = "play"
	ActionPass     ActionKind = "pass"
	ActionResign   ActionKind = "resign"
)

// Action is an outbound client message. Positions are row-major cell
// indices (size*y + x).
type Action struct {
	Kind      ActionKind
	Position  int
	Positions []int
}

func Handicap(positions []int) Action {
	return Action{Kind: ActionHandicap, Positions: append([]int{}, positions...)}
}

func Play(position int) Action {
	return Action{Kind: ActionPlay, Position: position}
}

func Pass() Action   { return Action{Kind: ActionPass} }
func Resign() Action { return Action{Kind: ActionResign} }

type handicapWire struct {
	Action    ActionKind `json:"action"`
	Positions []int      `json:"positions"`
}

type playWire struct {
	Action   ActionKind `json:"action"`
	Position int        `json:"position"`
}

type bareWire struct {
	Action ActionKind `json:"action"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ActionHandicap:
		positions := a.Positions
		if positions == nil {
			positions = []int{}
		}
		return json.Marshal(handicapWire{Action: a.Kind, Positions: positions})
	case ActionPlay:
		return json.Marshal(playWire{Action: a.Kind, Position: a.Position})
	case ActionPass, ActionResign:
		return json.Marshal(bareWire{Action: a.Kind})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
}

func DecodeAction(data []byte) (Action, error) {
	var raw struct {
		Action    ActionKind `json:"action"`
		Position  *int       `json:"position"`
		Positions []int      `json:"positions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Action{}, err
	}
	switch raw.Action {
	case ActionHandicap:
		if raw.Positions == nil {
			return Action{}, fmt.Errorf("handicap without positions")
		}
		return Handicap(raw.Positions), nil
	case ActionPlay:
		if raw.Position == nil {
			return Action{}, fmt.Errorf("play without position")
		}
		return Play(*raw.Position), nil
	case ActionPass:
		return Pass(), nil
	case ActionResign:
		return Resign(), nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw.Action)
	}
}
