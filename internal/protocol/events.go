package protocol

import (
	"encoding/json"
	"fmt"
)

// Event is a broadcast message fanned out on a lobby channel. The set of
// variants is closed; anything else on the wire is rejected by Decode.
type Event interface{ isEvent() }

// Wire tags, one per variant.
const (
	TypePlayerJoined   = "player_joined"
	TypePlayerLeft     = "player_left"
	TypeChatMessage    = "chat_message"
	TypeStartGame      = "start_game"
	TypeLobbyClosed    = "lobby_closed"
	TypeRoundDataReady = "round_data_ready"
	TypeRoundError     = "round_error"
)

type PlayerJoined struct {
	PlayerName string `json:"playerName"`
}

type PlayerLeft struct {
	PlayerName string `json:"playerName"`
}

type ChatMessage struct {
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	SenderID   string `json:"senderId"`
}

type StartGame struct {
	InitiatedByHost bool `json:"initiatedByHost"`
}

type LobbyClosed struct {
	Reason string `json:"reason"`
}

type RoundDataReady struct {
	RoundData RoundData `json:"roundData"`
}

type RoundError struct {
	Message string `json:"message"`
}

func (PlayerJoined) isEvent()   {}
func (PlayerLeft) isEvent()     {}
func (ChatMessage) isEvent()    {}
func (StartGame) isEvent()      {}
func (LobbyClosed) isEvent()    {}
func (RoundDataReady) isEvent() {}
func (RoundError) isEvent()     {}

// RoundData is the generated round material relayed to clients. The core
// treats it as opaque beyond its shape.
type RoundData struct {
	Subtopics []Subtopic `json:"subtopics"`
}

type Subtopic struct {
	Name           string `json:"name"`
	Narrative      string `json:"narrative"`
	Misinformation string `json:"misinformation"`
}

// Encode renders an event as its tagged JSON envelope.
func Encode(ev Event) ([]byte, error) {
	type tagged struct {
		Type string `json:"type"`
	}
	switch e := ev.(type) {
	case PlayerJoined:
		return json.Marshal(struct {
			tagged
			PlayerJoined
		}{tagged{TypePlayerJoined}, e})
	case PlayerLeft:
		return json.Marshal(struct {
			tagged
			PlayerLeft
		}{tagged{TypePlayerLeft}, e})
	case ChatMessage:
		return json.Marshal(struct {
			tagged
			ChatMessage
		}{tagged{TypeChatMessage}, e})
	case StartGame:
		return json.Marshal(struct {
			tagged
			StartGame
		}{tagged{TypeStartGame}, e})
	case LobbyClosed:
		return json.Marshal(struct {
			tagged
			LobbyClosed
		}{tagged{TypeLobbyClosed}, e})
	case RoundDataReady:
		return json.Marshal(struct {
			tagged
			RoundDataReady
		}{tagged{TypeRoundDataReady}, e})
	case RoundError:
		return json.Marshal(struct {
			tagged
			RoundError
		}{tagged{TypeRoundError}, e})
	default:
		return nil, fmt.Errorf("protocol: cannot encode %T", ev)
	}
}

// Decode parses a tagged JSON envelope back into its event variant.
func Decode(data []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("protocol: bad envelope: %w", err)
	}

	switch probe.Type {
	case TypePlayerJoined:
		var e PlayerJoined
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	case TypePlayerLeft:
		var e PlayerLeft
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	case TypeChatMessage:
		var e ChatMessage
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	case TypeStartGame:
		var e StartGame
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	case TypeLobbyClosed:
		var e LobbyClosed
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	case TypeRoundDataReady:
		var e RoundDataReady
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	case TypeRoundError:
		var e RoundError
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("protocol: bad %s payload: %w", probe.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("protocol: unknown event type %q", probe.Type)
	}
}
