package session

import (
	"github.com/pixil98/go-mmo/internal/protocol"
)

// State is a connection's position in the login lifecycle. Transitions
// only move forward; Disconnecting is terminal.
type State uint8

const (
	StateAwaitingHandshake State = iota
	StateLoggingIn
	StateCharacterSelect
	StateInWorld
	StateDisconnecting
)

var stateNames = map[State]string{
	StateAwaitingHandshake: "AwaitingHandshake",
	StateLoggingIn:         "LoggingIn",
	StateCharacterSelect:   "CharacterSelect",
	StateInWorld:           "InWorld",
	StateDisconnecting:     "Disconnecting",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "Unknown"
}

// allowedKinds is the complete inbound allow-list per state. Any kind
// not listed for the connection's current state is a protocol
// violation and tears the connection down.
var allowedKinds = map[State][]protocol.Kind{
	StateAwaitingHandshake: {
		protocol.KindConnectionRequest,
	},
	StateLoggingIn: {
		protocol.KindLoginRequest,
		protocol.KindPing,
	},
	StateCharacterSelect: {
		protocol.KindCharacterListRequest,
		protocol.KindCreateCharacterRequest,
		protocol.KindDeleteCharacterRequest,
		protocol.KindSelectCharacterRequest,
		protocol.KindPing,
	},
	StateInWorld: {
		protocol.KindMoveRequest,
		protocol.KindAttackRequest,
		protocol.KindPickupRequest,
		protocol.KindChatSend,
		protocol.KindPing,
		protocol.KindRekey,
		protocol.KindLogoutRequest,
	},
	StateDisconnecting: {},
}

// Allowed reports whether a state admits an inbound packet kind.
func Allowed(s State, k protocol.Kind) bool {
	for _, allowed := range allowedKinds[s] {
		if allowed == k {
			return true
		}
	}
	return false
}
