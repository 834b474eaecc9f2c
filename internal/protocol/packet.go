package protocol

import "fmt"

// Kind is the packet-type discriminant carried in every frame header.
type Kind uint16

// Client to server.
const (
	KindConnectionRequest Kind = 0x0001 + iota
	KindLoginRequest
	KindCharacterListRequest
	KindCreateCharacterRequest
	KindDeleteCharacterRequest
	KindSelectCharacterRequest
	KindMoveRequest
	KindAttackRequest
	KindPickupRequest
	KindChatSend
	KindPing
	KindRekey
	KindLogoutRequest
)

// Server to client.
const (
	KindConnectionReply Kind = 0x0080 + iota
	KindLoginReply
	KindCharacterListReply
	KindCreateCharacterReply
	KindDeleteCharacterReply
	KindSelectCharacterReply
	KindSpawnEntity
	KindDespawnEntity
	KindEntityMoved
	KindEntityDamaged
	KindInventoryUpdate
	KindChatMessage
	KindAnnounce
	KindPong
	KindDisconnect
)

var kindNames = map[Kind]string{
	KindConnectionRequest:      "ConnectionRequest",
	KindLoginRequest:           "LoginRequest",
	KindCharacterListRequest:   "CharacterListRequest",
	KindCreateCharacterRequest: "CreateCharacterRequest",
	KindDeleteCharacterRequest: "DeleteCharacterRequest",
	KindSelectCharacterRequest: "SelectCharacterRequest",
	KindMoveRequest:            "MoveRequest",
	KindAttackRequest:          "AttackRequest",
	KindPickupRequest:          "PickupRequest",
	KindChatSend:               "ChatSend",
	KindPing:                   "Ping",
	KindRekey:                  "Rekey",
	KindLogoutRequest:          "LogoutRequest",
	KindConnectionReply:        "ConnectionReply",
	KindLoginReply:             "LoginReply",
	KindCharacterListReply:     "CharacterListReply",
	KindCreateCharacterReply:   "CreateCharacterReply",
	KindDeleteCharacterReply:   "DeleteCharacterReply",
	KindSelectCharacterReply:   "SelectCharacterReply",
	KindSpawnEntity:            "SpawnEntity",
	KindDespawnEntity:          "DespawnEntity",
	KindEntityMoved:            "EntityMoved",
	KindEntityDamaged:          "EntityDamaged",
	KindInventoryUpdate:        "InventoryUpdate",
	KindChatMessage:            "ChatMessage",
	KindAnnounce:               "Announce",
	KindPong:                   "Pong",
	KindDisconnect:             "Disconnect",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(0x%04x)", uint16(k))
}

// Packet is one decoded unit of the wire protocol.
type Packet interface {
	Kind() Kind
	encode(w *writer)
	decode(r *reader) error
}

// packetTable is the closed discriminant table: every kind we decode
// maps to a constructor. Anything else is a malformed frame.
var packetTable = map[Kind]func() Packet{
	KindConnectionRequest:      func() Packet { return &ConnectionRequest{} },
	KindLoginRequest:           func() Packet { return &LoginRequest{} },
	KindCharacterListRequest:   func() Packet { return &CharacterListRequest{} },
	KindCreateCharacterRequest: func() Packet { return &CreateCharacterRequest{} },
	KindDeleteCharacterRequest: func() Packet { return &DeleteCharacterRequest{} },
	KindSelectCharacterRequest: func() Packet { return &SelectCharacterRequest{} },
	KindMoveRequest:            func() Packet { return &MoveRequest{} },
	KindAttackRequest:          func() Packet { return &AttackRequest{} },
	KindPickupRequest:          func() Packet { return &PickupRequest{} },
	KindChatSend:               func() Packet { return &ChatSend{} },
	KindPing:                   func() Packet { return &Ping{} },
	KindRekey:                  func() Packet { return &Rekey{} },
	KindLogoutRequest:          func() Packet { return &LogoutRequest{} },
	KindConnectionReply:        func() Packet { return &ConnectionReply{} },
	KindLoginReply:             func() Packet { return &LoginReply{} },
	KindCharacterListReply:     func() Packet { return &CharacterListReply{} },
	KindCreateCharacterReply:   func() Packet { return &CreateCharacterReply{} },
	KindDeleteCharacterReply:   func() Packet { return &DeleteCharacterReply{} },
	KindSelectCharacterReply:   func() Packet { return &SelectCharacterReply{} },
	KindSpawnEntity:            func() Packet { return &SpawnEntity{} },
	KindDespawnEntity:          func() Packet { return &DespawnEntity{} },
	KindEntityMoved:            func() Packet { return &EntityMoved{} },
	KindEntityDamaged:          func() Packet { return &EntityDamaged{} },
	KindInventoryUpdate:        func() Packet { return &InventoryUpdate{} },
	KindChatMessage:            func() Packet { return &ChatMessage{} },
	KindAnnounce:               func() Packet { return &Announce{} },
	KindPong:                   func() Packet { return &Pong{} },
	KindDisconnect:             func() Packet { return &Disconnect{} },
}

// Critical reports whether a packet kind may never be dropped from a
// send queue under overflow. Spawn/despawn ordering and the final
// disconnect notice are load-bearing for client state; everything else
// is recoverable.
func Critical(k Kind) bool {
	switch k {
	case KindSpawnEntity, KindDespawnEntity, KindDisconnect:
		return true
	}
	return false
}
