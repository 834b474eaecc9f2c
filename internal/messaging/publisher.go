package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-mmo/internal/protocol"
)

// Bus subjects. Zone-local chat never touches the bus; it fans out
// directly from the tick thread.
const (
	subjectGlobalChat = "chat.global"
	subjectAnnounce   = "announce"
)

type chatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type announceMessage struct {
	Text string `json:"text"`
}

// Broadcaster is the session side of the bus: it pushes a decoded bus
// message onto every in-world session's send queue.
type Broadcaster interface {
	BroadcastChat(channel uint8, from, text string)
	BroadcastAnnounce(text string)
}

// Bus carries server-wide chat and announcements over the embedded
// NATS server, decoupling them from the tick loop.
type Bus struct {
	server *NatsServer
}

func NewBus(server *NatsServer) *Bus {
	return &Bus{server: server}
}

// PublishGlobalChat puts one global chat line on the bus. Every node's
// subscription (including this one's) delivers it to its sessions.
func (b *Bus) PublishGlobalChat(from, text string) error {
	data, err := json.Marshal(chatMessage{From: from, Text: text})
	if err != nil {
		return fmt.Errorf("marshalling chat message: %w", err)
	}
	return b.server.Publish(subjectGlobalChat, data)
}

// PublishAnnounce puts a server announcement on the bus.
func (b *Bus) PublishAnnounce(text string) error {
	data, err := json.Marshal(announceMessage{Text: text})
	if err != nil {
		return fmt.Errorf("marshalling announcement: %w", err)
	}
	return b.server.Publish(subjectAnnounce, data)
}

// Attach subscribes the broadcaster to both subjects and returns an
// unsubscribe function.
func (b *Bus) Attach(br Broadcaster) (func(), error) {
	unsubChat, err := b.server.Subscribe(subjectGlobalChat, func(data []byte) {
		var msg chatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("decoding bus chat message", "error", err)
			return
		}
		br.BroadcastChat(protocol.ChatChannelGlobal, msg.From, msg.Text)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subjectGlobalChat, err)
	}

	unsubAnnounce, err := b.server.Subscribe(subjectAnnounce, func(data []byte) {
		var msg announceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("decoding bus announcement", "error", err)
			return
		}
		br.BroadcastAnnounce(msg.Text)
	})
	if err != nil {
		unsubChat()
		return nil, fmt.Errorf("subscribing to %s: %w", subjectAnnounce, err)
	}

	return func() {
		unsubChat()
		unsubAnnounce()
	}, nil
}
