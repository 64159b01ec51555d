package socket

import (
	"log"

	"huddle_server/pubsub"

	socketio "github.com/googollee/go-socket.io"
)

// NewServer bridges the event hub to Socket.IO. Clients subscribe to topics
// (friend-requests:user#U, messages:group#G, ...) and receive every change
// event published on them as a "change" message. Unsubscribing leaves the
// room; disconnecting drops all of the client's rooms.
func NewServer(hub *pubsub.Hub) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(s socketio.Conn) error {
		log.Println("✅ Socket connected:", s.ID())
		return nil
	})

	server.OnEvent("/", "subscribe", func(s socketio.Conn, topic string) {
		if topic == "" {
			log.Println("❌ Invalid topic in subscribe request")
			return
		}
		log.Printf("👥 Client %s subscribed to %s", s.ID(), topic)
		s.Join(topic)
	})

	server.OnEvent("/", "unsubscribe", func(s socketio.Conn, topic string) {
		if topic == "" {
			return
		}
		log.Printf("👋 Client %s unsubscribed from %s", s.ID(), topic)
		s.Leave(topic)
	})

	server.OnError("/", func(s socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", reason)
	})

	hub.Tap(func(ev pubsub.Event) {
		server.BroadcastToRoom("/", ev.Topic, "change", ev)
	})

	return server
}
