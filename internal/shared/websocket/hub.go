package websocket

import (
	"context"
	"time"

	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Constants for WebSocket configuration (adjust as needed)
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// SendBufferSize is the outbound queue of one client
	SendBufferSize = 64

	hubBufferSize = 256
)

// Hub keeps client's registry and handle messages broadcasting, clients are grouped by topic
// (the auction id for the auction module)
type Hub struct {
	// topic -> clients, the boolean value is ignored
	clients map[string]map[*Client]bool
	// Outbound messages for a topic
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	direct     chan *directMessage
	counts     chan countRequest
	// InboundMessages is listened to by module-specific handlers (e.g, auction handler)
	InboundMessages chan *ClientMessage
}

// Client represents a ws individual connection
type Client struct {
	Hub *Hub
	// The websocket connection, nil in tests that only exercise the hub
	Conn *websocket.Conn
	// Buffered channel of outbound messages.
	Send chan []byte
	// Topic this client is subscribed to
	Topic string
	// Unique identifier for the client
	ID         string
	RemoteAddr string
}

type Message struct {
	Topic string
	Data  []byte
}

// ClientMessage is used for wraping the client and data message received.
// is used to send inbound messages from the client to the hub handlers
type ClientMessage struct {
	Client *Client
	Data   []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

type countRequest struct {
	topic string
	reply chan int
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message, hubBufferSize),
		register:        make(chan *Client, hubBufferSize),
		unregister:      make(chan *Client, hubBufferSize),
		direct:          make(chan *directMessage, hubBufferSize),
		counts:          make(chan countRequest),
		clients:         make(map[string]map[*Client]bool),
		InboundMessages: make(chan *ClientMessage, hubBufferSize),
	}
}

// NewClient builds a client for topic with its outbound queue.
func (h *Hub) NewClient(conn *websocket.Conn, topic, id, remoteAddr string) *Client {
	return &Client{
		Hub:        h,
		Conn:       conn,
		Send:       make(chan []byte, SendBufferSize),
		Topic:      topic,
		ID:         id,
		RemoteAddr: remoteAddr,
	}
}

// Run starts the hub listening in their channels, on cancellation every client queue is closed
// so the write pumps send a close frame.
func (h *Hub) Run(ctx context.Context) {
	log.Info("Websocket Hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("WebSocket Hub shutting down due to context cancellation", zap.Int("total_clients", h.total()))
			for topic, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, topic)
			}
			return

		case client := <-h.register:
			if _, ok := h.clients[client.Topic]; !ok {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("topic", client.Topic),
				zap.String("remote_addr", client.RemoteAddr),
				zap.Int("total_clients", h.total()),
			)

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			clients, ok := h.clients[message.Topic]
			if !ok {
				continue
			}
			log.Debug("Broadcasting message to topic", zap.String("topic", message.Topic), zap.Int("clients", len(clients)))
			for client := range clients {
				select {
				case client.Send <- message.Data:
				default:
					// slow consumer, drop it rather than block every other client
					log.Warn("Client send queue full, unregistering",
						zap.String("clientID", client.ID),
						zap.String("topic", client.Topic),
						zap.String("remote_addr", client.RemoteAddr),
					)
					h.remove(client)
				}
			}

		case dm := <-h.direct:
			if !h.clients[dm.client.Topic][dm.client] {
				continue
			}
			select {
			case dm.client.Send <- dm.data:
			default:
				log.Warn("Client send queue full, unregistering", zap.String("clientID", dm.client.ID))
				h.remove(dm.client)
			}

		case req := <-h.counts:
			req.reply <- len(h.clients[req.topic])
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	log.Info("Client unregistered",
		zap.String("clientID", client.ID),
		zap.String("topic", client.Topic),
		zap.String("remote_addr", client.RemoteAddr),
		zap.Int("total_clients", h.total()),
	)
	if len(clients) == 0 {
		delete(h.clients, client.Topic)
		log.Debug("Topic group removed as empty", zap.String("topic", client.Topic))
	}
}

func (h *Hub) total() int {
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// RegisterClient register a new client in the hub
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
		log.Debug("Client queued for registration",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

// UnregisterClient delete a client from the hub
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
		log.Debug("Client queued for unregistration",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	}
}

// Broadcast sends data to every client subscribed to topic. It never blocks, a full hub drops the message.
func (h *Hub) Broadcast(topic string, data []byte) bool {
	select {
	case h.broadcast <- &Message{Topic: topic, Data: data}:
		log.Debug("Message queued for broadcast", zap.String("topic", topic))
		return true
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("topic", topic))
		return false
	}
}

// SendToClient queues data for one registered client only. Like Broadcast it never blocks.
func (h *Hub) SendToClient(client *Client, data []byte) bool {
	select {
	case h.direct <- &directMessage{client: client, data: data}:
		return true
	default:
		log.Error("Direct channel is full, message dropped", zap.String("clientID", client.ID))
		return false
	}
}

// ClientCount returns the clients subscribed to topic, it blocks until Run answers or ctx is done.
func (h *Hub) ClientCount(ctx context.Context, topic string) (int, error) {
	req := countRequest{topic: topic, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-req.reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReadPump reads client frames and hands them to InboundMessages.
// It must run in its own goroutine per client and returns when the connection is closed.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("topic", c.Topic),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			log.Info("ReadPump context cancelled for client", zap.String("clientID", c.ID), zap.String("topic", c.Topic))
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.String("remote_addr", c.RemoteAddr),
					zap.Error(err),
				)
			} else {
				log.Info("WebSocket connection closed by peer",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
			}
			return
		}

		log.Debug("Received message from client",
			zap.String("clientID", c.ID),
			zap.String("topic", c.Topic),
			zap.ByteString("message", message),
		)

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub InboundMessages channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("topic", c.Topic),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// A goroutine running WritePump is started for each connection, it is the only writer of the
// connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("WritePump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("topic", c.Topic),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			err := c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			if err != nil {
				log.Debug("Failed to send close control message", zap.String("clientID", c.ID), zap.Error(err))
			}
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The Hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one JSON document per frame
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
				return
			}
		}
	}
}
