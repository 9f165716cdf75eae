package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Hub fans events out to every open connection of a client ID
type Hub struct {
	clients    map[*Client]bool
	byClientID map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byClientID: make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every connection's send channel
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.byClientID[client.clientID] == nil {
		h.byClientID[client.clientID] = make(map[*Client]bool)
	}
	h.byClientID[client.clientID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.byClientID[client.clientID], client)
	if len(h.byClientID[client.clientID]) == 0 {
		delete(h.byClientID, client.clientID)
	}
	close(client.send)
}

func (h *Hub) deliver(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.byClientID[event.ClientID] {
		select {
		case client.send <- message:
		default:
			// slow consumer
			h.dropLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropLocked(client)
	}
}

// Publish queues an event for clientID; it is dropped if the queue is full
func (h *Hub) Publish(clientID string, eventType EventType, data interface{}) {
	event := Event{
		ClientID:  clientID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *Hub) ConnectedClients(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.byClientID[clientID])
}
