package hub

import (
	"encoding/json"
	"log"
	"sync"

	"wmsbridge/protocol"
	"wmsbridge/statecache"
)

// StatusSource reports the active robot's connectivity for replay to a
// newly joined client. The fleet manager implements this.
type StatusSource interface {
	ActiveStatus() (name, ip string, connected, ok bool)
}

// Hub fans envelopes out to every connected websocket client. Clients are
// registered by the websocket handler and unregistered when their send
// path dies.
type Hub struct {
	cache  *statecache.Manager
	status StatusSource

	mu      sync.Mutex
	clients map[string]*Client
}

func New(cache *statecache.Manager) *Hub {
	return &Hub{
		cache:   cache,
		clients: make(map[string]*Client),
	}
}

// SetStatusSource wires the fleet manager in after construction. The hub
// and the manager reference each other, so one side is injected late.
func (h *Hub) SetStatusSource(s StatusSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = s
}

// Register adds a client and replays current state to it alone: robot
// workflow statuses first, then the active robot's connectivity, then the
// last known pose per robot so dashboards can place markers immediately.
func (h *Hub) Register(c *Client) {
	c.setOnDead(func() { h.Unregister(c) })

	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	status := h.status
	h.mu.Unlock()
	log.Printf("hub: client %s joined (%d total)", c.ID, n)

	for name, state := range h.cache.Statuses() {
		h.sendTo(c, protocol.NewEnvelope(protocol.TypeRobotStatus, protocol.RobotStatusPayload{
			Name:  name,
			State: state,
		}))
	}

	if status != nil {
		if name, ip, connected, ok := status.ActiveStatus(); ok {
			h.sendTo(c, protocol.NewEnvelope(protocol.TypeStatus, protocol.StatusPayload{
				RobotName: name,
				IP:        ip,
				Connected: connected,
			}))
		}
	}

	for name, pose := range h.cache.Poses() {
		h.sendTo(c, protocol.NewEnvelope(protocol.TypePoseRestore, protocol.PoseRestorePayload{
			RobotName: name,
			X:         pose.X,
			Y:         pose.Y,
			Theta:     pose.Theta,
		}))
	}
}

// Unregister removes a client. Safe to call more than once for the same
// client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		delete(h.clients, c.ID)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		log.Printf("hub: client %s left (%d total)", c.ID, n)
	}
}

// Broadcast marshals the envelope once and hands it to every client. A
// client whose send buffer is full is considered dead and dropped, so one
// stalled browser cannot block the rest.
func (h *Hub) Broadcast(env *protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("hub: marshal %s: %v", env.Type, err)
		return
	}

	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			log.Printf("hub: client %s send buffer full, dropping client", c.ID)
			h.Unregister(c)
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) sendTo(c *Client, env *protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("hub: marshal %s: %v", env.Type, err)
		return
	}
	if !c.enqueue(data) {
		h.Unregister(c)
	}
}
