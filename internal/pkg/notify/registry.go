package notify

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Event names pushed to connected clients.
const (
	EventOrderPaid             = "order-paid"
	EventOrderStatusChange     = "order-status-change"
	EventOrderPaymentRefunded  = "order-paiment-refunded"
	EventCheckoutSessionPaid   = "checkout-session-paid"
	EventCheckoutSessionRefund = "checkout-session-refuded"
)

type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type client struct {
	userID *uint
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes to conn
}

func (c *client) send(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(envelope{Event: event, Payload: payload})
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry the HTTP layer hangs
// connections on.
func Default() *Registry {
	return defaultRegistry
}

// Registry tracks live websocket connections so settlement events reach
// the browser that initiated a checkout or owns an order. Delivery is
// best effort; a dead connection is dropped on the first failed write.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*client          // connID -> client
	byUser  map[uint]map[string]*client // userID -> connID -> client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*client),
		byUser:  make(map[uint]map[string]*client),
	}
}

// Register adds a connection, optionally bound to a user, and returns the
// connection ID the client passes along when opening a checkout.
func (r *Registry) Register(userID *uint, conn *websocket.Conn) string {
	connID := uuid.New().String()
	c := &client{userID: userID, conn: conn}

	r.mu.Lock()
	r.clients[connID] = c
	if userID != nil {
		set, ok := r.byUser[*userID]
		if !ok {
			set = make(map[string]*client)
			r.byUser[*userID] = set
		}
		set[connID] = c
	}
	r.mu.Unlock()
	return connID
}

// Unregister removes a connection. Safe to call twice.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[connID]
	if !ok {
		return
	}
	delete(r.clients, connID)
	if c.userID != nil {
		if set, ok := r.byUser[*c.userID]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(r.byUser, *c.userID)
			}
		}
	}
}

// Emit pushes an event to every live connection of the user.
func (r *Registry) Emit(userID uint, event string, payload interface{}) {
	r.mu.RLock()
	targets := make(map[string]*client, len(r.byUser[userID]))
	for connID, c := range r.byUser[userID] {
		targets[connID] = c
	}
	r.mu.RUnlock()

	for connID, c := range targets {
		if err := c.send(event, payload); err != nil {
			log.Warnf("[Notify] drop connection %s: %v", connID, err)
			r.Unregister(connID)
		}
	}
}

// EmitConn pushes an event to one specific connection, typically the one
// whose ID rode along in the checkout metadata.
func (r *Registry) EmitConn(connID, event string, payload interface{}) {
	r.mu.RLock()
	c, ok := r.clients[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.send(event, payload); err != nil {
		log.Warnf("[Notify] drop connection %s: %v", connID, err)
		r.Unregister(connID)
	}
}
