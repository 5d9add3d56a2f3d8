package fleet

import (
	"context"
	"log"
	"sync"

	"wmsbridge/bus"
	"wmsbridge/config"
	"wmsbridge/protocol"
	"wmsbridge/statecache"
)

// Manager is the fleet connection registry. It owns every Connection and
// tracks which robot is active (eligible for commands). Connect and
// disconnect sequences are serialized by opMu so two callers can never
// leave two bus sessions open at once; mu only guards the registry maps
// and stays cheap to take from the command path.
type Manager struct {
	cfg    *config.BusConfig
	hub    Broadcaster
	cache  *statecache.Manager
	dialer Dialer

	opMu sync.Mutex // serializes whole connect/disconnect sequences

	mu       sync.Mutex // guards the fields below
	conns    map[string]*Connection
	active   string
	arrivals ArrivalSink
}

func NewManager(cfg *config.BusConfig, hub Broadcaster, cache *statecache.Manager) *Manager {
	return &Manager{
		cfg:   cfg,
		hub:   hub,
		cache: cache,
		dialer: func(name, addr string) (bus.Session, error) {
			return bus.Dial(cfg, name, addr)
		},
		conns: make(map[string]*Connection),
	}
}

// SetDialer replaces the bus dialer. Tests use this to inject fakes.
func (m *Manager) SetDialer(d Dialer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialer = d
}

// SetArrivalSink wires pin-arrival events to the job sequencer.
func (m *Manager) SetArrivalSink(s ArrivalSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrivals = s
}

// Connect makes the named robot active, connecting it first if needed.
// An already-connected robot is re-activated without touching the bus.
// At most one robot holds an open session at a time: a different active
// robot is disconnected before the new session is opened, and opMu is
// held for the whole sequence so concurrent Connect calls from different
// dashboard goroutines cannot interleave.
func (m *Manager) Connect(ctx context.Context, name, addr string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	existing, ok := m.conns[name]
	dialer := m.dialer
	arrivals := m.arrivals
	m.mu.Unlock()

	// Idempotent fast path: already connected, just re-activate.
	if ok && existing.IsConnected() {
		m.retireActive(name)
		m.mu.Lock()
		m.active = name
		m.mu.Unlock()
		log.Printf("fleet: %s already connected, re-activated", name)
		existing.broadcastStatus(true)
		return nil
	}

	// A stale entry for this name is replaced, not mutated.
	if ok {
		m.mu.Lock()
		delete(m.conns, name)
		m.mu.Unlock()
		existing.disconnect()
	}

	m.retireActive(name)

	sess, err := dialer(name, addr)
	if err != nil {
		log.Printf("fleet: %s dial: %v", name, err)
		return err
	}
	conn := newConnection(m.cfg, name, addr, sess, m.hub, m.cache, arrivals)

	if err := conn.connect(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.conns[name] = conn
	m.active = name
	m.mu.Unlock()
	log.Printf("fleet: active robot = %s", name)
	return nil
}

// retireActive disconnects the current active connection when its name
// differs from keep. Caller holds opMu.
func (m *Manager) retireActive(keep string) {
	m.mu.Lock()
	name := m.active
	if name == "" || name == keep {
		m.mu.Unlock()
		return
	}
	prev := m.conns[name]
	delete(m.conns, name)
	m.active = ""
	m.mu.Unlock()

	if prev != nil {
		prev.disconnect()
	}
}

// Disconnect tears down the named robot's connection. Unknown names still
// get a disconnected status broadcast so dashboards converge.
func (m *Manager) Disconnect(name string) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	conn, ok := m.conns[name]
	if ok {
		delete(m.conns, name)
	}
	if m.active == name {
		m.active = ""
	}
	m.mu.Unlock()

	if ok {
		conn.disconnect()
		return
	}
	m.hub.Broadcast(protocol.NewEnvelope(protocol.TypeStatus, protocol.StatusPayload{
		RobotName: name,
		Connected: false,
	}))
}

// ActiveRobot returns the name of the active robot, or "".
func (m *Manager) ActiveRobot() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) activeConn() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == "" {
		return nil
	}
	return m.conns[m.active]
}

// SendVelocity routes a velocity command to the active robot. Without an
// active, connected robot the command is dropped with a warning.
func (m *Manager) SendVelocity(p protocol.CmdVelPayload) {
	conn := m.activeConn()
	if conn == nil || !conn.IsConnected() {
		log.Printf("fleet: cmd_vel dropped: no active connected robot")
		return
	}
	conn.sendVelocity(p)
}

// SendUICommand publishes a string command to the active robot's UI
// command topic. Failures degrade to a logged no-op.
func (m *Manager) SendUICommand(command string) {
	conn := m.activeConn()
	if conn == nil || !conn.IsConnected() {
		log.Printf("fleet: ui command %q dropped: no active connected robot", command)
		return
	}
	conn.sendUICommand(command)
}

// SetAutoSpeedLevel stores the auto-mode gear on the active robot.
func (m *Manager) SetAutoSpeedLevel(level int) {
	conn := m.activeConn()
	if conn == nil {
		log.Printf("fleet: auto speed dropped: no active robot")
		return
	}
	conn.setSpeedLevel(level)
}

// AutoSpeedLevel reports the active robot's auto-mode gear, or 0 when no
// robot is active.
func (m *Manager) AutoSpeedLevel() int {
	conn := m.activeConn()
	if conn == nil {
		return 0
	}
	return conn.speedLevelValue()
}

// Status reports the named robot's connectivity.
func (m *Manager) Status(name string) (ip string, connected bool) {
	m.mu.Lock()
	conn, ok := m.conns[name]
	m.mu.Unlock()
	if !ok {
		return "", false
	}
	return conn.Addr(), conn.IsConnected()
}

// ActiveStatus reports the active robot's connectivity for replay to newly
// joined dashboards.
func (m *Manager) ActiveStatus() (name, ip string, connected, ok bool) {
	conn := m.activeConn()
	if conn == nil {
		return "", "", false, false
	}
	return conn.Name(), conn.Addr(), conn.IsConnected(), true
}

// Shutdown closes the active connection at process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	name := m.active
	m.mu.Unlock()
	if name != "" {
		log.Printf("fleet: shutdown, disconnecting %s", name)
		m.Disconnect(name)
	}
}
