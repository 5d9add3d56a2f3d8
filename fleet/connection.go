package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"wmsbridge/bus"
	"wmsbridge/config"
	"wmsbridge/protocol"
	"wmsbridge/statecache"
	"wmsbridge/telemetry"
)

// Connection owns one bus session to one robot: the telemetry subscription
// set, the outbound command publisher, and a background health monitor.
// Connections are created by the Manager, replaced on reconnect, and
// destroyed on explicit disconnect.
type Connection struct {
	name string
	addr string

	cfg      *config.BusConfig
	hub      Broadcaster
	cache    *statecache.Manager
	arrivals ArrivalSink // optional

	mu             sync.Mutex
	sess           bus.Session
	connected      bool
	speedLevel     int
	publisherReady bool
	lastBroadcast  time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newConnection(cfg *config.BusConfig, name, addr string, sess bus.Session, hub Broadcaster, cache *statecache.Manager, arrivals ArrivalSink) *Connection {
	return &Connection{
		name:       name,
		addr:       addr,
		cfg:        cfg,
		hub:        hub,
		cache:      cache,
		arrivals:   arrivals,
		sess:       sess,
		speedLevel: defaultGear,
		stopCh:     make(chan struct{}),
	}
}

func (c *Connection) Name() string { return c.name }
func (c *Connection) Addr() string { return c.addr }

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// connect brings the session up, subscribes the telemetry topic set,
// ensures the command publisher, and starts the health monitor. A connect
// timeout is recoverable: the failure is broadcast as a status change and
// returned, never raised further.
func (c *Connection) connect(ctx context.Context) error {
	log.Printf("fleet: %s(%s) connecting...", c.name, c.addr)

	if err := c.sess.Connect(ctx); err != nil {
		if errors.Is(err, bus.ErrConnectTimeout) {
			log.Printf("fleet: %s connect timed out", c.name)
		} else {
			log.Printf("fleet: %s connect: %v", c.name, err)
		}
		c.broadcastStatus(false)
		return fmt.Errorf("connect %s: %w", c.name, err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.subscribeTopics()
	c.ensurePublisher()
	go c.monitor()

	log.Printf("fleet: %s connected", c.name)
	c.broadcastStatus(true)
	return nil
}

// subscribeTopics registers the fixed telemetry set. A topic that fails to
// subscribe is logged and skipped; it does not abort the connection.
func (c *Connection) subscribeTopics() {
	for _, topic := range telemetryTopics {
		t := topic
		if err := c.sess.Subscribe(t, func(topic string, payload []byte) {
			c.handleBusMessage(topic, payload)
		}); err != nil {
			log.Printf("fleet: %s subscribe %s: %v", c.name, t, err)
		}
	}
}

// ensurePublisher marks the outbound command path ready. Performed once at
// connect time with an idempotent guard; the send path never materializes
// it implicitly.
func (c *Connection) ensurePublisher() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publisherReady {
		return
	}
	c.publisherReady = true
}

// handleBusMessage runs the normalize -> envelope -> broadcast pipeline
// for one inbound topic message. Failures are isolated per message.
func (c *Connection) handleBusMessage(topic string, payload []byte) {
	rec, err := telemetry.Normalize(topic, payload)
	if err != nil {
		if errors.Is(err, telemetry.ErrUnhandledTopic) {
			log.Printf("fleet: %s unhandled topic %s", c.name, topic)
		} else {
			log.Printf("fleet: %s %s: %v", c.name, topic, err)
		}
		return
	}

	if arrived, ok := rec.(telemetry.ArrivedRecord); ok {
		c.handleArrival(arrived.Pin)
		return
	}

	env, err := telemetry.Build(c.name, rec)
	if err != nil {
		log.Printf("fleet: %s build envelope: %v", c.name, err)
		return
	}
	c.hub.Broadcast(env)

	if pose, ok := rec.(telemetry.AMCLPoseRecord); ok {
		c.cache.SetPose(c.name, statecache.Pose{X: pose.X, Y: pose.Y, Theta: pose.Theta})
	}
}

// handleArrival handles the ARRIVED:<pin> sentinel. Arrival at the WAIT
// pin means the robot is home and idle again.
func (c *Connection) handleArrival(pin string) {
	log.Printf("fleet: %s arrived at %s", c.name, pin)

	if pin == telemetry.PinWait {
		c.cache.SetStatus(c.name, StateIdle)
		c.hub.Broadcast(protocol.NewEnvelope(protocol.TypeRobotStatus, protocol.RobotStatusPayload{
			Name:  c.name,
			State: StateIdle,
		}))
	}

	c.hub.Broadcast(protocol.NewEnvelope(protocol.TypeRobotArrived, protocol.RobotArrivedPayload{
		Pin:       pin,
		RobotName: c.name,
	}))

	if c.arrivals != nil {
		c.arrivals.OnArrived(c.name, pin)
	}
}

// monitor polls the session's connected flag and broadcasts edge
// transitions. It runs until the connection is disconnected.
func (c *Connection) monitor() {
	ticker := time.NewTicker(c.cfg.MonitorInterval)
	defer ticker.Stop()

	prev := c.IsConnected()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			cur := c.sess.IsConnected()
			if cur != prev {
				c.mu.Lock()
				c.connected = cur
				c.mu.Unlock()
				log.Printf("fleet: %s state change: connected=%v", c.name, cur)
				c.broadcastStatus(cur)
				prev = cur
			}
		}
	}
}

// broadcastStatus reports connectivity to dashboards, debounced per
// connection so flapping links do not flood clients.
func (c *Connection) broadcastStatus(connected bool) {
	c.mu.Lock()
	if time.Since(c.lastBroadcast) < c.cfg.StatusDebounce {
		c.mu.Unlock()
		return
	}
	c.lastBroadcast = time.Now()
	c.mu.Unlock()

	c.hub.Broadcast(protocol.NewEnvelope(protocol.TypeStatus, protocol.StatusPayload{
		RobotName: c.name,
		IP:        c.addr,
		Connected: connected,
	}))
}

// sendVelocity publishes a gear-clamped twist on the velocity topic.
// Publish failures are logged, never propagated.
func (c *Connection) sendVelocity(p protocol.CmdVelPayload) {
	gear := p.Gear
	maxV, ok := maxSpeedByGear[gear]
	if !ok {
		maxV = maxSpeedByGear[defaultGear]
	}

	twist := map[string]any{
		"linear":  map[string]float64{"x": clamp(p.Linear.X, -maxV, maxV), "y": 0, "z": 0},
		"angular": map[string]float64{"x": 0, "y": 0, "z": clamp(p.Angular.Z, -1.0, 1.0)},
	}
	data, _ := json.Marshal(twist)
	if err := c.sess.Publish(cmdVelTopic, data); err != nil {
		log.Printf("fleet: %s cmd_vel publish: %v", c.name, err)
	}
}

// sendUICommand publishes a string command (destination pin name or WAIT)
// on the UI command topic.
func (c *Connection) sendUICommand(command string) {
	c.mu.Lock()
	ready := c.publisherReady
	c.mu.Unlock()
	if !ready {
		c.ensurePublisher()
	}

	data, _ := json.Marshal(map[string]string{"data": command})
	if err := c.sess.Publish(uiCommandTopic, data); err != nil {
		log.Printf("fleet: %s ui command publish: %v", c.name, err)
	}
}

// setSpeedLevel stores the auto-mode gear. Invalid levels clamp to 1.
// Advisory only: the stored intent has no enforced downstream effect yet.
func (c *Connection) setSpeedLevel(level int) {
	if _, ok := maxSpeedByGear[level]; !ok {
		log.Printf("fleet: %s invalid speed level %d, defaulting to %d", c.name, level, defaultGear)
		level = defaultGear
	}
	c.mu.Lock()
	c.speedLevel = level
	c.mu.Unlock()
	log.Printf("fleet: %s auto speed level=%d (max %.2f m/s)", c.name, level, maxSpeedByGear[level])
}

func (c *Connection) speedLevelValue() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speedLevel
}

// disconnect stops the monitor, tears the session down, and broadcasts the
// disconnected status. Safe to call when already disconnected.
func (c *Connection) disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	for _, topic := range telemetryTopics {
		if err := c.sess.Unsubscribe(topic); err != nil {
			log.Printf("fleet: %s unsubscribe %s: %v", c.name, topic, err)
		}
	}
	c.sess.Close()

	c.mu.Lock()
	c.connected = false
	c.publisherReady = false
	c.mu.Unlock()

	log.Printf("fleet: %s disconnected", c.name)
	c.broadcastStatus(false)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
