package fleet

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"wmsbridge/bus"
	"wmsbridge/config"
	"wmsbridge/protocol"
	"wmsbridge/statecache"
)

type published struct {
	topic   string
	payload []byte
}

// fakeSession is an in-memory bus.Session for driving the fleet without a
// broker.
type fakeSession struct {
	connectDelay time.Duration

	mu          sync.Mutex
	failConnect bool
	connected   bool
	closed      bool
	subscribes  int
	handlers    map[string]bus.Handler
	pubs        []published
}

func newFakeSession() *fakeSession {
	return &fakeSession{handlers: make(map[string]bus.Handler)}
}

func (s *fakeSession) Connect(ctx context.Context) error {
	if s.connectDelay > 0 {
		time.Sleep(s.connectDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failConnect {
		return bus.ErrConnectTimeout
	}
	s.connected = true
	return nil
}

func (s *fakeSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSession) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *fakeSession) Subscribe(topic string, h bus.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	s.handlers[topic] = h
	return nil
}

func (s *fakeSession) Unsubscribe(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, topic)
	return nil
}

func (s *fakeSession) Publish(topic string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pubs = append(s.pubs, published{topic: topic, payload: payload})
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.connected = false
}

func (s *fakeSession) deliver(topic string, payload []byte) {
	s.mu.Lock()
	h := s.handlers[topic]
	s.mu.Unlock()
	if h != nil {
		h(topic, payload)
	}
}

func (s *fakeSession) publishedOn(topic string) []published {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []published
	for _, p := range s.pubs {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type fakeHub struct {
	mu   sync.Mutex
	envs []*protocol.Envelope
}

func (h *fakeHub) Broadcast(env *protocol.Envelope) {
	h.mu.Lock()
	h.envs = append(h.envs, env)
	h.mu.Unlock()
}

func (h *fakeHub) byType(msgType string) []*protocol.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*protocol.Envelope
	for _, e := range h.envs {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}

type fakeArrivals struct {
	mu      sync.Mutex
	arrived []string
}

func (a *fakeArrivals) OnArrived(robot, pin string) {
	a.mu.Lock()
	a.arrived = append(a.arrived, robot+":"+pin)
	a.mu.Unlock()
}

func testBusConfig() *config.BusConfig {
	return &config.BusConfig{
		Backend:         "mqtt",
		Port:            9090,
		ConnectTimeout:  50 * time.Millisecond,
		MonitorInterval: 5 * time.Millisecond,
		StatusDebounce:  0, // tests assert individual broadcasts
	}
}

func testManager(t *testing.T) (*Manager, *fakeHub, map[string]*fakeSession) {
	t.Helper()
	hub := &fakeHub{}
	cache := statecache.NewManager(nil)
	m := NewManager(testBusConfig(), hub, cache)
	sessions := make(map[string]*fakeSession)
	m.SetDialer(func(name, addr string) (bus.Session, error) {
		if s, ok := sessions[name]; ok {
			return s, nil
		}
		s := newFakeSession()
		sessions[name] = s
		return s, nil
	})
	return m, hub, sessions
}

func TestConnectSubscribesTelemetryTopics(t *testing.T) {
	m, hub, sessions := testManager(t)

	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	sess := sessions["r1"]
	if sess.subscribes != len(telemetryTopics) {
		t.Errorf("subscribes = %d, want %d", sess.subscribes, len(telemetryTopics))
	}
	if m.ActiveRobot() != "r1" {
		t.Errorf("active = %q, want r1", m.ActiveRobot())
	}

	statuses := hub.byType(protocol.TypeStatus)
	if len(statuses) == 0 {
		t.Fatal("expected a status broadcast after connect")
	}
	p := statuses[len(statuses)-1].Payload.(protocol.StatusPayload)
	if !p.Connected || p.RobotName != "r1" || p.IP != "10.0.0.5" {
		t.Errorf("status payload = %+v", p)
	}
}

func TestConnectIdempotentReactivation(t *testing.T) {
	m, _, sessions := testManager(t)

	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	before := sessions["r1"].subscribes

	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if got := sessions["r1"].subscribes; got != before {
		t.Errorf("second connect re-subscribed: %d -> %d", before, got)
	}
	if m.ActiveRobot() != "r1" {
		t.Errorf("active = %q", m.ActiveRobot())
	}
}

func TestConnectTimeoutIsRecoverable(t *testing.T) {
	m, hub, _ := testManager(t)
	failing := newFakeSession()
	failing.failConnect = true
	m.SetDialer(func(name, addr string) (bus.Session, error) { return failing, nil })

	err := m.Connect(context.Background(), "r1", "10.0.0.5")
	if err == nil {
		t.Fatal("expected connect error")
	}
	if m.ActiveRobot() != "" {
		t.Errorf("active = %q, want none", m.ActiveRobot())
	}

	statuses := hub.byType(protocol.TypeStatus)
	if len(statuses) == 0 {
		t.Fatal("expected a failure status broadcast")
	}
	if p := statuses[len(statuses)-1].Payload.(protocol.StatusPayload); p.Connected {
		t.Errorf("status payload = %+v, want connected=false", p)
	}
}

func TestSwitchActiveDisconnectsPrevious(t *testing.T) {
	m, _, sessions := testManager(t)

	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect r1: %v", err)
	}
	if err := m.Connect(context.Background(), "r2", "10.0.0.6"); err != nil {
		t.Fatalf("Connect r2: %v", err)
	}

	if !sessions["r1"].closed {
		t.Error("previous active session should be closed")
	}
	if m.ActiveRobot() != "r2" {
		t.Errorf("active = %q, want r2", m.ActiveRobot())
	}
}

func TestConcurrentConnectKeepsSingleSession(t *testing.T) {
	m, _, _ := testManager(t)
	slow := newFakeSession()
	slow.connectDelay = 150 * time.Millisecond
	fast := newFakeSession()
	m.SetDialer(func(name, addr string) (bus.Session, error) {
		if name == "r1" {
			return slow, nil
		}
		return fast, nil
	})

	done := make(chan error, 1)
	go func() { done <- m.Connect(context.Background(), "r1", "10.0.0.5") }()
	time.Sleep(30 * time.Millisecond)

	if err := m.Connect(context.Background(), "r2", "10.0.0.6"); err != nil {
		t.Fatalf("Connect r2: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Connect r1: %v", err)
	}

	// Whichever connect ran second wins; the first session must be closed.
	if m.ActiveRobot() != "r2" {
		t.Errorf("active = %q, want r2", m.ActiveRobot())
	}
	slow.mu.Lock()
	r1Open := slow.connected && !slow.closed
	slow.mu.Unlock()
	fast.mu.Lock()
	r2Open := fast.connected && !fast.closed
	fast.mu.Unlock()
	if r1Open && r2Open {
		t.Fatal("two bus sessions open simultaneously")
	}
	if r1Open {
		t.Error("r1 session left open after r2 became active")
	}
	if !r2Open {
		t.Error("r2 session should be open")
	}
}

func TestVelocityClampByGear(t *testing.T) {
	m, _, sessions := testManager(t)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	m.SendVelocity(protocol.CmdVelPayload{
		Linear:  protocol.Vector3{X: 5.0},
		Angular: protocol.Vector3{Z: -9.0},
		Gear:    2,
	})

	pubs := sessions["r1"].publishedOn(cmdVelTopic)
	if len(pubs) != 1 {
		t.Fatalf("cmd_vel publishes = %d, want 1", len(pubs))
	}
	var twist struct {
		Linear  struct{ X float64 }
		Angular struct{ Z float64 }
	}
	if err := json.Unmarshal(pubs[0].payload, &twist); err != nil {
		t.Fatalf("unmarshal twist: %v", err)
	}
	if twist.Linear.X != 0.15 {
		t.Errorf("linear.x = %v, want 0.15", twist.Linear.X)
	}
	if twist.Angular.Z != -1.0 {
		t.Errorf("angular.z = %v, want -1.0", twist.Angular.Z)
	}
}

func TestVelocityDroppedWithoutActiveRobot(t *testing.T) {
	m, _, sessions := testManager(t)
	m.SendVelocity(protocol.CmdVelPayload{Linear: protocol.Vector3{X: 0.1}})
	for name, s := range sessions {
		if len(s.pubs) != 0 {
			t.Errorf("session %s received publishes", name)
		}
	}
}

func TestUICommandPublishesData(t *testing.T) {
	m, _, sessions := testManager(t)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	m.SendUICommand("PIN-A3")

	pubs := sessions["r1"].publishedOn(uiCommandTopic)
	if len(pubs) != 1 {
		t.Fatalf("ui command publishes = %d, want 1", len(pubs))
	}
	var msg struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(pubs[0].payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Data != "PIN-A3" {
		t.Errorf("data = %q, want PIN-A3", msg.Data)
	}
}

func TestMonitorBroadcastsEdgeTransition(t *testing.T) {
	m, hub, sessions := testManager(t)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sessions["r1"].setConnected(false)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		statuses := hub.byType(protocol.TypeStatus)
		if len(statuses) > 0 {
			if p := statuses[len(statuses)-1].Payload.(protocol.StatusPayload); !p.Connected {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("monitor never broadcast the disconnect edge")
}

func TestStatusDebounceSuppressesFlapping(t *testing.T) {
	hub := &fakeHub{}
	cfg := testBusConfig()
	cfg.StatusDebounce = time.Hour
	cache := statecache.NewManager(nil)
	sess := newFakeSession()

	conn := newConnection(cfg, "r1", "10.0.0.5", sess, hub, cache, nil)
	conn.broadcastStatus(true)
	conn.broadcastStatus(false)
	conn.broadcastStatus(true)

	if got := len(hub.byType(protocol.TypeStatus)); got != 1 {
		t.Errorf("status broadcasts = %d, want 1 within debounce window", got)
	}
}

func TestSetAutoSpeedLevelClampsInvalid(t *testing.T) {
	m, _, _ := testManager(t)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	m.SetAutoSpeedLevel(7)
	if got := m.activeConn().speedLevelValue(); got != 1 {
		t.Errorf("speed level = %d, want 1", got)
	}
	m.SetAutoSpeedLevel(3)
	if got := m.activeConn().speedLevelValue(); got != 3 {
		t.Errorf("speed level = %d, want 3", got)
	}
}

func TestArrivalSentinelRouting(t *testing.T) {
	m, hub, sessions := testManager(t)
	arrivals := &fakeArrivals{}
	m.SetArrivalSink(arrivals)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sessions["r1"].deliver("/nav", []byte(`{"data":"ARRIVED:PIN-7"}`))

	got := hub.byType(protocol.TypeRobotArrived)
	if len(got) != 1 {
		t.Fatalf("robot_arrived broadcasts = %d, want 1", len(got))
	}
	p := got[0].Payload.(protocol.RobotArrivedPayload)
	if p.Pin != "PIN-7" || p.RobotName != "r1" {
		t.Errorf("payload = %+v", p)
	}
	if len(hub.byType(protocol.TypeNav)) != 0 {
		t.Error("arrival sentinel must not produce a nav path update")
	}

	arrivals.mu.Lock()
	defer arrivals.mu.Unlock()
	if len(arrivals.arrived) != 1 || arrivals.arrived[0] != "r1:PIN-7" {
		t.Errorf("arrival sink = %v", arrivals.arrived)
	}
}

func TestArrivalAtWaitEmitsIdleState(t *testing.T) {
	m, hub, sessions := testManager(t)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sessions["r1"].deliver("/nav", []byte(`{"data":"ARRIVED:WAIT"}`))

	idle := hub.byType(protocol.TypeRobotStatus)
	if len(idle) != 1 {
		t.Fatalf("robot_status broadcasts = %d, want 1", len(idle))
	}
	if p := idle[0].Payload.(protocol.RobotStatusPayload); p.State != StateIdle {
		t.Errorf("state = %q, want %q", p.State, StateIdle)
	}
	if len(hub.byType(protocol.TypeRobotArrived)) != 1 {
		t.Error("WAIT arrival must still emit robot_arrived")
	}
}

func TestPoseCachedFromAMCL(t *testing.T) {
	hub := &fakeHub{}
	cache := statecache.NewManager(nil)
	m := NewManager(testBusConfig(), hub, cache)
	sess := newFakeSession()
	m.SetDialer(func(name, addr string) (bus.Session, error) { return sess, nil })
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sess.deliver("/amcl_pose", []byte(`{"pose":{"pose":{"position":{"x":1.5,"y":-2.5},"orientation":{"w":1}}}}`))

	poses := cache.Poses()
	pose, ok := poses["r1"]
	if !ok {
		t.Fatal("pose not cached")
	}
	if pose.X != 1.5 || pose.Y != -2.5 || pose.Theta != 0 {
		t.Errorf("pose = %+v", pose)
	}
}

func TestDisconnectClearsRegistry(t *testing.T) {
	m, _, sessions := testManager(t)
	if err := m.Connect(context.Background(), "r1", "10.0.0.5"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	m.Disconnect("r1")

	if !sessions["r1"].closed {
		t.Error("session not closed")
	}
	if m.ActiveRobot() != "" {
		t.Errorf("active = %q, want none", m.ActiveRobot())
	}
	if _, connected := m.Status("r1"); connected {
		t.Error("status should report disconnected")
	}
}

func TestDisconnectUnknownIsNoop(t *testing.T) {
	m, hub, _ := testManager(t)
	m.Disconnect("ghost")
	statuses := hub.byType(protocol.TypeStatus)
	if len(statuses) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(statuses))
	}
	if p := statuses[0].Payload.(protocol.StatusPayload); p.Connected {
		t.Errorf("payload = %+v", p)
	}
}
