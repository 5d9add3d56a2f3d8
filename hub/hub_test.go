package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"wmsbridge/protocol"
	"wmsbridge/statecache"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("frame %s: %v", f, err)
		}
		out = append(out, env.Type)
	}
	return out
}

// waitFrames polls until the write pump has drained n frames.
func (c *fakeConn) waitFrames(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.frames)
		c.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames", n)
}

type fakeStatus struct {
	name, ip  string
	connected bool
	ok        bool
}

func (s *fakeStatus) ActiveStatus() (string, string, bool, bool) {
	return s.name, s.ip, s.connected, s.ok
}

func TestRegisterReplaysStateToNewClientOnly(t *testing.T) {
	cache := statecache.NewManager(nil)
	cache.SetStatus("r1", "이동중")
	cache.SetPose("r1", statecache.Pose{X: 1.2, Y: 3.4, Theta: 0.5})

	h := New(cache)
	h.SetStatusSource(&fakeStatus{name: "r1", ip: "10.0.0.5", connected: true, ok: true})

	first := &fakeConn{}
	c1 := NewClient(first)
	h.Register(c1)
	first.waitFrames(t, 3)

	types := first.types(t)
	want := []string{protocol.TypeRobotStatus, protocol.TypeStatus, protocol.TypePoseRestore}
	if len(types) != len(want) {
		t.Fatalf("replay types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("replay order = %v, want %v", types, want)
		}
	}

	// A second client gets its own replay; the first must not see it again.
	second := &fakeConn{}
	c2 := NewClient(second)
	h.Register(c2)
	second.waitFrames(t, 3)

	if got := len(first.types(t)); got != 3 {
		t.Errorf("first client frames = %d, want 3", got)
	}
}

func TestRegisterWithoutActiveRobotSkipsStatus(t *testing.T) {
	h := New(statecache.NewManager(nil))
	h.SetStatusSource(&fakeStatus{ok: false})

	conn := &fakeConn{}
	c := NewClient(conn)
	h.Register(c)

	h.Broadcast(protocol.NewEnvelope(protocol.TypePing, nil))
	conn.waitFrames(t, 1)

	types := conn.types(t)
	if len(types) != 1 || types[0] != protocol.TypePing {
		t.Errorf("frames = %v, want only the broadcast", types)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := New(statecache.NewManager(nil))
	conns := []*fakeConn{{}, {}, {}}
	for _, conn := range conns {
		h.Register(NewClient(conn))
	}

	h.Broadcast(protocol.NewEnvelope(protocol.TypeStockUpdate, protocol.StockMovePayload{StockID: 7}))

	for i, conn := range conns {
		conn.waitFrames(t, 1)
		if types := conn.types(t); types[0] != protocol.TypeStockUpdate {
			t.Errorf("client %d types = %v", i, types)
		}
	}
}

func TestFullSendBufferDropsClient(t *testing.T) {
	h := New(statecache.NewManager(nil))

	// No write pump: the buffer fills and never drains.
	dead := &Client{ID: "dead", conn: &fakeConn{}, send: make(chan []byte)}
	h.mu.Lock()
	h.clients[dead.ID] = dead
	h.mu.Unlock()

	live := &fakeConn{}
	h.Register(NewClient(live))

	h.Broadcast(protocol.NewEnvelope(protocol.TypePing, nil))

	if got := h.ClientCount(); got != 1 {
		t.Errorf("client count = %d, want 1 after dropping dead client", got)
	}
	live.waitFrames(t, 1)
}

type failingConn struct {
	fakeConn
}

func (c *failingConn) WriteMessage(int, []byte) error {
	return errWriteFailed
}

var errWriteFailed = errors.New("connection reset")

func TestWriteErrorUnregistersClient(t *testing.T) {
	h := New(statecache.NewManager(nil))
	conn := &failingConn{}
	c := NewClient(conn)
	h.Register(c)

	h.Broadcast(protocol.NewEnvelope(protocol.TypePing, nil))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("client count = %d, want 0 after write failure", got)
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.closed {
		t.Error("underlying conn not closed")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := New(statecache.NewManager(nil))
	conn := &fakeConn{}
	c := NewClient(conn)
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)

	if got := h.ClientCount(); got != 0 {
		t.Errorf("client count = %d, want 0", got)
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.closed {
		t.Error("underlying conn not closed")
	}
}
