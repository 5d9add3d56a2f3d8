package fleet

import (
	"wmsbridge/bus"
	"wmsbridge/protocol"
)

// Broadcaster delivers envelopes to every connected dashboard. The hub
// guarantees this is safe to call from any goroutine, including connection
// monitor loops.
type Broadcaster interface {
	Broadcast(env *protocol.Envelope)
}

// ArrivalSink receives pin-arrival events reported by a robot on the bus.
// The job sequencer implements this to write arrival log entries.
type ArrivalSink interface {
	OnArrived(robotName, pin string)
}

// Dialer creates an unconnected bus session for a robot. Injectable so
// tests can substitute a fake session.
type Dialer func(name, addr string) (bus.Session, error)

// Robot state strings shared with the dashboards.
const (
	StateIdle      = "대기중"
	StateMoving    = "이동중"
	StateArrived   = "도착"
	StateReturning = "복귀중"
)

// Speed policy per gear level (m/s), applied to both manual velocity
// clamping and the stored auto-mode intent.
var maxSpeedByGear = map[int]float64{
	1: 0.10,
	2: 0.15,
	3: 0.22,
}

const defaultGear = 1

// Topics subscribed on every robot connection.
var telemetryTopics = []string{
	"/odom",
	"/battery_state",
	"/cmd_vel",
	"/amcl_pose",
	"/base_link",
	"/nav",
	"/teleop_key",
	"/diagnostics",
	"/camera",
}

// Outbound command topics.
const (
	cmdVelTopic    = "/cmd_vel"
	uiCommandTopic = "/ui_cmd"
)
