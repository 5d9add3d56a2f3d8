package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnhandledTopic marks a topic the normalizer does not map. Callers log
// and drop; this is not a failure.
var ErrUnhandledTopic = errors.New("telemetry: unhandled topic")

// navMaxPathPoints caps the path sent to dashboards for live rendering.
const navMaxPathPoints = 50

// arrivedPrefix marks the pin-arrival sentinel on the nav topic.
const arrivedPrefix = "ARRIVED:"

// PinWait is the home pin name; arrival at it means the robot is idle.
const PinWait = "WAIT"

// Battery power_supply_status codes.
var batteryStatusTable = map[int]string{
	0: "Unknown",
	1: "Charging",
	2: "Discharging",
	3: "Not Charging",
	4: "Full",
}

// Normalize maps one raw topic payload to a typed record. The mapping is
// pure: no state, no I/O.
func Normalize(topic string, payload []byte) (Record, error) {
	switch topic {
	case "/odom":
		return normalizeOdom(payload)
	case "/amcl_pose":
		return normalizeAMCLPose(payload)
	case "/battery", "/battery_state":
		return normalizeBattery(payload)
	case "/cmd_vel":
		return normalizeCmdVel(payload)
	case "/base_link":
		return normalizeBaseLink(payload)
	case "/nav":
		return normalizeNav(payload)
	case "/teleop_key":
		return normalizeTeleopKey(payload)
	case "/diagnostics":
		return normalizeDiagnostics(payload)
	case "/camera":
		return CameraRecord{Data: json.RawMessage(payload)}, nil
	default:
		return nil, ErrUnhandledTopic
	}
}

// Yaw derives the z-axis rotation from a quaternion.
func Yaw(q Quaternion) float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

type posePose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

func normalizeOdom(payload []byte) (Record, error) {
	var msg struct {
		Pose struct {
			Pose posePose `json:"pose"`
		} `json:"pose"`
		Twist struct {
			Twist struct {
				Linear  Vector3 `json:"linear"`
				Angular Vector3 `json:"angular"`
			} `json:"twist"`
		} `json:"twist"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("odom: %w", err)
	}
	p := msg.Pose.Pose
	return OdomRecord{
		Position:    Vector3{X: round3(p.Position.X), Y: round3(p.Position.Y), Z: round3(p.Position.Z)},
		Orientation: p.Orientation,
		Theta:       Yaw(p.Orientation),
		Linear:      msg.Twist.Twist.Linear,
		Angular:     msg.Twist.Twist.Angular,
	}, nil
}

func normalizeAMCLPose(payload []byte) (Record, error) {
	var msg struct {
		Pose struct {
			Pose posePose `json:"pose"`
		} `json:"pose"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("amcl_pose: %w", err)
	}
	p := msg.Pose.Pose
	return AMCLPoseRecord{
		X:           round3(p.Position.X),
		Y:           round3(p.Position.Y),
		Orientation: p.Orientation,
		Theta:       Yaw(p.Orientation),
	}, nil
}

func normalizeBaseLink(payload []byte) (Record, error) {
	var msg struct {
		Pose posePose `json:"pose"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("base_link: %w", err)
	}
	return BaseLinkRecord{
		Position:    msg.Pose.Position,
		Orientation: msg.Pose.Orientation,
		Theta:       Yaw(msg.Pose.Orientation),
	}, nil
}

func normalizeBattery(payload []byte) (Record, error) {
	var msg struct {
		Percentage        float64 `json:"percentage"`
		Voltage           float64 `json:"voltage"`
		Current           float64 `json:"current"`
		PowerSupplyStatus int     `json:"power_supply_status"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	// Firmware reports either a 0..1 fraction or a 0..100 percentage.
	pct := msg.Percentage
	if pct <= 1.0 {
		pct *= 100.0
	}
	status, ok := batteryStatusTable[msg.PowerSupplyStatus]
	if !ok {
		status = batteryStatusTable[0]
	}
	return BatteryRecord{
		Percentage: round2(pct),
		Voltage:    round2(msg.Voltage),
		Current:    round2(msg.Current),
		Status:     status,
	}, nil
}

func normalizeCmdVel(payload []byte) (Record, error) {
	var msg struct {
		Linear  Vector3 `json:"linear"`
		Angular Vector3 `json:"angular"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("cmd_vel: %w", err)
	}
	return CmdVelRecord{
		LinearX:  round3(msg.Linear.X),
		AngularZ: round3(msg.Angular.Z),
	}, nil
}

func normalizeNav(payload []byte) (Record, error) {
	// The nav topic doubles as the arrival event channel: a string payload
	// of the form ARRIVED:<pin> short-circuits to an arrival record.
	var sentinel struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(payload, &sentinel); err == nil && strings.HasPrefix(sentinel.Data, arrivedPrefix) {
		return ArrivedRecord{Pin: strings.TrimPrefix(sentinel.Data, arrivedPrefix)}, nil
	}

	var msg struct {
		Poses []struct {
			Pose struct {
				Position Vector3 `json:"position"`
			} `json:"pose"`
		} `json:"poses"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("nav: %w", err)
	}
	points := make([]PathPoint, 0, len(msg.Poses))
	for _, p := range msg.Poses {
		if len(points) == navMaxPathPoints {
			break
		}
		points = append(points, PathPoint{X: p.Pose.Position.X, Y: p.Pose.Position.Y})
	}
	return NavPathRecord{PathPoints: points}, nil
}

func normalizeTeleopKey(payload []byte) (Record, error) {
	var msg struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("teleop_key: %w", err)
	}
	return TeleopKeyRecord{Key: msg.Data}, nil
}
