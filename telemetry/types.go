package telemetry

import "encoding/json"

// Record is one normalized telemetry message. Records are pure values:
// constructed per bus message, consumed by the envelope builder, never
// stored.
type Record interface {
	Kind() string
}

type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type PathPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type OdomRecord struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
	Theta       float64    `json:"theta"`
	Linear      Vector3    `json:"linear"`
	Angular     Vector3    `json:"angular"`
}

func (OdomRecord) Kind() string { return "odom" }

type AMCLPoseRecord struct {
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Orientation Quaternion `json:"orientation"`
	Theta       float64    `json:"theta"`
}

func (AMCLPoseRecord) Kind() string { return "amcl_pose" }

type BaseLinkRecord struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
	Theta       float64    `json:"theta"`
}

func (BaseLinkRecord) Kind() string { return "base_link" }

type BatteryRecord struct {
	Percentage float64 `json:"percentage"`
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Status     string  `json:"status"`
}

func (BatteryRecord) Kind() string { return "battery" }

type CmdVelRecord struct {
	LinearX  float64 `json:"linear_x"`
	AngularZ float64 `json:"angular_z"`
}

func (CmdVelRecord) Kind() string { return "cmd_vel" }

type NavPathRecord struct {
	PathPoints []PathPoint `json:"path_points"`
}

func (NavPathRecord) Kind() string { return "nav" }

// ArrivedRecord is the ARRIVED:<pin> sentinel carried on the nav topic.
// It is an event, not a path update, and is routed to the arrival path
// instead of the telemetry broadcast.
type ArrivedRecord struct {
	Pin string `json:"pin"`
}

func (ArrivedRecord) Kind() string { return "robot_arrived" }

type TeleopKeyRecord struct {
	Key string `json:"key"`
}

func (TeleopKeyRecord) Kind() string { return "teleop_key" }

type DiagnosticsRecord struct {
	Status string `json:"status"`
	Color  string `json:"color"`
	Level  int    `json:"level"`
}

func (DiagnosticsRecord) Kind() string { return "diagnostics" }

type CameraRecord struct {
	Data json.RawMessage `json:"data"`
}

func (CameraRecord) Kind() string { return "camera" }
