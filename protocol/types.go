package protocol

// Message type constants for all dashboard traffic.
const (
	// Dashboard -> core
	TypeCmdVel            = "cmd_vel"
	TypeRequestStockMove  = "request_stock_move"
	TypeCompleteStockMove = "complete_stock_move"
	TypeRobotStatus       = "robot_status"
	TypeUICommand         = "ui_command"
	TypeAutoSpeed         = "auto_speed"
	TypePing              = "ping"
	TypeInitRequest       = "init_request"

	// Core -> dashboard
	TypeStatus       = "status"
	TypePoseRestore  = "robot_pose_restore"
	TypeStockUpdate  = "stock_update"
	TypeRobotArrived = "robot_arrived"
	TypeOdom         = "odom"
	TypeAMCLPose     = "amcl_pose"
	TypeBattery      = "battery"
	TypeBaseLink     = "base_link"
	TypeNav          = "nav"
	TypeTeleopKey    = "teleop_key"
	TypeDiagnostics  = "diagnostics"
	TypeCamera       = "camera"
)

// Stock move modes.
const (
	ModeInbound  = "INBOUND"
	ModeOutbound = "OUTBOUND"
)

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// --- Inbound payloads (dashboard -> core) ---

type CmdVelPayload struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
	Gear    int     `json:"gear"`
}

type StockMovePayload struct {
	StockID int64  `json:"stock_id"`
	Amount  Amount `json:"amount"`
	Mode    string `json:"mode"` // INBOUND or OUTBOUND
}

type RobotStatusPayload struct {
	Name  string `json:"name,omitempty"`
	State string `json:"state"`
}

type UICommandPayload struct {
	Command string `json:"command"`
}

// AutoSpeedPayload selects the gear used for autonomous moves.
type AutoSpeedPayload struct {
	Gear int `json:"gear"`
}

// --- Outbound payloads (core -> dashboard) ---

type StatusPayload struct {
	RobotName string `json:"robot_name"`
	IP        string `json:"ip"`
	Connected bool   `json:"connected"`
}

type PoseRestorePayload struct {
	RobotName string  `json:"robot_name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Theta     float64 `json:"theta"`
}

type RobotArrivedPayload struct {
	Pin       string `json:"pin"`
	RobotName string `json:"robot_name"`
}
