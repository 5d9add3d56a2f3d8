package jobs

import (
	"time"

	"wmsbridge/protocol"
)

// Job is the single in-flight inventory move. A new request overwrites the
// previous job; there is no queue.
type Job struct {
	StockID int64
	Amount  int
	Mode    string // protocol.ModeInbound or protocol.ModeOutbound
}

// StockInfo is the slice of a stock row the sequencer needs.
type StockInfo struct {
	Name         string
	Quantity     int
	PinID        int64
	CategoryName string
}

// PinInfo names a storage pin and its map coordinates.
type PinInfo struct {
	Name   string
	Coords string
}

// LogEntry is one workflow audit record. Zero-value fields are written as
// empty strings when a step fires with no job context.
type LogEntry struct {
	RobotName    string
	PinName      string
	CategoryName string
	StockName    string
	StockID      int64
	Quantity     int
	Action       string
	CreatedAt    time.Time
}

// Storage is the narrow persistence interface the sequencer consumes. Each
// call is transactional on its own; the sequencer does not retry.
type Storage interface {
	GetStockByID(id int64) (StockInfo, error)
	GetPinByID(id int64) (PinInfo, error)
	SetStockQuantity(id int64, quantity int) error
	AppendLog(e LogEntry) error
}

// Commander issues commands to the active robot. The fleet manager
// implements this.
type Commander interface {
	SendUICommand(command string)
	ActiveRobot() string
}

// Broadcaster delivers envelopes to the dashboards.
type Broadcaster interface {
	Broadcast(env *protocol.Envelope)
}

// Workflow log actions, kept in the operators' language to match the
// existing dashboard and reports.
const (
	ActionInboundStart     = "입고 시작"
	ActionInboundComplete  = "입고 완료"
	ActionOutboundStart    = "출고 시작"
	ActionOutboundComplete = "출고 완료"
	ActionArrived          = "도착"
	ActionReturnStart      = "복귀 시작"
	ActionReturnComplete   = "복귀 완료"
)

// Robot workflow states broadcast as robot_status.
const (
	StateIdle      = "대기중"
	StateMoving    = "이동중"
	StateArrived   = "도착"
	StateReturning = "복귀중"
)

// homePin is the sentinel destination that sends a robot back to its wait
// position.
const homePin = "WAIT"
