package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnostic severities follow the ROS diagnostic levels.
const (
	levelOK    = 0
	levelWarn  = 1
	levelError = 2
)

// Reduced status strings shown on the dashboard.
const (
	StatusNormal       = "정상"
	StatusMotorError   = "모터 오류"
	StatusSensorLost   = "센서 끊김"
	StatusSystemError  = "시스템 오류"
	StatusTempWarning  = "온도 경고"
	StatusBattWarning  = "배터리 경고"
	StatusWarning      = "경고"
)

var motorKeywords = []string{"motor", "base", "wheel", "overcurrent", "stall", "overheat", "velocity"}
var sensorKeywords = []string{"lidar", "connect", "lost"}
var tempKeywords = []string{"temp", "heat", "thermal"}
var batteryKeywords = []string{"battery", "charge", "voltage"}

type diagnosticEntry struct {
	Level   int    `json:"level"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// normalizeDiagnostics reduces a diagnostic status array to a single
// worst-severity summary. The first severity-2 entry wins and stops the
// scan; a severity-1 classification is kept but a later severity-2 still
// overrides it.
func normalizeDiagnostics(payload []byte) (Record, error) {
	var msg struct {
		Status []diagnosticEntry `json:"status"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	maxLevel := levelOK
	status := StatusNormal
	warned := false

	for _, entry := range msg.Status {
		if entry.Level > maxLevel {
			maxLevel = entry.Level
		}
		if entry.Level >= levelError {
			status = classifyError(entry)
			break
		}
		if entry.Level == levelWarn && !warned {
			status = classifyWarning(entry)
			warned = true
		}
	}

	return DiagnosticsRecord{
		Status: status,
		Color:  severityColor(maxLevel),
		Level:  maxLevel,
	}, nil
}

func classifyError(entry diagnosticEntry) string {
	text := strings.ToLower(entry.Name + " " + entry.Message)
	if containsAny(text, motorKeywords) {
		return StatusMotorError
	}
	if containsAny(text, sensorKeywords) {
		return StatusSensorLost
	}
	return StatusSystemError
}

func classifyWarning(entry diagnosticEntry) string {
	text := strings.ToLower(entry.Name + " " + entry.Message)
	if containsAny(text, tempKeywords) {
		return StatusTempWarning
	}
	if containsAny(text, batteryKeywords) {
		return StatusBattWarning
	}
	return StatusWarning
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func severityColor(level int) string {
	switch {
	case level >= levelError:
		return "red"
	case level == levelWarn:
		return "orange"
	default:
		return "green"
	}
}
