package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is the universal wire message for dashboard traffic in both
// directions: {"type": ..., "payload": ...}.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewEnvelope creates an outbound envelope.
func NewEnvelope(msgType string, payload any) *Envelope {
	return &Envelope{Type: msgType, Payload: payload}
}

// Encode marshals the envelope to JSON.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// rawEnvelope is used for two-stage unmarshalling: first decode the frame,
// then decode the payload based on type.
type rawEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is a decoded inbound envelope. Payload holds the typed payload
// struct for recognized types and is nil for payload-less or unknown types.
// Raw retains the undecoded payload bytes for the passthrough case.
type Message struct {
	Type    string
	Payload any
	Raw     json.RawMessage
}

// Known reports whether the message type is part of the closed inbound set.
func (m *Message) Known() bool {
	switch m.Type {
	case TypeCmdVel, TypeRequestStockMove, TypeCompleteStockMove,
		TypeRobotStatus, TypeUICommand, TypeAutoSpeed, TypePing, TypeInitRequest:
		return true
	}
	return false
}

// Decode unmarshals an inbound dashboard message into its typed form.
// Unknown types decode successfully with only Type and Raw populated so the
// caller can pass them through or drop them.
func Decode(data []byte) (*Message, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("decode envelope: missing type")
	}

	msg := &Message{Type: raw.Type, Raw: raw.Payload}

	switch raw.Type {
	case TypeCmdVel:
		var p CmdVelPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode cmd_vel payload: %w", err)
		}
		msg.Payload = p
	case TypeRequestStockMove:
		var p StockMovePayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode request_stock_move payload: %w", err)
		}
		msg.Payload = p
	case TypeRobotStatus:
		var p RobotStatusPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode robot_status payload: %w", err)
		}
		msg.Payload = p
	case TypeUICommand:
		var p UICommandPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode ui_command payload: %w", err)
		}
		msg.Payload = p
	case TypeAutoSpeed:
		var p AutoSpeedPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode auto_speed payload: %w", err)
		}
		msg.Payload = p
	case TypeCompleteStockMove, TypePing, TypeInitRequest:
		// No payload.
	default:
		// Unknown type: passthrough variant, Raw only.
	}
	return msg, nil
}

// Amount is a stock quantity that tolerates both JSON numbers and numeric
// strings on the wire. Anything non-numeric is a decode error.
type Amount int

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("amount: empty value")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("amount: %q is not numeric", s)
	}
	*a = Amount(n)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(a))), nil
}
