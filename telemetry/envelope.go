package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"wmsbridge/protocol"
)

// Build wraps a normalized record into the wire envelope, stamping the
// payload with the robot name and a timestamp. The payload shape comes
// from the record itself, not from caller-supplied fields.
func Build(robotName string, rec Record) (*protocol.Envelope, error) {
	fields, err := recordFields(rec)
	if err != nil {
		return nil, err
	}
	fields["robot_name"] = robotName
	fields["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	return protocol.NewEnvelope(rec.Kind(), fields), nil
}

// Passthrough wraps unrecognized fields under the given type tag unchanged,
// filling robot_name and timestamp only when absent. Escape hatch for
// forward compatibility.
func Passthrough(msgType, robotName string, fields map[string]any) *protocol.Envelope {
	if fields == nil {
		fields = make(map[string]any)
	}
	if _, ok := fields["robot_name"]; !ok {
		fields["robot_name"] = robotName
	}
	if _, ok := fields["timestamp"]; !ok {
		fields["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return protocol.NewEnvelope(msgType, fields)
}

func recordFields(rec Record) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", rec.Kind(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("reshape %s record: %w", rec.Kind(), err)
	}
	return fields, nil
}
