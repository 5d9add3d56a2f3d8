package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeCmdVel(t *testing.T) {
	data := []byte(`{"type":"cmd_vel","payload":{"linear":{"x":0.1},"angular":{"z":-0.5},"gear":2}}`)
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Type != TypeCmdVel {
		t.Errorf("type = %q, want %q", msg.Type, TypeCmdVel)
	}
	p, ok := msg.Payload.(CmdVelPayload)
	if !ok {
		t.Fatalf("payload type = %T, want CmdVelPayload", msg.Payload)
	}
	if p.Linear.X != 0.1 || p.Angular.Z != -0.5 || p.Gear != 2 {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecodeStockMoveAmountForms(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"number", `{"type":"request_stock_move","payload":{"stock_id":1,"amount":3,"mode":"INBOUND"}}`, 3, false},
		{"numeric string", `{"type":"request_stock_move","payload":{"stock_id":1,"amount":"7","mode":"OUTBOUND"}}`, 7, false},
		{"garbage", `{"type":"request_stock_move","payload":{"stock_id":1,"amount":"lots","mode":"INBOUND"}}`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.data))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error for non-numeric amount")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			p := msg.Payload.(StockMovePayload)
			if int(p.Amount) != tc.want {
				t.Errorf("amount = %d, want %d", p.Amount, tc.want)
			}
		})
	}
}

func TestDecodeAutoSpeed(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"auto_speed","payload":{"gear":3}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !msg.Known() {
		t.Error("auto_speed should be a known type")
	}
	p, ok := msg.Payload.(AutoSpeedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want AutoSpeedPayload", msg.Payload)
	}
	if p.Gear != 3 {
		t.Errorf("gear = %d, want 3", p.Gear)
	}
}

func TestDecodeNoPayloadTypes(t *testing.T) {
	for _, typ := range []string{TypeCompleteStockMove, TypePing, TypeInitRequest} {
		msg, err := Decode([]byte(`{"type":"` + typ + `"}`))
		if err != nil {
			t.Fatalf("Decode %s: %v", typ, err)
		}
		if msg.Payload != nil {
			t.Errorf("%s payload = %v, want nil", typ, msg.Payload)
		}
		if !msg.Known() {
			t.Errorf("%s should be a known type", typ)
		}
	}
}

func TestDecodeUnknownPassthrough(t *testing.T) {
	data := []byte(`{"type":"future_thing","payload":{"a":1}}`)
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Known() {
		t.Error("future_thing should not be a known type")
	}
	if string(msg.Raw) != `{"a":1}` {
		t.Errorf("raw = %s", msg.Raw)
	}
}

func TestDecodeMissingType(t *testing.T) {
	if _, err := Decode([]byte(`{"payload":{}}`)); err == nil {
		t.Error("expected error for missing type")
	}
}

func TestEnvelopeEncode(t *testing.T) {
	env := NewEnvelope(TypeStatus, StatusPayload{RobotName: "r1", IP: "10.0.0.5", Connected: true})
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["type"] != "status" {
		t.Errorf("type = %v", decoded["type"])
	}
	payload := decoded["payload"].(map[string]any)
	if payload["robot_name"] != "r1" || payload["connected"] != true {
		t.Errorf("payload = %v", payload)
	}
}
