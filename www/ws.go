package www

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"wmsbridge/hub"
	"wmsbridge/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Dashboards are served from other hosts on the warehouse LAN.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS upgrades the dashboard connection, registers it with the hub for
// outbound broadcasts, and reads inbound envelopes until the client goes
// away. A malformed frame is logged and skipped, never fatal.
func (h *Handlers) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("www: ws upgrade: %v", err)
		return
	}

	client := hub.NewClient(conn)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("www: client %s read: %v", client.ID, err)
			}
			return
		}
		h.dispatch(data)
	}
}

// dispatch routes one inbound envelope by type.
func (h *Handlers) dispatch(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Printf("www: drop inbound message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeCmdVel:
		h.fleet.SendVelocity(msg.Payload.(protocol.CmdVelPayload))
	case protocol.TypeRequestStockMove:
		h.seq.RequestStockMove(msg.Payload.(protocol.StockMovePayload))
	case protocol.TypeCompleteStockMove:
		h.seq.CompleteStockMove()
	case protocol.TypeRobotStatus:
		h.seq.HandleRobotStatus(msg.Payload.(protocol.RobotStatusPayload))
	case protocol.TypeUICommand:
		h.seq.UICommand(msg.Payload.(protocol.UICommandPayload).Command)
	case protocol.TypeAutoSpeed:
		h.fleet.SetAutoSpeedLevel(msg.Payload.(protocol.AutoSpeedPayload).Gear)
	case protocol.TypePing, protocol.TypeInitRequest:
		// Keepalive / legacy handshake, nothing to do.
	default:
		log.Printf("www: unknown message type %q", msg.Type)
	}
}
