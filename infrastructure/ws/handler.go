package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"babelroom/domain"
	"babelroom/runtime"
)

type joinPayload struct {
	RoomID   string `json:"room_id" validate:"required"`
	Username string `json:"username" validate:"required"`
	Language string `json:"language"`
}

type messagePayload struct {
	Message string `json:"message" validate:"required"`
}

type transcriptionPayload struct {
	Transcription string `json:"transcription" validate:"required"`
}

// Handler upgrades HTTP requests and runs the per-connection loops against
// the relay.
type Handler struct {
	log        *slog.Logger
	relay      *runtime.Relay
	validate   *validator.Validate
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewHandler(log *slog.Logger, relay *runtime.Relay, sendBuffer int) *Handler {
	return &Handler{
		log:      log.With("component", "ws"),
		relay:    relay,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "error", err)
		return
	}

	client := newClient(h.log, conn, h.sendBuffer)
	h.relay.Connect(client.ConnID())

	go client.writeLoop()
	h.readLoop(r.Context(), client)
}

// readLoop decodes inbound envelopes and dispatches them until the
// connection closes. A closed socket always resolves to a Disconnect, which
// removes the session from its room.
func (h *Handler) readLoop(ctx context.Context, client *Client) {
	defer func() {
		h.relay.Disconnect(ctx, client.ConnID())
		client.shutdown()
	}()

	client.conn.SetReadLimit(maxInboundBytes)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Connection closed unexpectedly", "conn", client.ConnID(), "error", err)
			}
			return
		}
		h.dispatch(ctx, client, frame)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		h.log.Warn("Malformed frame", "conn", client.ConnID(), "error", err)
		return
	}

	switch env.Event {
	case "join_room":
		var payload joinPayload
		if !h.decode(client, env, &payload) {
			return
		}
		h.relay.Join(ctx, client.ConnID(), domain.RoomID(payload.RoomID),
			payload.Username, payload.Language, client)

	case "leave_room":
		h.relay.Leave(ctx, client.ConnID())

	case "send_message":
		var payload messagePayload
		if !h.decode(client, env, &payload) {
			return
		}
		h.relay.Message(ctx, client.ConnID(), payload.Message)

	case "speech_transcription":
		var payload transcriptionPayload
		if !h.decode(client, env, &payload) {
			return
		}
		h.relay.Transcription(ctx, client.ConnID(), payload.Transcription)

	default:
		h.log.Debug("Unknown event", "conn", client.ConnID(), "event", env.Event)
	}
}

func (h *Handler) decode(client *Client, env envelope, payload any) bool {
	if err := json.Unmarshal(env.Data, payload); err != nil {
		h.log.Warn("Malformed payload", "conn", client.ConnID(),
			"event", env.Event, "error", err)
		return false
	}
	if err := h.validate.Struct(payload); err != nil {
		h.log.Warn("Invalid payload", "conn", client.ConnID(),
			"event", env.Event, "error", err)
		return false
	}
	return true
}
