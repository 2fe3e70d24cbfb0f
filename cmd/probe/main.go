// probe joins a room over the websocket endpoint, optionally sends one
// message, and prints every event it receives. Smoke testing tool for a
// running server.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Language string `json:"language"`
}

type roomJoined struct {
	RoomID string   `json:"room_id"`
	Users  []member `json:"users"`
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("Config error: ", err)
	}

	header := fmt.Sprintf("  ====== probe -> %s (room %q) ======", cfg.ServerURL, cfg.Room)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

	conn, _, err := websocket.DefaultDialer.Dial(cfg.ServerURL, nil)
	if err != nil {
		log.Fatal("Dial failed: ", err)
	}
	defer conn.Close()

	join := map[string]any{
		"room_id":  cfg.Room,
		"username": cfg.Username,
		"language": cfg.Language,
	}
	if err := send(conn, "join_room", join); err != nil {
		log.Fatal("Join failed: ", err)
	}

	if cfg.Message != "" {
		if err := send(conn, "send_message", map[string]any{"message": cfg.Message}); err != nil {
			log.Fatal("Send failed: ", err)
		}
	}

	deadline := time.Now().Add(cfg.Listen)
	_ = conn.SetReadDeadline(deadline)

	for time.Now().Before(deadline) {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			fmt.Println("Unreadable frame:", string(frame))
			continue
		}
		printEvent(cfg, env)
	}

	_ = send(conn, "leave_room", map[string]any{})
	fmt.Println("Probe finished")
}

func send(conn *websocket.Conn, eventName string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope{Event: eventName, Data: payload})
}

func printEvent(cfg Config, env envelope) {
	label := env.Event
	if cfg.Colours {
		label = color.New(color.FgCyan).Render(label)
	}

	if env.Event == "room_joined" {
		var joined roomJoined
		if err := json.Unmarshal(env.Data, &joined); err == nil {
			fmt.Printf("%s room=%s members_before_join=%d\n", label, joined.RoomID, len(joined.Users))
			printMembers(joined.Users)
			return
		}
	}
	fmt.Printf("%s %s\n", label, string(env.Data))
}

func printMembers(members []member) {
	if len(members) == 0 {
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Username", "Language"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, m := range members {
		table.Append([]string{m.ID, m.Username, m.Language})
	}
	table.Render()
}
