// Package main provides a CLI observer for a session's live event
// feed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

// envelope mirrors the feed frames: event envelopes from runs and the
// greeting sent on connect.
type envelope struct {
	Seq       int64           `json:"seq"`
	Ts        int64           `json:"ts"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket feed address")
	session := flag.String("session", "", "session ID to watch")
	flag.Parse()

	if *session == "" {
		log.Fatal("-session is required")
	}

	target := *addr + "?session_id=" + url.QueryEscape(*session)
	fmt.Printf("Connecting to %s...\n", target)

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// Ctrl+C closes the feed cleanly.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("Read error: %v", err)
			}
			return
		}
		printFrame(data)
	}
}

// printFrame renders one feed frame: a header line with the sequence
// and type, then the pretty-printed payload.
func printFrame(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Printf("%s\n", data)
		return
	}

	if env.Type == "feed_connected" {
		fmt.Printf("Watching session %s\n", env.SessionID)
		return
	}

	if len(env.Payload) == 0 {
		fmt.Printf("\n[%d %s]\n", env.Seq, env.Type)
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		fmt.Printf("\n[%d %s]\n%s\n", env.Seq, env.Type, env.Payload)
		return
	}
	formatted, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Printf("\n[%d %s]\n%s\n", env.Seq, env.Type, formatted)
}
