// Interactive test client: signs its own token, drives the room
// lifecycle over HTTP, and subscribes to snapshots over the websocket.
//
// Usage:
//
//	go run ./client -uid alice -players 1
//	go run ./client -uid bob -room ABC123
//
// Then type commands: ready, start, move <module>, send <kind> <json>.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/escaperoom/auth"
	"github.com/wfunc/escaperoom/network"
)

var (
	serverAddr = flag.String("server", "localhost:8080", "game server host:port")
	secret     = flag.String("secret", "dev-secret", "JWT secret shared with the server")
	uid        = flag.String("uid", "player1", "player uid")
	roomID     = flag.String("room", "", "room code to join; empty creates a new room")
	players    = flag.Int("players", 1, "required players when creating a room")
)

func post(path string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post("http://"+*serverAddr+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("bad response (%d): %s", resp.StatusCode, raw)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("HTTP %d: %s", resp.StatusCode, raw)
	}
	return out, nil
}

func main() {
	flag.Parse()

	token, err := auth.NewJWTVerifier(*secret).Sign(*uid, time.Hour)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	if *roomID == "" {
		resp, err := post("/rooms", map[string]any{
			"idToken":         token,
			"displayName":     *uid,
			"requiredPlayers": *players,
		})
		if err != nil {
			log.Fatalf("Create room failed: %v", err)
		}
		id, _ := resp["roomId"].(string)
		if id == "" {
			log.Fatalf("Create room rejected: %v", resp["error"])
		}
		*roomID = id
		log.Printf("Created room %s", *roomID)
	} else {
		if _, err := post("/rooms/"+*roomID+"/join", map[string]any{
			"idToken":     token,
			"displayName": *uid,
		}); err != nil {
			log.Fatalf("Join room failed: %v", err)
		}
		log.Printf("Joined room %s", *roomID)
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     "/ws",
		RawQuery: url.Values{"token": {token}, "roomId": {*roomID}}.Encode(),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// Read loop: log every snapshot and narration frame.
	go func() {
		for {
			var frame network.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				log.Printf("Read error: %v", err)
				os.Exit(0)
			}
			data, _ := json.Marshal(frame.Data)
			log.Printf("<- %s: %s", frame.Event, data)
		}
	}()

	// Keepalive so the presence sweep does not reap us while idle.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			conn.WriteJSON(&network.Frame{Type: network.MsgPing})
		}
	}()

	log.Println("Commands: ready | start | move <module> | send <kind> [json payload] | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit":
			return
		case "ready":
			post("/rooms/"+*roomID+"/ready", map[string]any{"idToken": token, "ready": true})
		case "start":
			post("/rooms/"+*roomID+"/start", map[string]any{"idToken": token})
		case "move":
			if len(fields) < 2 {
				log.Println("Usage: move <module>")
				continue
			}
			post("/rooms/"+*roomID+"/move", map[string]any{"idToken": token, "moduleId": fields[1]})
		case "send":
			if len(fields) < 2 {
				log.Println("Usage: send <kind> [json payload]")
				continue
			}
			payload := map[string]any{}
			if len(fields) > 2 {
				if err := json.Unmarshal([]byte(strings.Join(fields[2:], " ")), &payload); err != nil {
					log.Printf("Bad payload: %v", err)
					continue
				}
			}
			resp, err := post("/event", map[string]any{
				"idToken": token,
				"roomId":  *roomID,
				"kind":    fields[1],
				"payload": payload,
			})
			if err != nil {
				log.Printf("Send failed: %v", err)
				continue
			}
			out, _ := json.Marshal(resp)
			log.Printf("-> %s", out)
		default:
			log.Printf("Unknown command: %s", fields[0])
		}
	}
}
