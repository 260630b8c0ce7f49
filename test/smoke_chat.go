package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

// Manual end-to-end check against a running server:
//
//	go run ./test "When does the library open?"
const baseURL = "http://localhost:8080"

type openSessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Messages  []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	} `json:"messages"`
}

type frame struct {
	Type    string `json:"type"`
	Message *struct {
		ID     string `json:"id"`
		Sender string `json:"sender"`
		Text   string `json:"text"`
	} `json:"message"`
	AwaitingReply bool `json:"awaiting_reply"`
}

var (
	info    = color.New(color.FgCyan)
	success = color.New(color.FgGreen)
	user    = color.New(color.FgBlue, color.Bold)
	bot     = color.New(color.FgMagenta, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
)

func main() {
	question := "When does the library open?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	if err := run(question); err != nil {
		failure.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	success.Println("✅ Chat round trip completed successfully!")
}

func run(question string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	info.Println("🚀 Opening chat session...")
	session, err := openSession(client)
	if err != nil {
		return err
	}
	defer closeSession(client, session.Token)
	for _, m := range session.Messages {
		bot.Printf("%s: ", m.Sender)
		fmt.Println(m.Text)
	}

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws?token=" + url.QueryEscape(session.Token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect websocket: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "submit", "text": question}); err != nil {
		return fmt.Errorf("failed to submit question: %w", err)
	}
	user.Print("you: ")
	fmt.Println(question)

	started := time.Now()
	conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		switch f.Type {
		case "awaiting":
			if f.AwaitingReply {
				info.Println("⏳ waiting for the assistant...")
			}
		case "message":
			if f.Message != nil && f.Message.Sender == "bot" {
				bot.Print("bot: ")
				fmt.Println(f.Message.Text)
				info.Printf("⏱️  reply in %v\n", time.Since(started).Round(time.Millisecond))
				return nil
			}
		case "error":
			return fmt.Errorf("server rejected frame")
		}
	}
}

func openSession(client *http.Client) (*openSessionResponse, error) {
	resp, err := client.Post(baseURL+"/api/v1/sessions", "application/json", bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open session failed with status %d: %s", resp.StatusCode, string(body))
	}

	var session openSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	success.Printf("✅ Session %s opened\n", session.SessionID)
	return &session, nil
}

func closeSession(client *http.Client, token string) {
	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/v1/sessions", nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		failure.Printf("failed to close session: %v\n", err)
		return
	}
	resp.Body.Close()
	info.Println("👋 Session closed")
}
