package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddr     string `envconfig:"CHAT_SERVER_ADDR" default:"localhost:8080"`
	Token          string `envconfig:"CHAT_TOKEN" required:"true"`
	ConversationID string `envconfig:"CHAT_CONVERSATION_ID" required:"true"`
}

// wireEvent is the loose shape of everything the server can push.
type wireEvent struct {
	Type           string    `json:"type"`
	Error          string    `json:"error"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	SenderID       string    `json:"sender_id"`
	Value          string    `json:"value"`
	CreatedAt      time.Time `json:"created_at"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run manages the websocket lifecycle: dial, a reader goroutine painting
// incoming events, and a stdin loop sending frames and local commands.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     config.ServerAddr,
		Path:     "/ws/" + config.ConversationID,
		RawQuery: "token=" + url.QueryEscape(config.Token),
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				color.Red.Println("connection closed")
				return
			}
			var evt wireEvent
			if err := json.Unmarshal(raw, &evt); err != nil {
				continue
			}
			render(evt)
		}
	}()

	color.Gray.Println("Commands: /list to show conversations, /quit to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return exitOK, nil
		case line == "/list":
			if err := listConversations(config); err != nil {
				color.Red.Printf("list failed: %v\n", err)
			}
		default:
			if err := conn.WriteJSON(map[string]string{"value": line}); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
		select {
		case <-done:
			return exitOK, nil
		default:
		}
	}
	<-done
	return exitOK, nil
}

func render(evt wireEvent) {
	switch evt.Type {
	case "connected":
		color.Green.Printf("connected to %s as %s\n", evt.ConversationID, evt.UserID)
	case "chat":
		color.Cyan.Printf("[%s] %s: %s\n",
			evt.CreatedAt.Local().Format("15:04:05"), evt.SenderID, evt.Value)
	case "user_disconnected":
		color.Yellow.Printf("%s left the conversation\n", evt.UserID)
	default:
		if evt.Error != "" {
			color.Red.Printf("error: %s\n", evt.Error)
		}
	}
}

// listConversations renders the caller's conversations as a table.
func listConversations(config Config) error {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("http://%s/messages/list", config.ServerAddr), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+config.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var conversations []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		LastChat *struct {
			SenderID  string    `json:"sender_id"`
			Value     string    `json:"value"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"last_chat"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conversations); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Last chat", "At"})
	for _, conversation := range conversations {
		lastValue, lastAt := "", ""
		if conversation.LastChat != nil {
			lastValue = fmt.Sprintf("%s: %s", conversation.LastChat.SenderID, conversation.LastChat.Value)
			lastAt = conversation.LastChat.CreatedAt.Local().Format("Jan 02 15:04")
		}
		table.Append([]string{conversation.ID, conversation.Name, lastValue, lastAt})
	}
	table.Render()
	return nil
}
