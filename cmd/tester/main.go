// Command tester floods a running hub with a scripted group conversation
// and reports how many frames every participant received.
package main

import (
	"bytes"
	"chat-hub/client"
	"chat-hub/domain/event"
	"chat-hub/services"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

type Config struct {
	HTTPAddr string        `envconfig:"HUB_HTTP_ADDR" default:"http://localhost:5000"`
	Users    int           `envconfig:"TESTER_USERS" default:"5"`
	Messages int           `envconfig:"TESTER_MESSAGES" default:"20"`
	Pause    time.Duration `envconfig:"TESTER_PAUSE" default:"50ms"`
	Settle   time.Duration `envconfig:"TESTER_SETTLE" default:"2s"`
	LogLevel string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

type participant struct {
	auth     services.AuthView
	socket   *client.Client
	received atomic.Int64
	typing   atomic.Int64
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, color.FgRed.Render("tester failed: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if cfg.Users < 3 {
		return fmt.Errorf("TESTER_USERS must be at least 3, got %d", cfg.Users)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	api := &apiClient{base: strings.TrimRight(cfg.HTTPAddr, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	step("Registering participants")
	participants := make([]*participant, 0, cfg.Users)
	for i := range cfg.Users {
		view, err := api.register(fmt.Sprintf("tester-%d", i))
		if err != nil {
			return err
		}
		participants = append(participants, &participant{auth: view})
	}

	step("Creating the group")
	owner := participants[0]
	others := lo.Map(participants[1:], func(p *participant, _ int) string { return p.auth.ID })
	var group services.ChatView
	if err := api.call(http.MethodPost, "/api/chat/group", owner.auth.Token,
		map[string]any{"name": "load test", "users": others}, &group); err != nil {
		return err
	}
	fmt.Printf("group %s with %d members\n", group.ID, len(group.Users))

	step("Connecting sockets")
	wsURL := "ws" + strings.TrimPrefix(api.base, "http") + "/ws"
	for _, p := range participants {
		p.socket = client.New(log.With("user", p.auth.Name), client.Config{URL: wsURL, Token: p.auth.Token})
		connected := make(chan struct{})
		p.socket.OnConnected(func() { close(connected) })
		p.socket.OnMessage(func(json.RawMessage) { p.received.Add(1) })
		p.socket.OnTyping(func(event.Typing) { p.typing.Add(1) })
		p.socket.OnError(func(err error) { log.Warn("Socket error", "user", p.auth.Name, "error", err) })
		if err := p.socket.Connect(ctx); err != nil {
			return err
		}
		defer func() { _ = p.socket.Close() }()
		if err := p.socket.Setup(ctx, p.auth.ID, p.auth.Name); err != nil {
			return err
		}
		select {
		case <-connected:
		case <-time.After(5 * time.Second):
			return fmt.Errorf("%s was never acknowledged", p.auth.Name)
		}
		if err := p.socket.JoinChat(ctx, group.ID); err != nil {
			return err
		}
	}

	step("Chatting")
	start := time.Now()
	var (
		wg   sync.WaitGroup
		sent atomic.Int64
	)
	for _, p := range participants {
		wg.Add(1)
		go func(p *participant) {
			defer wg.Done()
			for i := range cfg.Messages {
				_ = p.socket.Typing(ctx, group.ID)
				var message services.MessageView
				content := fmt.Sprintf("message %d from %s", i, p.auth.Name)
				if err := api.call(http.MethodPost, "/api/message", p.auth.Token,
					map[string]any{"content": content, "chatId": group.ID}, &message); err != nil {
					log.Warn("Message rejected", "user", p.auth.Name, "error", err)
					continue
				}
				if err := p.socket.SendMessage(ctx, message); err != nil {
					log.Warn("Broadcast failed", "user", p.auth.Name, "error", err)
					continue
				}
				_ = p.socket.StopTyping(ctx, group.ID)
				sent.Add(1)
				time.Sleep(cfg.Pause)
			}
		}(p)
	}
	wg.Wait()
	time.Sleep(cfg.Settle)
	elapsed := time.Since(start)

	step("Results")
	// every message reaches everyone but its sender
	expected := sent.Load() * int64(cfg.Users-1)
	var total int64
	for _, p := range participants {
		total += p.received.Load()
		fmt.Printf("%-12s received=%d typing=%d\n", p.auth.Name, p.received.Load(), p.typing.Load())
	}
	summary := fmt.Sprintf("sent=%d delivered=%d/%d in %s", sent.Load(), total, expected, elapsed.Round(time.Millisecond))
	if total < expected {
		fmt.Println(color.FgYellow.Render(summary))
		return nil
	}
	fmt.Println(color.FgGreen.Render(summary))
	return nil
}

func step(name string) {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf("  ====== %s ======", name)))
}

type apiClient struct {
	base string
	http *http.Client
}

func (a *apiClient) register(name string) (services.AuthView, error) {
	var view services.AuthView
	err := a.call(http.MethodPost, "/api/user", "", map[string]string{
		"name":     name,
		"email":    fmt.Sprintf("%s-%d@tester.local", name, time.Now().UnixNano()),
		"password": "Tester-Passw0rd",
	}, &view)
	return view, err
}

func (a *apiClient) call(method, path, token string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, a.base+path, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, failure.Message)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
