package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/timeline/backend-go/internal/auth"
	"github.com/inamate/timeline/backend-go/internal/collab"
	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/config"
	"github.com/inamate/timeline/backend-go/internal/project"
)

type testEnv struct {
	srv      *httptest.Server
	auth     *auth.Service
	projects *project.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		AllowedOrigins: "http://localhost:5173",
		LogLevel:       "info",
		SampleContent:  true,
	}
	hub := collab.NewHub(engineFactory(cfg))
	go hub.Run()
	t.Cleanup(hub.Stop)

	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	projectService := project.NewService(hub)
	projectService.Ensure(playgroundProjectID, "Playground")

	srv := httptest.NewServer(newRouter(cfg, hub, authService, projectService))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, auth: authService, projects: projectService}
}

func (e *testEnv) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + path
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) collab.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg collab.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestPlaygroundWebSocket(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, env.wsURL("/ws/project/"+playgroundProjectID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if msg := readMessage(t, ctx, conn); msg.Type != collab.TypeWelcome {
		t.Fatalf("first message = %q", msg.Type)
	}
	msg := readMessage(t, ctx, conn)
	if msg.Type != collab.TypeStateSync {
		t.Fatalf("second message = %q", msg.Type)
	}
	var sync collab.StateSyncPayload
	if err := json.Unmarshal(msg.Payload, &sync); err != nil {
		t.Fatal(err)
	}
	if len(sync.State.Tracks) != 3 {
		t.Errorf("sample tracks = %d", len(sync.State.Tracks))
	}

	payload, _ := json.Marshal(collab.OperationSubmitPayload{
		Operation: command.Operation{Type: command.TypeTransportPlay},
	})
	out, _ := json.Marshal(collab.Message{Type: collab.TypeOpSubmit, Payload: payload})
	if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
		t.Fatal(err)
	}
	ack := readMessage(t, ctx, conn)
	if ack.Type != collab.TypeOpAck {
		t.Fatalf("reply = %q %s", ack.Type, ack.Payload)
	}

	var view project.StateView
	tok, _ := env.auth.IssueGuest("Viewer")
	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/projects/"+playgroundProjectID+"/state", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.ServerSeq != 1 || !view.State.IsPlaying {
		t.Errorf("rest view = seq %d playing %v", view.ServerSeq, view.State.IsPlaying)
	}
}

func TestWebSocketAuth(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := env.auth.IssueGuest("Owner")
	if err != nil {
		t.Fatal(err)
	}
	p, err := env.projects.Create(ctx, "Private", tok.User.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing token", "/ws/project/" + p.ID, http.StatusUnauthorized},
		{"bad token", "/ws/project/" + p.ID + "?token=nope", http.StatusUnauthorized},
		{"unknown project", "/ws/project/proj_missing?token=" + tok.Token, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.Dial(ctx, env.wsURL(tt.path), nil)
			if err == nil {
				t.Fatal("dial succeeded")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Errorf("resp = %v, want status %d", resp, tt.status)
			}
		})
	}

	conn, _, err := websocket.Dial(ctx, env.wsURL("/ws/project/"+p.ID+"?token="+tok.Token), nil)
	if err != nil {
		t.Fatalf("dial with token: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(t, ctx, conn)
	var welcome collab.WelcomePayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.UserID != tok.User.ID || welcome.DisplayName != "Owner" {
		t.Errorf("welcome = %+v", welcome)
	}
}
