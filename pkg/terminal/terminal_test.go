package terminal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/antibyte/zen/pkg/auth"
	"github.com/antibyte/zen/pkg/history"
	"github.com/antibyte/zen/pkg/shared"

	"github.com/gorilla/websocket"
)

func startServer(t *testing.T, h *Handler, requireToken bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewMux(h, requireToken))
	t.Cleanup(func() {
		h.Shutdown()
		srv.Close()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("Dial failed (status %d): %v", status, err)
	}
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	if msg.Type != shared.MessageTypeSession || msg.SessionID == "" {
		t.Fatalf("First message = %+v, want session", msg)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) shared.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg shared.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return msg
}

// collectRun reads until the done message of a run.
func collectRun(t *testing.T, conn *websocket.Conn) (texts, diagnostics []string, done shared.Message) {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		switch msg.Type {
		case shared.MessageTypeText:
			texts = append(texts, msg.Content)
		case shared.MessageTypeDiagnostic:
			diagnostics = append(diagnostics, msg.Content)
		case shared.MessageTypeDone:
			return texts, diagnostics, msg
		}
	}
}

func TestRunOverWebSocket(t *testing.T) {
	journal, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	defer journal.Close()

	srv := startServer(t, NewHandler(journal), false)
	conn := dial(t, srv, "")

	source := "& n = !1\nprint (&n * 3)\nprint \"hi\"\ngoto nowhere\n"
	if err := conn.WriteJSON(shared.Request{Type: shared.RequestRun, Source: source, Args: []string{"2"}}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	started := readMessage(t, conn)
	if started.Type != shared.MessageTypeStatus || started.Content != "started" || started.RunID == "" {
		t.Fatalf("Expected started status, got %+v", started)
	}

	texts, diagnostics, done := collectRun(t, conn)
	if strings.Join(texts, "|") != "6|hi" {
		t.Errorf("Output = %q, want [6 hi]", texts)
	}
	if len(diagnostics) != 1 || !strings.Contains(diagnostics[0], "Label not found 'nowhere'") {
		t.Errorf("Diagnostics = %q", diagnostics)
	}
	if done.Content != "finished" || done.RunID != started.RunID {
		t.Errorf("Done = %+v", done)
	}
	if done.Stats == nil || done.Stats.Printed != 2 || done.Stats.Diagnostics != 1 || done.Stats.Steps != 4 {
		t.Errorf("Stats = %+v", done.Stats)
	}

	runs, err := journal.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID.String() != done.RunID || runs[0].Origin != history.OriginWebSocket {
		t.Errorf("Journal = %+v", runs)
	}
}

func TestStopEndlessRun(t *testing.T) {
	srv := startServer(t, NewHandler(nil), false)
	conn := dial(t, srv, "")

	if err := conn.WriteJSON(shared.Request{Type: shared.RequestRun, Source: "a:\ngoto a"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if msg := readMessage(t, conn); msg.Content != "started" {
		t.Fatalf("Expected started status, got %+v", msg)
	}

	if err := conn.WriteJSON(shared.Request{Type: shared.RequestRun, Source: `print "x"`}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != shared.MessageTypeStatus || msg.Content != "a run is already active" {
		t.Fatalf("Expected busy status, got %+v", msg)
	}

	if err := conn.WriteJSON(shared.Request{Type: shared.RequestStop}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	_, _, done := collectRun(t, conn)
	if done.Content != "stopped" {
		t.Errorf("Done content = %q, want stopped", done.Content)
	}
	if done.Stats == nil || done.Stats.Jumps == 0 {
		t.Errorf("Stats = %+v", done.Stats)
	}

	// The client accepts a new run afterwards.
	if err := conn.WriteJSON(shared.Request{Type: shared.RequestRun, Source: `print "again"`}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	readMessage(t, conn)
	texts, _, _ := collectRun(t, conn)
	if len(texts) != 1 || texts[0] != "again" {
		t.Errorf("Output = %q, want [again]", texts)
	}
}

func TestRejectedRequests(t *testing.T) {
	srv := startServer(t, NewHandler(nil), false)
	conn := dial(t, srv, "")

	for _, raw := range []string{`{"type":"launch"}`, `not json`, `{"type":"stop"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
		msg := readMessage(t, conn)
		if msg.Type != shared.MessageTypeStatus {
			t.Errorf("%s: got %+v, want status", raw, msg)
		}
	}
}

func TestRequireToken(t *testing.T) {
	t.Setenv(auth.SecretEnvVar, "terminal-test-secret")
	srv := startServer(t, NewHandler(nil), true)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("Dial without token: err = %v, want bad handshake", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Dial without token: response = %v", resp)
	}

	token, err := auth.GenerateToken("tester")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	dial(t, srv, "?token="+token)
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name string
		data string
		want error
	}{
		{"run", `{"type":"run","source":"print \"a\"","args":["1"]}`, nil},
		{"stop", `{"type":"stop"}`, nil},
		{"unknown type", `{"type":"exec"}`, ErrUnknownRequest},
		{"too many args", `{"type":"run","args":[` + strings.TrimSuffix(strings.Repeat(`"1",`, MaxRequestArgs+1), ",") + `]}`, ErrTooManyArgs},
		{"long arg", `{"type":"run","args":["` + strings.Repeat("9", MaxRequestArgLen+1) + `"]}`, ErrArgTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Decode([]byte(tc.data))
			if tc.want == nil && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("Error = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := v.Decode([]byte(`{"type":"stop","extra":1}`)); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestClientManagerLimit(t *testing.T) {
	cm := NewClientManager(1)
	if err := cm.AddClient(&Client{sessionID: "a"}); err != nil {
		t.Fatalf("AddClient failed: %v", err)
	}
	if err := cm.AddClient(&Client{sessionID: "b"}); !errors.Is(err, ErrTooManyClients) {
		t.Errorf("AddClient = %v, want ErrTooManyClients", err)
	}
	cm.RemoveClient("a")
	if cm.Count() != 0 {
		t.Errorf("Count = %d after removal", cm.Count())
	}
}
