package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"datacode/internal/engine"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

func factory(out io.Writer) *engine.Engine {
	return engine.New(engine.WithOutput(out))
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Response {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func strPtr(s string) *string { return &s }

func TestExecute(t *testing.T) {
	tests := []struct {
		code string
		want Response
	}{
		{"print('hi')", Response{Success: true, Output: "hi\n"}},
		{"print(1)\nx = y", Response{Output: "1\n", Error: strPtr("Variable Error at line 2: Variable 'y' not found")}},
		{"", Response{Success: true}},
	}
	for i, tt := range tests {
		var out bytes.Buffer
		got := Execute(context.Background(), factory(&out), &out, tt.code)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("tests[%d] - response mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestConnectionKeepsState(t *testing.T) {
	ts := httptest.NewServer(New("", factory).Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	defer conn.Close()

	if resp := roundTrip(t, conn, `{"code": "global n = 20"}`); !resp.Success {
		t.Fatalf("first request failed: %+v", resp)
	}
	resp := roundTrip(t, conn, `{"code": "print(n + 1)"}`)
	if diff := cmp.Diff(Response{Success: true, Output: "21\n"}, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}

	other := dial(t, ts.URL)
	defer other.Close()
	resp = roundTrip(t, other, `{"code": "print(n)"}`)
	if resp.Success || resp.Error == nil || !strings.Contains(*resp.Error, "Variable 'n' not found") {
		t.Fatalf("connections should not share state: %+v", resp)
	}
}

func TestInvalidRequest(t *testing.T) {
	ts := httptest.NewServer(New("", factory).Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	defer conn.Close()

	resp := roundTrip(t, conn, `not json`)
	if resp.Success || resp.Error == nil || !strings.HasPrefix(*resp.Error, "invalid request") {
		t.Fatalf("expected invalid request error, got %+v", resp)
	}
}

func TestRequestTimeout(t *testing.T) {
	ts := httptest.NewServer(New("", factory, WithTimeout(50*time.Millisecond)).Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	defer conn.Close()

	resp := roundTrip(t, conn, `{"code": "while true do\n    x = 1\nendwhile"}`)
	if resp.Success || resp.Error == nil || !strings.Contains(*resp.Error, "execution cancelled") {
		t.Fatalf("expected cancellation, got %+v", resp)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New("", factory).Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
