package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	vgaconsole "github.com/neotron-os/go-neotron"
)

func dialMirror(t *testing.T, h *Host) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h.mirror)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestMirrorReplaysHistoryThenStreams(t *testing.T) {
	h := newTestHost(t)
	h.Printf("before")

	conn := dialMirror(t, h)

	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if kind != websocket.BinaryMessage || string(data) != "before" {
		t.Errorf("expected history 'before', got %d %q", kind, data)
	}

	// The viewer is registered before the history is sent.
	h.Printf(" after")
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(data) != " after" {
		t.Errorf("expected live ' after', got %q", data)
	}
	if h.mirror.Viewers() != 1 {
		t.Errorf("expected 1 viewer, got %d", h.mirror.Viewers())
	}
}

func TestMirrorSnapshot(t *testing.T) {
	h := newTestHost(t)
	h.Printf("\x1b[31mhi")

	conn := dialMirror(t, h)
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("snapshot")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("expected a text message, got %d", kind)
	}

	var snap vgaconsole.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if snap.Lines[0].Text != "hi" {
		t.Errorf("expected 'hi', got %q", snap.Lines[0].Text)
	}
	if len(snap.Lines[0].Segments) == 0 || snap.Lines[0].Segments[0].Fg != "#aa0000" {
		t.Errorf("expected a red segment, got %+v", snap.Lines[0].Segments)
	}
}

func TestMirrorRecordsWithoutViewers(t *testing.T) {
	m := NewMirror(4, newTestHost(t).log)
	m.Record([]byte("abcdef"))

	if string(m.Data()) != "cdef" {
		t.Errorf("expected the last 4 bytes, got %q", m.Data())
	}
	m.Clear()
	if len(m.Data()) != 0 {
		t.Errorf("expected empty history, got %q", m.Data())
	}
}
