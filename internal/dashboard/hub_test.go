package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srvURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) RefreshEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev RefreshEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return ev
}

func TestHubBroadcastsPalletChanges(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv.URL)
	defer conn.Close()

	hello := readEvent(t, conn)
	if hello.Action != "connected" || hello.Counter != 0 {
		t.Fatalf("Unexpected hello: %+v", hello)
	}

	hub.PalletChanged("150525/1", "Void Pallet")

	ev := readEvent(t, conn)
	if ev.Counter != 1 {
		t.Errorf("Expected counter 1, got %d", ev.Counter)
	}
	if ev.PltNum != "150525/1" || ev.Action != "Void Pallet" {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if hub.Clients() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.Clients())
	}
}

func TestPalletChangedWithoutClients(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 100; i++ {
		hub.PalletChanged("150525/1", "Damaged")
	}
	if hub.Counter() != 100 {
		t.Errorf("Expected counter 100, got %d", hub.Counter())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512 * 1024 * 1024:      "512.0 MB",
		3 * 1024 * 1024 * 1024: "3.0 GB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d): expected %s, got %s", in, want, got)
		}
	}
}

func TestPalletChangedResetsWidgetState(t *testing.T) {
	s, f := newWidgetEnv()
	f.awaitTotal = 100
	hub := NewHub()
	hub.Reset = s.Reset

	w2, _ := FindWidget(ThemeWarehouse, "widget2")
	q := Query{Theme: ThemeWarehouse, Widget: w2, TimeRange: "7d"}
	batch := s.BatchSource()
	if _, err := batch.Fetch(context.Background(), q); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	f.mu.Lock()
	f.awaitTotal = 60
	f.mu.Unlock()
	hub.PalletChanged("150525/1", "Void Pallet")

	v, err := batch.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.(StatValue).Value != 60 {
		t.Errorf("Expected 60 after pallet change, got %+v", v)
	}
}
