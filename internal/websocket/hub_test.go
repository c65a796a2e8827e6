// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package websocket

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub starts a hub that runs until the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 256)}
}

// registerClient blocks until the hub has taken the client.
func registerClient(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	before := hub.GetClientCount()
	hub.Register <- client
	waitFor(t, func() bool { return hub.GetClientCount() > before })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func testSummary() models.Summary {
	s := models.Summary{
		Stage:     "formated",
		StartedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)),
		Duration:  1500 * time.Millisecond,
		Records:   models.WriteReport{Written: 3, Unresolved: 1},
	}
	s.Add(models.Written("data/raw/users.csv", "data/formated/users.csv"))
	s.Add(models.Skipped("data/raw/README.txt", "unsupported extension"))
	return s
}

func TestNewHub(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	if hub.clients == nil || hub.Register == nil || hub.Unregister == nil {
		t.Fatal("hub channels not initialized")
	}
	if cap(hub.broadcast) != 256 {
		t.Errorf("broadcast buffer = %d, want 256", cap(hub.broadcast))
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("new hub has %d clients", hub.GetClientCount())
	}
}

func TestHub_ClientRegistration(t *testing.T) {
	t.Parallel()

	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(t, hub, client)

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHub_UnregisterNonExistentClient(t *testing.T) {
	t.Parallel()

	hub := setupHub(t)
	registerClient(t, hub, createTestClient(hub))

	stranger := createTestClient(hub)
	hub.Unregister <- stranger
	hub.Unregister <- stranger

	if hub.GetClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.GetClientCount())
	}
}

func TestHub_BroadcastSummary(t *testing.T) {
	t.Parallel()

	hub := setupHub(t)
	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = createTestClient(hub)
		registerClient(t, hub, clients[i])
	}

	hub.BroadcastSummary(context.Background(), testSummary())

	for i, c := range clients {
		msg := receive(t, c)
		if msg.Type != MessageTypeStageSummary {
			t.Fatalf("client %d: type = %q", i, msg.Type)
		}
		data, ok := msg.Data.(StageSummaryData)
		if !ok {
			t.Fatalf("client %d: data = %T", i, msg.Data)
		}
		if data.Stage != "formated" || data.Written != 1 || data.Skipped != 1 || data.Failed != 0 {
			t.Errorf("client %d: counters = %+v", i, data)
		}
		if data.StartedAt != "2024-01-01T17:00:00Z" || data.DurationMs != 1500 {
			t.Errorf("client %d: timing = %s / %d", i, data.StartedAt, data.DurationMs)
		}
		if data.Records.Unresolved != 1 || len(data.Results) != 2 {
			t.Errorf("client %d: records = %+v results = %d", i, data.Records, len(data.Results))
		}
	}
}

func TestHub_BroadcastOrder(t *testing.T) {
	t.Parallel()

	hub := setupHub(t)
	c := createTestClient(hub)
	registerClient(t, hub, c)

	for _, stage := range []string{"raw", "formated", "curated"} {
		hub.BroadcastSummary(context.Background(), models.Summary{Stage: stage})
	}
	for _, want := range []string{"raw", "formated", "curated"} {
		got := receive(t, c).Data.(StageSummaryData).Stage
		if got != want {
			t.Errorf("stage = %q, want %q", got, want)
		}
	}
}

func TestHub_ConcurrentOperations(t *testing.T) {
	t.Parallel()

	hub := setupHub(t)
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		for range 10 {
			hub.Register <- createTestClient(hub)
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 20 {
			hub.BroadcastJSON("test", map[string]int{"i": i})
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			hub.GetClientCount()
		}
	}()
	wg.Wait()

	waitFor(t, func() bool { return hub.GetClientCount() == 10 })
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Message
		want []string
	}{
		{"pong", Message{Type: MessageTypePong}, []string{`"type":"pong"`, `"data":null`}},
		{
			"summary",
			Message{Type: MessageTypeStageSummary, Data: StageSummaryData{Stage: "curated", Written: 2, Records: models.WriteReport{Written: 5}}},
			[]string{`"type":"stage_summary"`, `"stage":"curated"`, `"written":2`, `"records":{"written":5`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := MarshalMessage(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(data), want) {
					t.Errorf("%s missing %s", data, want)
				}
			}
		})
	}
}

func TestHub_ChannelFullBehavior(t *testing.T) {
	t.Parallel()

	// Not running, so nothing drains the broadcast buffer.
	hub := NewHub()
	for range cap(hub.broadcast) + 10 {
		hub.BroadcastSummary(context.Background(), models.Summary{Stage: "raw"})
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("broadcast buffered %d", len(hub.broadcast))
	}
}

func TestHub_BroadcastToFullClient(t *testing.T) {
	t.Parallel()

	hub := setupHub(t)
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	fast := createTestClient(hub)
	registerClient(t, hub, slow)
	registerClient(t, hub, fast)

	hub.BroadcastJSON("first", nil)
	hub.BroadcastJSON("second", nil)

	waitFor(t, func() bool { return hub.GetClientCount() == 1 })
	if receive(t, fast).Type != "first" || receive(t, fast).Type != "second" {
		t.Error("fast client missed broadcasts")
	}
}

func TestHub_RunWithContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		cancel  bool
		wantErr error
	}{
		{
			name:    "cancellation",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			cancel:  true,
			wantErr: context.Canceled,
		},
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 50*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hub := NewHub()
			ctx, cancel := tt.ctx()
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- hub.Serve(ctx) }()

			client := createTestClient(hub)
			hub.Register <- client
			if tt.cancel {
				cancel()
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case <-time.After(time.Second):
				t.Fatal("hub did not stop")
			}
			if hub.GetClientCount() != 0 {
				t.Errorf("clients left after shutdown: %d", hub.GetClientCount())
			}
			if _, ok := <-client.send; ok {
				t.Error("client channel should be closed on shutdown")
			}
		})
	}
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled = %q", got)
	}
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("expired = %q", got)
	}
}

func TestHub_String(t *testing.T) {
	t.Parallel()

	if NewHub().String() != "websocket-hub" {
		t.Error("unexpected service name")
	}
}

func BenchmarkHub_BroadcastSummary(b *testing.B) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	s := testSummary()
	b.ResetTimer()
	for range b.N {
		hub.BroadcastSummary(ctx, s)
	}
}
