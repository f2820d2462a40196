package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish(Event{Type: RoomsBuilt, BatchID: "batch-1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != RoomsBuilt || ev.ID == "" || ev.Time.IsZero() {
				t.Errorf("event = %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("イベントが届きません")
		}
	}

	cancelA()
	cancelA()
	if bus.Subscribers() != 1 {
		t.Errorf("subscribers = %d", bus.Subscribers())
	}
	if _, ok := <-a; ok {
		t.Error("解除後のチャネルは閉じているべきです")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberCapacity*3; i++ {
			bus.Publish(Event{Type: ArtAttached})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("発行がブロックされました")
	}
}

func TestHub_StreamsEvents(t *testing.T) {
	bus := NewBus()
	srv := httptest.NewServer(NewHub(bus))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("購読が登録されません")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bus.Publish(Event{Type: PanoramaGenerated, BatchID: "b1", Data: map[string]any{"rooms": 2}})

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != PanoramaGenerated || ev.BatchID != "b1" {
		t.Errorf("event = %+v", ev)
	}
}
