// Package events は生成パイプラインの進行状況を外部の表示層へ通知します。
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type はイベントの種類です。
type Type string

const (
	RoomsBuilt        Type = "rooms.built"
	PanoramaRequested Type = "panorama.requested"
	PanoramaCacheHit  Type = "panorama.cache_hit"
	PanoramaGenerated Type = "panorama.generated"
	ArtAttached       Type = "art.attached"
	ArtFailed         Type = "art.failed"
)

// subscriberCapacity は購読者ごとのバッファ数です。
const subscriberCapacity = 64

// Event は1件の通知です。Data は JSON にエンコード可能な値にします。
type Event struct {
	ID      string         `json:"id"`
	Type    Type           `json:"type"`
	BatchID string         `json:"batch_id,omitempty"`
	Time    time.Time      `json:"time"`
	Data    map[string]any `json:"data,omitempty"`
}

// Publisher はイベントを発行する側の契約です。
type Publisher interface {
	Publish(ev Event)
}

// Bus はプロセス内の publish/subscribe です。
// 受信が追いつかない購読者へのイベントは破棄し、発行側をブロックしません。
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	now    func() time.Time
}

// NewBus は Bus を作成します。
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event), now: time.Now}
}

// Subscribe は新しい購読チャネルと解除関数を返します。
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberCapacity)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish は全購読者へイベントを配信します。ID と Time が空なら補完します。
func (b *Bus) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers は現在の購読者数を返します。
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Discard はイベントをすべて捨てる Publisher です。
type Discard struct{}

func (Discard) Publish(Event) {}
