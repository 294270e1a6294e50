package backoffice

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoticeLevel mirrors the toast variants used by the templates.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeDanger  NoticeLevel = "danger"
)

// Notice is a transient user-facing message.
type Notice struct {
	ID      string
	Level   NoticeLevel
	Message string
	Posted  time.Time
}

// NoticeCenter fans transient notices out to in-process subscribers. Slow
// subscribers drop rather than block the publisher.
type NoticeCenter struct {
	mu    sync.RWMutex
	subs  map[int]chan Notice
	next  int
	clock Clock
}

// NewNoticeCenter builds an empty center.
func NewNoticeCenter(clock Clock) *NoticeCenter {
	return &NoticeCenter{
		subs:  make(map[int]chan Notice),
		clock: normalizeClock(clock),
	}
}

// Publish posts a notice to every subscriber.
func (c *NoticeCenter) Publish(level NoticeLevel, message string) Notice {
	notice := Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		Posted:  c.clock.Now(),
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- notice:
		default:
		}
	}
	return notice
}

// Subscribe returns a channel of notices and a cancel func.
func (c *NoticeCenter) Subscribe() (<-chan Notice, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	ch := make(chan Notice, 8)
	c.subs[id] = ch
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
