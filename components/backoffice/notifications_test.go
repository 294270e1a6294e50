package backoffice

import "testing"

func TestNoticeCenterFanOut(t *testing.T) {
	center := NewNoticeCenter(newFakeClock())
	a, cancelA := center.Subscribe()
	b, cancelB := center.Subscribe()
	defer cancelA()
	defer cancelB()

	posted := center.Publish(NoticeSuccess, "variant saved")
	if posted.ID == "" {
		t.Fatalf("expected notice id assigned")
	}

	for name, ch := range map[string]<-chan Notice{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got.ID != posted.ID || got.Message != "variant saved" {
				t.Fatalf("subscriber %s got %#v", name, got)
			}
		default:
			t.Fatalf("subscriber %s missed the notice", name)
		}
	}
}

func TestNoticeCenterCancelStopsDelivery(t *testing.T) {
	center := NewNoticeCenter(newFakeClock())
	ch, cancel := center.Subscribe()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	// Publishing after cancel must not panic.
	center.Publish(NoticeInfo, "still running")
	cancel()
}

func TestNoticeCenterDropsWhenSubscriberIsFull(t *testing.T) {
	center := NewNoticeCenter(newFakeClock())
	ch, cancel := center.Subscribe()
	defer cancel()

	for i := 0; i < 20; i++ {
		center.Publish(NoticeInfo, "burst")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected buffer full, got %d", len(ch))
	}
}
