package watcher

import "testing"

func TestBusDropsWhenFull(t *testing.T) {
	b := NewBus(2)
	for i := 0; i < 5; i++ {
		b.Emit(EventProgress, i)
	}

	// The first two events fit the buffer; the rest were dropped
	// without blocking the emitter.
	for want := 0; want < 2; want++ {
		ev := <-b.Events()
		if ev.Data.(int) != want {
			t.Errorf("event %d carries %v", want, ev.Data)
		}
	}
	select {
	case ev := <-b.Events():
		t.Errorf("unexpected extra event %+v", ev)
	default:
	}
}

func TestBusEnvelope(t *testing.T) {
	b := NewBus(1)
	b.Emit(EventDialogue, DialoguePayload{ID: "x"})

	ev := <-b.Events()
	if ev.Type != EventDialogue {
		t.Errorf("type = %q", ev.Type)
	}
	if ev.Time.IsZero() {
		t.Error("envelope time not set")
	}
	if p, ok := ev.Data.(DialoguePayload); !ok || p.ID != "x" {
		t.Errorf("payload = %+v", ev.Data)
	}
}
