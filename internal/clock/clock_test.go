package clock

import (
	"context"
	"testing"
	"time"
)

func TestFake(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("fires timers in deadline order", func(t *testing.T) {
		f := NewFake(start)
		var order []string
		f.AfterFunc(2*time.Second, func() { order = append(order, "b") })
		f.AfterFunc(time.Second, func() { order = append(order, "a") })
		f.AfterFunc(3*time.Second, func() { order = append(order, "c") })

		f.Advance(2 * time.Second)
		if len(order) != 2 || order[0] != "a" || order[1] != "b" {
			t.Fatalf("expected [a b], got %v", order)
		}
		if got := f.Now().Sub(start); got != 2*time.Second {
			t.Errorf("expected clock at +2s, got +%v", got)
		}
		if f.Pending() != 1 {
			t.Errorf("expected 1 pending timer, got %d", f.Pending())
		}
	})

	t.Run("stopped timers never run", func(t *testing.T) {
		f := NewFake(start)
		ran := false
		timer := f.AfterFunc(time.Second, func() { ran = true })
		if !timer.Stop() {
			t.Error("first Stop should report true")
		}
		if timer.Stop() {
			t.Error("second Stop should report false")
		}
		f.Advance(time.Minute)
		if ran {
			t.Error("stopped timer ran")
		}
	})

	t.Run("timers scheduled by callbacks fire within the same advance", func(t *testing.T) {
		f := NewFake(start)
		count := 0
		f.AfterFunc(time.Second, func() {
			count++
			f.AfterFunc(time.Second, func() { count++ })
		})
		f.Advance(2 * time.Second)
		if count != 2 {
			t.Errorf("expected 2 callbacks, got %d", count)
		}
	})

	t.Run("post runs on flush", func(t *testing.T) {
		f := NewFake(start)
		ran := false
		f.Post(func() { ran = true })
		if ran {
			t.Fatal("post ran before flush")
		}
		f.Flush()
		if !ran {
			t.Error("post did not run on flush")
		}
	})
}

func TestEvery(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ticks := 0
	timer := Every(f, time.Second, func() { ticks++ })

	f.Advance(3500 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}

	timer.Stop()
	f.Advance(5 * time.Second)
	if ticks != 3 {
		t.Errorf("ticker kept running after stop: %d", ticks)
	}
}

func TestLoop(t *testing.T) {
	t.Run("runs posted work in order", func(t *testing.T) {
		l := NewLoop(8)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go l.Run(ctx)

		var got []int
		for i := range 5 {
			l.Post(func() { got = append(got, i) })
		}
		if err := l.Call(ctx, func() {}); err != nil {
			t.Fatalf("call failed: %v", err)
		}
		for i, v := range got {
			if v != i {
				t.Fatalf("expected sequential order, got %v", got)
			}
		}
		l.Close()
	})

	t.Run("stopped timer does not fire", func(t *testing.T) {
		l := NewLoop(8)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go l.Run(ctx)

		fired := make(chan struct{}, 1)
		timer := l.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
		if !timer.Stop() {
			t.Fatal("expected Stop to report true")
		}

		select {
		case <-fired:
			t.Fatal("stopped timer fired")
		case <-time.After(60 * time.Millisecond):
		}
		l.Close()
	})

	t.Run("timer fires on loop", func(t *testing.T) {
		l := NewLoop(8)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go l.Run(ctx)

		fired := make(chan struct{})
		l.AfterFunc(5*time.Millisecond, func() { close(fired) })
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("timer never fired")
		}
		l.Close()
	})
}
