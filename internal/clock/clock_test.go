package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFake_EveryFiresOnSchedule(t *testing.T) {
	f := NewFake()
	var n int
	f.Every(3*time.Second, func() { n++ })

	f.Advance(2 * time.Second)
	if n != 0 {
		t.Errorf("Expected 0 runs, got %d", n)
	}
	f.Advance(time.Second)
	if n != 1 {
		t.Errorf("Expected 1 run, got %d", n)
	}
	f.Advance(7 * time.Second)
	if n != 3 {
		t.Errorf("Expected 3 runs, got %d", n)
	}
}

func TestFake_StopFromInsideTask(t *testing.T) {
	f := NewFake()
	var n int
	var timer Timer
	timer = f.Every(time.Second, func() {
		n++
		if n == 2 {
			timer.Stop()
		}
	})

	f.Advance(10 * time.Second)
	if n != 2 {
		t.Errorf("Expected 2 runs, got %d", n)
	}
	if f.Active() != 0 {
		t.Errorf("Expected no active timers, got %d", f.Active())
	}
	timer.Stop()
}

func TestFake_OrdersIndependentTimers(t *testing.T) {
	f := NewFake()
	var order []string
	f.Every(3*time.Second, func() { order = append(order, "poll") })
	f.Every(time.Second, func() { order = append(order, "tick") })

	f.Advance(3 * time.Second)
	want := []string{"tick", "tick", "poll", "tick"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

func TestReal_StopHaltsTask(t *testing.T) {
	var n int32
	timer := Real{}.Every(5*time.Millisecond, func() { atomic.AddInt32(&n, 1) })
	time.Sleep(30 * time.Millisecond)
	timer.Stop()
	timer.Stop()
	seen := atomic.LoadInt32(&n)
	if seen == 0 {
		t.Error("Expected at least one run")
	}
	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt32(&n); after > seen+1 {
		t.Errorf("Expected runs to stop, went from %d to %d", seen, after)
	}
}
