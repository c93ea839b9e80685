package clock

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}

	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) {
		t.Errorf("Clock time %v is before measurement time %v", now, before)
	}
	if now.After(after) {
		t.Errorf("Clock time %v is after measurement time %v", now, after)
	}
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: fixedTime}

	if now := clock.Now(); !now.Equal(fixedTime) {
		t.Errorf("Expected %v, got %v", fixedTime, now)
	}
	if again := clock.Now(); !again.Equal(fixedTime) {
		t.Errorf("Expected mock clock to stay at %v, got %v", fixedTime, again)
	}
}

func TestMockClock_Advance(t *testing.T) {
	fixedTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: fixedTime}

	clock.Advance(90 * time.Second)
	want := fixedTime.Add(90 * time.Second)
	if now := clock.Now(); !now.Equal(want) {
		t.Errorf("Expected %v after advance, got %v", want, now)
	}
}

func TestMockClock_ConcurrentAdvance(t *testing.T) {
	clock := &MockClock{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	if got := clock.Now().Sub(time.Time{}); got != 50*time.Second {
		t.Errorf("Expected 50s elapsed, got %v", got)
	}
}

func TestClockInterface(t *testing.T) {
	var _ Clock = RealClock{}
	var _ Clock = &MockClock{}
}
