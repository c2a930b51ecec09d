package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

var _ DLQPurger = (*mockDLQPurger)(nil)

type mockDLQPurger struct {
	purgeFunc func(ctx context.Context, retention time.Duration) (int, error)
}

func (m *mockDLQPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	if m.purgeFunc != nil {
		return m.purgeFunc(ctx, retention)
	}
	return 0, nil
}

func TestGarbageCollector_Collect_NilPurger(t *testing.T) {
	t.Parallel()
	gc := NewGarbageCollector(nil, time.Minute, 24*time.Hour, nil)
	err := gc.collect(context.Background())
	if err != nil {
		t.Errorf("collect with nil purger: %v", err)
	}
}

func TestGarbageCollector_Collect_MockPurger(t *testing.T) {
	t.Parallel()
	var called atomic.Bool
	mock := &mockDLQPurger{
		purgeFunc: func(ctx context.Context, retention time.Duration) (int, error) {
			called.Store(true)
			if retention != 24*time.Hour {
				return 0, errors.New("unexpected retention")
			}
			return 3, nil
		},
	}
	gc := NewGarbageCollector(mock, time.Minute, 24*time.Hour, zap.NewNop())
	err := gc.collect(context.Background())
	if err != nil {
		t.Errorf("collect: %v", err)
	}
	if !called.Load() {
		t.Error("PurgeOlderThan was not called")
	}
}

func TestGarbageCollector_Collect_PurgerError(t *testing.T) {
	t.Parallel()
	mock := &mockDLQPurger{
		purgeFunc: func(context.Context, time.Duration) (int, error) {
			return 0, errors.New("purge failed")
		},
	}
	gc := NewGarbageCollector(mock, time.Minute, time.Hour, nil)
	err := gc.collect(context.Background())
	if err == nil {
		t.Error("expected error from collect")
	}
}

func TestGarbageCollector_Start_StopsOnContextCancel(t *testing.T) {
	t.Parallel()
	mock := &mockDLQPurger{purgeFunc: func(context.Context, time.Duration) (int, error) { return 0, nil }}
	gc := NewGarbageCollector(mock, 24*time.Hour, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gc.Start(ctx)
	if err == nil {
		t.Error("expected context cancelled error")
	}
}

func TestRabbitMQQueue_BuildPublishing(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	q := &RabbitMQQueue{exchangeName: DefaultExchangeName, delayedExchangeName: DefaultDelayedExchangeName, delayed: true}

	tests := []struct {
		name         string
		notBefore    *time.Time
		notAfter     *time.Time
		delayed      bool
		wantExchange string
		wantDelay    bool
		wantExpiry   string
	}{
		{name: "immediate", delayed: true, wantExchange: DefaultExchangeName},
		{name: "future start uses delayed exchange", notBefore: timePtr(now.Add(time.Hour)), delayed: true, wantExchange: DefaultDelayedExchangeName, wantDelay: true},
		{name: "past start is immediate", notBefore: timePtr(now.Add(-time.Hour)), delayed: true, wantExchange: DefaultExchangeName},
		{name: "no plugin falls back", notBefore: timePtr(now.Add(time.Hour)), delayed: false, wantExchange: DefaultExchangeName},
		{name: "expiry sets ttl", notAfter: timePtr(now.Add(2 * time.Second)), delayed: true, wantExchange: DefaultExchangeName, wantExpiry: "2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			qq := &RabbitMQQueue{exchangeName: q.exchangeName, delayedExchangeName: q.delayedExchangeName, delayed: tt.delayed}
			job := &Job{Type: JobTypeDailyRollover, NotBefore: tt.notBefore, NotAfter: tt.notAfter}
			exchange, p, err := qq.buildPublishing(job, now)
			if err != nil {
				t.Fatalf("buildPublishing() error = %v", err)
			}
			if exchange != tt.wantExchange {
				t.Errorf("exchange = %q, want %q", exchange, tt.wantExchange)
			}
			if _, ok := p.Headers["x-delay"]; ok != tt.wantDelay {
				t.Errorf("x-delay present = %v, want %v", ok, tt.wantDelay)
			}
			if p.Expiration != tt.wantExpiry {
				t.Errorf("Expiration = %q, want %q", p.Expiration, tt.wantExpiry)
			}
			if p.Type != string(JobTypeDailyRollover) {
				t.Errorf("Type = %q", p.Type)
			}
		})
	}
}
