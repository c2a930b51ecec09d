package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/lockin/internal/models"
	"go.uber.org/zap"
)

const owner = "7d3c1a52-0000-4000-8000-000000000001"

func TestWorkLogAggregator_Load(t *testing.T) {
	t.Parallel()

	t.Run("populates cache", func(t *testing.T) {
		t.Parallel()
		s := &mockWorkLogStore{listFunc: func(context.Context) ([]*models.WorkLog, error) {
			return []*models.WorkLog{
				{WorkDate: "2024-03-01", Hours: 5},
				{WorkDate: "2024-03-02", Hours: 2.5},
			}, nil
		}}
		a := NewWorkLogAggregator(s, zap.NewNop())
		if err := a.Load(context.Background(), owner); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		h := a.Hours()
		if len(h) != 2 || h["2024-03-01"] != 5 || h["2024-03-02"] != 2.5 {
			t.Errorf("Hours() = %v", h)
		}
	})

	t.Run("error empties cache", func(t *testing.T) {
		t.Parallel()
		fail := false
		s := &mockWorkLogStore{listFunc: func(context.Context) ([]*models.WorkLog, error) {
			if fail {
				return nil, errors.New("offline")
			}
			return []*models.WorkLog{{WorkDate: "2024-03-01", Hours: 5}}, nil
		}}
		a := NewWorkLogAggregator(s, nil)
		if err := a.Load(context.Background(), owner); err != nil {
			t.Fatalf("first Load() error = %v", err)
		}
		fail = true
		if err := a.Load(context.Background(), owner); err == nil {
			t.Fatal("Load() error = nil")
		}
		if len(a.Hours()) != 0 {
			t.Errorf("cache not emptied: %v", a.Hours())
		}
	})

	t.Run("empty owner is a no-op", func(t *testing.T) {
		t.Parallel()
		s := &mockWorkLogStore{listFunc: func(context.Context) ([]*models.WorkLog, error) {
			t.Error("store called without owner")
			return nil, nil
		}}
		if err := NewWorkLogAggregator(s, nil).Load(context.Background(), ""); err != nil {
			t.Errorf("Load() error = %v", err)
		}
	})
}

func TestWorkLogAggregator_Upsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		owner     string
		date      string
		hours     float64
		storeErr  error
		wantErr   error
		wantCalls int
		wantHours map[string]float64
	}{
		{name: "writes", owner: owner, date: "2024-03-01", hours: 5, wantCalls: 1, wantHours: map[string]float64{"2024-03-01": 5}},
		{name: "zero is allowed", owner: owner, date: "2024-03-01", hours: 0, wantCalls: 1, wantHours: map[string]float64{"2024-03-01": 0}},
		{name: "twenty four is allowed", owner: owner, date: "2024-03-01", hours: 24, wantCalls: 1, wantHours: map[string]float64{"2024-03-01": 24}},
		{name: "negative rejected", owner: owner, date: "2024-03-01", hours: -1, wantErr: ErrInvalidHours},
		{name: "over 24 rejected", owner: owner, date: "2024-03-01", hours: 24.5, wantErr: ErrInvalidHours},
		{name: "bad date rejected", owner: owner, date: "2024-3-1", hours: 2, wantErr: ErrInvalidDate},
		{name: "impossible date rejected", owner: owner, date: "2024-02-30", hours: 2, wantErr: ErrInvalidDate},
		{name: "no owner is a no-op", owner: "", date: "2024-03-01", hours: 5},
		{name: "store failure leaves cache", owner: owner, date: "2024-03-01", hours: 5, storeErr: errors.New("offline"), wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &mockWorkLogStore{upsertFunc: func(_ context.Context, date string, hours float64) (*models.WorkLog, error) {
				if tt.storeErr != nil {
					return nil, tt.storeErr
				}
				return &models.WorkLog{WorkDate: date, Hours: hours}, nil
			}}
			a := NewWorkLogAggregator(s, nil)

			err := a.Upsert(context.Background(), tt.owner, tt.date, tt.hours)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Upsert() error = %v, want %v", err, tt.wantErr)
				}
			case tt.storeErr != nil:
				if !errors.Is(err, tt.storeErr) {
					t.Errorf("Upsert() error = %v, want wrapped %v", err, tt.storeErr)
				}
			case err != nil:
				t.Errorf("Upsert() error = %v", err)
			}

			if s.upserts != tt.wantCalls {
				t.Errorf("store calls = %d, want %d", s.upserts, tt.wantCalls)
			}
			got := a.Hours()
			if len(got) != len(tt.wantHours) {
				t.Fatalf("Hours() = %v, want %v", got, tt.wantHours)
			}
			for d, h := range tt.wantHours {
				if got[d] != h {
					t.Errorf("Hours()[%s] = %v, want %v", d, got[d], h)
				}
			}
		})
	}
}

func TestWorkLogAggregator_UpsertLastValueWins(t *testing.T) {
	t.Parallel()

	a := NewWorkLogAggregator(&mockWorkLogStore{}, nil)
	ctx := context.Background()
	if err := a.Upsert(ctx, owner, "2024-03-01", 5); err != nil {
		t.Fatal(err)
	}
	if err := a.Upsert(ctx, owner, "2024-03-01", 7); err != nil {
		t.Fatal(err)
	}
	h := a.Hours()
	if len(h) != 1 || h["2024-03-01"] != 7 {
		t.Errorf("Hours() = %v, want one entry of 7", h)
	}
}

func TestWorkLogAggregator_DiscardsStaleResult(t *testing.T) {
	t.Parallel()

	var a *WorkLogAggregator
	s := &mockWorkLogStore{listFunc: func(context.Context) ([]*models.WorkLog, error) {
		a.Reset()
		return []*models.WorkLog{{WorkDate: "2024-03-01", Hours: 5}}, nil
	}}
	a = NewWorkLogAggregator(s, nil)

	if err := a.Load(context.Background(), owner); !errors.Is(err, ErrStale) {
		t.Fatalf("Load() error = %v, want ErrStale", err)
	}
	if len(a.Hours()) != 0 {
		t.Errorf("stale result committed: %v", a.Hours())
	}
	if a.Owner() != "" {
		t.Errorf("Owner() = %q after reset", a.Owner())
	}
}

func TestWorkLogAggregator_HoursIsACopy(t *testing.T) {
	t.Parallel()

	a := NewWorkLogAggregator(&mockWorkLogStore{}, nil)
	if err := a.Upsert(context.Background(), owner, "2024-03-01", 5); err != nil {
		t.Fatal(err)
	}
	h := a.Hours()
	h["2024-03-01"] = 99
	if a.Hours()["2024-03-01"] != 5 {
		t.Error("Hours() exposed internal map")
	}
}
