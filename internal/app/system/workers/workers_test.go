package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeFinder struct {
	ids    []primitive.ObjectID
	cutoff time.Time
	err    error
}

func (f *fakeFinder) Orphans(_ context.Context, cutoff time.Time, _ int64) ([]primitive.ObjectID, error) {
	f.cutoff = cutoff
	return f.ids, f.err
}

func TestOrphanReconcileJob(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	tests := []struct {
		name     string
		finder   *fakeFinder
		failOn   primitive.ObjectID
		wantErr  bool
		wantRuns int
	}{
		{"nothing to do", &fakeFinder{}, primitive.NilObjectID, false, 0},
		{"removes all", &fakeFinder{ids: []primitive.ObjectID{a, b}}, primitive.NilObjectID, false, 2},
		{"keeps going past a failure", &fakeFinder{ids: []primitive.ObjectID{a, b}}, a, true, 2},
		{"finder error", &fakeFinder{err: errors.New("boom")}, primitive.NilObjectID, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runs int
			cascade := func(_ context.Context, id primitive.ObjectID) error {
				runs++
				if id == tt.failOn {
					return errors.New("cascade failed")
				}
				return nil
			}
			job := workers.OrphanReconcileJob(tt.finder, cascade, zap.NewNop(), time.Minute, time.Hour)

			before := time.Now().UTC()
			err := workers.NewScheduler(nil, zap.NewNop()).RunOnce(job)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if runs != tt.wantRuns {
				t.Errorf("cascade runs = %d, want %d", runs, tt.wantRuns)
			}
			if got := before.Sub(tt.finder.cutoff); got < time.Hour || got > time.Hour+time.Minute {
				t.Errorf("cutoff is %v before now, want ~1h", got)
			}
		})
	}
}

func TestScheduler_RunsAndStops(t *testing.T) {
	s := workers.NewScheduler(nil, zap.NewNop())
	ran := make(chan struct{}, 10)
	s.Add(workers.Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			ran <- struct{}{}
			return nil
		},
	})
	s.Add(workers.Job{Name: "disabled", Interval: 0, Run: func(context.Context) error {
		t.Error("disabled job ran")
		return nil
	}})
	s.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	s.Stop()
}
