package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"leadagent_backend/internal/conversation/engine"
)

func newTestStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, time.Hour), mr
}

func sampleState() engine.State {
	return engine.State{
		Stage: engine.StageQualification,
		Profile: engine.LeadProfile{Fields: map[engine.FieldKey]string{
			engine.FieldName:    "Jane",
			engine.FieldCompany: "Acme",
		}},
		TotalUserTurns: 4,
		StageUserTurns: 2,
		LastUserText:   "our budget is flexible",
	}
}

func TestSaveAndLoad(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	state := sampleState()
	if err := s.Save(ctx, "conv-1", state); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, state) {
		t.Errorf("loaded state = %+v, want %+v", got, state)
	}
}

func TestLoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Load(context.Background(), "unknown"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Set("conversation:state:conv-1", "{not json")

	if _, err := s.Load(context.Background(), "conv-1"); !errors.Is(err, engine.ErrCorruptSnapshot) {
		t.Errorf("err = %v, want ErrCorruptSnapshot", err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "conv-1", sampleState()); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "conv-1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSnapshotExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "conv-1", sampleState()); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := s.Load(ctx, "conv-1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err = %v, want ErrSnapshotNotFound", err)
	}
}
