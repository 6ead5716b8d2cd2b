package tuning

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"visionserver/internal/service/networktable"
)

func TestRegistry_SetAndGet(t *testing.T) {
	r := NewPipelineRegistry()

	if err := r.Set(UpperHue, 120); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, _ := r.Get(UpperHue); v != 120 {
		t.Errorf("Expected 120, got %v", v)
	}
	if th := r.Thresholds(); th.UpperHue != 120 || th.LowerHue != 55 {
		t.Errorf("Unexpected thresholds: %+v", th)
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := NewPipelineRegistry()

	if err := r.Set("brightness", 10); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Expected ErrUnknownProperty, got %v", err)
	}
	if _, err := r.Get("brightness"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Expected ErrUnknownProperty, got %v", err)
	}
	if err := r.Set(UpperHue, 181); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if v, _ := r.Get(UpperHue); v != 95 {
		t.Errorf("Rejected value must not be stored, got %v", v)
	}
}

func TestRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	r := NewPipelineRegistry()

	var names []string
	for _, p := range r.List() {
		names = append(names, p.Name)
	}
	expected := []string{UpperHue, LowerHue, UpperSaturation, LowerSaturation, UpperValue, LowerValue, MinArea, MinWidth, MinHeight}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Unexpected order %v", names)
	}
}

func TestRegistry_BindMirrorsIntoTable(t *testing.T) {
	table := networktable.NewMemoryInstance().Table(networktable.LiveWindowTable)
	r := NewPipelineRegistry()
	if err := r.Bind(table); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if got := table.GetNumber(LowerValue, -1); got != 100 {
		t.Errorf("Expected mirrored lowerValue 100, got %v", got)
	}

	if err := r.Set(LowerValue, 80); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := table.GetNumber(LowerValue, -1); got != 80 {
		t.Errorf("Expected pushed lowerValue 80, got %v", got)
	}
}

func TestRegistry_PullAppliesRemoteEdits(t *testing.T) {
	table := networktable.NewMemoryInstance().Table(networktable.LiveWindowTable)
	r := NewPipelineRegistry()
	r.Bind(table)

	if changed, err := r.Pull(); err != nil || len(changed) != 0 {
		t.Errorf("Expected no changes right after bind, got %v (%v)", changed, err)
	}

	table.SetNumber(LowerHue, 40)
	table.SetNumber(UpperHue, 500)

	changed, err := r.Pull()
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if !reflect.DeepEqual(changed, []string{LowerHue}) {
		t.Errorf("Expected only lowerHue to change, got %v", changed)
	}
	if th := r.Thresholds(); th.LowerHue != 40 || th.UpperHue != 95 {
		t.Errorf("Unexpected thresholds after pull: %+v", th)
	}
	if got := table.GetNumber(UpperHue, -1); got != 95 {
		t.Errorf("Out-of-range remote edit should be overwritten, got %v", got)
	}
}

func TestRegistry_PullWithoutTable(t *testing.T) {
	if changed, err := NewPipelineRegistry().Pull(); changed != nil || err != nil {
		t.Errorf("Expected nil, got %v (%v)", changed, err)
	}
}

// offlineTable counts reads and rejects writes.
type offlineTable struct {
	networktable.Table
	mu        sync.Mutex
	snapshots int
	reads     int
	remote    map[string]networktable.Value
}

func (o *offlineTable) SetNumber(string, float64) error { return errors.New("offline") }

func (o *offlineTable) GetNumber(string, float64) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reads++
	return 0
}

func (o *offlineTable) Snapshot() (map[string]networktable.Value, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots++
	return o.remote, nil
}

func TestRegistry_MirrorFailuresAreReported(t *testing.T) {
	table := &offlineTable{}
	r := NewPipelineRegistry()

	if err := r.Bind(table); !errors.Is(err, ErrNotMirrored) {
		t.Errorf("Expected ErrNotMirrored from Bind, got %v", err)
	}

	err := r.Set(UpperHue, 120)
	if !errors.Is(err, ErrNotMirrored) {
		t.Errorf("Expected ErrNotMirrored from Set, got %v", err)
	}
	if v, _ := r.Get(UpperHue); v != 120 {
		t.Errorf("Value should be kept when only the mirror fails, got %v", v)
	}
}

func TestRegistry_PullReadsTableOnce(t *testing.T) {
	table := &offlineTable{remote: map[string]networktable.Value{
		LowerHue: networktable.Number(40),
		UpperHue: networktable.Number(500),
	}}
	r := NewPipelineRegistry()
	r.Bind(table)

	changed, err := r.Pull()
	if !reflect.DeepEqual(changed, []string{LowerHue}) {
		t.Errorf("Expected only lowerHue to change, got %v", changed)
	}
	if !errors.Is(err, ErrNotMirrored) {
		t.Errorf("Expected the rejected remote value to report a failed overwrite, got %v", err)
	}
	if table.snapshots != 1 || table.reads != 0 {
		t.Errorf("Expected a single table read per pull, got %d snapshots and %d key reads", table.snapshots, table.reads)
	}
}
