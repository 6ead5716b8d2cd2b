package networktable

import (
	"context"
	"net"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Redis tests run only against a live server: REDIS_ADDRESS=localhost:6379 go test ./...
func setupRedis(t *testing.T) (*RedisInstance, string) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	instance, err := NewRedisInstance(context.Background(), RedisOptions{Address: addr})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	name := "test-" + uuid.NewString()
	t.Cleanup(func() {
		instance.client.Del(context.Background(), RedisKeyPrefix+name)
		instance.Close()
	})
	return instance, name
}

func TestRedisTable_RoundTrip(t *testing.T) {
	instance, name := setupRedis(t)
	table := instance.Table(name)

	if err := table.SetNumber("centerX", 90); err != nil {
		t.Fatalf("SetNumber failed: %v", err)
	}
	if err := table.SetNumberArray("widths", []float64{20, 20}); err != nil {
		t.Fatalf("SetNumberArray failed: %v", err)
	}
	if err := table.SetBoolean("targetAcquired", true); err != nil {
		t.Fatalf("SetBoolean failed: %v", err)
	}

	if got := table.GetNumber("centerX", -1); got != 90 {
		t.Errorf("Expected 90, got %v", got)
	}
	if got := table.GetNumber("widths", -1); got != -1 {
		t.Errorf("Expected default for array key, got %v", got)
	}

	snapshot, err := table.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !reflect.DeepEqual(snapshot["widths"].Numbers, []float64{20, 20}) || !snapshot["targetAcquired"].Boolean {
		t.Errorf("Unexpected snapshot: %+v", snapshot)
	}

	names, err := instance.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	found := false
	for _, n := range names {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Errorf("Table %s not listed in %v", name, names)
	}
}

func TestDecodeValue_RejectsUnknownType(t *testing.T) {
	if _, err := decodeValue(`{"type":"string"}`); err == nil {
		t.Error("Expected error for unknown type")
	}
	v, err := decodeValue(`{"type":"number","number":3.5}`)
	if err != nil || v.Number != 3.5 {
		t.Errorf("Unexpected decode result %+v, %v", v, err)
	}
}

// silentListener accepts connections and never answers.
func silentListener(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})
	return listener.Addr().String()
}

func TestRedisInstance_UnresponsiveStoreCostsOneTimeoutPerCall(t *testing.T) {
	timeout := 100 * time.Millisecond
	instance := newRedisInstance(RedisOptions{Address: silentListener(t), Timeout: timeout})
	defer instance.Close()

	batch := Batch{}
	for _, key := range []string{"widths", "heights", "boxPositionX", "boxPositionY"} {
		batch.Set(TargetLocationsTable, key, NumberArray([]float64{20, 20}))
	}
	for _, key := range []string{"centerX", "distanceFromTarget", "getAngle"} {
		batch.Set(DataToSendTable, key, Number(1))
	}
	batch.Set(DataToSendTable, "targetAcquired", Boolean(true))

	// One frame: the tuning table read and the batched publish.
	start := time.Now()
	_, readErr := instance.Table(LiveWindowTable).Snapshot()
	publishErr := instance.Publish(batch)
	elapsed := time.Since(start)

	if readErr == nil || publishErr == nil {
		t.Fatalf("Expected errors from a silent store, got %v / %v", readErr, publishErr)
	}
	if elapsed > 8*timeout {
		t.Errorf("One frame of table traffic took %v against a silent store", elapsed)
	}
}

func TestRedisInstance_PublishBatch(t *testing.T) {
	instance, name := setupRedis(t)

	batch := Batch{}
	batch.Set(name, "centerX", Number(90))
	batch.Set(name, "widths", NumberArray([]float64{20, 20}))
	batch.Set(name, "targetAcquired", Boolean(true))
	if err := instance.Publish(batch); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	table := instance.Table(name)
	if got := table.GetNumber("centerX", -1); got != 90 {
		t.Errorf("Expected 90, got %v", got)
	}
	snapshot, err := table.Snapshot()
	if err != nil || !snapshot["targetAcquired"].Boolean || len(snapshot["widths"].Numbers) != 2 {
		t.Errorf("Unexpected snapshot %+v (%v)", snapshot, err)
	}
}
