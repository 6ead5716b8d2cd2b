package networktable

import (
	"errors"
	"fmt"
)

const (
	// TargetLocationsTable holds the per-contour bounding box arrays.
	TargetLocationsTable = "Target Locations"
	// DataToSendTable holds the per-frame geometry scalars.
	DataToSendTable = "dataToSend"
	// LiveWindowTable mirrors the live-tunable pipeline properties.
	LiveWindowTable = "LiveWindow/cameraServerSubsystem/cameraServer"
)

// ValueType tags the kind of value stored under a key.
type ValueType string

const (
	TypeNumber      ValueType = "number"
	TypeNumberArray ValueType = "numberArray"
	TypeBoolean     ValueType = "boolean"
)

// ErrWrongType is returned when a key holds a value of another type.
var ErrWrongType = errors.New("value has wrong type")

// Value is a single entry of a table.
type Value struct {
	Type    ValueType `json:"type"`
	Number  float64   `json:"number,omitempty"`
	Numbers []float64 `json:"numbers,omitempty"`
	Boolean bool      `json:"boolean,omitempty"`
}

// Number, NumberArray and Boolean build typed values for a Batch.
func Number(v float64) Value { return Value{Type: TypeNumber, Number: v} }

func NumberArray(v []float64) Value { return Value{Type: TypeNumberArray, Numbers: v} }

func Boolean(v bool) Value { return Value{Type: TypeBoolean, Boolean: v} }

// Batch groups writes by table name so one frame reaches the store in a single round trip.
type Batch map[string]map[string]Value

// Set queues value under table/key.
func (b Batch) Set(table, key string, value Value) {
	values, ok := b[table]
	if !ok {
		values = make(map[string]Value)
		b[table] = values
	}
	values[key] = value
}

// Table is a named group of keys. Writes are fire-and-forget from the caller's view:
// an error only reports that this write did not reach the store.
type Table interface {
	Name() string
	SetNumber(key string, value float64) error
	SetNumberArray(key string, values []float64) error
	SetBoolean(key string, value bool) error
	// GetNumber returns the stored number, or def when the key is missing or not a number.
	GetNumber(key string, def float64) float64
	Snapshot() (map[string]Value, error)
}

// Instance is a connection to a network table store.
type Instance interface {
	Table(name string) Table
	Tables() ([]string, error)
	// Publish writes every value of batch in one operation.
	Publish(batch Batch) error
	Close() error
}

// TeamAddress returns the robot controller address for an FRC team number, 10.TE.AM.2.
func TeamAddress(team int) string {
	return fmt.Sprintf("10.%d.%d.2", team/100, team%100)
}
