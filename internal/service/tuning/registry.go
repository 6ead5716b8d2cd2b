package tuning

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"visionserver/internal/service/networktable"
)

var (
	// ErrNotMirrored is returned when a value was stored but could not be written to the table.
	ErrNotMirrored = errors.New("property not mirrored to table")
	// ErrUnknownProperty is returned for a property name that was never registered.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrOutOfRange is returned when a value lies outside the property's bounds.
	ErrOutOfRange = errors.New("value out of range")
)

// Property is a named live-editable number with inclusive bounds.
type Property struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Registry holds live-editable properties. Values may be changed from the HTTP
// console or by a remote writer of the bound table, and the processing loop reads
// the latest value every frame.
type Registry struct {
	properties map[string]*Property
	order      []string
	table      networktable.Table
	lastPushed map[string]float64
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		properties: make(map[string]*Property),
		lastPushed: make(map[string]float64),
	}
}

// Add registers a property. Registering a name twice replaces its bounds and value.
// Properties added after Bind are mirrored immediately.
func (r *Registry) Add(name string, value, min, max float64) error {
	r.mu.Lock()
	if _, exists := r.properties[name]; !exists {
		r.order = append(r.order, name)
	}
	r.properties[name] = &Property{Name: name, Value: value, Min: min, Max: max}
	table := r.table
	r.mu.Unlock()

	return r.push(table, name, value)
}

// Get returns the current value of a property.
func (r *Registry) Get(name string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.properties[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return p.Value, nil
}

// Set validates and stores a new value and mirrors it into the bound table.
// When only the mirror fails the value is kept and the error wraps ErrNotMirrored.
func (r *Registry) Set(name string, value float64) error {
	r.mu.Lock()
	p, ok := r.properties[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	if math.IsNaN(value) || value < p.Min || value > p.Max {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s=%v not in [%v, %v]", ErrOutOfRange, name, value, p.Min, p.Max)
	}
	p.Value = value
	table := r.table
	r.mu.Unlock()

	return r.push(table, name, value)
}

// List returns a copy of all properties in registration order.
func (r *Registry) List() []Property {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Property, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, *r.properties[name])
	}
	return list
}

// Bind mirrors every property into table and remembers it for Pull.
func (r *Registry) Bind(table networktable.Table) error {
	r.mu.Lock()
	r.table = table
	values := make(map[string]float64, len(r.order))
	for _, name := range r.order {
		values[name] = r.properties[name].Value
	}
	r.mu.Unlock()

	var errs []error
	for name, value := range values {
		errs = append(errs, r.push(table, name, value))
	}
	return errors.Join(errs...)
}

// Pull applies values that a remote writer changed in the bound table since the
// last push, reading the whole table once. Out-of-range remote values are
// overwritten with the current value. It returns the names of the properties
// that changed.
func (r *Registry) Pull() ([]string, error) {
	r.mu.RLock()
	table := r.table
	r.mu.RUnlock()

	if table == nil {
		return nil, nil
	}

	remote, err := table.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning table: %w", err)
	}

	var changed []string
	rejected := make(map[string]float64)

	r.mu.Lock()
	for _, name := range r.order {
		v, ok := remote[name]
		if !ok || v.Type != networktable.TypeNumber || v.Number == r.lastPushed[name] {
			continue
		}

		p := r.properties[name]
		if math.IsNaN(v.Number) || v.Number < p.Min || v.Number > p.Max {
			rejected[name] = p.Value
			continue
		}
		p.Value = v.Number
		r.lastPushed[name] = v.Number
		changed = append(changed, name)
	}
	r.mu.Unlock()

	var errs []error
	for name, value := range rejected {
		errs = append(errs, r.push(table, name, value))
	}
	return changed, errors.Join(errs...)
}

func (r *Registry) push(table networktable.Table, name string, value float64) error {
	if table == nil {
		return nil
	}
	if err := table.SetNumber(name, value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotMirrored, name, err)
	}

	r.mu.Lock()
	r.lastPushed[name] = value
	r.mu.Unlock()
	return nil
}
