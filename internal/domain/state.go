package domain

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Key is a type-safe generic key for accessing values in State. The
// type parameter ensures compile-time type safety when getting and
// setting values, so stages never need runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a Key with the given name and type, for callers that
// need to stash auxiliary values alongside the predefined keys.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Predefined state keys used by the formation pipeline. Each key is
// strongly typed so stage code stays assertion-free.
var (
	// KeyRoster stores the immutable input roster snapshot.
	KeyRoster = Key[[]Competitor]{"roster"}

	// KeyResolved stores the batch weight-resolution output, one entry
	// per roster competitor, before seeding.
	KeyResolved = Key[[]ResolvedCompetitor]{"resolved"}

	// KeyTeams stores the teams as they fill during seeding and
	// optimization.
	KeyTeams = Key[[]Team]{"teams"}

	// KeyResidual stores the competitors still awaiting assignment
	// after captains are seeded.
	KeyResidual = Key[[]ResolvedCompetitor]{"residual"}

	// KeySubstitutes stores roster overflow that could not fit the
	// configured team shape.
	KeySubstitutes = Key[[]ResolvedCompetitor]{"substitutes"}

	// KeyDecisions stores the append-only decision log.
	KeyDecisions = Key[[]DecisionStep]{"decisions"}

	// KeyMetrics stores the final balance metrics once analysis runs.
	KeyMetrics = Key[*BalanceMetrics]{"metrics"}

	// KeySuggestions stores optional redistribution suggestions.
	KeySuggestions = Key[[]SwapSuggestion]{"suggestions"}

	// KeyRunID stores the unique identifier of this run for tracing
	// and correlation.
	KeyRunID = Key[string]{"run.id"}
)

// State is an immutable collection of run data that flows through the
// formation pipeline. Copy-on-write semantics keep stages honest: a
// stage can only publish results by returning a new State.
type State struct {
	data map[string]any
}

// NewState creates an empty State ready for use.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a value from the State with compile-time type safety.
// The returned value is a deep copy, so callers cannot mutate state
// contents in place.
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}
	copied, ok := deepCopy(value).(T)
	if !ok {
		return zero, false
	}
	return copied, true
}

// With returns a new State with the key set to a deep copy of value.
// The receiver is left unchanged.
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = deepCopy(value)
	return State{data: newData}
}

// Keys returns the names of all keys present in the State, in
// unspecified order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// String renders the State for debugging.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// deepCopy clones a value so State contents cannot be mutated through
// retained references. Slices, maps, pointers, and exported struct
// fields are copied recursively; primitives pass through by value.
func deepCopy(value any) any {
	if value == nil {
		return nil
	}
	if t, ok := value.(time.Time); ok {
		return t
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(reflect.ValueOf(deepCopy(v.Index(i).Interface())))
		}
		return out.Interface()

	case reflect.Map:
		if v.IsNil() {
			return value
		}
		out := reflect.MakeMap(v.Type())
		for _, k := range v.MapKeys() {
			out.SetMapIndex(k, reflect.ValueOf(deepCopy(v.MapIndex(k).Interface())))
		}
		return out.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return value
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(reflect.ValueOf(deepCopy(v.Elem().Interface())))
		return out.Interface()

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(reflect.ValueOf(deepCopy(v.Field(i).Interface())))
			}
		}
		return out.Interface()

	default:
		return value
	}
}
