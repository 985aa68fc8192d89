package uvw

import "reflect"

// typeID is the dense index assigned to an event payload type, used to
// address the handler table of an Emitter directly.
type typeID int

// Registry assigns every distinct event payload type a stable small
// integer, lazily on first use. Identifiers are dense, start at zero and
// remain valid for the lifetime of the Registry.
//
// Emitters sharing a Registry share identifiers. A Registry is not safe
// for concurrent use; like the emitters built on top of it, it belongs to
// a single goroutine, usually the one driving a Loop.
type Registry struct {
	ids map[reflect.Type]typeID
}

// NewRegistry creates an empty Registry and returns a pointer to it.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[reflect.Type]typeID)}
}

// id returns the identifier of t, assigning the next dense one on first
// sight.
func (r *Registry) id(t reflect.Type) typeID {
	id, ok := r.ids[t]
	if !ok {
		id = typeID(len(r.ids))
		r.ids[t] = id
	}
	return id
}

// lookup reports the identifier assigned to t, if any. It never assigns
// a new one.
func (r *Registry) lookup(t reflect.Type) (typeID, bool) {
	id, ok := r.ids[t]
	return id, ok
}

// Len reports how many event types have been assigned an identifier.
func (r *Registry) Len() int {
	return len(r.ids)
}

// typeOf resolves the reflect.Type of E without allocating a value of it.
func typeOf[E any]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}
