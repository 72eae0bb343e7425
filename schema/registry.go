package schema

import (
	"errors"
	"fmt"
	"slices"
)

// Registry is an immutable set of entity types, built once at startup.
// It answers two questions for the cascade resolver: which type does a name
// refer to, and which type does a stored polymorphic type tag refer to.
type Registry struct {
	types  []*EntityType
	byName map[string]*EntityType
	byTag  map[string]*EntityType
}

// NewRegistry validates the given types, fills conventional defaults and
// returns the registry. The descriptors are copied; later changes to the
// builders do not affect the registry.
//
// Targets of associations are not required to be registered. An association
// whose target is unknown is skipped by the resolver instead.
func NewRegistry(types ...Typer) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*EntityType, len(types)),
		byTag:  make(map[string]*EntityType, len(types)),
	}
	var errs []error
	for _, typ := range types {
		var desc *EntityType
		if typ != nil {
			desc = typ.Descriptor()
		}
		if desc == nil {
			errs = append(errs, &TypeError{Message: "nil type"})
			continue
		}
		if slices.Contains(desc.Associations, nil) {
			errs = append(errs, &AssociationError{Type: desc.Name, Message: "nil association"})
			continue
		}
		t := desc.clone()
		applyDefaults(t)
		if err := validateType(t); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := r.byName[t.Name]; ok {
			errs = append(errs, &DuplicateTypeError{Name: t.Name})
			continue
		}
		if _, ok := r.byTag[t.TypeTag]; ok {
			errs = append(errs, &DuplicateTypeError{Name: t.Name, Tag: t.TypeTag})
			continue
		}
		r.types = append(r.types, t)
		r.byName[t.Name] = t
		r.byTag[t.TypeTag] = t
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(types ...Typer) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return r
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*EntityType {
	return append([]*EntityType(nil), r.types...)
}

// Lookup returns the type registered under the given name.
func (r *Registry) Lookup(name string) (*EntityType, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Resolve returns the type a stored polymorphic type tag refers to. Tags are
// matched against type tags first and type names second. A false result
// means the tag is unresolved, e.g. a stale value of a removed type.
func (r *Registry) Resolve(tag string) (*EntityType, bool) {
	if t, ok := r.byTag[tag]; ok {
		return t, true
	}
	return r.Lookup(tag)
}

// Target returns the fixed target type of an association. It reports false
// for polymorphic owners and for targets that are not registered.
func (r *Registry) Target(a *Association) (*EntityType, bool) {
	if a.PolymorphicOwner() || a.Target == "" {
		return nil, false
	}
	return r.Lookup(a.Target)
}

// CascadeCycles returns the cycles of the static cascade graph, each as a
// path of type names starting and ending with the same type. Polymorphic
// owners have no static target and are not followed.
//
// Cycles are legal: a self-referencing tree such as categories owning
// sub-categories terminates once a level has no rows. The result is meant
// for diagnostics.
func (r *Registry) CascadeCycles() [][]string {
	var (
		cycles   [][]string
		stack    []string
		stackPos = make(map[string]int)
		done     = make(map[string]bool)
		visit    func(t *EntityType)
	)
	visit = func(t *EntityType) {
		stackPos[t.Name] = len(stack)
		stack = append(stack, t.Name)
		for _, a := range t.CascadeAssociations() {
			next, ok := r.Target(a)
			if !ok {
				continue
			}
			if pos, onStack := stackPos[next.Name]; onStack {
				cycle := append([]string(nil), stack[pos:]...)
				cycles = append(cycles, append(cycle, next.Name))
				continue
			}
			if !done[next.Name] {
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		delete(stackPos, t.Name)
		done[t.Name] = true
	}
	for _, t := range r.types {
		if !done[t.Name] {
			visit(t)
		}
	}
	return cycles
}

func validateType(t *EntityType) error {
	if t.Name == "" {
		return &TypeError{Message: "missing name"}
	}
	if !isValidIdentifier(t.Table) {
		return &TypeError{Type: t.Name, Message: fmt.Sprintf("invalid table name %q", t.Table)}
	}
	if !isValidIdentifier(t.PrimaryKey) {
		return &TypeError{Type: t.Name, Message: fmt.Sprintf("invalid primary key %q", t.PrimaryKey)}
	}
	seen := make(map[string]bool, len(t.Associations))
	for _, a := range t.Associations {
		if err := validateAssociation(t, a); err != nil {
			return err
		}
		if seen[a.Name] {
			return &AssociationError{Type: t.Name, Association: a.Name, Message: "declared twice"}
		}
		seen[a.Name] = true
	}
	return nil
}

func validateAssociation(t *EntityType, a *Association) error {
	fail := func(format string, args ...any) error {
		return &AssociationError{Type: t.Name, Association: a.Name, Message: fmt.Sprintf(format, args...)}
	}
	switch {
	case a.Name == "":
		return fail("missing name")
	case kindNames[a.Kind] == "":
		return fail("unknown kind %d", uint8(a.Kind))
	case !a.Dependent.valid():
		return fail("unknown dependent option %q", a.Dependent)
	case a.Polymorphic && a.Kind != KindBelongsTo:
		return fail("only belongs_to associations can be polymorphic")
	case a.As != "" && a.Kind == KindBelongsTo:
		return fail("belongs_to associations cannot declare an owner slot")
	case a.Polymorphic && a.Target != "":
		return fail("polymorphic owners cannot declare a fixed target")
	case !isValidIdentifier(a.ForeignKey):
		return fail("invalid foreign key %q", a.ForeignKey)
	case a.ForeignType != "" && !isValidIdentifier(a.ForeignType):
		return fail("invalid foreign type %q", a.ForeignType)
	}
	return nil
}
