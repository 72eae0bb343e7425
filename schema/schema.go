package schema

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Kind is the relationship kind of an association.
type Kind uint8

// Association kinds.
const (
	KindHasMany Kind = iota + 1
	KindHasOne
	KindBelongsTo
)

var kindNames = map[Kind]string{
	KindHasMany:   "has_many",
	KindHasOne:    "has_one",
	KindBelongsTo: "belongs_to",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses the snake_case name of a kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("schema: unknown association kind %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Dependent is the cascade policy of an association. The values mirror the
// dependent options of record-oriented ORMs; only the delete and destroy
// variants cascade.
type Dependent string

// Cascade policies.
const (
	DependentNone       Dependent = ""
	DependentDelete     Dependent = "delete"
	DependentDeleteAll  Dependent = "delete_all"
	DependentDestroy    Dependent = "destroy"
	DependentDestroyAll Dependent = "destroy_all"
	DependentNullify    Dependent = "nullify"
	DependentRestrict   Dependent = "restrict"
)

// Cascades reports whether rows reached through the association are
// deleted together with their parent.
func (d Dependent) Cascades() bool {
	switch d {
	case DependentDelete, DependentDeleteAll, DependentDestroy, DependentDestroyAll:
		return true
	}
	return false
}

func (d Dependent) valid() bool {
	return d.Cascades() || d == DependentNone || d == DependentNullify || d == DependentRestrict
}

// Association describes a relationship from one entity type to another.
type Association struct {
	// Name of the association, e.g. "line_items" or "owner".
	Name string `yaml:"name"`
	// Kind of the relationship.
	Kind Kind `yaml:"kind"`
	// Dependent is the cascade policy.
	Dependent Dependent `yaml:"dependent,omitempty"`
	// Target is the name of the associated entity type. Empty for
	// polymorphic owners, whose target is read from ForeignType per row.
	Target string `yaml:"target,omitempty"`
	// ForeignKey is the column holding the reference. It lives on the
	// target type for HasOne and HasMany, and on the declaring type
	// for BelongsTo.
	ForeignKey string `yaml:"foreign_key,omitempty"`
	// ForeignType is the column holding the type tag of a polymorphic
	// reference.
	ForeignType string `yaml:"foreign_type,omitempty"`
	// As names the generic owner slot the target implements, making this
	// a polymorphic-target association ("has_many :comments, as: :commentable").
	As string `yaml:"as,omitempty"`
	// Polymorphic marks a BelongsTo whose target varies per row.
	Polymorphic bool `yaml:"polymorphic,omitempty"`
}

// Cascades reports whether the association is traversed by a cascade delete.
func (a *Association) Cascades() bool {
	return a.Dependent.Cascades()
}

// PolymorphicOwner reports whether the declaring type holds a reference
// that may point to any of several types.
func (a *Association) PolymorphicOwner() bool {
	return a.Kind == KindBelongsTo && a.Polymorphic
}

// PolymorphicTarget reports whether the target rows reference the
// declaring type through a generic owner slot.
func (a *Association) PolymorphicTarget() bool {
	return a.As != ""
}

// EntityType is a record kind with a primary key and declared associations.
type EntityType struct {
	// Name identifies the type in the registry, e.g. "LineItem".
	Name string `yaml:"name"`
	// Table defaults to the pluralized snake_case name.
	Table string `yaml:"table,omitempty"`
	// PrimaryKey defaults to "id".
	PrimaryKey string `yaml:"primary_key,omitempty"`
	// TypeTag is the value stored in polymorphic type columns for rows of
	// this type. Defaults to Name.
	TypeTag string `yaml:"type_tag,omitempty"`
	// Associations in declaration order.
	Associations []*Association `yaml:"associations,omitempty"`
}

// Descriptor implements the Typer interface.
func (t *EntityType) Descriptor() *EntityType {
	return t
}

// CascadeAssociations returns the cascading associations in declaration order.
func (t *EntityType) CascadeAssociations() []*Association {
	var assocs []*Association
	for _, a := range t.Associations {
		if a.Cascades() {
			assocs = append(assocs, a)
		}
	}
	return assocs
}

// Association returns the association with the given name.
func (t *EntityType) Association(name string) (*Association, bool) {
	i := slices.IndexFunc(t.Associations, func(a *Association) bool { return a.Name == name })
	if i < 0 {
		return nil, false
	}
	return t.Associations[i], true
}

func (t *EntityType) clone() *EntityType {
	c := *t
	c.Associations = make([]*Association, len(t.Associations))
	for i, a := range t.Associations {
		ac := *a
		c.Associations[i] = &ac
	}
	return &c
}

// Typer is implemented by values that describe an entity type, such as the
// builder returned by Type or an *EntityType loaded from configuration.
type Typer interface {
	Descriptor() *EntityType
}
