package schema

// TypeBuilder is the builder for entity types.
type TypeBuilder struct {
	desc *EntityType
}

// Type returns a new entity type builder with the given name.
//
//	schema.Type("Order").
//	    Associations(
//	        schema.HasMany("line_items").Dependent(schema.DependentDeleteAll),
//	        schema.HasMany("comments").As("commentable").Dependent(schema.DependentDestroy),
//	    )
func Type(name string) *TypeBuilder {
	return &TypeBuilder{desc: &EntityType{Name: name}}
}

// Table sets the table name of the type.
func (b *TypeBuilder) Table(name string) *TypeBuilder {
	b.desc.Table = name
	return b
}

// PrimaryKey sets the primary-key column of the type.
func (b *TypeBuilder) PrimaryKey(column string) *TypeBuilder {
	b.desc.PrimaryKey = column
	return b
}

// TypeTag sets the value stored in polymorphic type columns for this type.
// Types sharing one table (single-table inheritance) usually store the tag
// of the base type.
func (b *TypeBuilder) TypeTag(tag string) *TypeBuilder {
	b.desc.TypeTag = tag
	return b
}

// Associations appends associations to the type, keeping declaration order.
func (b *TypeBuilder) Associations(assocs ...*AssociationBuilder) *TypeBuilder {
	for _, a := range assocs {
		b.desc.Associations = append(b.desc.Associations, a.Descriptor())
	}
	return b
}

// Descriptor implements the Typer interface. It returns nil for a nil builder.
func (b *TypeBuilder) Descriptor() *EntityType {
	if b == nil {
		return nil
	}
	return b.desc
}

// AssociationBuilder is the builder for associations.
type AssociationBuilder struct {
	desc *Association
}

// HasMany declares a to-many association whose target rows hold the foreign key.
func HasMany(name string) *AssociationBuilder {
	return &AssociationBuilder{desc: &Association{Name: name, Kind: KindHasMany}}
}

// HasOne declares a to-one association whose target row holds the foreign key.
func HasOne(name string) *AssociationBuilder {
	return &AssociationBuilder{desc: &Association{Name: name, Kind: KindHasOne}}
}

// BelongsTo declares an association whose foreign key lives on the declaring type.
func BelongsTo(name string) *AssociationBuilder {
	return &AssociationBuilder{desc: &Association{Name: name, Kind: KindBelongsTo}}
}

// Target sets the associated entity type name.
func (b *AssociationBuilder) Target(name string) *AssociationBuilder {
	b.desc.Target = name
	return b
}

// ForeignKey overrides the foreign-key column.
func (b *AssociationBuilder) ForeignKey(column string) *AssociationBuilder {
	b.desc.ForeignKey = column
	return b
}

// ForeignType overrides the polymorphic type column.
func (b *AssociationBuilder) ForeignType(column string) *AssociationBuilder {
	b.desc.ForeignType = column
	return b
}

// As marks the association as polymorphic-target through the named owner slot.
func (b *AssociationBuilder) As(slot string) *AssociationBuilder {
	b.desc.As = slot
	return b
}

// Polymorphic marks a BelongsTo association as a polymorphic owner.
func (b *AssociationBuilder) Polymorphic() *AssociationBuilder {
	b.desc.Polymorphic = true
	return b
}

// Dependent sets the cascade policy.
func (b *AssociationBuilder) Dependent(d Dependent) *AssociationBuilder {
	b.desc.Dependent = d
	return b
}

// Descriptor returns the association descriptor, or nil for a nil builder.
func (b *AssociationBuilder) Descriptor() *Association {
	if b == nil {
		return nil
	}
	return b.desc
}
