// Package schema declares the entity types and associations walked by the
// cascade resolver.
//
// The schema is an explicit, statically registered description of the
// database: a Registry maps every entity type name to its table, primary key,
// polymorphic type tag and ordered list of associations. It is built once at
// startup and never changes afterwards.
//
// # Declaring Types
//
//	reg, err := schema.NewRegistry(
//	    schema.Type("Order").Associations(
//	        schema.HasMany("line_items").Dependent(schema.DependentDeleteAll),
//	        schema.HasMany("comments").As("commentable").Dependent(schema.DependentDestroy),
//	    ),
//	    schema.Type("LineItem"),
//	    schema.Type("Comment"),
//	    schema.Type("Attachment").Associations(
//	        schema.BelongsTo("owner").Polymorphic().Dependent(schema.DependentDelete),
//	    ),
//	)
//
// # Association Kinds
//
//   - HasMany, HasOne: the target rows hold the foreign key.
//   - HasMany(...).As(slot): polymorphic target; the target rows hold
//     <slot>_id and <slot>_type, and only rows tagged with the declaring
//     type are matched.
//   - BelongsTo: the declaring rows hold the foreign key.
//   - BelongsTo(...).Polymorphic(): polymorphic owner; the target type is
//     read per row from <name>_type and resolved through the registry.
//
// # Conventions
//
// Empty names are filled with the usual conventions:
//
//	table          Tableize(type)         "LineItem"  -> "line_items"
//	foreign key    ForeignKey(owner)      "Order"     -> "order_id"
//	target type    Typeify(association)   "line_items" -> "LineItem"
//	type tag       type name              "Order"
//
// # Configuration Files
//
// LoadYAML and LoadFile build a registry from YAML using the same field names
// as the EntityType and Association structs.
package schema
