// Package recursedelete deletes records together with their dependent
// subtrees using bulk SQL statements.
//
// A record-oriented data layer destroys a dependent graph one record at a
// time, running hooks and validations for each. For large graphs that is
// slow. The Resolver walks the cascading associations declared in a
// schema.Registry instead and issues one SELECT per association and one
// DELETE ... WHERE id IN (...) per reached type, children before parents,
// all inside a single transaction. No per-record hooks run.
//
// # Quick Start
//
//	reg := schema.MustRegistry(
//	    schema.Type("Order").Associations(
//	        schema.HasMany("line_items").Dependent(schema.DependentDeleteAll),
//	        schema.HasMany("comments").As("commentable").Dependent(schema.DependentDestroy),
//	    ),
//	    schema.Type("LineItem"),
//	    schema.Type("Comment"),
//	)
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//	    return err
//	}
//	resolver, err := recursedelete.New(drv, reg, recursedelete.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	// DELETE line_items of order 5, its comments, then the order.
//	err = resolver.RecurseDelete(ctx, recursedelete.Ref("Order", 5))
//
// # Traversal
//
// For every cascading association of a type, in declaration order:
//
//   - HasMany / HasOne: the dependent ids are selected by foreign key
//     (plus the type column for polymorphic targets) and deleted recursively.
//   - BelongsTo polymorphic: the referenced ids are grouped by stored type
//     tag, each tag is resolved through the registry and each group deleted
//     recursively. Unknown tags are logged and skipped.
//   - BelongsTo: the referenced ids are deleted after the referencing rows.
//
// Finally the rows of the type itself are deleted. Branches whose metadata
// cannot produce a filter are skipped rather than failing the operation.
// Any database error rolls back the whole transaction.
//
// # Type-Level Deletes
//
// RecurseDeleteAll empties a table and every table reachable from it
// through cascading associations.
package recursedelete
