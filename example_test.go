package recursedelete_test

import (
	"context"
	"fmt"
	"log"

	recursedelete "github.com/zaMmer83/recurse-delete"
	"github.com/zaMmer83/recurse-delete/dialect"
	"github.com/zaMmer83/recurse-delete/dialect/sql"
	"github.com/zaMmer83/recurse-delete/schema"
)

func ExampleResolver_RecurseDelete() {
	drv, err := sql.Open(dialect.SQLite, "file:example?mode=memory&_pragma=foreign_keys(1)")
	if err != nil {
		log.Fatal(err)
	}
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	if _, err := drv.DB().Exec(`
		CREATE TABLE orders (id INTEGER PRIMARY KEY);
		CREATE TABLE line_items (id INTEGER PRIMARY KEY, order_id INTEGER NOT NULL REFERENCES orders(id));
		CREATE TABLE comments (id INTEGER PRIMARY KEY, commentable_id INTEGER, commentable_type TEXT);
		INSERT INTO orders (id) VALUES (5);
		INSERT INTO line_items (id, order_id) VALUES (1, 5), (2, 5);
		INSERT INTO comments (id, commentable_id, commentable_type) VALUES (1, 5, 'Order'), (2, 5, 'Post');
	`); err != nil {
		log.Fatal(err)
	}

	reg := schema.MustRegistry(
		schema.Type("Order").Associations(
			schema.HasMany("line_items").Dependent(schema.DependentDeleteAll),
			schema.HasMany("comments").As("commentable").Dependent(schema.DependentDestroy),
		),
		schema.Type("LineItem"),
		schema.Type("Comment"),
	)
	stats := sql.NewStatsDriver(drv)
	resolver, err := recursedelete.New(stats, reg)
	if err != nil {
		log.Fatal(err)
	}
	if err := resolver.RecurseDelete(context.Background(), recursedelete.Ref("Order", 5)); err != nil {
		log.Fatal(err)
	}

	var comments int
	if err := drv.DB().QueryRow("SELECT COUNT(*) FROM comments").Scan(&comments); err != nil {
		log.Fatal(err)
	}
	fmt.Println("delete statements:", stats.QueryStats().Stats().TotalExecs)
	fmt.Println("comments left:", comments)
	// Output:
	// delete statements: 3
	// comments left: 1
}
