package schema

import (
	"regexp"

	"github.com/go-openapi/inflect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name).
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// TableName returns the conventional table name of a type: "LineItem" -> "line_items".
func TableName(typeName string) string {
	return inflect.Tableize(typeName)
}

// ForeignKey returns the conventional foreign-key column referencing a type:
// "Order" -> "order_id".
func ForeignKey(typeName string) string {
	return inflect.ForeignKey(typeName)
}

// TypeName returns the conventional type name of an association:
// "line_items" -> "LineItem".
func TypeName(assocName string) string {
	return inflect.Typeify(assocName)
}

// applyDefaults fills the conventional names left empty on a type
// and its associations.
func applyDefaults(t *EntityType) {
	if t.Table == "" {
		t.Table = TableName(t.Name)
	}
	if t.PrimaryKey == "" {
		t.PrimaryKey = "id"
	}
	if t.TypeTag == "" {
		t.TypeTag = t.Name
	}
	for _, a := range t.Associations {
		switch {
		case a.PolymorphicOwner():
			if a.ForeignKey == "" {
				a.ForeignKey = a.Name + "_id"
			}
			if a.ForeignType == "" {
				a.ForeignType = a.Name + "_type"
			}
		case a.Kind == KindBelongsTo:
			if a.Target == "" {
				a.Target = TypeName(a.Name)
			}
			if a.ForeignKey == "" {
				a.ForeignKey = a.Name + "_id"
			}
		case a.PolymorphicTarget():
			if a.Target == "" {
				a.Target = TypeName(a.Name)
			}
			if a.ForeignKey == "" {
				a.ForeignKey = a.As + "_id"
			}
			if a.ForeignType == "" {
				a.ForeignType = a.As + "_type"
			}
		default:
			if a.Target == "" {
				a.Target = TypeName(a.Name)
			}
			if a.ForeignKey == "" {
				a.ForeignKey = ForeignKey(t.Name)
			}
		}
	}
}
