package recursedelete

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zaMmer83/recurse-delete/dialect"
	"github.com/zaMmer83/recurse-delete/dialect/sql"
	"github.com/zaMmer83/recurse-delete/schema"
)

const instrumentationName = "github.com/zaMmer83/recurse-delete"

// Entity is a record that can be the root of a cascading delete.
type Entity interface {
	// EntityType returns the registered type name of the record.
	EntityType() string
	// EntityID returns the primary-key value of the record.
	EntityID() any
}

// Ref returns an Entity referring to the row of the given type and id.
func Ref(typ string, id any) Entity {
	return ref{typ: typ, id: id}
}

type ref struct {
	typ string
	id  any
}

func (r ref) EntityType() string { return r.typ }
func (r ref) EntityID() any      { return r.id }

// IDs converts a typed slice of primary keys to an identifier set.
func IDs[T any](values []T) []any {
	ids := make([]any, len(values))
	for i, v := range values {
		ids[i] = v
	}
	return ids
}

// Resolver deletes records together with everything that depends on them
// through cascading associations, using one SELECT per traversed
// association and one bulk DELETE per reached type instead of loading
// records one by one. Per-record hooks of the host data layer do not run.
type Resolver struct {
	driver    dialect.Driver
	registry  *schema.Registry
	logger    *zap.Logger
	metrics   *metrics
	tracer    trace.Tracer
	batchSize int
	maxDepth  int
	txOptions *sql.TxOptions
}

// New returns a Resolver issuing statements through drv and walking the
// associations declared in reg.
func New(drv dialect.Driver, reg *schema.Registry, opts ...Option) (*Resolver, error) {
	if drv == nil {
		return nil, NewConfigError("Driver", nil, "driver cannot be nil")
	}
	if reg == nil {
		return nil, NewConfigError("Registry", nil, "registry cannot be nil")
	}
	if !dialect.Supported(drv.Dialect()) {
		return nil, NewConfigError("Driver", drv.Dialect(), "unsupported dialect")
	}
	r := &Resolver{
		driver:   drv,
		registry: reg,
		logger:   zap.NewNop(),
		tracer:   otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecurseDelete deletes the given record and every record reachable from it
// through cascading associations, children before parents, in one
// transaction. On failure the transaction is rolled back and the database
// is left unchanged.
func (r *Resolver) RecurseDelete(ctx context.Context, e Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	return r.RecurseDeleteIDs(ctx, e.EntityType(), e.EntityID())
}

// RecurseDeleteIDs is like RecurseDelete for a set of root records of one type.
func (r *Resolver) RecurseDeleteIDs(ctx context.Context, typeName string, ids ...any) (err error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "recursedelete.RecurseDelete", trace.WithAttributes(
		attribute.String("recursedelete.type", t.Name),
		attribute.Int("recursedelete.ids", len(ids)),
	))
	defer func() { endSpan(span, err) }()

	r.logger.Debug("cascade delete", zap.String("type", t.Name), zap.Int("ids", len(ids)))
	return r.withTx(ctx, func(tx dialect.ExecQuerier) error {
		return r.newRun(tx).deleteRecursively(ctx, t, ids, 0)
	})
}

// DeleteRecursively runs one cascade inside a transaction owned by the
// caller. It neither commits nor rolls back tx.
func (r *Resolver) DeleteRecursively(ctx context.Context, tx dialect.ExecQuerier, typeName string, ids []any) error {
	t, err := r.lookup(typeName)
	if err != nil {
		return err
	}
	return r.newRun(tx).deleteRecursively(ctx, t, ids, 0)
}

// RecurseDeleteAll deletes every row of the given type, then every row of
// each type reachable from it through cascading associations, in one
// transaction. Each type is wiped at most once per call.
func (r *Resolver) RecurseDeleteAll(ctx context.Context, typeName string) (err error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "recursedelete.RecurseDeleteAll", trace.WithAttributes(
		attribute.String("recursedelete.type", t.Name),
	))
	defer func() { endSpan(span, err) }()

	r.logger.Debug("cascade delete all", zap.String("type", t.Name))
	return r.withTx(ctx, func(tx dialect.ExecQuerier) error {
		return r.newRun(tx).deleteAll(ctx, t)
	})
}

func (r *Resolver) lookup(name string) (*schema.EntityType, error) {
	t, ok := r.registry.Lookup(name)
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return t, nil
}

// withTx runs fn in a new transaction, committing on success and rolling
// back on error or panic.
func (r *Resolver) withTx(ctx context.Context, fn func(dialect.ExecQuerier) error) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return &StepError{Op: "begin", Err: err}
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, &RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &StepError{Op: "commit", Err: err}
	}
	return nil
}

func (r *Resolver) beginTx(ctx context.Context) (dialect.Tx, error) {
	if b, ok := r.driver.(sql.TxBeginner); ok && r.txOptions != nil {
		return b.BeginTx(ctx, r.txOptions)
	}
	return r.driver.Tx(ctx)
}

// run holds the state of one cascade: the transaction handle and the
// records already scheduled for deletion.
type run struct {
	*Resolver
	tx      dialect.ExecQuerier
	dialect string
	builder sq.StatementBuilderType
	seen    map[string]map[string]struct{}
	wiped   map[string]bool
}

func (r *Resolver) newRun(tx dialect.ExecQuerier) *run {
	name := r.driver.Dialect()
	return &run{
		Resolver: r,
		tx:       tx,
		dialect:  name,
		builder:  sql.Builder(name),
		seen:     make(map[string]map[string]struct{}),
		wiped:    make(map[string]bool),
	}
}

// owners are the rows a BelongsTo association points at, collected before
// the referencing rows are deleted and cascaded into afterwards.
type owners struct {
	target *schema.EntityType
	ids    []any
}

// deleteRecursively deletes the rows of t identified by ids after all rows
// depending on them. Ids already scheduled in this run are dropped, which
// bounds the recursion on self-referencing data.
func (r *run) deleteRecursively(ctx context.Context, t *schema.EntityType, ids []any, depth int) (err error) {
	ids = r.unseen(t, ids)
	if len(ids) == 0 {
		return nil
	}
	if r.maxDepth > 0 && depth > r.maxDepth {
		return fmt.Errorf("%w: type %s at depth %d", ErrMaxDepth, t.Name, depth)
	}
	ctx, span := r.tracer.Start(ctx, "recursedelete.step", trace.WithAttributes(
		attribute.String("recursedelete.type", t.Name),
		attribute.Int("recursedelete.ids", len(ids)),
		attribute.Int("recursedelete.depth", depth),
	))
	defer func() { endSpan(span, err) }()

	var later []owners
	for _, a := range t.CascadeAssociations() {
		switch {
		case a.PolymorphicOwner():
			err = r.cascadeOwners(ctx, t, a, ids, depth)
		case a.Kind == schema.KindBelongsTo:
			var o *owners
			if o, err = r.collectOwners(ctx, t, a, ids); o != nil {
				later = append(later, *o)
			}
		default:
			err = r.cascadeDependents(ctx, t, a, ids, depth)
		}
		if err != nil {
			return err
		}
	}
	if err := r.deleteIDs(ctx, t, ids); err != nil {
		return err
	}
	for _, o := range later {
		if err := r.deleteRecursively(ctx, o.target, o.ids, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// cascadeOwners follows a polymorphic owner: the owner ids are grouped by
// their stored type tag and each group is deleted as rows of the resolved
// type. Groups with a tag the registry cannot resolve are skipped.
func (r *run) cascadeOwners(ctx context.Context, t *schema.EntityType, a *schema.Association, ids []any, depth int) error {
	var (
		tags   []string
		groups = make(map[string][]any)
	)
	for _, chunk := range r.chunks(ids) {
		rows, err := r.query(ctx, t, r.builder.
			Select(a.ForeignType, a.ForeignKey).
			From(t.Table).
			Where(sql.In(r.dialect, t.PrimaryKey, chunk)))
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row[0] == nil || row[1] == nil {
				continue
			}
			tag := fmt.Sprint(row[0])
			if _, ok := groups[tag]; !ok {
				tags = append(tags, tag)
			}
			groups[tag] = append(groups[tag], row[1])
		}
	}
	for _, tag := range tags {
		target, ok := r.registry.Resolve(tag)
		if !ok {
			r.skip(skipUnresolvedType, t, a, zap.String("type_tag", tag), zap.Int("rows", len(groups[tag])))
			continue
		}
		if err := r.deleteRecursively(ctx, target, groups[tag], depth+1); err != nil {
			return err
		}
	}
	return nil
}

// collectOwners reads the owner ids of a BelongsTo with a fixed target.
// The owners are deleted after the referencing rows, as the foreign key
// points from those rows to the owners.
func (r *run) collectOwners(ctx context.Context, t *schema.EntityType, a *schema.Association, ids []any) (*owners, error) {
	target, ok := r.registry.Target(a)
	if !ok {
		r.skip(skipIncompleteAssociation, t, a, zap.String("target", a.Target))
		return nil, nil
	}
	var found []any
	for _, chunk := range r.chunks(ids) {
		rows, err := r.query(ctx, t, r.builder.
			Select(a.ForeignKey).
			From(t.Table).
			Where(sql.In(r.dialect, t.PrimaryKey, chunk)))
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row[0] != nil {
				found = append(found, row[0])
			}
		}
	}
	return &owners{target: target, ids: found}, nil
}

// cascadeDependents follows a HasMany or HasOne association, optionally
// restricted to rows whose owner slot is tagged with t.
func (r *run) cascadeDependents(ctx context.Context, t *schema.EntityType, a *schema.Association, ids []any, depth int) error {
	target, ok := r.registry.Target(a)
	if !ok || a.ForeignKey == "" || (a.PolymorphicTarget() && a.ForeignType == "") {
		r.skip(skipIncompleteAssociation, t, a, zap.String("target", a.Target))
		return nil
	}
	var found []any
	for _, chunk := range r.chunks(ids) {
		q := r.builder.
			Select(target.PrimaryKey).
			From(target.Table).
			Where(sql.In(r.dialect, a.ForeignKey, chunk))
		if a.PolymorphicTarget() {
			q = q.Where(sql.EQ(a.ForeignType, t.TypeTag))
		}
		rows, err := r.query(ctx, target, q)
		if err != nil {
			return err
		}
		for _, row := range rows {
			found = append(found, row[0])
		}
	}
	return r.deleteRecursively(ctx, target, found, depth+1)
}

func (r *run) deleteIDs(ctx context.Context, t *schema.EntityType, ids []any) error {
	for _, chunk := range r.chunks(ids) {
		if err := r.exec(ctx, t, r.builder.
			Delete(t.Table).
			Where(sql.In(r.dialect, t.PrimaryKey, chunk))); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) deleteAll(ctx context.Context, t *schema.EntityType) error {
	if r.wiped[t.Name] {
		return nil
	}
	r.wiped[t.Name] = true
	if err := r.exec(ctx, t, r.builder.Delete(t.Table)); err != nil {
		return err
	}
	for _, a := range t.CascadeAssociations() {
		if a.PolymorphicOwner() {
			r.skip(skipPolymorphicOwner, t, a)
			continue
		}
		target, ok := r.registry.Target(a)
		if !ok {
			r.skip(skipIncompleteAssociation, t, a, zap.String("target", a.Target))
			continue
		}
		if err := r.deleteAll(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) query(ctx context.Context, t *schema.EntityType, stmt sq.Sqlizer) ([][]any, error) {
	r.metrics.statement("select")
	rows, err := sql.QueryValues(ctx, r.tx, stmt)
	if err != nil {
		return nil, &StepError{Type: t.Name, Op: "select", Err: err}
	}
	return rows, nil
}

func (r *run) exec(ctx context.Context, t *schema.EntityType, stmt sq.Sqlizer) error {
	r.metrics.statement("delete")
	n, err := sql.ExecAffected(ctx, r.tx, stmt)
	if err != nil {
		return &StepError{Type: t.Name, Op: "delete", Err: err}
	}
	r.metrics.deleted(t.Name, n)
	r.logger.Debug("deleted rows", zap.String("type", t.Name), zap.Int64("rows", n))
	return nil
}

func (r *run) skip(reason string, t *schema.EntityType, a *schema.Association, fields ...zap.Field) {
	r.metrics.skip(reason)
	r.logger.Warn("skipping cascade branch", append([]zap.Field{
		zap.String("reason", reason),
		zap.String("type", t.Name),
		zap.String("association", a.Name),
	}, fields...)...)
}

// unseen returns the ids of t not scheduled yet in this run and marks them.
func (r *run) unseen(t *schema.EntityType, ids []any) []any {
	seen, ok := r.seen[t.Name]
	if !ok {
		seen = make(map[string]struct{}, len(ids))
		r.seen[t.Name] = seen
	}
	fresh := make([]any, 0, len(ids))
	for _, id := range ids {
		k := idKey(id)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, id)
	}
	return fresh
}

func (r *run) chunks(ids []any) [][]any {
	if r.batchSize <= 0 || len(ids) <= r.batchSize {
		return [][]any{ids}
	}
	chunks := make([][]any, 0, (len(ids)+r.batchSize-1)/r.batchSize)
	for len(ids) > 0 {
		n := min(r.batchSize, len(ids))
		chunks = append(chunks, ids[:n:n])
		ids = ids[n:]
	}
	return chunks
}

// idKey returns a comparable key for a primary-key value. Integers of
// different widths map to the same key.
func idKey(id any) string {
	switch v := id.(type) {
	case int:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int32:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int64:
		return "i:" + strconv.FormatInt(v, 10)
	case uint:
		return "i:" + strconv.FormatUint(uint64(v), 10)
	case uint32:
		return "i:" + strconv.FormatUint(uint64(v), 10)
	case uint64:
		return "i:" + strconv.FormatUint(v, 10)
	case string:
		return "s:" + v
	default:
		return fmt.Sprintf("%T:%v", id, id)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
