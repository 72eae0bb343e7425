package recursedelete_test

import (
	"context"
	stdsql "database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	recursedelete "github.com/zaMmer83/recurse-delete"
	"github.com/zaMmer83/recurse-delete/dialect"
	"github.com/zaMmer83/recurse-delete/dialect/sql"
	"github.com/zaMmer83/recurse-delete/schema"
)

func TestNew(t *testing.T) {
	drv, _ := newMock(t, dialect.SQLite)
	reg := shopRegistry(t)

	tests := []struct {
		name   string
		drv    dialect.Driver
		reg    bool
		opts   []recursedelete.Option
		option string
	}{
		{name: "nil_driver", reg: true, option: "Driver"},
		{name: "nil_registry", drv: drv, option: "Registry"},
		{name: "unsupported_dialect", drv: sql.OpenDB("oracle", nil), reg: true, option: "Driver"},
		{name: "nil_logger", drv: drv, reg: true, opts: []recursedelete.Option{recursedelete.WithLogger(nil)}, option: "Logger"},
		{name: "nil_registerer", drv: drv, reg: true, opts: []recursedelete.Option{recursedelete.WithMetrics(nil)}, option: "Metrics"},
		{name: "nil_tracer_provider", drv: drv, reg: true, opts: []recursedelete.Option{recursedelete.WithTracerProvider(nil)}, option: "TracerProvider"},
		{name: "negative_batch_size", drv: drv, reg: true, opts: []recursedelete.Option{recursedelete.WithBatchSize(-1)}, option: "BatchSize"},
		{name: "negative_max_depth", drv: drv, reg: true, opts: []recursedelete.Option{recursedelete.WithMaxDepth(-3)}, option: "MaxDepth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r *schema.Registry
			if tt.reg {
				r = reg
			}
			res, err := recursedelete.New(tt.drv, r, tt.opts...)
			require.Nil(t, res)
			require.ErrorIs(t, err, recursedelete.ErrInvalidConfig)
			var cfgErr *recursedelete.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		r, err := recursedelete.New(drv, reg)
		require.NoError(t, err)
		require.NotNil(t, r)
	})
}

func TestWithMetrics(t *testing.T) {
	drv, mock := newMock(t, dialect.SQLite)
	reg := prometheus.NewRegistry()
	r := newResolver(t, drv, recursedelete.WithMetrics(reg))

	// A second resolver on the same registry shares the counters.
	_ = newResolver(t, drv, recursedelete.WithMetrics(reg))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM line_items WHERE order_id IN (?)").
		WithArgs(5).
		WillReturnRows(ids(11, 12))
	mock.ExpectExec("DELETE FROM line_items WHERE id IN (?,?)").
		WithArgs(11, 12).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT id FROM comments WHERE commentable_id IN (?) AND commentable_type = ?").
		WithArgs(5, "Order").
		WillReturnRows(ids(21))
	mock.ExpectExec("DELETE FROM comments WHERE id IN (?)").
		WithArgs(21).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM orders WHERE id IN (?)").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, r.RecurseDelete(context.Background(), recursedelete.Ref("Order", 5)))
	require.NoError(t, mock.ExpectationsWereMet())

	const want = `
# HELP recursedelete_rows_deleted_total Number of rows removed by cascading bulk deletes, by entity type.
# TYPE recursedelete_rows_deleted_total counter
recursedelete_rows_deleted_total{type="Comment"} 1
recursedelete_rows_deleted_total{type="LineItem"} 2
recursedelete_rows_deleted_total{type="Order"} 1
# HELP recursedelete_statements_total Number of statements issued by the cascade resolver, by kind.
# TYPE recursedelete_statements_total counter
recursedelete_statements_total{kind="delete"} 3
recursedelete_statements_total{kind="select"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want),
		"recursedelete_rows_deleted_total",
		"recursedelete_statements_total",
	))
}

func TestWithTracerProvider(t *testing.T) {
	drv, mock := newMock(t, dialect.SQLite)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	r := newResolver(t, drv, recursedelete.WithTracerProvider(tp))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT account_id FROM profiles WHERE id IN (?)").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(9))
	mock.ExpectExec("DELETE FROM profiles WHERE id IN (?)").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM accounts WHERE id IN (?)").
		WithArgs(9).
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	require.Error(t, r.RecurseDelete(context.Background(), recursedelete.Ref("Profile", 1)))
	require.NoError(t, mock.ExpectationsWereMet())

	spans := sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "recursedelete.step", spans[0].Name())
	assert.Equal(t, "recursedelete.step", spans[1].Name())
	assert.Equal(t, "recursedelete.RecurseDelete", spans[2].Name())
	for _, s := range spans {
		assert.Equal(t, codes.Error, s.Status().Code)
	}
	assert.Equal(t, spans[2].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

type txOptionsRecorder struct {
	*sql.Driver
	opts *sql.TxOptions
}

func (d *txOptionsRecorder) BeginTx(ctx context.Context, opts *sql.TxOptions) (dialect.Tx, error) {
	d.opts = opts
	return d.Driver.BeginTx(ctx, opts)
}

func TestWithTxOptions(t *testing.T) {
	tests := []struct {
		name string
		wrap func(dialect.Driver) dialect.Driver
	}{
		{name: "driver", wrap: func(drv dialect.Driver) dialect.Driver { return drv }},
		{name: "stats_driver", wrap: func(drv dialect.Driver) dialect.Driver { return sql.NewStatsDriver(drv) }},
		{name: "debug_driver", wrap: func(drv dialect.Driver) dialect.Driver { return sql.NewDebugDriver(drv, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := newMock(t, dialect.SQLite)
			rec := &txOptionsRecorder{Driver: drv}
			opts := &sql.TxOptions{Isolation: stdsql.LevelSerializable}
			r := newResolver(t, tt.wrap(rec), recursedelete.WithTxOptions(opts))

			mock.ExpectBegin()
			mock.ExpectExec("DELETE FROM accounts WHERE id IN (?)").
				WithArgs(9).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			require.NoError(t, r.RecurseDelete(context.Background(), recursedelete.Ref("Account", 9)))
			require.NoError(t, mock.ExpectationsWereMet())
			assert.Same(t, opts, rec.opts)
		})
	}
}
