package recursedelete

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zaMmer83/recurse-delete/dialect/sql"
)

// Option configures a Resolver.
type Option func(*Resolver) error

// WithLogger sets the logger. Skipped branches are logged at warn level and
// every statement at debug level. The default logger discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithMetrics registers the resolver counters with the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Resolver) error {
		if reg == nil {
			return NewConfigError("Metrics", nil, "registerer cannot be nil")
		}
		m, err := newMetrics(reg)
		if err != nil {
			return NewConfigError("Metrics", nil, err.Error())
		}
		r.metrics = m
		return nil
	}
}

// WithTracerProvider sets the provider used to create spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Resolver) error {
		if tp == nil {
			return NewConfigError("TracerProvider", nil, "provider cannot be nil")
		}
		r.tracer = tp.Tracer(instrumentationName)
		return nil
	}
}

// WithBatchSize splits identifier sets into chunks of at most n values per
// statement. Zero disables splitting. SQLite and MySQL cap the number of bound
// parameters, so very large cascades on those dialects need a batch size.
func WithBatchSize(n int) Option {
	return func(r *Resolver) error {
		if n < 0 {
			return NewConfigError("BatchSize", n, "batch size cannot be negative")
		}
		r.batchSize = n
		return nil
	}
}

// WithMaxDepth aborts a cascade that recurses deeper than n levels below
// the root with ErrMaxDepth. Zero disables the limit.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) error {
		if n < 0 {
			return NewConfigError("MaxDepth", n, "depth cannot be negative")
		}
		r.maxDepth = n
		return nil
	}
}

// WithTxOptions sets the options of the transactions opened by the resolver.
// They take effect only for drivers implementing sql.TxBeginner, which
// includes *sql.Driver and the StatsDriver and DebugDriver wrappers.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(r *Resolver) error {
		r.txOptions = opts
		return nil
	}
}
