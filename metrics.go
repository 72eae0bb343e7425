package recursedelete

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "recursedelete"

// Skip reasons reported by the skipped counter.
const (
	skipUnresolvedType        = "unresolved_type"
	skipIncompleteAssociation = "incomplete_association"
	skipPolymorphicOwner      = "polymorphic_owner"
)

type metrics struct {
	rowsDeleted *prometheus.CounterVec
	statements  *prometheus.CounterVec
	skipped     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		rowsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_deleted_total",
			Help:      "Number of rows removed by cascading bulk deletes, by entity type.",
		}, []string{"type"}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "statements_total",
			Help:      "Number of statements issued by the cascade resolver, by kind.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "skipped_total",
			Help:      "Number of cascade branches skipped, by reason.",
		}, []string{"reason"}),
	}
	var err error
	if m.rowsDeleted, err = register(reg, m.rowsDeleted); err != nil {
		return nil, err
	}
	if m.statements, err = register(reg, m.statements); err != nil {
		return nil, err
	}
	if m.skipped, err = register(reg, m.skipped); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, or returns the collector already registered
// under the same descriptor so resolvers can share a registry.
func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *metrics) deleted(typ string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsDeleted.WithLabelValues(typ).Add(float64(n))
}

func (m *metrics) statement(kind string) {
	if m == nil {
		return
	}
	m.statements.WithLabelValues(kind).Inc()
}

func (m *metrics) skip(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}
