package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "locregistry/pkg/domain"
)

// Metrics provides observability for the loc module. Counters are
// labeled with low-cardinality dimensions only (case type, item kind,
// fee kind).
type Metrics struct {
	LocsCreated     *prometheus.CounterVec
	LocsClosed      prometheus.Counter
	LocsVoided      prometheus.Counter
	LocsImported    prometheus.Counter
	ItemsAdded      *prometheus.CounterVec
	FeesDistributed *prometheus.CounterVec
}

// New creates a Metrics instance with all loc module metrics registered.
func New() *Metrics {
	return &Metrics{
		LocsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locregistry_locs_created_total",
			Help: "Total number of cases created, by case type",
		}, []string{"loc_type"}),
		LocsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locregistry_locs_closed_total",
			Help: "Total number of cases closed",
		}),
		LocsVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locregistry_locs_voided_total",
			Help: "Total number of cases voided",
		}),
		LocsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locregistry_locs_imported_total",
			Help: "Total number of cases loaded through the import path",
		}),
		ItemsAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locregistry_loc_items_added_total",
			Help: "Total number of items added to cases, by item kind",
		}, []string{"kind"}),
		FeesDistributed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locregistry_fees_distributed_total",
			Help: "Total fee amount distributed, by fee kind",
		}, []string{"fee_kind"}),
	}
}

// IncrementLocsCreated records a successful case creation.
func (m *Metrics) IncrementLocsCreated(locType string) {
	m.LocsCreated.WithLabelValues(locType).Inc()
}

// IncrementLocsClosed records a successful close.
func (m *Metrics) IncrementLocsClosed() {
	m.LocsClosed.Inc()
}

// IncrementLocsVoided records a successful void.
func (m *Metrics) IncrementLocsVoided() {
	m.LocsVoided.Inc()
}

// IncrementLocsImported records one imported case.
func (m *Metrics) IncrementLocsImported() {
	m.LocsImported.Inc()
}

// IncrementItemsAdded records an item insertion of the given kind.
func (m *Metrics) IncrementItemsAdded(kind string) {
	m.ItemsAdded.WithLabelValues(kind).Inc()
}

// AddFeeDistributed records a settled fee amount of the given kind.
func (m *Metrics) AddFeeDistributed(kind string, amount id.Balance) {
	m.FeesDistributed.WithLabelValues(kind).Add(float64(amount))
}
