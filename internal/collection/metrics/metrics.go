package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the collection module.
type Metrics struct {
	ItemsAdded   prometheus.Counter
	RecordsAdded prometheus.Counter
}

// New creates a Metrics instance with all collection module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		ItemsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locregistry_collection_items_added_total",
			Help: "Total number of collection items added",
		}),
		RecordsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locregistry_tokens_records_added_total",
			Help: "Total number of tokens records added",
		}),
	}
}

// IncrementItemsAdded records one collection item insertion.
func (m *Metrics) IncrementItemsAdded() {
	m.ItemsAdded.Inc()
}

// IncrementRecordsAdded records one tokens record insertion.
func (m *Metrics) IncrementRecordsAdded() {
	m.RecordsAdded.Inc()
}
