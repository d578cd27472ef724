// Package metrics provides Prometheus metrics for the simpledfs server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultGranted       = "granted"
	ResultDenied        = "denied"
	ResultStored        = "stored"
	ResultNotAuthorized = "not_authorized"
	ResultFailed        = "failed"
	ResultFetched       = "fetched"
	ResultNotFound      = "not_found"
	ResultInvalid       = "invalid"
)

var (
	lockRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simpledfs_lock_requests_total",
			Help: "Total number of lock requests",
		},
		[]string{"result"},
	)

	storesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simpledfs_stores_total",
			Help: "Total number of store requests",
		},
		[]string{"result"},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simpledfs_fetches_total",
			Help: "Total number of fetch requests",
		},
		[]string{"result"},
	)

	bytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simpledfs_stored_bytes_total",
			Help: "Total bytes written by successful stores",
		},
	)

	locksHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simpledfs_locks_held",
			Help: "Number of filenames currently locked",
		},
	)
)

// RecordLockRequest records the outcome of a RequestLock call.
func RecordLockRequest(result string) {
	lockRequestsTotal.WithLabelValues(result).Inc()
}

// RecordStore records the outcome of a Store call.
func RecordStore(result string, size int) {
	storesTotal.WithLabelValues(result).Inc()
	if result == ResultStored {
		bytesStored.Add(float64(size))
	}
}

// RecordFetch records the outcome of a Fetch call.
func RecordFetch(result string) {
	fetchesTotal.WithLabelValues(result).Inc()
}

// SetLocksHeld sets the number of currently held locks.
func SetLocksHeld(n int) {
	locksHeld.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
