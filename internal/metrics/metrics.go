// Package metrics exposes Prometheus counters/gauges for the cff-bridge
// daemon: frames built, frames parsed, frames rejected by reason,
// resynchronization events, ring occupancy, and TCP fan-out backpressure.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/jkowalski/cff/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_frames_built_total",
		Help: "Total frames written by a frame builder.",
	})
	FramesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_frames_parsed_total",
		Help: "Total frames successfully validated by the parser.",
	})
	FramesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cff_frames_rejected_total",
		Help: "Total frames rejected during parsing, by reason.",
	}, []string{"reason"})
	ResyncEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_resync_events_total",
		Help: "Total single-byte resynchronization advances performed by the streaming parser.",
	})
	RingOccupancy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cff_ring_occupancy_bytes",
		Help: "Bytes currently used in the ingest ring buffer.",
	})
	SerialRxBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_serial_rx_bytes_total",
		Help: "Total bytes read from the serial device.",
	})
	SerialTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_serial_tx_frames_total",
		Help: "Total frames written to the serial device.",
	})
	HubDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_hub_dropped_frames_total",
		Help: "Total frames dropped by the fan-out hub due to slow subscribers.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_hub_kicked_clients_total",
		Help: "Total subscribers disconnected due to the backpressure kick policy.",
	})
	HubRejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_hub_rejected_clients_total",
		Help: "Total subscriber connections rejected (e.g. max-clients).",
	})
	TCPRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_tcp_rx_frames_total",
		Help: "Total frames received from subscriber connections.",
	})
	TCPTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cff_tcp_tx_frames_total",
		Help: "Total frames written to subscriber connections.",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cff_hub_active_clients",
		Help: "Current number of active subscriber connections.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cff_hub_broadcast_fanout",
		Help: "Number of subscribers targeted by the most recent broadcast.",
	})
	HubQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cff_hub_queue_depth_max",
		Help: "Deepest subscriber outbound queue observed during the most recent broadcast.",
	})
	HubQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cff_hub_queue_depth_avg",
		Help: "Average subscriber outbound queue depth observed during the most recent broadcast.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cff_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cff_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Rejection reason label constants; stable values bound cardinality.
const (
	ReasonInvalidPreamble   = "invalid_preamble"
	ReasonInvalidHeaderCRC  = "invalid_header_crc"
	ReasonInvalidPayloadCRC = "invalid_payload_crc"
)

// Error label constants.
const (
	ErrTCPRead     = "tcp_read"
	ErrTCPWrite    = "tcp_write"
	ErrHandshake   = "handshake"
	ErrSerialWrite = "serial_write"
	ErrSerialRead  = "serial_read"
	ErrSerialOpen  = "serial_open"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for cheap periodic logging without scraping
// Prometheus in-process.
var (
	localFramesBuilt   uint64
	localFramesParsed  uint64
	localFramesReject  uint64
	localResync        uint64
	localSerialRxBytes uint64
	localSerialTx      uint64
	localHubDrop       uint64
	localHubKick       uint64
	localHubReject     uint64
	localErrors        uint64
)

// Snapshot is a cheap copy of the local counters.
type Snapshot struct {
	FramesBuilt   uint64
	FramesParsed  uint64
	FramesRejects uint64
	ResyncEvents  uint64
	SerialRxBytes uint64
	SerialTx      uint64
	HubDrops      uint64
	HubKicks      uint64
	HubRejects    uint64
	Errors        uint64
}

func Snap() Snapshot {
	return Snapshot{
		FramesBuilt:   atomic.LoadUint64(&localFramesBuilt),
		FramesParsed:  atomic.LoadUint64(&localFramesParsed),
		FramesRejects: atomic.LoadUint64(&localFramesReject),
		ResyncEvents:  atomic.LoadUint64(&localResync),
		SerialRxBytes: atomic.LoadUint64(&localSerialRxBytes),
		SerialTx:      atomic.LoadUint64(&localSerialTx),
		HubDrops:      atomic.LoadUint64(&localHubDrop),
		HubKicks:      atomic.LoadUint64(&localHubKick),
		HubRejects:    atomic.LoadUint64(&localHubReject),
		Errors:        atomic.LoadUint64(&localErrors),
	}
}

func IncFramesBuilt() {
	FramesBuilt.Inc()
	atomic.AddUint64(&localFramesBuilt, 1)
}

func IncFramesParsed() {
	FramesParsed.Inc()
	atomic.AddUint64(&localFramesParsed, 1)
}

// IncRejected records a parser rejection by reason (one of the Reason* constants).
func IncRejected(reason string) {
	FramesRejected.WithLabelValues(reason).Inc()
	atomic.AddUint64(&localFramesReject, 1)
}

func IncResync() {
	ResyncEvents.Inc()
	atomic.AddUint64(&localResync, 1)
}

func SetRingOccupancy(n int) { RingOccupancy.Set(float64(n)) }

func AddSerialRxBytes(n int) {
	SerialRxBytes.Add(float64(n))
	atomic.AddUint64(&localSerialRxBytes, uint64(n))
}

func IncSerialTx() {
	SerialTxFrames.Inc()
	atomic.AddUint64(&localSerialTx, 1)
}

func IncHubDrop() {
	HubDroppedFrames.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func IncHubReject() {
	HubRejectedClients.Inc()
	atomic.AddUint64(&localHubReject, 1)
}

func SetHubClients(n int) { HubActiveClients.Set(float64(n)) }

func IncTCPRx() { TCPRxFrames.Inc() }

func AddTCPTx(n int) { TCPTxFrames.Add(float64(n)) }

func SetBroadcastFanout(n int) { HubBroadcastFanout.Set(float64(n)) }

func SetQueueDepth(max, avg int) {
	HubQueueDepthMax.Set(float64(max))
	HubQueueDepthAvg.Set(float64(avg))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge and pre-registers common error
// label series so the first error does not pay registration latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrTCPRead, ErrTCPWrite, ErrHandshake, ErrSerialWrite, ErrSerialRead, ErrSerialOpen} {
		Errors.WithLabelValues(lbl).Add(0)
	}
	for _, reason := range []string{ReasonInvalidPreamble, ReasonInvalidHeaderCRC, ReasonInvalidPayloadCRC} {
		FramesRejected.WithLabelValues(reason).Add(0)
	}
}

// SetReadinessFunc registers the function /ready and IsReady consult.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function, if any.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
