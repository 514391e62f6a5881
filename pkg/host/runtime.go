// Package host implements the host-side runtime behind the capability-based
// signature boundary: the handle registry, operation-context and key
// lifecycles, the incremental signing/verification state machines, and the
// one-shot array-output staging that carries variable-length results back to
// the guest. Every boundary call is synchronous and reports its outcome as
// an api.Errno.
package host

import (
	"crypto/rand"
	"io"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/handle"
	"github.com/srediag/plugin-crypto/pkg/keys"
)

const (
	defaultMaxHandles      = 4096
	defaultMaxMessageBytes = 1 << 26
	defaultBatchWorkers    = 4

	poolReleaseTimeout = 5 * time.Second
)

// Config tunes a Runtime. The zero value of any field falls back to the
// default; DefaultConfig additionally honors the PLUGIN_CRYPTO_* process env
// overrides.
type Config struct {
	// MaxHandles bounds the number of live handles across all kinds.
	MaxHandles int

	// MaxMessageBytes bounds each state machine's accumulator; updates
	// past it fail with overflow.
	MaxMessageBytes int

	// BatchWorkers sizes the goroutine pool shared by batch verifiers.
	BatchWorkers int

	// Resolver backs keypair_from_id. Nil means the capability is not
	// available on this host.
	Resolver keys.Resolver

	// RNG overrides the entropy source, primarily for tests.
	RNG io.Reader

	// Registerer receives the runtime's prometheus collectors when set.
	Registerer prometheus.Registerer

	// Meter and Tracer enable OpenTelemetry instrumentation when set.
	Meter  metric.Meter
	Tracer trace.Tracer
}

// DefaultConfig returns the built-in defaults with env overrides applied.
func DefaultConfig() Config {
	c := Config{
		MaxHandles:      defaultMaxHandles,
		MaxMessageBytes: defaultMaxMessageBytes,
		BatchWorkers:    defaultBatchWorkers,
	}
	c.MaxHandles = envInt("PLUGIN_CRYPTO_MAX_HANDLES", c.MaxHandles)
	c.MaxMessageBytes = envInt("PLUGIN_CRYPTO_MAX_MESSAGE_BYTES", c.MaxMessageBytes)
	c.BatchWorkers = envInt("PLUGIN_CRYPTO_BATCH_WORKERS", c.BatchWorkers)
	return c
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (c *Config) normalize() {
	if c.MaxHandles <= 0 {
		c.MaxHandles = defaultMaxHandles
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = defaultMaxMessageBytes
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = defaultBatchWorkers
	}
	if c.RNG == nil {
		c.RNG = rand.Reader
	}
}

// Runtime is one host instance of the signature subsystem. It may be entered
// concurrently by multiple guest execution contexts; the handle table is the
// only shared mutable structure and every stateful resource serializes its
// own calls.
type Runtime struct {
	conf      Config
	table     *handle.Table
	metrics   *metrics
	batchPool *ants.Pool
	closed    atomic.Bool
}

var _ api.Signatures = (*Runtime)(nil)

// New builds a Runtime from conf.
func New(conf Config) (*Runtime, error) {
	conf.normalize()
	table := handle.NewTable(conf.MaxHandles)
	m, err := newMetrics(conf, table)
	if err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(conf.BatchWorkers)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		conf:      conf,
		table:     table,
		metrics:   m,
		batchPool: pool,
	}
	internalLogger.infof("signature runtime up: max_handles=%d max_message_bytes=%d batch_workers=%d",
		conf.MaxHandles, conf.MaxMessageBytes, conf.BatchWorkers)
	return r, nil
}

// Close tears the runtime down: every outstanding handle is closed (with
// zeroization where due) and the batch pool drained. Subsequent boundary
// calls fail with the closed errno.
func (r *Runtime) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return api.ErrClosed
	}
	n := r.table.Len()
	r.table.CloseAll()
	var errs *multierror.Error
	if err := r.batchPool.ReleaseTimeout(poolReleaseTimeout); err != nil {
		errs = multierror.Append(errs, err)
	}
	internalLogger.infof("signature runtime closed, %d outstanding handles torn down", n)
	return errs.ErrorOrNil()
}

// guard rejects boundary calls entering a torn-down runtime.
func (r *Runtime) guard() error {
	if r.closed.Load() {
		return api.ErrClosed
	}
	return nil
}

// Table depth accessors used by health checks and tests.
func (r *Runtime) LiveHandles() int { return r.table.Len() }
