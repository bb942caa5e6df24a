package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kpicentral/kpi-central/internal/api/metrics"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher delivers access records to the audit repository off the request
// path. Records are sharded by identity (or remote address) so one caller's
// trail is written in order.
type Dispatcher struct {
	workers []chan domain.AccessRecord
	repo    ports.AccessLogRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AccessLogRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AccessRecord, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccessRecord, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record implements ports.AccessLogger. It never blocks: when the shard's
// buffer is full the record is dropped and counted.
func (d *Dispatcher) Record(rec domain.AccessRecord) {
	idx := d.shardIndex(shardKey(rec))
	select {
	case d.workers[idx] <- rec:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditRecordsTotal.WithLabelValues("dropped").Inc()
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func shardKey(rec domain.AccessRecord) string {
	if rec.IdentityID != "" {
		return rec.IdentityID
	}
	return rec.RemoteAddr
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccessRecord) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case rec := <-ch:
			d.write(ctx, id, rec)
		}
	}
}

// drain flushes what is already buffered using a fresh context so shutdown
// does not lose the tail of the trail.
func (d *Dispatcher) drain(id int, ch <-chan domain.AccessRecord) {
	for {
		select {
		case rec := <-ch:
			d.write(context.Background(), id, rec)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, rec domain.AccessRecord) {
	metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(d.workers[id])))
	if err := d.repo.Insert(ctx, rec); err != nil {
		metrics.AuditRecordsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("path", rec.Path).
			Int("worker_id", id).
			Msg("access record write failed")
		return
	}
	metrics.AuditRecordsTotal.WithLabelValues("written").Inc()
}
