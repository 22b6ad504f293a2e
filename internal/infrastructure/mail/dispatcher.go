package mail

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/wekeza/investment-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher delivers mail asynchronously through a fixed set of workers,
// sharded by recipient so a single user's mails arrive in the order they were
// produced. It satisfies ports.Mailer: Send enqueues and reports success
// immediately, which is the right contract for fire-and-forget confirmation
// mail. Verification mail, whose failure must roll back registration, goes
// through the underlying mailer directly instead.
type Dispatcher struct {
	workers []chan mailRequest
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan mailRequest, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mailRequest, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Send enqueues a mail for delivery. It never blocks the caller: when the
// shard's buffer is full the mail is dropped with a log entry, since a
// confirmation mail is not worth stalling an auth operation for.
func (d *Dispatcher) Send(_ context.Context, to, subject, body string) error {
	req := mailRequest{Email: to, Subject: subject, Body: body}
	select {
	case d.workers[d.shardIndex(to)] <- req:
	default:
		d.log.Warn().Str("to", to).Str("subject", subject).Msg("mail queue full, dropping")
	}
	return nil
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan mailRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-ch:
			if !ok {
				return
			}
			if err := d.mailer.Send(ctx, req.Email, req.Subject, req.Body); err != nil {
				d.log.Error().Err(err).
					Str("to", req.Email).
					Int("worker_id", id).
					Msg("mail delivery failed")
			}
		}
	}
}

var _ ports.Mailer = (*Dispatcher)(nil)
