package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/service"
)

// ErrMailQueueFull is returned when a message cannot be queued.
var ErrMailQueueFull = errors.New("mail queue full")

// ErrMailQueueStopped is returned for messages sent after Stop.
var ErrMailQueueStopped = errors.New("mail queue stopped")

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// MailQueue moves email delivery off the request path. It implements
// service.MailSender by buffering messages for a single delivery goroutine.
type MailQueue struct {
	next    service.MailSender
	jobs    chan *mail.SGMailV3
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// NewMailQueue buffers up to size messages for next. Each delivery is bounded
// by timeout.
func NewMailQueue(next service.MailSender, size int, timeout time.Duration, logger *zap.Logger) *MailQueue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailQueue{
		next:    next,
		jobs:    make(chan *mail.SGMailV3, size),
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (q *MailQueue) Start() {
	go func() {
		defer close(q.done)
		for msg := range q.jobs {
			q.deliver(msg)
		}
	}()
}

func (q *MailQueue) deliver(msg *mail.SGMailV3) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if err := q.next.Send(ctx, msg); err != nil {
		q.logger.Warn("queued email delivery failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// Send enqueues msg without waiting for delivery. The request context is not
// carried over since delivery outlives the request.
func (q *MailQueue) Send(_ context.Context, msg *mail.SGMailV3) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrMailQueueStopped
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		q.logger.Warn("mail queue full; dropping message", zap.String("subject", msg.Subject))
		return ErrMailQueueFull
	}
}

// Stop refuses new messages and waits for queued ones to be delivered.
func (q *MailQueue) Stop() {
	if q == nil {
		return
	}
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()
	<-q.done
}
