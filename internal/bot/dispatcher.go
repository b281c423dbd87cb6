package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc processes one message.
type HandlerFunc func(ctx context.Context, msg Message) error

const (
	userQueueSize     = 32
	workerIdleTimeout = 5 * time.Minute
)

// Dispatcher serializes messages per user: each user gets a FIFO queue drained by its
// own goroutine, so one user's messages are handled in arrival order while different
// users proceed concurrently. A worker exits once its queue has been idle for
// idleTimeout; the next message from that user starts a new one.
type Dispatcher struct {
	ctx         context.Context
	handler     HandlerFunc
	logger      *zap.Logger
	queueSize   int
	idleTimeout time.Duration

	mu     sync.Mutex
	queues map[int64]chan Message
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose workers stop when ctx is cancelled.
func NewDispatcher(ctx context.Context, handler HandlerFunc, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		ctx:         ctx,
		handler:     handler,
		logger:      logger,
		queueSize:   userQueueSize,
		idleTimeout: workerIdleTimeout,
		queues:      make(map[int64]chan Message),
	}
}

// Dispatch enqueues msg behind earlier messages from the same user and reports whether
// it was accepted. It never blocks: a message is dropped when the sender's queue is full
// or the dispatcher is stopping.
func (d *Dispatcher) Dispatch(msg Message) bool {
	if d.ctx.Err() != nil {
		d.logger.Debug("dispatcher stopped, message dropped", zap.Int64("user_id", msg.UserID))
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	queue, ok := d.queues[msg.UserID]
	if !ok {
		queue = make(chan Message, d.queueSize)
		d.queues[msg.UserID] = queue
		d.wg.Add(1)
		go d.work(msg.UserID, queue)
	}

	select {
	case queue <- msg:
		return true
	default:
		d.logger.Warn("user queue full, message dropped", zap.Int64("user_id", msg.UserID))
		return false
	}
}

// Wait blocks until every worker has exited. Call it after cancelling the context.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (d *Dispatcher) work(userID int64, queue chan Message) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-queue:
			d.handle(msg)
			idle.Reset(d.idleTimeout)
		case <-idle.C:
			if d.retire(userID, queue) {
				return
			}
			idle.Reset(d.idleTimeout)
		}
	}
}

// retire removes the worker's queue if nothing arrived. Dispatch enqueues under the same
// lock, so no message can land in a retired queue.
func (d *Dispatcher) retire(userID int64, queue chan Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(queue) > 0 {
		return false
	}
	delete(d.queues, userID)
	return true
}

func (d *Dispatcher) handle(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("message handler panicked",
				zap.Int64("user_id", msg.UserID), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	if err := d.handler(d.ctx, msg); err != nil {
		d.logger.Error("message handling failed", zap.Int64("user_id", msg.UserID), zap.Error(err))
	}
}
