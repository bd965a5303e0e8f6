package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier delivers a reservation notice to one chat at a time.
type Notifier interface {
	Recipients() []int64
	NotifyChat(ctx context.Context, chatID int64, p events.ReservationPayload) error
}

// NotifyTask is the notice for one chat and its delivery attempts so far.
// A failure retries only that chat.
type NotifyTask struct {
	ChatID    int64                     `json:"chat_id"`
	Payload   events.ReservationPayload `json:"payload"`
	Attempt   int                       `json:"attempt"`
	LastError string                    `json:"last_error,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
}

// NotifyWorker delivers reservation notices off the request path, retrying
// failures with backoff. With Redis the queue and dead letters survive
// restarts; without it they live in memory.
type NotifyWorker struct {
	notifier      Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan NotifyTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        zerolog.Logger
}

func NewNotifyWorker(notifier Notifier, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "notify_worker").Logger()
	}

	return &NotifyWorker{
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan NotifyTask, 128),
		redisQueueKey: "notify:queue",
		deadLetterKey: "notify:deadletter",
		pollInterval:  time.Second,
		logger:        l,
	}
}

// HandleEvent is an events.Handler that queues reservation_created events.
func (w *NotifyWorker) HandleEvent(event *events.Event) error {
	var p events.ReservationPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return w.Enqueue(context.Background(), p)
}

// Enqueue schedules one task per recipient. Redis is preferred; a full
// memory queue drops the task with an error.
func (w *NotifyWorker) Enqueue(ctx context.Context, p events.ReservationPayload) error {
	if p.OrderNumber == "" && p.ReservationID == 0 {
		return errors.New("reservation id or order number is required")
	}
	now := time.Now()
	var errs []error
	for _, chatID := range w.notifier.Recipients() {
		if err := w.push(ctx, NotifyTask{ChatID: chatID, Payload: p, CreatedAt: now}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *NotifyWorker) push(ctx context.Context, task NotifyTask) error {
	if w.redis != nil {
		err := w.pushRedis(ctx, w.redisQueueKey, task)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
	}

	select {
	case w.queue <- task:
		return nil
	default:
		metrics.IncNotification("dropped")
		return fmt.Errorf("notify queue full, dropped order %s for chat %d", task.Payload.OrderNumber, task.ChatID)
	}
}

// Start runs the delivery loop until ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("started")
	defer w.logger.Info().Msg("stopped")

	for {
		if w.redis == nil {
			select {
			case <-ctx.Done():
				return
			case task := <-w.queue:
				w.processTask(ctx, &task)
			}
			continue
		}

		if ctx.Err() != nil {
			return
		}
		// Retries that fell back to memory go before the Redis queue.
		if task, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &task)
			continue
		}
		if task, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &task)
		}
	}
}

func (w *NotifyWorker) tryLocalQueue() (NotifyTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return NotifyTask{}, false
	}
}

func (w *NotifyWorker) tryRedis(ctx context.Context) (NotifyTask, bool) {
	res, err := w.redis.BRPop(ctx, w.pollInterval, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("redis BRPOP failed")
			time.Sleep(w.pollInterval)
		}
		return NotifyTask{}, false
	}
	if len(res) != 2 {
		return NotifyTask{}, false
	}
	var task NotifyTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return NotifyTask{}, false
	}
	return task, true
}

func (w *NotifyWorker) processTask(ctx context.Context, task *NotifyTask) {
	err := w.notifier.NotifyChat(ctx, task.ChatID, task.Payload)
	if err == nil {
		metrics.IncNotification("sent")
		w.logger.Info().Str("order_number", task.Payload.OrderNumber).Int64("chat_id", task.ChatID).Msg("notification sent")
		return
	}
	w.retryOrFail(ctx, task, err)
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, task *NotifyTask, cause error) {
	task.Attempt++
	task.LastError = cause.Error()

	if w.retryPolicy.Exhausted(task.Attempt) {
		metrics.IncNotification("failed")
		w.logger.Error().Err(cause).
			Str("order_number", task.Payload.OrderNumber).
			Int64("chat_id", task.ChatID).
			Int("attempts", task.Attempt).
			Msg("notification failed permanently")
		w.pushDeadLetter(ctx, task)
		return
	}

	metrics.IncNotification("retry")
	delay := w.retryPolicy.NextDelay(task.Attempt)
	w.logger.Warn().Err(cause).
		Str("order_number", task.Payload.OrderNumber).
		Int64("chat_id", task.ChatID).
		Int("attempt", task.Attempt).
		Dur("next_delay", delay).
		Msg("notification failed, retrying")

	retry := *task
	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.push(ctx, retry); err != nil {
			w.logger.Error().Err(err).Msg("requeue notification")
		}
	})
}

func (w *NotifyWorker) pushRedis(ctx context.Context, key string, task NotifyTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, task *NotifyTask) {
	if w.redis == nil {
		return
	}
	if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
		w.logger.Error().Err(err).Msg("deadletter push failed")
	}
}
