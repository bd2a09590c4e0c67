package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"humanizer/internal/config"
	"humanizer/internal/notification"
	"humanizer/internal/pgmq"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the orchestrator uses.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, vtSec, maxMessages, pollSec int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

type Settings struct {
	Queue           string
	DeadLetterQueue string
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Queue:           cfg.NotificationQueueName,
		DeadLetterQueue: cfg.NotificationDeadLetterQueueName,
		PollTimeoutSec:  cfg.NotificationPollTimeoutSec,
		PollMaxMsg:      cfg.NotificationPollMaxMsg,
		MaxRetries:      cfg.NotificationMaxRetries,
		BackoffInitial:  time.Duration(cfg.NotificationBackoffInitialSec) * time.Second,
		BackoffMax:      time.Duration(cfg.NotificationBackoffMaxSec) * time.Second,
	}
}

// visibilitySec keeps a message hidden for longer than one full retry cycle.
func (s Settings) visibilitySec() int {
	return int((s.BackoffMax*time.Duration(max(s.MaxRetries, 1)))/time.Second) + s.PollTimeoutSec + 30
}

// Run drains the notification queue until ctx is cancelled.
func Run(ctx context.Context, logger zerolog.Logger, client Queue, mailer notification.Mailer, s Settings) error {
	logger = logger.With().Str("orchestrator", "notification").Logger()
	logger.Info().Str("queue", s.Queue).Str("dlq", s.DeadLetterQueue).Msg("Starting notification orchestrator")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down notification orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, s.Queue, s.visibilitySec(), s.PollMaxMsg, s.PollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading notification queue")
			_ = sleep(ctx, time.Second)
			continue
		}

		for _, msg := range msgs {
			process(ctx, logger, client, mailer, s, msg)
		}
	}
}

// process delivers one message and removes it from the main queue. If shutdown
// interrupts delivery or the DLQ write fails, the message reappears after its
// visibility timeout.
func process(ctx context.Context, logger zerolog.Logger, client Queue, mailer notification.Mailer, s Settings, msg *pgmq.Message) {
	log := logger.With().Int64("msg_id", msg.ID).Logger()

	var job notification.Job
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal notification job; deleting message")
		ack(ctx, log, client, s.Queue, msg.ID)
		return
	}
	log = log.With().Str("kind", job.Kind).Str("user_id", job.UserID).Logger()

	if job.Email == "" {
		log.Warn().Msg("Notification job has no recipient; deleting message")
		ack(ctx, log, client, s.Queue, msg.ID)
		return
	}

	subject, body, err := notification.Render(job)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render notification; moving job to DLQ")
		deadLetter(ctx, log, client, s, msg)
		return
	}

	if err := deliver(ctx, log, mailer, s, job.Email, subject, body); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		log.Warn().Err(err).Int("attempts", s.MaxRetries).Msg("Exhausted all notification retries; moving job to DLQ")
		deadLetter(ctx, log, client, s, msg)
		return
	}

	log.Info().Msg("Notification sent")
	ack(ctx, log, client, s.Queue, msg.ID)
}

func deliver(ctx context.Context, log zerolog.Logger, mailer notification.Mailer, s Settings, to, subject, body string) error {
	backoff := s.BackoffInitial
	attempts := max(s.MaxRetries, 1)
	var sendErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		sendErr = mailer.Send(to, subject, body)
		if sendErr == nil {
			log.Debug().Int("attempt", attempt).Str("duration", time.Since(start).String()).Msg("Email delivered")
			return nil
		}
		log.Error().Err(sendErr).Int("attempt", attempt).Msg("Email delivery failed, retrying")
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
		if backoff > s.BackoffMax {
			backoff = s.BackoffMax
		}
	}
	return sendErr
}

func deadLetter(ctx context.Context, log zerolog.Logger, client Queue, s Settings, msg *pgmq.Message) {
	if err := client.Send(ctx, s.DeadLetterQueue, msg.Data); err != nil {
		// Leave the message on the main queue so it is retried after its visibility timeout.
		log.Error().Err(err).Str("dlq", s.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
		return
	}
	ack(ctx, log, client, s.Queue, msg.ID)
}

func ack(ctx context.Context, log zerolog.Logger, client Queue, queue string, id int64) {
	if err := client.Delete(ctx, queue, []int64{id}); err != nil {
		log.Error().Err(err).Msg("Error deleting notification message")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
