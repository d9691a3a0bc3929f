package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"eshop/internal/config"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/services"
	"eshop/internal/worker/processors"
	"eshop/internal/worker/processors/export"
	"eshop/internal/worker/processors/validation"

	"github.com/segmentio/kafka-go"
)

const defaultPollInterval = 5 * time.Second

// TelegramPoller pulls operator replies on an interval.
type TelegramPoller interface {
	Run(ctx context.Context, interval time.Duration)
}

type Worker struct {
	config    *config.Config
	logger    *logger.Logger
	reader    *kafka.Reader
	processor *processors.EventProcessor
	poller    TelegramPoller

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg *config.Config, logger *logger.Logger, svc *services.Container) *Worker {
	var reader *kafka.Reader
	if cfg.KafkaEnabled() {
		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.KafkaBrokers,
			GroupID:        cfg.KafkaGroupID,
			Topic:          cfg.KafkaTopic,
			MinBytes:       1,
			MaxBytes:       10e6, // 10MB
			CommitInterval: time.Second,
		})
	}

	processor := processors.NewEventProcessor(
		validation.New(logger.Named("validation")),
		export.New(svc.Flexibee, cfg.Flexibee.AutoExport, logger.Named("export")),
		svc.Chat,
		logger,
	)

	return &Worker{
		config:    cfg,
		logger:    logger,
		reader:    reader,
		processor: processor,
		poller:    svc.Telegram,
	}
}

// Start runs the event consumer and the Telegram poll loop until Stop is
// called.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	interval := w.config.Telegram.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.poller.Run(ctx, interval)
	}()

	if w.reader == nil {
		w.logger.Warn("KAFKA_BROKERS not set, only polling Telegram")
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.consume(ctx)
	}()
}

func (w *Worker) consume(ctx context.Context) {
	w.logger.Info("Worker started, listening for events...")

	for {
		message, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		var event events.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("Failed to process event %s: %v", event.Type, err)
			continue
		}

		w.logger.Debug("Event %s processed", event.Type)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	if w.reader != nil {
		if err := w.reader.Close(); err != nil {
			w.logger.Error("Failed to close reader: %v", err)
		}
	}
}
