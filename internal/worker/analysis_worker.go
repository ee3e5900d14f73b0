package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"finance-doc-analyzer/internal/app"
	"finance-doc-analyzer/internal/model"
	"finance-doc-analyzer/internal/pkg/logger"
)

// Runner executes one analysis run.
type Runner interface {
	Run(ctx context.Context, req model.AnalysisRequest) (*app.RunResult, error)
}

// AnalysisWorker consumes queued analysis requests and runs them one at a
// time per delivery.
type AnalysisWorker struct {
	conn      *amqp.Connection
	runner    Runner
	queueName string
	prefetch  int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAnalysisWorker(conn *amqp.Connection, runner Runner, queueName string, prefetch int) *AnalysisWorker {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &AnalysisWorker{
		conn:      conn,
		runner:    runner,
		queueName: queueName,
		prefetch:  prefetch,
	}
}

func (w *AnalysisWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				switch w.handle(workerCtx, d.MessageId, d.Body) {
				case ack:
					_ = d.Ack(false)
				case requeue:
					_ = d.Nack(false, !d.Redelivered)
				default:
					_ = d.Nack(false, false)
				}
			}
		}
	}()

	return nil
}

func (w *AnalysisWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

type verdict int

const (
	ack verdict = iota
	drop
	requeue
)

// handle decides what happens to a delivery. Per-type analysis failures live
// inside the stored results, so only orchestration errors affect the verdict.
func (w *AnalysisWorker) handle(ctx context.Context, messageID string, body []byte) verdict {
	log := slog.Default().With("message_id", messageID)

	var req model.AnalysisRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("worker decode analysis request failed", "error", err)
		return drop
	}
	log = log.With("document_id", req.DocumentID)

	result, err := w.runner.Run(logger.WithRequestID(ctx, messageID), req)
	switch {
	case err == nil:
		log.Info("queued analysis finished", "types", len(result.AnalysisResults))
		return ack
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrDocumentNotFound):
		log.Warn("queued analysis rejected", "error", err)
		return drop
	default:
		log.Error("queued analysis failed", "error", err)
		return requeue
	}
}
