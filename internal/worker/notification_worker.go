package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/service"
)

// NotificationWorker binds the notification service to the event
// dispatcher and, when the dispatcher is broker-backed, drives its
// consume loop in the background.
type NotificationWorker struct {
	dispatcher events.Dispatcher
	notifier   *service.NotificationService
	logger     *zap.Logger
}

// NewNotificationWorker wires the worker.
func NewNotificationWorker(dispatcher events.Dispatcher, notifier *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{dispatcher: dispatcher, notifier: notifier, logger: logger}
}

// Start registers the notification handlers and launches the queue
// consumer when one exists. The in-memory dispatcher delivers inline and
// needs no loop.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.notifier.Register(w.dispatcher)

	if consumer, ok := w.dispatcher.(*events.AMQPDispatcher); ok {
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("notification consumer stopped", zap.Error(err))
			}
		}()
		w.logger.Info("notification worker consuming from queue")
		return
	}
	w.logger.Info("notification worker using in-process dispatch")
}
