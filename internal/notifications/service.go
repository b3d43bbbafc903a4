package notifications

import (
	"context"
	"errors"

	"travelhub/internal/shared/config"
	"travelhub/pkg/logger"
)

// Service owns the booking event bus for the process: the publisher handed to the
// booking services and, when Kafka is enabled, the email consumer.
type Service struct {
	Publisher Publisher

	consumer *Consumer
	log      *logger.Logger
}

func NewService(cfg *config.Config, resolver RecipientResolver, log *logger.Logger) (*Service, error) {
	publisher, err := NewPublisher(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	s := &Service{Publisher: publisher, log: log}
	if !cfg.Kafka.Enabled {
		return s, nil
	}

	notifier := NewEmailNotifier(NewMailer(cfg.Email, log), resolver, cfg.Email, log)
	consumer, err := NewConsumer(cfg.Kafka, notifier, log)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}
	s.consumer = consumer
	return s, nil
}

func (s *Service) Start(ctx context.Context) {
	if s.consumer != nil {
		s.consumer.Start(ctx)
	}
}

func (s *Service) Stop() error {
	var errs []error
	if s.consumer != nil {
		errs = append(errs, s.consumer.Stop())
	}
	errs = append(errs, s.Publisher.Close())
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Info("notification service stopped")
	return nil
}
