package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/famguard/guardian-service/internal/config"
	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/events"
	"github.com/famguard/guardian-service/internal/repository"
)

// SecurityService persists security log entries for auth events and emits
// notification stubs for the sensitive ones.
type SecurityService struct {
	dispatcher events.Dispatcher
	logs       repository.SecurityLogRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewSecurityService creates the service.
func NewSecurityService(dispatcher events.Dispatcher, logs repository.SecurityLogRepository, logger *zap.Logger, cfg config.NotificationConfig) *SecurityService {
	return &SecurityService{
		dispatcher: dispatcher,
		logs:       logs,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to auth events.
func (s *SecurityService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventAccountRegistered,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventGoogleLogin,
		events.EventTokenRevoked,
		events.EventPasswordChanged,
		events.EventPasswordResetRequested,
		events.EventPasswordResetCompleted,
	} {
		s.dispatcher.Subscribe(eventType, s.handleEvent)
	}
}

func (s *SecurityService) handleEvent(ctx context.Context, event events.Event) error {
	detail := ""
	if event.Payload != nil {
		if raw, err := json.Marshal(event.Payload); err == nil {
			detail = string(raw)
		}
	}

	entry := &domain.SecurityLog{
		EventType: string(event.Type),
		AccountID: event.AccountID,
		Email:     event.Email,
		Detail:    detail,
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Error("persist security log", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}

	switch event.Type {
	case events.EventLoginFailed, events.EventPasswordChanged, events.EventPasswordResetRequested:
		s.sendEmailNotificationStub(event)
	case events.EventTokenRevoked:
		s.sendWebhookNotificationStub(event)
	}
	return nil
}

func (s *SecurityService) sendEmailNotificationStub(event events.Event) {
	if strings.TrimSpace(s.cfg.EmailFrom) == "" {
		return
	}
	s.logger.Debug("sendEmailNotificationStub",
		zap.String("from", s.cfg.EmailFrom),
		zap.String("email", event.Email),
		zap.String("event_type", string(event.Type)))
}

func (s *SecurityService) sendWebhookNotificationStub(event events.Event) {
	if strings.TrimSpace(s.cfg.WebhookURL) == "" {
		return
	}
	s.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", s.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
