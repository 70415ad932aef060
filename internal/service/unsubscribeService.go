package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/ise-alumni/portal-sub001/internal/database/postgres"
	"github.com/ise-alumni/portal-sub001/internal/entity"
	"github.com/ise-alumni/portal-sub001/pkg/token"

	"github.com/sirupsen/logrus"
)

type unsubscribeService struct {
	unsubRepo repository.UnsubscribeRepository
	queueRepo repository.EmailQueueRepository
	tokenTTL  time.Duration
}

// NewUnsubscribeService создает новый экземпляр UnsubscribeService
func NewUnsubscribeService(
	unsubRepo repository.UnsubscribeRepository,
	queueRepo repository.EmailQueueRepository,
	tokenTTL time.Duration,
) UnsubscribeService {
	return &unsubscribeService{
		unsubRepo: unsubRepo,
		queueRepo: queueRepo,
		tokenTTL:  tokenTTL,
	}
}

// Redeem decodes the token, records the preference and retroactively cancels
// matching pending queue rows. The whole operation is idempotent: a second
// redemption re-affirms the preference and finds nothing left to cancel.
func (s *unsubscribeService) Redeem(ctx context.Context, tok string, typeOverride string) (*RedeemResult, error) {
	payload, err := token.Decode(tok)
	if err == token.ErrExpired {
		return nil, entity.ErrTokenExpired
	}
	if err != nil {
		return nil, entity.ErrTokenInvalid
	}

	emailType := payload.EmailType
	if typeOverride != "" {
		emailType = typeOverride
	}

	if err := s.unsubRepo.Upsert(ctx, payload.UserID, emailType); err != nil {
		return nil, fmt.Errorf("failed to record unsubscribe preference: %w", err)
	}

	cancelled, err := s.queueRepo.CancelPending(ctx, payload.UserID, emailType)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel pending emails: %w", err)
	}

	if cancelled > 0 {
		logrus.Infof("Unsubscribe for user %s (type %q) cancelled %d pending emails",
			payload.UserID, emailType, cancelled)
	}

	return &RedeemResult{
		UserID:    payload.UserID,
		EmailType: emailType,
		Cancelled: cancelled,
	}, nil
}

// TokenFor mints an unsubscribe token for outbound email footers.
func (s *unsubscribeService) TokenFor(userID, emailType string) string {
	return token.Encode(userID, emailType, s.tokenTTL)
}
