package services

import (
	"context"
	"log/slog"

	"github.com/vidshare/backend/internal/apperr"
	"github.com/vidshare/backend/internal/logging"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
	"github.com/vidshare/backend/internal/validate"
	"github.com/vidshare/backend/internal/views"
)

// SubscriptionResult reports the outcome of a subscription toggle.
type SubscriptionResult struct {
	Subscribed   bool                 `json:"subscribed"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// SubscriptionService toggles channel subscriptions.
type SubscriptionService struct {
	subs   repositories.SubscriptionRepository
	users  repositories.UserRepository
	counts CountInvalidator
	clock  clock
}

// NewSubscriptionService constructs a SubscriptionService. counts may be nil.
func NewSubscriptionService(subs repositories.SubscriptionRepository, users repositories.UserRepository, counts CountInvalidator) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users, counts: counts, clock: defaultClock()}
}

// Toggle subscribes the viewer to the channel or removes an existing subscription.
func (s *SubscriptionService) Toggle(ctx context.Context, viewer models.Viewer, channelID string) (SubscriptionResult, error) {
	if err := requireViewer(viewer); err != nil {
		return SubscriptionResult{}, err
	}
	if err := validate.ID(channelID, "channel"); err != nil {
		return SubscriptionResult{}, err
	}
	if channelID == viewer.ID {
		return SubscriptionResult{}, apperr.New(apperr.BadRequest, "you cannot subscribe to your own channel")
	}
	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return SubscriptionResult{}, notFound(err, "channel not found", "load channel")
	}

	sub := models.Subscription{
		ID:           s.clock.newID(),
		SubscriberID: viewer.ID,
		ChannelID:    channelID,
		CreatedAt:    s.clock.now(),
	}
	removed, edge, err := s.subs.Toggle(ctx, sub)
	if err != nil {
		return SubscriptionResult{}, notFound(err, "channel not found", "toggle subscription")
	}

	s.invalidate(ctx, views.SubscriberCountKey(channelID), views.SubscribedToCountKey(viewer.ID))
	if removed {
		return SubscriptionResult{}, nil
	}
	return SubscriptionResult{Subscribed: true, Subscription: &edge}, nil
}

func (s *SubscriptionService) invalidate(ctx context.Context, keys ...string) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("failed to invalidate cached counts",
			slog.Any("keys", keys), slog.Any("error", err))
	}
}
