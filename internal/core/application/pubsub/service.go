package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
)

const (
	EventDeposit  = "DEPOSIT"
	EventWithdraw = "WITHDRAW"
	EventHarvest  = "HARVEST"
)

// Topics returns the events webhooks can subscribe to, besides
// ports.AnyTopic.
func Topics() []string {
	return []string{EventDeposit, EventWithdraw, EventHarvest}
}

type WebhookInfo struct {
	Id        string `json:"id"`
	Event     string `json:"event"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"is_secured"`
}

type Service struct {
	pubsub ports.PubSub
}

func NewService(pubsub ports.PubSub) *Service {
	return &Service{pubsub}
}

func (s *Service) AddWebhook(
	_ context.Context, event, endpoint, secret string,
) (string, error) {
	if event == ports.UnspecifiedTopic {
		return "", fmt.Errorf("invalid webhook event type")
	}
	return s.pubsub.Subscribe(event, endpoint, secret)
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(ports.UnspecifiedTopic, id)
}

// ListWebhooks returns the webhooks notified for the given event, or all of
// them if event is empty.
func (s *Service) ListWebhooks(
	_ context.Context, event string,
) ([]WebhookInfo, error) {
	subs := s.pubsub.ListSubscriptionsForTopic(event)
	webhooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		webhooks = append(webhooks, WebhookInfo{
			Id:        sub.Id(),
			Event:     sub.Topic(),
			Endpoint:  sub.NotifyAt(),
			IsSecured: sub.IsSecured(),
		})
	}
	return webhooks, nil
}

// PublishOperationEvent notifies a completed operation to the webhooks
// subscribed for its type.
func (s *Service) PublishOperationEvent(op domain.Operation) error {
	event := op.Type.String()
	message, err := json.Marshal(getOperationPayload(op))
	if err != nil {
		return err
	}
	return s.pubsub.Publish(event, string(message))
}

func (s *Service) Close() {
	//nolint
	s.pubsub.Close()
}

func getOperationPayload(op domain.Operation) map[string]interface{} {
	payload := map[string]interface{}{
		"event":     op.Type.String(),
		"id":        op.ID,
		"caller":    op.Caller.Hex(),
		"timestamp": op.Timestamp,
		"date":      time.Unix(op.Timestamp, 0).UTC().Format(time.RFC3339),
	}

	switch op.Type {
	case domain.OperationDeposit:
		payload["underlying_in"] = op.UnderlyingIn.Dec()
		payload["receipt_minted"] = op.ReceiptMinted.Dec()
	case domain.OperationWithdraw:
		payload["underlying_out"] = op.UnderlyingOut.Dec()
		payload["receipt_burned"] = op.ReceiptBurned.Dec()
		payload["principal"] = op.Principal.Dec()
		payload["realized_yield"] = op.RealizedYield.Dec()
	case domain.OperationHarvest:
		payload["noop"] = op.Noop
		payload["reward_claimed"] = op.RewardClaimed.Dec()
		payload["reward_swapped"] = op.RewardSwapped.Dec()
		payload["min_amount_out"] = op.MinAmountOut.Dec()
		payload["swap_output"] = op.SwapOutput.Dec()
		payload["compounded"] = op.Compounded.Dec()
		payload["receipt_minted"] = op.ReceiptMinted.Dec()
	}
	return payload
}
