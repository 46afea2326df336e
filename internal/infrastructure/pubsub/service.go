// Package pubsub notifies controller operations to webhooks.
package pubsub

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/sony/gobreaker"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

const requestTimeout = 15 * time.Second

type service struct {
	store    *store
	topics   map[string]struct{}
	notifier *notifier
	cb       *gobreaker.CircuitBreaker
	limiter  ratelimit.Limiter
}

// NewService returns a webhook pubsub persisting subscriptions under
// datadir, or in memory if datadir is empty. Only the given topics, plus
// ports.AnyTopic, can be subscribed. Outgoing requests are limited to
// rateLimit per second.
func NewService(
	datadir string, logger badger.Logger, topics []string, rateLimit int,
) (ports.PubSub, error) {
	if len(topics) <= 0 {
		return nil, fmt.Errorf("missing topics")
	}
	if rateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be greater than zero")
	}

	s, err := newStore(datadir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening pubsub db: %w", err)
	}

	topicSet := map[string]struct{}{ports.AnyTopic: {}}
	for _, topic := range topics {
		topicSet[topic] = struct{}{}
	}

	return &service{
		store:    s,
		topics:   topicSet,
		notifier: newNotifier(requestTimeout),
		cb:       circuitbreaker.NewCircuitBreaker("webhooks"),
		limiter:  ratelimit.New(rateLimit),
	}, nil
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	if _, ok := ws.topics[topic]; !ok {
		return "", fmt.Errorf("unknown topic %s", topic)
	}
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	if err := ws.store.add(sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (ws *service) Unsubscribe(_, id string) error {
	sub, err := ws.store.get(id)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("webhook not found")
	}
	return ws.store.remove(id)
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	return ws.publishForTopic(topic, message)
}

func (ws *service) Close() error {
	return ws.store.close()
}

func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	subs, err := ws.store.listForEvent(topic)
	if err != nil {
		log.WithError(err).Warn("failed to list webhooks")
		return nil
	}
	if topic != ports.AnyTopic && topic != ports.UnspecifiedTopic {
		subsForAnyTopic, err := ws.store.listForEvent(ports.AnyTopic)
		if err != nil {
			log.WithError(err).Warn("failed to list webhooks")
			return subs
		}
		subs = append(subs, subsForAnyTopic...)
	}
	return subs
}

func (ws *service) publishForTopic(topic, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.doRequest(sub, message) })
	}
	return eg.Wait()
}

func (ws *service) doRequest(sub Subscription, payload string) error {
	ws.limiter.Take()

	_, err := ws.cb.Execute(func() (interface{}, error) {
		bearer, err := sub.bearerToken(time.Now())
		if err != nil {
			return nil, err
		}
		if err := ws.notifier.notify(sub.Endpoint, payload, bearer); err != nil {
			return nil, fmt.Errorf("webhook %s: %w", sub.ID, err)
		}
		return nil, nil
	})
	return err
}
