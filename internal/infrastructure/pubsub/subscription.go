package pubsub

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
)

// Subscription is a webhook registered for an operation event.
type Subscription struct {
	ID       string
	Event    string
	Endpoint string
	// Secret signs the bearer token sent along every notification. Empty for
	// unsecured webhooks.
	Secret string
}

func NewSubscription(event, endpoint, secret string) (*Subscription, error) {
	if event == ports.UnspecifiedTopic {
		return nil, fmt.Errorf("missing event")
	}
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook endpoint, must be an http(s) url")
	}
	return &Subscription{
		ID:       uuid.New().String(),
		Event:    event,
		Endpoint: endpoint,
		Secret:   secret,
	}, nil
}

func (s *Subscription) Topic() string    { return s.Event }
func (s *Subscription) Id() string       { return s.ID }
func (s *Subscription) NotifyAt() string { return s.Endpoint }
func (s *Subscription) IsSecured() bool  { return s.Secret != "" }

// bearerToken returns an HS256 token signed with the subscription secret,
// or an empty string for unsecured webhooks.
func (s *Subscription) bearerToken(now time.Time) (string, error) {
	if !s.IsSecured() {
		return "", nil
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat":   now.Unix(),
		"topic": s.Event,
	})
	return token.SignedString([]byte(s.Secret))
}

type subscriptions []Subscription

func (s subscriptions) toPortable() []ports.Subscription {
	subs := make([]ports.Subscription, 0, len(s))
	for i := range s {
		subs = append(subs, &s[i])
	}
	return subs
}
