package ports

const (
	// AnyTopic subscribes to every operation event.
	AnyTopic = "*"
	// UnspecifiedTopic matches subscriptions regardless of their topic when
	// listing them.
	UnspecifiedTopic = ""
)

// Subscription is a webhook registered for some operation event.
type Subscription interface {
	Id() string
	Topic() string
	NotifyAt() string
	IsSecured() bool
}

// PubSub notifies operation events to external subscribers.
type PubSub interface {
	// Subscribe registers endpoint for topic and returns the id of the
	// subscription. Notifications carry a bearer token signed with secret,
	// if not empty.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes the subscription with the given id.
	Unsubscribe(topic, id string) error
	// ListSubscriptionsForTopic returns the subscriptions notified for topic,
	// including those for AnyTopic.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Publish delivers message to every subscription of topic.
	Publish(topic string, message string) error
	Close() error
}
