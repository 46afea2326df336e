package pubsub

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxReplySize bounds how much of a webhook reply is kept for error
// reporting.
const maxReplySize = 512

// notifier posts JSON payloads to webhook endpoints.
type notifier struct {
	client *http.Client
}

func newNotifier(timeout time.Duration) *notifier {
	return &notifier{&http.Client{Timeout: timeout}}
}

// notify posts payload to endpoint, with the given bearer token if not
// empty. Any non 2xx reply is an error.
func (n *notifier) notify(endpoint, payload, bearer string) error {
	req, err := http.NewRequest(
		http.MethodPost, endpoint, strings.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reply, _ := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
		return fmt.Errorf(
			"endpoint replied with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(reply)),
		)
	}
	//nolint
	io.Copy(io.Discard, resp.Body)
	return nil
}
