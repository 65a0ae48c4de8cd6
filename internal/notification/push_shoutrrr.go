package notification

import (
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/birdnet-exporter/internal/errors"
	"github.com/tphakala/birdnet-exporter/internal/privacy"
)

// Sender delivers a message to every configured service. It matches
// shoutrrr's router so tests can substitute it.
type Sender interface {
	Send(message string, params *stypes.Params) []error
}

// NewShoutrrrSender builds one router for all urls.
func NewShoutrrrSender(urls []string, timeout time.Duration) (*router.ServiceRouter, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one notification URL is required")
	}

	sender, err := shoutrrr.CreateSender(slices.Clone(urls)...)
	if err != nil {
		// service URLs carry tokens
		return nil, errors.New(privacy.WrapError(err)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return sender, nil
}

// send delivers n and returns the first error, scrubbed of URLs
func send(s Sender, n *Notification) error {
	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}

	for _, err := range s.Send(n.Message, &params) {
		if err != nil {
			return privacy.WrapError(err)
		}
	}
	return nil
}
