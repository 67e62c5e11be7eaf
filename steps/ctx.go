// Package steps owns everything users register against a run: step
// definitions, custom parameter types, lifecycle hooks, and composed
// step libraries. It also answers match lookups for the executor.
package steps

import (
	"context"

	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
)

// Ctx is the execution context handed to every handler and hook of one
// scenario attempt. World is built fresh by the run's world factory at
// the start of each attempt and is owned exclusively by that attempt;
// it is never shared across concurrent scenarios or across retries.
type Ctx struct {
	context.Context

	World    any
	Scenario *feature.Scenario
	Attempt  int

	attachments []result.Attachment
}

// NewCtx builds the context for one scenario attempt.
func NewCtx(ctx context.Context, world any, sc *feature.Scenario, attempt int) *Ctx {
	return &Ctx{Context: ctx, World: world, Scenario: sc, Attempt: attempt}
}

// Attach records inline evidence for the currently executing step.
func (c *Ctx) Attach(name, mediaType string, body []byte) {
	c.attachments = append(c.attachments, result.Attachment{
		Name:      name,
		MediaType: mediaType,
		Body:      body,
	})
}

// AttachURL records a reference to externally stored evidence.
func (c *Ctx) AttachURL(name, mediaType, url string) {
	c.attachments = append(c.attachments, result.Attachment{
		Name:      name,
		MediaType: mediaType,
		URL:       url,
	})
}

// Attachments returns everything attached so far in this attempt,
// in attach order.
func (c *Ctx) Attachments() []result.Attachment {
	return c.attachments
}
