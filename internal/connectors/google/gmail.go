package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/logger"
)

// metadataHeaders are the only message headers a normalized email needs.
var metadataHeaders = []string{"Subject", "From", "To", "Date"}

// FetchEmails lists Gmail messages and hydrates each one. The list call
// only returns IDs, so this is a two-phase fetch: one list, then one get
// per message. A message that fails to hydrate is skipped and reported in
// a PartialFetchError alongside the messages that did come back.
func (c *Connector) FetchEmails(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Email, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, c.serviceOptions(token)...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	call := svc.Users.Messages.List("me").MaxResults(int64(opts.Bound()))
	if q := gmailQuery(opts); q != "" {
		call = call.Q(q)
	}

	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError(err)
	}

	emails := make([]domain.Email, 0, len(list.Messages))
	var partial *domain.PartialFetchError
	for _, ref := range list.Messages {
		if err := c.limiter.Wait(ctx); err != nil {
			return emails, err
		}

		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			logger.Debug("google: message %s failed: %v", ref.Id, err)
			if partial == nil {
				partial = &domain.PartialFetchError{}
			}
			partial.Failed++
			partial.Errs = append(partial.Errs, fmt.Errorf("message %s: %w", ref.Id, err))
			continue
		}
		emails = append(emails, normalizeMessage(msg))
	}

	if partial != nil {
		return emails, partial
	}
	return emails, nil
}

// gmailQuery translates fetch options into Gmail's search syntax.
func gmailQuery(opts domain.FetchOptions) string {
	var parts []string
	if opts.Query != "" {
		parts = append(parts, opts.Query)
	}
	if !opts.Since.IsZero() {
		parts = append(parts, "after:"+opts.Since.UTC().Format("2006/01/02"))
	}
	if !opts.Until.IsZero() {
		parts = append(parts, "before:"+opts.Until.UTC().Format("2006/01/02"))
	}
	return strings.Join(parts, " ")
}

// normalizeMessage maps a metadata-format Gmail message. The snippet stands
// in for the body; pulling full MIME parts is not worth it for a preview
// surface. Read state is the absence of the UNREAD label.
func normalizeMessage(msg *gmail.Message) domain.Email {
	email := domain.Email{
		ID:     msg.Id,
		Body:   msg.Snippet,
		IsRead: !hasLabel(msg.LabelIds, "UNREAD"),
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				email.Subject = h.Value
			case "From":
				email.From = h.Value
			case "To":
				email.To = splitAddresses(h.Value)
			}
		}
	}

	if msg.InternalDate > 0 {
		email.Date = time.UnixMilli(msg.InternalDate).UTC()
	}
	return email
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// splitAddresses splits a To header on commas, preserving order.
func splitAddresses(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
