// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"mailtriage/core/domain"
)

// FetchResult carries one unseen message, or the extraction error that
// replaced it. A failed extraction fails that message only; the rest of
// the batch still flows through the pipeline.
type FetchResult struct {
	UID     uint32
	Message *domain.InboundMessage
	Err     error
}

// MailboxSession is one open read-write connection to the inbox. It is
// opened and closed once per polling run and never shared across runs.
type MailboxSession interface {
	// FetchUnseen searches for unseen messages and returns them in
	// mailbox order, extraction applied per message.
	FetchUnseen(ctx context.Context) ([]FetchResult, error)

	// MarkSeen flips the seen flag on a processed message.
	MarkSeen(ctx context.Context, uid uint32) error

	Close() error
}

// MailboxSource opens mailbox sessions.
type MailboxSource interface {
	Connect(ctx context.Context) (MailboxSession, error)
}

// MailSender delivers one outbound reply: single addressee, subject and
// HTML body.
type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
