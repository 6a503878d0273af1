// Package mailbox holds the mail transport adapters: the IMAP source
// that yields unseen messages and the SMTP sender for replies.
package mailbox

import (
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// extractParts walks the MIME tree of a raw message. Inline text/*
// parts are concatenated in order into the content string; attachment
// parts contribute their filename only, their bodies are discarded.
func extractParts(r io.Reader) (content string, attachments []string, err error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", nil, err
	}
	defer mr.Close()

	var sb strings.Builder
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, err
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, ctErr := h.ContentType()
			if ctErr != nil || !strings.HasPrefix(ct, "text/") {
				continue
			}
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				return "", nil, readErr
			}
			sb.Write(body)
		case *mail.AttachmentHeader:
			name, nameErr := h.Filename()
			if nameErr != nil || name == "" {
				continue
			}
			attachments = append(attachments, name)
		}
	}
	return sb.String(), attachments, nil
}
