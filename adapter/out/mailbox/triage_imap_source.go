package mailbox

import (
	"context"
	"fmt"
	"mime"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
	"github.com/rs/zerolog"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

// IMAPSource dials the IMAP server over TLS and selects the configured
// mailbox. Each poll cycle opens a fresh session; keeping a long-lived
// connection across two-minute cycles buys nothing and breaks on
// server-side idle timeouts.
type IMAPSource struct {
	host     string
	port     int
	username string
	password string
	mailbox  string
	log      zerolog.Logger
}

type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
}

func NewIMAPSource(cfg IMAPConfig, log zerolog.Logger) *IMAPSource {
	mbox := cfg.Mailbox
	if mbox == "" {
		mbox = "INBOX"
	}
	return &IMAPSource{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		mailbox:  mbox,
		log:      log.With().Str("component", "imap").Logger(),
	}
}

func (s *IMAPSource) Connect(ctx context.Context) (out.MailboxSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	opts := &imapclient.Options{
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	}
	cl, err := imapclient.DialTLS(addr, opts)
	if err != nil {
		return nil, apperr.TransportError(fmt.Errorf("imap dial %s: %w", addr, err))
	}

	if err := cl.Login(s.username, s.password).Wait(); err != nil {
		_ = cl.Logout().Wait()
		return nil, apperr.TransportError(fmt.Errorf("imap login: %w", err))
	}

	// Read-write select: MarkSeen stores the Seen flag on this session.
	if _, err := cl.Select(s.mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		_ = cl.Logout().Wait()
		return nil, apperr.TransportError(fmt.Errorf("imap select %s: %w", s.mailbox, err))
	}

	s.log.Debug().Str("mailbox", s.mailbox).Msg("imap session opened")
	return &imapSession{client: cl, log: s.log}, nil
}

type imapSession struct {
	client *imapclient.Client
	log    zerolog.Logger
}

func (s *imapSession) FetchUnseen(ctx context.Context) ([]out.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, apperr.TransportError(fmt.Errorf("imap search unseen: %w", err))
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{{}},
	}
	fetchCmd := s.client.Fetch(imap.UIDSetNum(uids...), fetchOptions)
	defer fetchCmd.Close()

	var results []out.FetchResult
	for {
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		results = append(results, s.collectMessage(msgData))
	}
	return results, nil
}

// collectMessage drains all fetch items for one message. The body
// literal must be consumed inside the item loop, before Next() is
// called again, or the client deadlocks.
func (s *imapSession) collectMessage(msgData *imapclient.FetchMessageData) out.FetchResult {
	var (
		envelope    *imap.Envelope
		uid         imap.UID
		content     string
		attachments []string
		extractErr  error
		sawBody     bool
	)
	for {
		item := msgData.Next()
		if item == nil {
			break
		}
		switch it := item.(type) {
		case imapclient.FetchItemDataEnvelope:
			envelope = it.Envelope
		case imapclient.FetchItemDataUID:
			uid = it.UID
		case imapclient.FetchItemDataBodySection:
			if it.Literal == nil {
				continue
			}
			sawBody = true
			content, attachments, extractErr = extractParts(it.Literal)
		}
	}

	result := out.FetchResult{UID: uint32(uid)}
	if extractErr != nil {
		result.Err = apperr.ExtractFailed(extractErr)
		return result
	}
	if !sawBody {
		result.Err = apperr.ExtractFailed(fmt.Errorf("message %d has no body section", uid))
		return result
	}

	msg := &domain.InboundMessage{
		UID:         uint32(uid),
		Content:     content,
		Attachments: attachments,
	}
	if envelope != nil {
		msg.Subject = envelope.Subject
		if len(envelope.From) > 0 && envelope.From[0].Mailbox != "" {
			from := envelope.From[0]
			msg.Sender = fmt.Sprintf("%s@%s", from.Mailbox, from.Host)
		}
	}
	if msg.Sender == "" {
		result.Err = apperr.ExtractFailed(fmt.Errorf("message %d has no sender address", uid))
		return result
	}
	result.Message = msg
	return result
}

func (s *imapSession) MarkSeen(ctx context.Context, uid uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	storeCmd := s.client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Flags:  []imap.Flag{imap.FlagSeen},
		Silent: true,
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return apperr.TransportError(fmt.Errorf("imap store seen uid %d: %w", uid, err))
	}
	return nil
}

func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}
