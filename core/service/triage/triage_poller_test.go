package triage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
)

type fakeSession struct {
	results  []out.FetchResult
	fetchErr error

	mu     sync.Mutex
	seen   []uint32
	closed bool
}

func (s *fakeSession) FetchUnseen(ctx context.Context) ([]out.FetchResult, error) {
	return s.results, s.fetchErr
}

func (s *fakeSession) MarkSeen(ctx context.Context, uid uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, uid)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeSource struct {
	session *fakeSession
	err     error

	connects int
}

func (s *fakeSource) Connect(ctx context.Context) (out.MailboxSession, error) {
	s.connects++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func newTestPipeline(classifier *stubClassifier, tickets *stubTickets, sender *stubSender) *Pipeline {
	return NewPipeline(
		classifier,
		tickets,
		&stubDrafter{draft: domain.ReplyDraft{Subject: "AB12CD34 - Re", Body: "<p>Hi</p>"}},
		sender,
		nil,
		nil,
		zerolog.Nop(),
	)
}

func TestRunOnceProcessesAndMarksSeen(t *testing.T) {
	session := &fakeSession{results: []out.FetchResult{
		{UID: 1, Message: &domain.InboundMessage{UID: 1, Sender: "alice@example.com", Subject: "a", Content: "claim"}},
		{UID: 2, Message: &domain.InboundMessage{UID: 2, Sender: "bob@example.com", Subject: "b", Content: "billing"}},
	}}
	source := &fakeSource{session: session}
	sender := &stubSender{}
	pipeline := newTestPipeline(&stubClassifier{category: domain.CategoryClaim}, &stubTickets{ticketID: "AB12CD34"}, sender)

	p := NewPoller(source, pipeline, "@every 1h", time.Minute, nil, zerolog.Nop())
	p.RunOnce(context.Background())

	if sender.calls != 2 {
		t.Errorf("sent %d replies, want 2", sender.calls)
	}
	if len(session.seen) != 2 || session.seen[0] != 1 || session.seen[1] != 2 {
		t.Errorf("marked seen %v, want [1 2]", session.seen)
	}
	if !session.closed {
		t.Error("session not closed after run")
	}
}

func TestRunOnceLeavesFailedMessagesUnseen(t *testing.T) {
	session := &fakeSession{results: []out.FetchResult{
		{UID: 5, Message: &domain.InboundMessage{UID: 5, Sender: "alice@example.com", Content: "x"}},
	}}
	source := &fakeSource{session: session}
	sender := &stubSender{}
	pipeline := newTestPipeline(&stubClassifier{category: domain.CategoryClaim}, &stubTickets{err: errors.New("workflow down")}, sender)

	p := NewPoller(source, pipeline, "@every 1h", time.Minute, nil, zerolog.Nop())
	p.RunOnce(context.Background())

	if sender.calls != 0 {
		t.Errorf("sent %d replies, want 0", sender.calls)
	}
	if len(session.seen) != 0 {
		t.Errorf("marked seen %v, want none", session.seen)
	}
}

func TestRunOnceExtractionErrorFailsOnlyThatMessage(t *testing.T) {
	session := &fakeSession{results: []out.FetchResult{
		{UID: 3, Err: errors.New("bad mime")},
		{UID: 4, Message: &domain.InboundMessage{UID: 4, Sender: "bob@example.com", Content: "billing"}},
	}}
	source := &fakeSource{session: session}
	sender := &stubSender{}
	pipeline := newTestPipeline(&stubClassifier{category: domain.CategoryBilling}, &stubTickets{ticketID: "AB12CD34"}, sender)

	p := NewPoller(source, pipeline, "@every 1h", time.Minute, nil, zerolog.Nop())
	p.RunOnce(context.Background())

	if sender.calls != 1 {
		t.Errorf("sent %d replies, want 1", sender.calls)
	}
	if len(session.seen) != 1 || session.seen[0] != 4 {
		t.Errorf("marked seen %v, want [4]", session.seen)
	}
}

func TestRunOnceEmptyMailbox(t *testing.T) {
	session := &fakeSession{}
	source := &fakeSource{session: session}
	sender := &stubSender{}
	pipeline := newTestPipeline(&stubClassifier{category: domain.CategoryClaim}, &stubTickets{ticketID: "AB12CD34"}, sender)

	p := NewPoller(source, pipeline, "@every 1h", time.Minute, nil, zerolog.Nop())
	p.RunOnce(context.Background())

	if sender.calls != 0 {
		t.Errorf("sent %d replies on empty mailbox", sender.calls)
	}
	if !session.closed {
		t.Error("session not closed")
	}
}

func TestRunOnceSkipsWhenRunInProgress(t *testing.T) {
	source := &fakeSource{session: &fakeSession{}}
	pipeline := newTestPipeline(&stubClassifier{category: domain.CategoryClaim}, &stubTickets{ticketID: "AB12CD34"}, &stubSender{})

	p := NewPoller(source, pipeline, "@every 1h", time.Minute, nil, zerolog.Nop())

	p.mu.Lock()
	p.RunOnce(context.Background())
	p.mu.Unlock()

	if source.connects != 0 {
		t.Errorf("overlapping run connected %d times, want 0", source.connects)
	}
}

func TestRunOnceConnectFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("dial tcp: refused")}
	pipeline := newTestPipeline(&stubClassifier{category: domain.CategoryClaim}, &stubTickets{ticketID: "AB12CD34"}, &stubSender{})

	p := NewPoller(source, pipeline, "@every 1h", time.Minute, nil, zerolog.Nop())
	p.RunOnce(context.Background())

	if source.connects != 1 {
		t.Errorf("connected %d times, want 1", source.connects)
	}
}
