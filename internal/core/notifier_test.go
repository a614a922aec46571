package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Send(ctx context.Context, templateKey, orderRef string) error {
	s.calls++
	return s.err
}

func TestNotifyBestEffort_SwallowsSendFailure(t *testing.T) {
	n := &stubNotifier{err: errors.New("outbox unavailable")}
	notifyBestEffort(context.Background(), zerolog.Nop(), n, "level1_required", "PO-2026-00001")
	if n.calls != 1 {
		t.Fatalf("expected 1 send attempt, got %d", n.calls)
	}
}

func TestNotifyBestEffort_NilNotifierIsNoOp(t *testing.T) {
	// Must not panic; services may run without a notifier wired.
	notifyBestEffort(context.Background(), zerolog.Nop(), nil, "level1_required", "PO-2026-00001")
}
