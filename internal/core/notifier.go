package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Notifier dispatches approval notifications by template key.
// A missing template is a silent no-op, never an error.
type Notifier interface {
	Send(ctx context.Context, templateKey, orderRef string) error
}

type outboxNotifier struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewNotifier constructs a Notifier that renders notification_templates and
// writes the result to notification_outbox for delivery by the host mailer.
func NewNotifier(pool *pgxpool.Pool, log zerolog.Logger) Notifier {
	return &outboxNotifier{pool: pool, log: log}
}

func (n *outboxNotifier) Send(ctx context.Context, templateKey, orderRef string) error {
	var subject, body string
	err := n.pool.QueryRow(ctx,
		"SELECT subject, body FROM notification_templates WHERE key = $1",
		templateKey,
	).Scan(&subject, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			n.log.Debug().Str("template", templateKey).Msg("notification template missing, skipping")
			return nil
		}
		return fmt.Errorf("load notification template %s: %w", templateKey, err)
	}

	subject = strings.ReplaceAll(subject, "{{order}}", orderRef)
	body = strings.ReplaceAll(body, "{{order}}", orderRef)

	if _, err := n.pool.Exec(ctx, `
		INSERT INTO notification_outbox (template_key, order_ref, subject, body)
		VALUES ($1, $2, $3, $4)`,
		templateKey, orderRef, subject, body,
	); err != nil {
		return fmt.Errorf("enqueue notification %s for %s: %w", templateKey, orderRef, err)
	}
	return nil
}

// notifyBestEffort sends a notification outside the transactional state
// change it accompanies. Failures are logged and swallowed so a broken
// mailer can never fail an approval transition.
func notifyBestEffort(ctx context.Context, log zerolog.Logger, n Notifier, templateKey, orderRef string) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, templateKey, orderRef); err != nil {
		log.Warn().Err(err).
			Str("template", templateKey).
			Str("order", orderRef).
			Msg("notification dispatch failed (non-fatal)")
	}
}
