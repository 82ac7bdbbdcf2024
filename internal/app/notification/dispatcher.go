// Package notification tells thread subscribers about new replies.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/email"
)

// DefaultSubjectPrefix prefixes every notification subject
const DefaultSubjectPrefix = "[Forum]"

// wrapWidth is the column the reply body is wrapped at
const wrapWidth = 72

// Dispatcher delivers a reply notification to the given addresses.
// Implementations are best effort; callers log failures and move on.
type Dispatcher interface {
	Notify(ctx context.Context, thread *models.Thread, post *models.Post, recipients []string) error
}

// MailConfig controls how notification mails look
type MailConfig struct {
	SubjectPrefix string
	// BaseURL is prepended to thread links, e.g. https://forum.example.com
	BaseURL string
}

// MailDispatcher sends one BCC mail per reply to all subscribers
type MailDispatcher struct {
	sender email.Sender
	config MailConfig
	logger zerolog.Logger
}

// NewMailDispatcher creates a new MailDispatcher
func NewMailDispatcher(sender email.Sender, config MailConfig, logger zerolog.Logger) *MailDispatcher {
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = DefaultSubjectPrefix
	}
	return &MailDispatcher{
		sender: sender,
		config: config,
		logger: logger,
	}
}

// Notify composes the reply mail and hands it to the sender
func (d *MailDispatcher) Notify(ctx context.Context, thread *models.Thread, post *models.Post, recipients []string) error {
	msg := Compose(d.config, thread, post, recipients)
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reply notification for thread %d: %w", thread.ID, err)
	}

	d.logger.Debug().
		Int64("threadID", thread.ID).
		Int64("postID", post.ID).
		Int("recipients", len(recipients)).
		Msg("Reply notification sent")
	return nil
}

// Compose builds the notification mail. Recipients go to BCC only.
func Compose(config MailConfig, thread *models.Thread, post *models.Post, recipients []string) email.Message {
	prefix := config.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	var body strings.Builder
	body.WriteString(WordWrap(StripTags(post.Body), wrapWidth))
	body.WriteString("\n\n-- \n")
	if post.AuthorName != "" {
		fmt.Fprintf(&body, "Posted by %s in %q\n", post.AuthorName, StripTags(thread.Title))
	}
	fmt.Fprintf(&body, "%s/threads/%d\n", strings.TrimRight(config.BaseURL, "/"), thread.ID)

	return email.Message{
		Bcc:     append([]string(nil), recipients...),
		Subject: prefix + " " + StripTags(thread.Title),
		Body:    body.String(),
	}
}

// Nop discards notifications
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, *models.Thread, *models.Post, []string) error {
	return nil
}
