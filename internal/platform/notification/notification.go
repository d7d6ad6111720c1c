// Package notification provides Email/SMS delivery with template rendering,
// an in-memory delivery log, and retry for failed sends. Domain services do
// not call it directly; it subscribes to the event bus and reacts to family
// and emergency events.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Channel is the delivery channel for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is a single outbound message and its delivery outcome.
type Notification struct {
	ID         string            `json:"id"`
	Channel    Channel           `json:"channel"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// EmailSender sends email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template. Placeholders use the
// {{key}} form and are replaced verbatim from the data map.
type Template struct {
	ID      string  `json:"id"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// Built-in template IDs.
const (
	TemplateFamilyInvitation   = "family-invitation"
	TemplateInvitationAccepted = "invitation-accepted"
	TemplateInvitationRejected = "invitation-rejected"
	TemplateInvitationExpired  = "invitation-expired"
	TemplateMemberRemoved      = "family-member-removed"
	TemplateEmergencyAlert     = "emergency-alert"
	TemplateEmergencyResolved  = "emergency-alert-resolved"
)

// TemplateEngine stores templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateFamilyInvitation,
			Subject: "{{inviter_name}} invited you to their HealthMate care circle",
			Body:    "{{inviter_name}} has invited you to join their care circle as {{relationship}}. Open the app and accept the invitation sent to {{email}} to get access.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateInvitationAccepted,
			Subject: "{{member_name}} accepted your invitation",
			Body:    "{{member_name}} has accepted your care circle invitation and can now see the health data you chose to share.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateInvitationRejected,
			Subject: "Your care circle invitation was declined",
			Body:    "The invitation you sent to {{email}} was declined.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateInvitationExpired,
			Subject: "Your care circle invitation expired",
			Body:    "The invitation you sent to {{email}} was not accepted in time and has expired. You can send a new one from the Family tab.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateMemberRemoved,
			Subject: "Care circle access removed",
			Body:    "Your access to {{patient_name}}'s health data has been removed.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateEmergencyAlert,
			Subject: "EMERGENCY: {{patient_name}} needs help",
			Body:    "{{patient_name}} triggered an emergency alert: {{message}}. Location: {{location}}.",
			Channel: ChannelSMS,
		},
		{
			ID:      TemplateEmergencyResolved,
			Subject: "Emergency alert resolved",
			Body:    "The emergency alert for {{patient_name}} has been marked as resolved.",
			Channel: ChannelEmail,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template and performs {{key}} replacement. Keys present in
// the template but absent from data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (Template, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return Template{}, fmt.Errorf("template %q not found", templateID)
	}

	out := *t
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		out.Subject = strings.ReplaceAll(out.Subject, placeholder, v)
		out.Body = strings.ReplaceAll(out.Body, placeholder, v)
	}
	return out, nil
}

// Service dispatches notifications and keeps an in-memory delivery log.
type Service struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine
	logger    zerolog.Logger

	mu  sync.RWMutex
	log map[string]*Notification
}

// NewService constructs a notification Service.
func NewService(email EmailSender, sms SMSSender, tpl *TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{
		email:     email,
		sms:       sms,
		templates: tpl,
		logger:    logger.With().Str("component", "notification").Logger(),
		log:       make(map[string]*Notification),
	}
}

// Send dispatches a notification through its channel, records the outcome in
// the delivery log, and returns the send error if any.
func (s *Service) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()

	sendErr := s.dispatch(ctx, n)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
		s.logger.Warn().Str("notification_id", n.ID).Str("recipient", n.Recipient).Err(sendErr).Msg("notification send failed")
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	s.mu.Lock()
	s.log[n.ID] = n
	s.mu.Unlock()

	return sendErr
}

func (s *Service) dispatch(ctx context.Context, n *Notification) error {
	switch n.Channel {
	case ChannelEmail:
		if s.email == nil {
			return errors.New("no email sender configured")
		}
		return s.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case ChannelSMS:
		if s.sms == nil {
			return errors.New("no sms sender configured")
		}
		return s.sms.SendSMS(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("unsupported channel: %s", n.Channel)
	}
}

// SendFromTemplate renders a template and sends the result to recipient.
func (s *Service) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	rendered, err := s.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Channel:    rendered.Channel,
		Recipient:  recipient,
		Subject:    rendered.Subject,
		Body:       rendered.Body,
		TemplateID: templateID,
		Data:       data,
	}
	if err := s.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get retrieves a logged notification by ID.
func (s *Service) Get(id string) (*Notification, error) {
	s.mu.RLock()
	n, ok := s.log[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// ListByRecipient returns logged notifications for a recipient, up to limit.
func (s *Service) ListByRecipient(recipient string, limit int) []*Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Notification
	for _, n := range s.log {
		if n.Recipient == recipient {
			out = append(out, n)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Retry re-sends a failed notification. Returns an error if the notification
// is not in failed status.
func (s *Service) Retry(ctx context.Context, id string) error {
	s.mu.RLock()
	n, ok := s.log[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, n.Status)
	}

	sendErr := s.dispatch(ctx, n)

	s.mu.Lock()
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	s.mu.Unlock()

	return sendErr
}

// Stats returns counts of logged notifications grouped by status.
func (s *Service) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range s.log {
		stats[n.Status]++
	}
	return stats
}
