package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/healthmate/healthmate/internal/platform/events"
)

type emailCall struct {
	To      string
	Subject string
	Body    string
}

type mockEmailSender struct {
	mu         sync.Mutex
	calls      []emailCall
	shouldFail bool
}

func (m *mockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, emailCall{To: to, Subject: subject, Body: body})
	if m.shouldFail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type smsCall struct {
	To   string
	Body string
}

type mockSMSSender struct {
	mu    sync.Mutex
	calls []smsCall
}

func (m *mockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, smsCall{To: to, Body: body})
	return nil
}

func newTestService(email *mockEmailSender, sms *mockSMSSender) *Service {
	return NewService(email, sms, NewTemplateEngine(), zerolog.Nop())
}

func TestTemplateEngine_RenderInvitation(t *testing.T) {
	engine := NewTemplateEngine()
	rendered, err := engine.Render(TemplateFamilyInvitation, map[string]string{
		"inviter_name": "Anita",
		"relationship": "spouse",
		"email":        "sam@example.com",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(rendered.Subject, "Anita") {
		t.Errorf("subject missing inviter name: %q", rendered.Subject)
	}
	if !strings.Contains(rendered.Body, "spouse") || !strings.Contains(rendered.Body, "sam@example.com") {
		t.Errorf("body missing data: %q", rendered.Body)
	}
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	engine := NewTemplateEngine()
	if _, err := engine.Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestService_SendFromTemplate(t *testing.T) {
	email := &mockEmailSender{}
	svc := newTestService(email, &mockSMSSender{})

	n, err := svc.SendFromTemplate(context.Background(), TemplateInvitationAccepted,
		map[string]string{"member_name": "Sam"}, "anita@example.com")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.Status != "sent" || n.SentAt == nil {
		t.Errorf("expected sent status, got %+v", n)
	}
	if len(email.calls) != 1 || email.calls[0].To != "anita@example.com" {
		t.Errorf("unexpected email calls: %+v", email.calls)
	}
}

func TestService_EmergencyUsesSMS(t *testing.T) {
	sms := &mockSMSSender{}
	svc := newTestService(&mockEmailSender{}, sms)

	_, err := svc.SendFromTemplate(context.Background(), TemplateEmergencyAlert,
		map[string]string{"patient_name": "Anita", "message": "fall detected", "location": "home"},
		"+15550001111")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sms.calls) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(sms.calls))
	}
	if !strings.Contains(sms.calls[0].Body, "fall detected") {
		t.Errorf("sms body missing message: %q", sms.calls[0].Body)
	}
}

func TestService_FailedSendIsLoggedAndRetryable(t *testing.T) {
	email := &mockEmailSender{shouldFail: true}
	svc := newTestService(email, &mockSMSSender{})

	n, err := svc.SendFromTemplate(context.Background(), TemplateInvitationRejected,
		map[string]string{"email": "sam@example.com"}, "anita@example.com")
	if err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != "failed" || n.Error == "" {
		t.Errorf("expected failed status with error, got %+v", n)
	}

	email.shouldFail = false
	if err := svc.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	stored, err := svc.Get(n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != "sent" || stored.Error != "" {
		t.Errorf("expected retried notification to be sent, got %+v", stored)
	}
}

func TestService_RetryRejectsNonFailed(t *testing.T) {
	svc := newTestService(&mockEmailSender{}, &mockSMSSender{})
	n, err := svc.SendFromTemplate(context.Background(), TemplateInvitationAccepted,
		map[string]string{"member_name": "Sam"}, "anita@example.com")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Retry(context.Background(), n.ID); err == nil {
		t.Fatal("expected error retrying a sent notification")
	}
}

func TestService_Stats(t *testing.T) {
	email := &mockEmailSender{}
	svc := newTestService(email, &mockSMSSender{})

	svc.SendFromTemplate(context.Background(), TemplateInvitationAccepted, map[string]string{}, "a@b.com")
	email.shouldFail = true
	svc.SendFromTemplate(context.Background(), TemplateInvitationAccepted, map[string]string{}, "c@d.com")

	stats := svc.Stats()
	if stats["sent"] != 1 || stats["failed"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestSubscribeEvents_InvitationCreated(t *testing.T) {
	email := &mockEmailSender{}
	svc := newTestService(email, &mockSMSSender{})
	bus := events.NewBus(zerolog.Nop())
	cancel := svc.SubscribeEvents(bus)
	defer cancel()

	bus.Publish(context.Background(), events.TopicInvitationCreated, map[string]string{
		"recipient":    "sam@example.com",
		"inviter_name": "Anita",
		"relationship": "spouse",
		"email":        "sam@example.com",
	})

	if len(email.calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.calls))
	}
	if email.calls[0].To != "sam@example.com" {
		t.Errorf("unexpected recipient %q", email.calls[0].To)
	}
}

func TestSubscribeEvents_EmergencyFanOut(t *testing.T) {
	sms := &mockSMSSender{}
	svc := newTestService(&mockEmailSender{}, sms)
	bus := events.NewBus(zerolog.Nop())
	cancel := svc.SubscribeEvents(bus)
	defer cancel()

	bus.Publish(context.Background(), events.TopicEmergencyAlert, map[string]string{
		"recipients":   "+15550001111, +15550002222",
		"patient_name": "Anita",
		"message":      "chest pain",
		"location":     "home",
	})

	if len(sms.calls) != 2 {
		t.Fatalf("expected 2 sms deliveries, got %d", len(sms.calls))
	}
}

func TestSubscribeEvents_CancelStopsDelivery(t *testing.T) {
	email := &mockEmailSender{}
	svc := newTestService(email, &mockSMSSender{})
	bus := events.NewBus(zerolog.Nop())
	cancel := svc.SubscribeEvents(bus)
	cancel()

	bus.Publish(context.Background(), events.TopicInvitationCreated, map[string]string{
		"recipient": "sam@example.com",
	})

	if len(email.calls) != 0 {
		t.Errorf("expected no deliveries after cancel, got %d", len(email.calls))
	}
}
