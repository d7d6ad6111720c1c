package notification

import (
	"context"
	"strings"

	"github.com/healthmate/healthmate/internal/platform/events"
)

// topicTemplates maps bus topics to the template used for them. Events whose
// topic is absent here are ignored.
var topicTemplates = map[string]string{
	events.TopicInvitationCreated:  TemplateFamilyInvitation,
	events.TopicInvitationAccepted: TemplateInvitationAccepted,
	events.TopicInvitationRejected: TemplateInvitationRejected,
	events.TopicInvitationExpired:  TemplateInvitationExpired,
	events.TopicMemberRemoved:      TemplateMemberRemoved,
	events.TopicEmergencyAlert:     TemplateEmergencyAlert,
	events.TopicEmergencyResolved:  TemplateEmergencyResolved,
}

// SubscribeEvents wires the notification service to the event bus. The event
// payload supplies both the template data and the recipients: "recipient"
// holds a single address, "recipients" a comma-separated list for fan-out
// (emergency alerts go to every active family member at once). The returned
// cancel function removes all subscriptions.
func (s *Service) SubscribeEvents(bus *events.Bus) func() {
	var cancels []func()
	for topic, templateID := range topicTemplates {
		tid := templateID
		cancels = append(cancels, bus.Subscribe(topic, func(ctx context.Context, evt events.Event) {
			s.handleEvent(ctx, tid, evt)
		}))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, templateID string, evt events.Event) {
	for _, recipient := range eventRecipients(evt) {
		if _, err := s.SendFromTemplate(ctx, templateID, evt.Payload, recipient); err != nil {
			s.logger.Warn().
				Str("topic", evt.Topic).
				Str("recipient", recipient).
				Err(err).
				Msg("event notification failed")
		}
	}
}

func eventRecipients(evt events.Event) []string {
	if r := evt.Payload["recipient"]; r != "" {
		return []string{r}
	}
	var out []string
	for _, r := range strings.Split(evt.Payload["recipients"], ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
