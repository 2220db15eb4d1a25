package content

import (
	"fmt"
	"strings"

	"staff_record_notifier/internal/app"
	"staff_record_notifier/internal/domain/alert"
	"staff_record_notifier/internal/domain/mailer"
	"staff_record_notifier/internal/domain/period"
	"staff_record_notifier/internal/domain/staff"
)

// Renderer builds the reminder and oversight summary messages. Text is
// assembled inline; there is no template store to manage.
type Renderer struct {
	oversightEmails []string
}

func NewRenderer(oversightEmails []string) *Renderer {
	return &Renderer{oversightEmails: oversightEmails}
}

func (r *Renderer) Reminder(t app.Task) mailer.Message {
	var subject, opening string
	switch t.Tier {
	case alert.TierSecond:
		subject = "Second reminder: records of work still pending"
		opening = "This is your second reminder"
	case alert.TierThird:
		subject = "Urgent: records of work overdue"
		opening = "This is an urgent reminder; the oversight office has been copied"
	case alert.TierFinal:
		subject = "Final notice: records of work overdue"
		opening = "This is the final notice; the matter has been escalated to the oversight office"
	default:
		subject = "Reminder: records of work pending submission"
		opening = "This is a friendly reminder"
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n%s: your records of work for %s have not been submitted. %d days have passed since the reporting period was activated.\n\nPlease submit your records as soon as possible.\n",
		t.Member.Name, opening, periodLabel(t.Period), t.Days,
	)
	return mailer.Message{To: []string{t.Member.Email}, Subject: subject, Body: body}
}

func (r *Renderer) OversightSummary(action alert.OversightAction, tier alert.Tier, members []*staff.Member, p *period.Period, days int) mailer.Message {
	var subject string
	if action == alert.OversightEscalate {
		subject = fmt.Sprintf("ESCALATION: %d staff with no records of work after %d days", len(members), days)
	} else {
		subject = fmt.Sprintf("Reminder summary: %d staff with no records of work (%s reminder)", len(members), strings.ToLower(string(tier)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reporting period: %s\n", periodLabel(p))
	fmt.Fprintf(&b, "Days since activation: %d\n", days)
	fmt.Fprintf(&b, "Reminder tier: %s\n", tier)
	fmt.Fprintf(&b, "Staff without records: %d\n\n", len(members))
	for _, m := range members {
		fmt.Fprintf(&b, "- %s (%s), grade %s\n", m.Name, m.Email, m.Grade)
	}

	return mailer.Message{
		To:      append([]string(nil), r.oversightEmails...),
		Subject: subject,
		Body:    b.String(),
	}
}

func periodLabel(p *period.Period) string {
	return fmt.Sprintf("semester %d, %d", p.Semester, p.Year)
}
