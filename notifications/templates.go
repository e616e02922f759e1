package notifications

import (
	"fmt"
	"time"

	"salon-booking/shared/i18n"
)

const salonName = "Studio Urody"

// ConfirmationEmail renders the booking confirmation in the client's
// language. Plain HTML, matching what the SPA's transactional mail looks
// like; content strings live in the locale files.
func ConfirmationEmail(lang, clientName, serviceName, stylistName string, start time.Time) (subject, body string) {
	subject = i18n.T(lang, "email.confirmation.subject", salonName)
	body = fmt.Sprintf(`<html><body>
<p>%s</p>
<p>%s</p>
<p><strong>%s</strong></p>
<p>%s</p>
</body></html>`,
		i18n.T(lang, "email.confirmation.greeting", clientName),
		i18n.T(lang, "email.confirmation.body", serviceName, stylistName),
		i18n.T(lang, "email.confirmation.when", start.Format("02.01.2006 15:04")),
		i18n.T(lang, "email.confirmation.footer"),
	)
	return subject, body
}

func ReminderEmail(lang, serviceName string, start time.Time) (subject, body string) {
	subject = i18n.T(lang, "email.reminder.subject", salonName)
	body = fmt.Sprintf(`<html><body><p>%s</p></body></html>`,
		i18n.T(lang, "email.reminder.body", serviceName, start.Format("15:04")),
	)
	return subject, body
}
