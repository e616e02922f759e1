package parser

import (
	"regexp"
	"strings"
	"time"

	"salon-booking/shared/models"
)

// BookingEvent is the structured form of one Booksy notification email.
// Constructed once per inbound message, consumed by the reconciler,
// then discarded.
type BookingEvent struct {
	ClientName   string
	ClientPhone  string
	ClientEmail  string
	ServiceName  string
	WorkerName   string
	PriceText    string
	StartTime    time.Time
	EndTime      time.Time
	EmailType    models.EmailType
	OldStartTime *time.Time
	OldEndTime   *time.Time
}

// Pattern families, tried in the priority order the extraction functions
// document. Kept as named package vars so the fallback order is auditable.
var (
	forwardPrefix = regexp.MustCompile(`(?i)^\s*fwd?:\s*`)

	subjectNewName     = regexp.MustCompile(`(?i)^(.+?):\s*nowa rezerwacja`)
	subjectChangedName = regexp.MustCompile(`(?i)^(.+?):\s*zmienił`)
	bodyCancelledName  = regexp.MustCompile(`Klient(?:ka)?\s+(.+?)\s+odwołał`)
	subjCancelledName  = regexp.MustCompile(`^(.+?)\s+odwołał`)

	phonePattern = regexp.MustCompile(`(?:^|\D)(\+48[\s\-]?)?(\d{3})[\s\-]?(\d{3})[\s\-]?(\d{3})(?:\D|$)`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	workerPattern = regexp.MustCompile(`(?i)pracownik:\s*([^\n]+)`)

	cancelledService = regexp.MustCompile(`(?s)odwołał\S*\s+swoją usługę\s+(.+?)\s+w dniu`)
	changedService   = regexp.MustCompile(`(?s)przesun\S*\s+swoją wizytę\s+(.+?)\s+z dnia`)
	// nearest non-blank line above a price-bearing line
	priceLineService = regexp.MustCompile(`(?m)^[ \t]*(\S[^\n]*?)[ \t]*\n(?:[ \t]*\n)*[ \t]*\d[\d\s.,]*zł`)

	pricePattern = regexp.MustCompile(`\d[\d\s.,]*zł`)

	// "z dnia <weekday>, 23 lutego 2026 ... na inny termin"; weekday names
	// carry diacritics, so match letters, not \w.
	changedOldFragment = regexp.MustCompile(`(?s)z dnia\s+\p{L}+,\s*(.+?)\s*na inny termin`)
	changedNewFragment = regexp.MustCompile(`(?s)Nowy termin wizyty:\s*(.+)`)
)

// Vocabulary that marks an email as Booksy traffic even when a manual
// forward has mangled the sender headers.
// Verb stems only, so both gendered forms (odwołał/odwołała) match.
var booksyVocabulary = []string{
	"booksy",
	"nowa rezerwacja",
	"swoją usługę",
	"swoją wizytę",
	"zmienił rezerwację",
	"nowy termin wizyty",
	"pracownik:",
}

// IsBooksyEmail is the authenticity gate: either the sender carries the
// partner domain token, or the subject/body carries partner vocabulary.
func IsBooksyEmail(from, subject, body, domainToken string) bool {
	if domainToken != "" && strings.Contains(strings.ToLower(from), strings.ToLower(domainToken)) {
		return true
	}
	haystack := strings.ToLower(subject + "\n" + body)
	for _, phrase := range booksyVocabulary {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}

// Classify detects the email type by keyword priority: a cancellation
// phrase wins over a change phrase, anything else is a new booking.
func Classify(subject, body string) models.EmailType {
	haystack := strings.ToLower(subject + "\n" + body)
	if strings.Contains(haystack, "odwołał") {
		return models.EmailCancelled
	}
	if strings.Contains(haystack, "zmienił rezerwację") ||
		strings.Contains(haystack, "przesun") ||
		strings.Contains(haystack, "nowy termin wizyty") {
		return models.EmailChanged
	}
	return models.EmailNew
}

// Parse turns one Booksy email into a BookingEvent. It never fails hard:
// missing fields come back as zero values plus a note in the returned
// problem list, and the caller decides whether the event is usable
// (no client name or no start time makes it an error record).
func Parse(subject, htmlBody, textBody string) (*BookingEvent, []string) {
	subject = stripForwardPrefix(subject)

	text := textBody
	if htmlBody != "" {
		text = flattenHTML(htmlBody)
	}

	event := &BookingEvent{
		EmailType: Classify(subject, text),
	}
	var problems []string

	event.ClientName = extractClientName(subject, text, htmlBody, event.EmailType)
	if event.ClientName == "" {
		problems = append(problems, "client name not found")
	}

	event.ClientPhone = extractPhone(text)
	event.ClientEmail = extractClientEmail(text)
	event.WorkerName = extractWorker(text)
	event.ServiceName = extractService(text, event.EmailType)
	if price := pricePattern.FindString(text); price != "" {
		event.PriceText = strings.TrimSpace(price)
	}

	switch event.EmailType {
	case models.EmailChanged:
		if m := changedOldFragment.FindStringSubmatch(text); m != nil {
			if start, end, ok := parseDateTime(m[1]); ok {
				event.OldStartTime = &start
				event.OldEndTime = &end
			}
		}
		if m := changedNewFragment.FindStringSubmatch(text); m != nil {
			if start, end, ok := parseDateTime(m[1]); ok {
				event.StartTime = start
				event.EndTime = end
			}
		}
		if event.OldStartTime == nil {
			problems = append(problems, "old booking time not found")
		}
	default:
		if start, end, ok := parseDateTime(text); ok {
			event.StartTime = start
			event.EndTime = end
		}
	}

	if event.StartTime.IsZero() {
		problems = append(problems, "start time not found")
	}

	return event, problems
}

// stripForwardPrefix removes leading "Fwd:" / "Fw:" markers a manual
// forward adds, so they never leak into the extracted client name.
func stripForwardPrefix(subject string) string {
	for forwardPrefix.MatchString(subject) {
		subject = forwardPrefix.ReplaceAllString(subject, "")
	}
	return strings.TrimSpace(subject)
}

// extractClientName tries, in order: the type-specific subject pattern,
// the cancellation body pattern, then the first bold span of the raw HTML.
func extractClientName(subject, text, htmlBody string, emailType models.EmailType) string {
	switch emailType {
	case models.EmailCancelled:
		if m := bodyCancelledName.FindStringSubmatch(subject + "\n" + text); m != nil {
			return strings.TrimSpace(m[1])
		}
		// "Wiktoria Karpiej odwołał swoją usługę" without the Klient label
		if m := subjCancelledName.FindStringSubmatch(subject); m != nil {
			return strings.TrimSpace(m[1])
		}
	case models.EmailChanged:
		if m := subjectChangedName.FindStringSubmatch(subject); m != nil {
			return strings.TrimSpace(m[1])
		}
	default:
		if m := subjectNewName.FindStringSubmatch(subject); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	if htmlBody != "" {
		return firstBoldText(htmlBody)
	}
	return ""
}

func extractPhone(text string) string {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	phone := m[2] + " " + m[3] + " " + m[4]
	if m[1] != "" {
		phone = "+48 " + phone
	}
	return phone
}

// extractClientEmail returns the first address that is not infrastructure:
// the partner's own domain, the personal-cloud forward relay, and no-reply
// mailboxes never belong to the client.
func extractClientEmail(text string) string {
	for _, candidate := range emailPattern.FindAllString(text, -1) {
		lower := strings.ToLower(candidate)
		if strings.Contains(lower, "booksy") ||
			strings.Contains(lower, "privaterelay") ||
			strings.Contains(lower, "no-reply") ||
			strings.Contains(lower, "noreply") {
			continue
		}
		return candidate
	}
	return ""
}

func extractWorker(text string) string {
	if m := workerPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractService is type-dependent: cancellations and changes carry the
// service inline in a sentence; new bookings list it on the line above the
// price, optionally prefixed "Category (Role): " which is stripped down to
// the segment after the last colon.
func extractService(text string, emailType models.EmailType) string {
	switch emailType {
	case models.EmailCancelled:
		if m := cancelledService.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	case models.EmailChanged:
		if m := changedService.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	if m := priceLineService.FindStringSubmatch(text); m != nil {
		service := strings.TrimSpace(m[1])
		if idx := strings.LastIndex(service, ":"); idx >= 0 {
			service = strings.TrimSpace(service[idx+1:])
		}
		return service
	}
	return ""
}
