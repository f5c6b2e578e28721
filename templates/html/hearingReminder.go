package templates

import (
	"fmt"
	"html"
	"time"
)

// descriptions longer than this are cut in the reminder
const maxDescriptionPreview = 280

// RenderHearingReminderEmail generates the reminder sent to a participant the day
// before a hearing
func RenderHearingReminderEmail(name, caseDescription string, hearing time.Time, caseURL string) string {
	preview := []rune(caseDescription)
	if len(preview) > maxDescriptionPreview {
		preview = append(preview[:maxDescriptionPreview], '…')
	}

	body := fmt.Sprintf(`<p>Hi %s,</p>
      <p>A hearing in your case is scheduled for <strong>%s</strong>.</p>
      <blockquote>%s</blockquote>
      <p>Review the latest orders, submissions and documents before attending.</p>
      <a class="button" href="%s">Open case</a>`,
		html.EscapeString(name),
		html.EscapeString(hearing.UTC().Format("Monday, 02 January 2006 at 15:04 MST")),
		html.EscapeString(string(preview)),
		html.EscapeString(caseURL),
	)
	return renderLayout("Hearing reminder", body)
}
