package templates

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderHearingReminderEmail(t *testing.T) {
	hearing := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	got := RenderHearingReminderEmail("Asha <b>Client</b>", "Landlord withheld the deposit", hearing, "https://cases.example.com/cases/abc")

	assert.Contains(t, got, "Monday, 04 March 2024 at 09:30 UTC")
	assert.Contains(t, got, "Asha &lt;b&gt;Client&lt;/b&gt;")
	assert.Contains(t, got, `href="https://cases.example.com/cases/abc"`)
	assert.Contains(t, got, "Legal Case Desk")
}

func TestRenderHearingReminderEmailTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", maxDescriptionPreview+50)

	got := RenderHearingReminderEmail("Ravi", long, time.Now(), "https://cases.example.com")

	assert.Contains(t, got, strings.Repeat("a", maxDescriptionPreview)+"…")
	assert.NotContains(t, got, strings.Repeat("a", maxDescriptionPreview+1))
}
