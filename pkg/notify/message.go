package notify

import (
	"fmt"
	"strings"
)

// formatText renders the chat-webhook body, prefixing the severity tag
// (e.g. "[HIGH]") the scenario in §8 checks for.
func formatText(inc Incident) string {
	return fmt.Sprintf("[%s] %s\nWindow: %s to %s\nConfidence: %.2f\nBlast radius: %s\n\n%s\n\nRoot cause: %s",
		strings.ToUpper(inc.Severity), inc.Title, inc.WindowStart, inc.WindowEnd,
		inc.Confidence, inc.BlastRadius, inc.Summary, inc.RootCause)
}

// formatHTML renders the email body as a minimal HTML summary.
func formatHTML(inc Incident) string {
	return fmt.Sprintf(`<html><body>
<h2>[%s] %s</h2>
<p><strong>Window:</strong> %s to %s</p>
<p><strong>Confidence:</strong> %.2f</p>
<p><strong>Blast radius:</strong> %s</p>
<p>%s</p>
<p><strong>Root cause:</strong> %s</p>
</body></html>`,
		strings.ToUpper(inc.Severity), inc.Title, inc.WindowStart, inc.WindowEnd,
		inc.Confidence, inc.BlastRadius, inc.Summary, inc.RootCause)
}
