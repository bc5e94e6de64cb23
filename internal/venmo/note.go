package venmo

import (
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/haukesand/vibecoder/internal/models"
)

var (
	afterAmountRe = regexp.MustCompile(`(?is)paid you \$[0-9,.]+(.*?)(?:view|note:|payment id:|$)`)
	markerRes     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)note:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)for\s+"([^"]+)"`),
		regexp.MustCompile(`(?i)with note\s+"([^"]+)"`),
	}
	anyQuotedRe  = regexp.MustCompile(`"([^"]+)"`)
	longQuotedRe = regexp.MustCompile(`"([^"]{5,})"`)
)

// noteContext carries the prepared views of one email that the note
// strategies share.
type noteContext struct {
	body     string   // raw plain-text body
	flat     string   // body with line breaks flattened to spaces
	html     string   // HTML body, may be empty
	excluded []string // phrases disqualifying a candidate, e.g. "Jane Doe paid you"
}

// A noteStrategy is one attempt at recovering an app description from an
// email. Strategies are pure and independently testable.
type noteStrategy func(noteContext) (string, bool)

// noteStrategies is the ordered cascade; the first non-empty result wins.
var noteStrategies = []noteStrategy{
	noteAfterAmount,
	noteQuotedAfterMarker,
	noteAnyQuoted,
	noteFirstPlainLine,
	noteTemplateHTML,
	noteAnyParagraph,
	noteLongestPlainLine,
	noteFirstLongQuote,
}

// extractNote runs the cascade and falls back to the placeholder, so the
// returned note is never empty.
func extractNote(bodyText, bodyHTML, sender string) string {
	c := noteContext{
		body: bodyText,
		flat: strings.NewReplacer("\r", " ", "\n", " ").Replace(bodyText),
		html: bodyHTML,
	}
	if sender != "" {
		c.excluded = append(c.excluded, sender+" paid you")
	}

	for _, strategy := range noteStrategies {
		if note, ok := strategy(c); ok {
			note = strings.TrimSpace(note)
			if note == "" {
				continue
			}
			log.Printf("extracted app description: %q", note)
			return note
		}
	}
	log.Printf("no app description found in payment, using placeholder")
	return models.PlaceholderNote
}

// noteAfterAmount takes the text between the amount and the first template
// terminator ("View ...", "Note:", "Payment ID:" or end of text).
func noteAfterAmount(c noteContext) (string, bool) {
	m := afterAmountRe.FindStringSubmatch(c.flat)
	if m == nil {
		return "", false
	}
	note := strings.TrimSpace(m[1])
	return note, note != ""
}

// noteQuotedAfterMarker matches quoted text after the literal markers
// `note:`, `for` and `with note`.
func noteQuotedAfterMarker(c noteContext) (string, bool) {
	for _, re := range markerRes {
		if m := re.FindStringSubmatch(c.flat); m != nil {
			note := strings.TrimSpace(m[1])
			if note != "" {
				return note, true
			}
		}
	}
	return "", false
}

// noteAnyQuoted accepts the first double-quoted span, as long as it is not a
// fragment of the standard "X paid you" template text.
func noteAnyQuoted(c noteContext) (string, bool) {
	m := anyQuotedRe.FindStringSubmatch(c.flat)
	if m == nil {
		return "", false
	}
	note := strings.TrimSpace(m[1])
	if len(note) > 3 && !strings.Contains(note, " paid you ") {
		return note, true
	}
	return "", false
}

// noteFirstPlainLine takes the first body line long enough to be a request
// and free of template boilerplate.
func noteFirstPlainLine(c noteContext) (string, bool) {
	for _, line := range strings.Split(strings.TrimSpace(c.body), "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if len(line) > 5 &&
			!strings.Contains(lower, "paid you") &&
			!strings.Contains(lower, "venmo") &&
			!strings.Contains(line, "$") &&
			!strings.Contains(lower, "view") {
			return line, true
		}
	}
	return "", false
}

// noteLongestPlainLine collects every body line surviving the boilerplate
// filter and picks the longest.
func noteLongestPlainLine(c noteContext) (string, bool) {
	var candidates []string
	for _, line := range strings.Split(strings.TrimSpace(c.body), "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if len(line) < 4 ||
			strings.Contains(lower, "venmo") ||
			strings.Contains(lower, "paid you") ||
			strings.Contains(lower, "payment") ||
			strings.Contains(line, "$") ||
			strings.Contains(line, "https://") ||
			strings.Contains(lower, "view") ||
			strings.Contains(lower, "from:") ||
			strings.Contains(lower, "to:") ||
			containsAnyFold(line, c.excluded) {
			continue
		}
		candidates = append(candidates, line)
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	return candidates[0], true
}

// noteFirstLongQuote is the last resort before the placeholder: any quoted
// span of at least five characters.
func noteFirstLongQuote(c noteContext) (string, bool) {
	m := longQuotedRe.FindStringSubmatch(c.flat)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// containsAnyFold reports whether s contains any of the phrases, case
// insensitively.
func containsAnyFold(s string, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range phrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
