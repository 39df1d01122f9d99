package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/joern1811/wapay/internal/domain"
)

// TextRenderer renders a correlation result as plain text or Markdown.
type TextRenderer struct {
	Markdown bool
}

func (r *TextRenderer) Render(w io.Writer, result *domain.CorrelationResult) error {
	var b strings.Builder

	if r.Markdown {
		b.WriteString("| Image | Contact | Phone | Sent | Match |\n")
		b.WriteString("|---|---|---|---|---|\n")
	}
	for i := range result.Attributions {
		b.WriteString(r.formatAttribution(&result.Attributions[i]))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	fmt.Fprintf(&b, "Mapped %d of %d images\n", result.MatchedCount(), result.Len())

	if len(result.Unmatched) > 0 {
		r.heading(&b, "Unmatched images")
		for _, u := range result.Unmatched {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	if len(result.Missing) > 0 {
		r.heading(&b, "Referenced but missing from the export")
		for _, m := range result.Missing {
			fmt.Fprintf(&b, "- %s (%s, message %d)\n", m.Filename, orDash(m.Sender), m.MessageIndex)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TextRenderer) heading(b *strings.Builder, title string) {
	if r.Markdown {
		fmt.Fprintf(b, "\n### %s\n\n", title)
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
}

func (r *TextRenderer) formatAttribution(a *domain.Attribution) string {
	sent := "-"
	if !a.SentAt.IsZero() {
		sent = a.SentAt.Format("02.01.2006 15:04")
	}

	if r.Markdown {
		return fmt.Sprintf("| %s | %s | %s | %s | %s |",
			a.Asset.Filename, orDash(a.Contact.Name), orDash(a.Contact.Phone), sent, a.Strategy)
	}

	if !a.Matched() {
		return fmt.Sprintf("%s -> (unmatched)", a.Asset.Filename)
	}
	contact := a.Contact.Name
	if a.Contact.Phone != "" && a.Contact.Phone != a.Contact.Name {
		contact += " (" + a.Contact.Phone + ")"
	}
	return fmt.Sprintf("%s -> %s [%s, %s]", a.Asset.Filename, contact, sent, a.Strategy)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
