// Package export renders travel documents for sharing.
package export

import (
	"bytes"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/yuin/goldmark"

	"github.com/wayfarerhq/wayfarer/internal/plan"
)

// Markdown renders a document as a shareable markdown itinerary.
func Markdown(doc *plan.TravelDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Summary.Title)
	fmt.Fprintf(&b, "%s\n\n", doc.Summary.Description)
	fmt.Fprintf(&b, "**Estimated total:** %d\n\n", doc.Summary.TotalEstimatedCost)

	if len(doc.Summary.VibeTags) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(doc.Summary.VibeTags, " · "))
	}

	for _, day := range doc.Itinerary {
		fmt.Fprintf(&b, "## Day %d — %s\n\n", day.DayNumber, day.Title)
		for _, act := range day.Activities {
			gem := ""
			if act.IsHiddenGem {
				gem = " ✦ hidden gem"
			}
			fmt.Fprintf(&b, "- **%s–%s %s**%s (%s, cost %d)\n", act.TimeStart, act.TimeEnd, act.PlaceName, gem, act.Type, act.EstimatedCost)
			if act.Description != "" {
				fmt.Fprintf(&b, "  %s\n", act.Description)
			}
			if act.BookingTip != "" {
				fmt.Fprintf(&b, "  *Tip: %s*\n", act.BookingTip)
			}
		}
		b.WriteString("\n")
	}

	if len(doc.PackingList) > 0 {
		b.WriteString("## Packing list\n\n")
		for _, item := range doc.PackingList {
			fmt.Fprintf(&b, "- %s — %s\n", item.Item, item.Reason)
		}
		b.WriteString("\n")
	}

	if len(doc.LocalWisdom.Dos) > 0 || len(doc.LocalWisdom.Donts) > 0 {
		b.WriteString("## Local wisdom\n\n")
		for _, d := range doc.LocalWisdom.Dos {
			fmt.Fprintf(&b, "- Do: %s\n", d)
		}
		for _, d := range doc.LocalWisdom.Donts {
			fmt.Fprintf(&b, "- Don't: %s\n", d)
		}
		if p := doc.LocalWisdom.LocalPhrase; p.Phrase != "" {
			fmt.Fprintf(&b, "\n**%s** — %s\n", p.Phrase, p.Meaning)
		}
	}

	return b.String()
}

// HTML renders the markdown itinerary as a standalone HTML page.
func HTML(doc *plan.TravelDocument) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	// Wrap in a minimal HTML envelope.
	html := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; font-size: 15px; line-height: 1.5; max-width: 48rem; margin: 2rem auto;">
%s
</body></html>`, doc.Summary.Title, buf.String())

	return html, nil
}

// ShareQR encodes a share URL as a PNG QR code of the given pixel size.
func ShareQR(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
