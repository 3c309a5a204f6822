// Package report renders an audit-grade CSV export of a campaign snapshot.
// Output is deterministic: the same snapshot always produces byte-identical
// bytes, and every field is quoted so the file round-trips through any CSV
// parser regardless of embedded commas, quotes, or newlines.
package report

import (
	"bytes"
	"strings"
	"time"

	"recert/internal/review/models"
)

const (
	dateFormat      = "Jan 2, 2006"
	timestampFormat = "Jan 2, 2006 15:04"

	permissionDelimiter = " | "
)

// MIMEType is the content type for the generated export.
const MIMEType = "text/csv; charset=utf-8"

// Generate renders the campaign snapshot as CSV. Header block first
// (Review Name, Status, Due Date), then a blank separator line, then the item
// table. Absent dates render empty; an absent last-active renders "Never".
func Generate(detail *models.CampaignDetail) []byte {
	var buf bytes.Buffer

	writeRow(&buf, "Review Name", "Status", "Due Date")
	writeRow(&buf, detail.Campaign.Name, string(detail.Campaign.Status), formatDate(detail.Campaign.DueDate))
	buf.WriteByte('\n')

	writeRow(&buf, "User", "Email", "Role", "Permissions", "Last Active", "Decision", "Notes", "Reviewed At")
	for _, item := range detail.Items {
		lastActive := "Never"
		if item.LastActiveAt != nil {
			lastActive = item.LastActiveAt.Format(dateFormat)
		}
		reviewedAt := ""
		if item.ReviewedAt != nil {
			reviewedAt = item.ReviewedAt.Format(timestampFormat)
		}
		writeRow(&buf,
			item.UserName,
			item.UserEmail,
			item.RoleName,
			strings.Join(item.Permissions, permissionDelimiter),
			lastActive,
			string(item.Decision),
			item.Notes,
			reviewedAt,
		)
	}

	return buf.Bytes()
}

// Filename derives a download name from the campaign.
func Filename(c models.Campaign) string {
	slug := strings.ToLower(strings.TrimSpace(c.Name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "access-review"
	}
	return slug + ".csv"
}

// writeRow emits one record with every field quoted and embedded quotes
// doubled. encoding/csv quotes only when necessary, which would make output
// depend on field content; unconditional quoting keeps the bytes stable.
func writeRow(buf *bytes.Buffer, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}
