package notionsync

import (
	"strings"
	"time"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the mirror database.
const (
	PropDescription   = "Descrição"
	PropPosition      = "Posição"
	PropDate          = "Data"
	PropAmount        = "Valor"
	PropReimbursed    = "Reembolsado"
	PropCategory      = "Tags"
	PropPaymentMethod = "Método"
	PropFingerprint   = "Linha"
)

// RecordToNotionProperties converts a ledger record to page properties.
func RecordToNotionProperties(rec domain.Record) notionapi.Properties {
	title := rec.Description
	if title == "" {
		title = "(sem descrição)"
	}

	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: title,
					},
				},
			},
		},
		PropPosition: notionapi.NumberProperty{
			Number: float64(rec.Position),
		},
		PropAmount: notionapi.NumberProperty{
			Number: rec.Amount.InexactFloat64(),
		},
		PropReimbursed: notionapi.NumberProperty{
			Number: rec.Reimbursed.InexactFloat64(),
		},
		PropFingerprint: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: Fingerprint(rec),
					},
				},
			},
		},
	}

	if day, err := domain.ParseDay(rec.Date); err == nil {
		props[PropDate] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(day.In(time.UTC))
					return &d
				}(),
			},
		}
	}

	if rec.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Category,
			},
		}
	}

	if rec.PaymentMethod != "" {
		props[PropPaymentMethod] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.PaymentMethod,
			},
		}
	}

	return props
}

// Fingerprint is the record's row joined into one string. A page whose
// fingerprint differs is out of date.
func Fingerprint(rec domain.Record) string {
	return strings.Join(rec.Row(), " | ")
}

// extractPosition reads the position from a page. Returns 0 if not found.
func extractPosition(page notionapi.Page) int {
	if prop, ok := page.Properties[PropPosition]; ok {
		if number, ok := prop.(*notionapi.NumberProperty); ok {
			return int(number.Number)
		}
	}
	return 0
}

// extractFingerprint reads the stored fingerprint. Returns empty string if not found.
func extractFingerprint(page notionapi.Page) string {
	if prop, ok := page.Properties[PropFingerprint]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			var b strings.Builder
			for _, rt := range richText.RichText {
				b.WriteString(rt.PlainText)
			}
			return b.String()
		}
	}
	return ""
}
