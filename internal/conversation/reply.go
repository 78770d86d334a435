package conversation

import (
	"fmt"
	"strings"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/dvloznov/telegrana/internal/oracle"
)

// Usage is the reply to the reset command.
const Usage = "💰 TeleGrana ativo!\n\n" +
	"📝 Envie seus gastos e ganhos em linguagem natural:\n" +
	"• \"Gastei 400 reais no mercado hoje, paguei no pix\"\n" +
	"• \"Recebi 1500 de freela\"\n" +
	"• \"Me devolveram 60 do jantar de ontem\"\n" +
	"• \"Quanto gastei de 01/01 a 10/01 no crédito?\"\n" +
	"• \"Muda o valor do uber de ontem para 32\"\n" +
	"• \"Quais são minhas tags?\"\n\n" +
	"Envie /start a qualquer momento para recomeçar."

const (
	helpReply = "⚠️ Não consegui entender a mensagem.\n\n" +
		"📝 Tente algo como:\n" +
		"• \"Gastei 400 reais no mercado hoje, paguei no pix\"\n" +
		"• \"Paguei 50 reais de uber com cartão de crédito\"\n" +
		"• \"15 reais de café, débito\""
	failureReply   = "⚠️ Não consegui concluir agora. Tente novamente em instantes."
	cancelledReply = "❌ Lançamento cancelado."
	emptyReply     = "✍️ Envie uma mensagem descrevendo o gasto ou ganho."
)

func formatHelp(reason string) string {
	if reason == "" {
		return helpReply
	}
	return fmt.Sprintf("⚠️ Não consegui usar a mensagem (%s).\n\n%s", reason, helpReply)
}

func formatSaved(r domain.Record) string {
	var b strings.Builder
	verb := "Gasto"
	if r.IsIncome() {
		verb = "Ganho"
	}
	fmt.Fprintf(&b, "✅ %s de %s salvo!", verb, domain.FormatBRL(r.Amount.Abs()))
	if r.Description != "" {
		fmt.Fprintf(&b, "\n📝 %s", r.Description)
	}
	if r.Category != "" {
		fmt.Fprintf(&b, "\n🏷️ Tag: %s", r.Category)
	}
	if r.PaymentMethod != "" {
		fmt.Fprintf(&b, "\n💳 Método: %s", r.PaymentMethod)
	}
	fmt.Fprintf(&b, "\n📅 %s", r.Date)
	b.WriteString("\n\nSe algo estiver errado, é só me dizer (ex.: \"era 45\").")
	return b.String()
}

func formatPrompt(f domain.Field, d domain.Draft, catalog *domain.Catalog) string {
	switch f {
	case domain.FieldDescription:
		return fmt.Sprintf("📝 Qual a descrição desse lançamento de %s?\n(ou \"cancelar\")", domain.FormatBRL(d.Amount.Abs()))
	case domain.FieldCategory:
		return fmt.Sprintf("🏷️ Qual a tag de \"%s\"?\nOpções: %s\n(ou envie uma nova, ou \"cancelar\")",
			d.Description, strings.Join(catalog.Tags(d.Kind()), ", "))
	case domain.FieldPaymentMethod:
		return fmt.Sprintf("💳 Qual o método de pagamento?\nOpções: %s\n(ou \"cancelar\")",
			strings.Join(catalog.PaymentMethods, ", "))
	}
	return fmt.Sprintf("Qual o valor de %s?", f.Label())
}

func formatCandidate(i int, r domain.Record) string {
	desc := r.Description
	if desc == "" {
		desc = "(sem descrição)"
	}
	return fmt.Sprintf("%d. %s - %s (%s)", i+1, r.DatePart(), desc, domain.FormatBRL(r.Amount.Abs()))
}

func formatCandidates(records []domain.Record) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = formatCandidate(i, r)
	}
	return strings.Join(lines, "\n")
}

func formatDisambiguation(d AwaitingDisambiguation) string {
	return fmt.Sprintf("🔍 Encontrei mais de uma compra para o reembolso de %s:\n%s\n\nResponda com o número da compra.",
		domain.FormatBRL(d.Amount), formatCandidates(d.Candidates))
}

func formatSettlement(s ledger.Settlement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💸 Reembolso de %s registrado em \"%s\".", domain.FormatBRL(s.Received), s.Description)
	switch {
	case s.IsSurplus:
		fmt.Fprintf(&b, "\n✅ Compra de %s totalmente quitada.", domain.FormatBRL(s.PurchaseAbs))
		fmt.Fprintf(&b, "\n➕ Excedente de %s salvo como ganho (Reembolso).", domain.FormatBRL(s.Surplus))
	case s.Shortfall().IsPositive():
		fmt.Fprintf(&b, "\n⏳ Ainda faltam %s para quitar a compra de %s.",
			domain.FormatBRL(s.Shortfall()), domain.FormatBRL(s.PurchaseAbs))
	default:
		fmt.Fprintf(&b, "\n✅ Compra de %s totalmente quitada.", domain.FormatBRL(s.PurchaseAbs))
	}
	return b.String()
}

func formatPeriod(q oracle.Query) string {
	switch {
	case q.Start != nil && q.End != nil:
		last := q.End.AddDays(-1)
		return fmt.Sprintf("de %s a %s", domain.FormatDay(*q.Start), domain.FormatDay(last))
	case q.Start != nil:
		return "desde " + domain.FormatDay(*q.Start)
	case q.End != nil:
		return "até " + domain.FormatDay(q.End.AddDays(-1))
	}
	return "em todo o período"
}

func formatTotals(q oracle.Query, t ledger.Totals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Resumo %s", formatPeriod(q))
	if len(q.Include) > 0 {
		fmt.Fprintf(&b, " (apenas %s)", strings.Join(q.Include, ", "))
	}
	if len(q.Exclude) > 0 {
		fmt.Fprintf(&b, " (sem %s)", strings.Join(q.Exclude, ", "))
	}
	b.WriteString("\n")

	if len(t.Items) == 0 {
		b.WriteString("\nNenhum lançamento encontrado.")
		return b.String()
	}

	if q.Type != oracle.QueryGain {
		fmt.Fprintf(&b, "\n🔴 Gastos: %s", domain.FormatBRL(t.Spent))
		writeItems(&b, t.TopExpenses(5))
	}
	if q.Type != oracle.QuerySpent {
		fmt.Fprintf(&b, "\n🟢 Ganhos: %s", domain.FormatBRL(t.Gain))
		writeItems(&b, t.TopGains(5))
	}
	if q.Type == oracle.QuerySummary {
		fmt.Fprintf(&b, "\n💰 Saldo: %s", domain.FormatBRL(t.Balance))
	}
	return b.String()
}

func writeItems(b *strings.Builder, items []ledger.Item) {
	for _, it := range items {
		desc := it.Description
		if desc == "" {
			desc = "(sem descrição)"
		}
		fmt.Fprintf(b, "\n  • %s: %s", desc, domain.FormatBRL(it.Value.Abs()))
	}
	b.WriteString("\n")
}

func formatTags(c *domain.Catalog) string {
	return fmt.Sprintf("🏷️ Tags de gasto: %s\n🏷️ Tags de ganho: %s\n💳 Métodos: %s",
		orNone(c.Expense), orNone(c.Income), orNone(c.PaymentMethods))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "(nenhuma)"
	}
	return strings.Join(items, ", ")
}

func formatEdited(r domain.Record, fields []domain.Field) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label()
	}
	return fmt.Sprintf("✏️ Lançamento atualizado (%s):\n%s - %s - %s - %s - %s",
		strings.Join(labels, ", "), r.DatePart(), orDash(r.Description), domain.FormatBRL(r.Amount), orDash(r.Category), orDash(r.PaymentMethod))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func updatedFields(u ledger.Updates) []domain.Field {
	var out []domain.Field
	if u.Amount != nil {
		out = append(out, domain.FieldAmount)
	}
	if u.Description != nil {
		out = append(out, domain.FieldDescription)
	}
	if u.Category != nil {
		out = append(out, domain.FieldCategory)
	}
	if u.PaymentMethod != nil {
		out = append(out, domain.FieldPaymentMethod)
	}
	return out
}
