package oracle

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/telegrana/internal/domain"
)

// Hints is the context sent with every classification.
type Hints struct {
	Today   time.Time
	Catalog *domain.Catalog
	// LastSaved is the record written in the previous turn, if the user may
	// be correcting it.
	LastSaved *domain.Record
}

const basePrompt = `Você é o assistente financeiro pessoal de um único usuário no Brasil.
Classifique a mensagem do usuário em UMA intenção e responda APENAS com um objeto JSON, sem markdown.

Intenções e campos:
- "insert": novo gasto ou ganho.
  {"intent":"insert","amount":number,"kind":"expense"|"income","description":string|null,"category":string|null,"payment_method":string|null,"date":"dd/mm/aaaa"|null}
- "reimburse": o usuário recebeu de volta dinheiro de uma compra anterior.
  {"intent":"reimburse","amount":number,"purchase_date":"dd/mm"|"dd/mm/aaaa"|"hoje"|"ontem"|null,"purchase_description":string|null}
- "query": pergunta sobre quanto gastou ou ganhou em um período.
  {"intent":"query","start_date":"dd/mm/aaaa"|null,"end_date":"dd/mm/aaaa"|null,"query_type":"spent"|"gain"|"summary","include_methods":[string],"exclude_methods":[string]}
  end_date é EXCLUSIVO: "de 01/01 a 10/01" vira start_date 01/01 e end_date 11/01.
- "edit": corrigir um lançamento antigo.
  {"intent":"edit","search":{"date":string|null,"amount":number|null,"description":string|null},"updates":{"amount":number|null,"description":string|null,"category":string|null,"payment_method":string|null}}
- "tags": listar ou criar categorias.
  {"intent":"tags","action":"list"|"create","tag_name":string|null,"tag_kind":"expense"|"income"|null}
- "other": qualquer outra coisa.
  {"intent":"other"}

Regras:
1. Valores sempre positivos em "amount"; use "kind" para indicar gasto ou ganho.
2. Use categorias da lista quando possível; se nenhuma servir, use null.
3. Não invente descrição, categoria ou método de pagamento que o usuário não mencionou.
4. Datas relativas ("hoje", "ontem", "semana passada") devem ser convertidas usando a data de hoje.
`

const lastSavedPrompt = `
O usuário acabou de salvar este lançamento:
  data %s, valor %s, descrição %q, categoria %q, método %q.
Se a mensagem corrigir UM campo desse lançamento (ex.: "era 45", "na verdade foi no crédito"),
responda com:
  {"intent":"edit_last","field":"valor"|"descricao"|"tags"|"metodo_pagamento","value":string}
Se a mensagem for um reembolso ou outro assunto, classifique normalmente.
`

// BuildPrompt assembles the classification prompt for text.
func BuildPrompt(text string, h Hints) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	today := h.Today
	if today.IsZero() {
		today = time.Now()
	}
	fmt.Fprintf(&b, "\nHoje é %s (%s).\n", today.Format(domain.DateLayout), weekday(today))

	if h.Catalog != nil {
		fmt.Fprintf(&b, "Categorias de gasto: %s\n", strings.Join(h.Catalog.Expense, ", "))
		fmt.Fprintf(&b, "Categorias de ganho: %s\n", strings.Join(h.Catalog.Income, ", "))
		fmt.Fprintf(&b, "Métodos de pagamento: %s\n", strings.Join(h.Catalog.PaymentMethods, ", "))
	}

	if r := h.LastSaved; r != nil {
		fmt.Fprintf(&b, lastSavedPrompt, r.Date, domain.FormatAmount(r.Amount), r.Description, r.Category, r.PaymentMethod)
	}

	fmt.Fprintf(&b, "\nMensagem do usuário: %q\n", text)
	return b.String()
}

var weekdays = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

func weekday(t time.Time) string {
	return weekdays[t.Weekday()]
}
