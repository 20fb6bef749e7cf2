package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/david/artify/internal/models"
)

// Facts are the key numbers pulled from an opportunity text.
type Facts struct {
	Prize string
	Slots string
	Fee   models.Fee
}

const (
	currencyToken = `(?i:(USD|US\$|€|\$))`
	amountToken   = `(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`
)

var (
	prizeRegex = regexp.MustCompile(currencyToken + `\s?` + amountToken)
	slotsRegex = regexp.MustCompile(`(?i)\b(\d+)\s+(?:cupos|ganadores|becas|finalistas)\b`)
	feeRegex   = regexp.MustCompile(`(?i)\b(?:fee|arancel|inscripci[oó]n)\s*:?\s*(?:de\s+)?` + `(?:` + currencyToken + `\s?)?` + amountToken)
	// dateTail rejects fee candidates that are really the start of a date ("inscripción: 15 de marzo").
	dateTail = regexp.MustCompile(`(?i)^\s*(?:de\s+\p{L}|[/\-]\d|del?\s+\d|hs|h\b|:\d)`)
	// wordTail is the word after a bare amount; only currency words keep a symbol-less fee.
	wordTail = regexp.MustCompile(`^\s+(\p{L}+)`)
	bareYear = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

// currencyWords are the words that may follow a bare fee amount, with the symbol they imply.
var currencyWords = map[string]string{
	"pesos": "$", "peso": "$", "ars": "$",
	"dolares": "USD", "dolar": "USD", "usd": "USD",
	"euros": "€", "euro": "€", "eur": "€",
}

// freeFeePhrases mark calls that state there is no participation fee.
var defaultFreeFeePhrases = []string{
	"sin costo", "sin cargo", "sin arancel", "gratuita", "gratuito", "gratis",
	"no tiene costo", "no requiere pago", "free of charge", "no fee", "libre y gratuita",
}

// ExtractFacts pulls prize, slot count and fee with the default phrase table.
func ExtractFacts(text string) Facts {
	return extractFacts(text, defaultFreeFeePhrases)
}

func extractFacts(text string, freePhrases []string) Facts {
	return Facts{
		Prize: extractPrize(text),
		Slots: extractSlots(text),
		Fee:   extractFee(text, freePhrases),
	}
}

// extractPrize returns the first currency-prefixed amount verbatim, e.g. "USD 5.000".
func extractPrize(text string) string {
	m := prizeRegex.FindStringSubmatch(text)
	if m == nil {
		return models.NotFound
	}
	return normalizeSymbol(m[1]) + " " + m[2]
}

func extractSlots(text string) string {
	m := slotsRegex.FindStringSubmatch(text)
	if m == nil {
		return models.NotFound
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return models.NotFound
	}
	return strconv.Itoa(n)
}

func extractFee(text string, freePhrases []string) models.Fee {
	for _, loc := range feeRegex.FindAllStringSubmatchIndex(text, -1) {
		if dateTail.MatchString(text[loc[1]:]) {
			continue
		}
		amount := text[loc[4]:loc[5]]
		symbol := "$"
		if loc[2] >= 0 {
			symbol = normalizeSymbol(text[loc[2]:loc[3]])
		} else {
			if bareYear.MatchString(amount) {
				continue
			}
			if w := wordTail.FindStringSubmatch(text[loc[1]:]); w != nil {
				sym, ok := currencyWords[foldText(w[1])]
				if !ok {
					continue
				}
				symbol = sym
			}
		}
		return models.Fee{Status: models.FeeAmount, Amount: symbol + " " + amount}
	}
	if containsAny(foldText(text), foldAll(freePhrases)) {
		return models.Fee{Status: models.FeeFree}
	}
	return models.Fee{Status: models.FeeUnknown}
}

func normalizeSymbol(s string) string {
	switch strings.ToUpper(s) {
	case "USD":
		return "USD"
	case "US$":
		return "US$"
	}
	return s
}

func foldAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, foldText(s))
	}
	return out
}
