package ingest

const maxFitTips = 3

// FitTips suggests up to three kinds of work that suit the call, from keyword
// groups in the rules. Text with no hits gets the default tip.
func FitTips(rules Rules, text string) []string {
	folded := foldText(text)
	var tips []string
	for _, tr := range rules.Tips {
		if containsAny(folded, foldAll(tr.Keywords)) {
			tips = appendUnique(tips, tr.Tip)
			if len(tips) == maxFitTips {
				break
			}
		}
	}
	if len(tips) == 0 && rules.DefaultTip != "" {
		tips = []string{rules.DefaultTip}
	}
	return tips
}
