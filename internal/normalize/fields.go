package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/model-inputs-cli/internal/model"
)

// statusVocabulary maps upper-cased provider status strings to canonical statuses.
var statusVocabulary = map[string]model.Status{
	"":              model.StatusHealthy,
	"OK":            model.StatusHealthy,
	"HEALTHY":       model.StatusHealthy,
	"Q":             model.StatusQuestionable,
	"QUESTIONABLE":  model.StatusQuestionable,
	"DTD":           model.StatusDayToDay,
	"DAY-TO-DAY":    model.StatusDayToDay,
	"OUT":           model.StatusOut,
	"RS":            model.StatusRedshirt,
	"REDSHIRT":      model.StatusRedshirt,
	"FR":            model.StatusFreshman,
	"TRUE FRESHMAN": model.StatusFreshman,
}

// Status maps a provider status string onto the canonical vocabulary.
// Unrecognized values are Healthy.
func Status(s string) model.Status {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if st, ok := statusVocabulary[s]; ok {
		return st
	}
	return model.StatusHealthy
}

// Rank coerces a provider rank to a positive integer, floored at 1.
// Non-numeric and non-finite values report false.
func Rank(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	r := math.Floor(v)
	if r < 1 {
		return 1, true
	}
	if r > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(r), true
}
