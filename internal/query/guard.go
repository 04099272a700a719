package query

import (
	"regexp"
	"strings"

	schema "github.com/hanpama/querytrainer/internal/schema"
)

var mutationWord = regexp.MustCompile(`(?i)\bmutation\b`)

// Check applies the minimum acceptance bar to raw query text. The rules run
// in a fixed order and the first failing one decides the error. Passing Check
// does not make the text a well-formed document.
func Check(text string) error {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return ErrEmptyQuery
	case !strings.HasPrefix(trimmed, "{"):
		return ErrMustStartWithBrace
	case mutationWord.MatchString(text):
		return ErrWriteNotAllowed
	case !strings.Contains(text, schema.RootOrders+"(") && !strings.Contains(text, schema.RootUsers):
		return ErrUnsupportedRoot
	case strings.Count(text, "{") != strings.Count(text, "}"):
		return ErrUnbalancedBraces
	}
	return nil
}

// DetectRoot picks the root field a text addresses: orders when it invokes
// orders(...), users otherwise.
func DetectRoot(text string) string {
	if strings.Contains(text, schema.RootOrders+"(") {
		return schema.RootOrders
	}
	return schema.RootUsers
}
