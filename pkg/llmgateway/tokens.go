package llmgateway

import (
	"math"
	"strings"
)

// EstimateTokens is the fallback token-usage estimate used when a provider
// response carries no usage figures: ceil(1.3 * word_count(prompt+response)).
func EstimateTokens(prompt, response string) int {
	words := strings.Fields(prompt + "\n" + response)
	return int(math.Ceil(1.3 * float64(len(words))))
}
