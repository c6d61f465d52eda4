package engine

import "github.com/amberseal/amberseal/internal/schema"

// summarizeEveryN bounds the cost of summarization calls while keeping the
// running summary reasonably fresh. The counter advances once per appended
// message, so a pass runs after every five user/assistant round-trips.
const summarizeEveryN = 10

// SummarizationDue reports whether a summarization pass should run after the
// given number of interactions.
func SummarizationDue(cfg schema.MemoryPolicyConfig, interactions int) bool {
	return cfg.SummarizationEnabled && interactions > 0 && interactions%summarizeEveryN == 0
}
