package cache

import (
	"strings"

	"github.com/tradedesk/tiercache/internal/types"
)

// PriorityForKey derives the eviction priority class of an entry from its
// logical key. Contract and position data drives settlement and exposure
// reads, so it is kept longest under memory pressure; market quotes refresh
// constantly and rank in the middle; everything else goes first.
func PriorityForKey(key string) types.Priority {
	lower := strings.ToLower(key)

	switch {
	case strings.Contains(lower, "contract"), strings.Contains(lower, "position"):
		return types.PriorityHigh
	case strings.Contains(lower, "price"), strings.Contains(lower, "market"):
		return types.PriorityNormal
	default:
		return types.PriorityLow
	}
}
