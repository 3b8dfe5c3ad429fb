package decision

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewDecisionID mints an opaque public lookup key. The timestamp keeps IDs
// roughly sortable for operators; the random suffix guarantees uniqueness
// under concurrent calls within the same time quantum, so wall-clock
// granularity is never load-bearing.
func NewDecisionID(now time.Time) string {
	return fmt.Sprintf("dcn_%s_%s",
		now.UTC().Format("20060102_150405"),
		uuid.NewString()[:8],
	)
}
