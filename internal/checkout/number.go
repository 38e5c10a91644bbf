package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// orderNumber builds a human-readable order reference:
// ORD-<timestamp>-<8 uppercase hex chars>. The timestamp makes collisions
// rare; the caller still verifies uniqueness before committing.
func orderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + now.UTC().Format("20060102150405") + "-" + suffix
}
