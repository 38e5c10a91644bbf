package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Offset int
	Limit  int
}

// Normalize clamps the inputs to sane window bounds.
func (p Params) Normalize() Params {
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Page wraps a result slice with the window that produced it.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}
