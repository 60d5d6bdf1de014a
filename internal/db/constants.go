package db

// Limits applied to history queries regardless of what the caller requests.
const (
	// maxHistoryLimit is the hard ceiling on rows returned by a single
	// history query. Requests above it are silently clamped, not rejected.
	maxHistoryLimit = 1000
	// defaultHistoryLimit is used when the caller passes a non-positive limit.
	defaultHistoryLimit = 100
)

// sqlTimeFormat is the timestamp layout stored in DATETIME columns. Values
// are always stored in UTC so lexicographic comparison matches time order.
const sqlTimeFormat = "2006-01-02 15:04:05"
