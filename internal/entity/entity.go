package entity

// Record is the minimal contract every persisted entity satisfies: a stable
// opaque identifier assigned at creation time.
type Record interface {
	RecordID() string
}
