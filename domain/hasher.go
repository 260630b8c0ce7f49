package domain

// Hasher derives a stable fingerprint from a byte slice. The HTTP layer uses
// it to tag transcript snapshots.
type Hasher interface {
	Hash(data []byte) string
}
