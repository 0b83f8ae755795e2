package leaderboard

import "context"

// Store holds the full document and replaces it wholesale on every save.
// Implementations return *StorageError for medium failures, *CorruptStateError for undecodable
// content and ErrDocumentMissing from Load when nothing has been written yet.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, document Document) error
	// Initialize writes seed only when no document exists and reports whether it did.
	Initialize(ctx context.Context, seed Document) (bool, error)
}
