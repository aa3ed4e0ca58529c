package domain

// DefaultSyncStateID is the key of the single persisted checkpoint row.
const DefaultSyncStateID = "default"

// SyncState is the persisted sync checkpoint. LastEntryID never
// decreases; it is read once at engine start and rewritten after every
// successful ingestion batch that advances the watermark.
type SyncState struct {
	ID          string
	LastEntryID int64
	LastSyncAt  int64 // epoch seconds
}
