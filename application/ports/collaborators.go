package ports

import "context"

// AvatarStore is the object-storage collaborator holding uploaded avatar
// images. The access layer stores avatar URLs verbatim and only calls back
// here to delete the underlying object when an account is removed.
type AvatarStore interface {
	// Delete removes the object behind an avatar URL. The URL is opaque;
	// implementations may parse it only to extract a storage key.
	Delete(ctx context.Context, avatarURL string) error
}

// ActivityLog is the write-only side-channel logging collaborator. Record
// is fire-and-forget: implementations must never fail a store operation,
// and callers never check a result.
type ActivityLog interface {
	Record(event string, fields map[string]any)
}
