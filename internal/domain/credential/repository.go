package credential

import "context"

// Repository defines credential persistence operations
type Repository interface {
	Create(ctx context.Context, cred *Credential) error

	// GetByUserID returns ErrCredentialNotFound when the user has no
	// provider account configured.
	GetByUserID(ctx context.Context, userID int64) (*Credential, error)

	// ListUserIDs returns every user with a provider account, in a stable
	// order. Used by the balance sync fan-out.
	ListUserIDs(ctx context.Context) ([]int64, error)
}
