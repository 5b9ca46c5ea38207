package auth

import (
	"context"
	"fmt"

	"github.com/baleriaa/493/internal/common"
)

// Authorize allows p to touch resources owned by ownerID when p is that
// owner or an admin.
func Authorize(p Principal, ownerID int64) error {
	if p.Admin || p.UserID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: user %d on resources of user %d", common.ErrForbidden, p.UserID, ownerID)
}

// AuthorizeContext runs Authorize against the principal in ctx. A context
// without a principal is common.ErrMissingCredential.
func AuthorizeContext(ctx context.Context, ownerID int64) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return common.ErrMissingCredential
	}
	return Authorize(p, ownerID)
}
