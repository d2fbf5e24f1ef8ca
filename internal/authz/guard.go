// Package authz holds the ownership check applied before any cart line item or
// order is read or mutated. There is no role-based bypass here; administrative
// overrides live outside this service.
package authz

import (
	"fmt"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

// AssertOwner passes when userID owns the resource, otherwise it returns an
// error wrapping apperr.ErrForbidden.
func AssertOwner(userID, resourceOwnerID string) error {
	if err := RequireIdentity(userID); err != nil {
		return err
	}
	if userID != resourceOwnerID {
		return fmt.Errorf("%w: resource belongs to another user", apperr.ErrForbidden)
	}
	return nil
}

// RequireIdentity rejects calls made without an authenticated user.
func RequireIdentity(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: missing caller identity", apperr.ErrForbidden)
	}
	return nil
}
