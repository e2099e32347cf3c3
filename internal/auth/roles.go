package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pet-adoption/internal/domain"
	apperrors "github.com/spec-kit/pet-adoption/pkg/util"
)

// Capability names an operation that requires authorization.
type Capability string

const (
	CapabilityPetsManage      Capability = "pets:manage"
	CapabilityAdoptionApply   Capability = "adoptions:apply"
	CapabilityAdoptionReadOwn Capability = "adoptions:read_own"
	CapabilityAdoptionReadAll Capability = "adoptions:read_all"
	CapabilityAdoptionDecide  Capability = "adoptions:decide"
)

// policy maps each capability to the roles holding it. There is no role
// hierarchy: ADMIN only holds what is listed here.
var policy = map[Capability][]domain.Role{
	CapabilityPetsManage:      {domain.RoleAdmin},
	CapabilityAdoptionApply:   {domain.RoleUser},
	CapabilityAdoptionReadOwn: {domain.RoleUser, domain.RoleAdmin},
	CapabilityAdoptionReadAll: {domain.RoleAdmin},
	CapabilityAdoptionDecide:  {domain.RoleAdmin},
}

// Authorize checks that the principal holds the capability.
func Authorize(principal *Principal, capability Capability) error {
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	for _, role := range policy[capability] {
		if principal.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// Require guards a route with a capability. It must run after AuthMiddleware.Handle.
func Require(capability Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := Authorize(principal, capability); err != nil {
			return err
		}
		return c.Next()
	}
}
