package auth

import (
	"github.com/spec-kit/support-desk/internal/domain"
	util "github.com/spec-kit/support-desk/pkg/util"
)

// Capability names one class of permitted operations. Authorization is
// expressed as explicit capability sets per role instead of role string
// comparisons at call sites, so guard definitions cannot drift.
type Capability string

const (
	CapTicketRead  Capability = "ticket:read"
	CapTicketWrite Capability = "ticket:write"
	CapAuditRead   Capability = "audit:read"
	CapUserManage  Capability = "user:manage"
)

// roleCapabilities defines the full grant table. The admin set is a
// strict superset of the agent set; there is no other implicit hierarchy.
var roleCapabilities = map[domain.Role]map[Capability]struct{}{
	domain.RoleAgent: {
		CapTicketRead:  {},
		CapTicketWrite: {},
	},
	domain.RoleAdmin: {
		CapTicketRead:  {},
		CapTicketWrite: {},
		CapAuditRead:   {},
		CapUserManage:  {},
	},
}

// Satisfies reports whether role grants cap.
func Satisfies(role domain.Role, cap Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	_, granted := caps[cap]
	return granted
}

// Identity is the resolved caller: subject id plus role, decoded from a
// verified credential. It carries no persistent state.
type Identity struct {
	SubjectID string
	Role      domain.Role
}

// Require fails with an authentication error when the identity is absent
// and with an authorization error when the role does not grant cap.
// Mutating operations call this before touching any store.
func (id *Identity) Require(cap Capability) error {
	if id == nil || id.SubjectID == "" {
		return util.NewUnauthenticated("authentication required")
	}
	if !Satisfies(id.Role, cap) {
		return util.NewForbidden("insufficient role")
	}
	return nil
}
