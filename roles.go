package access

// Role is the identity's role in the closed hierarchy admin > coach > user.
type Role string

const (
	// RoleUser is the base role (i.e. own data only)
	RoleUser Role = "user"
	// RoleCoach manages assessments and non-admin identities
	RoleCoach Role = "coach"
	// RoleAdmin has full access
	RoleAdmin Role = "admin"
)

// dominanceRank orders roles explicitly; the ordering is independent of
// declaration order so inserting a role cannot silently reshuffle the chain.
var dominanceRank = map[Role]int{
	RoleUser:  0,
	RoleCoach: 1,
	RoleAdmin: 2,
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	_, ok := dominanceRank[r]
	return ok
}

// Dominates reports whether r strictly dominates other. Exactly one of
// r.Dominates(o), o.Dominates(r), r == o holds for any two valid roles.
func (r Role) Dominates(other Role) bool {
	rRank, ok := dominanceRank[r]
	if !ok {
		return false
	}
	oRank, ok := dominanceRank[other]
	if !ok {
		return false
	}
	return rRank > oRank
}

// IsAtLeast checks if this role meets the minimum required level
func (r Role) IsAtLeast(minRole Role) bool {
	rRank, ok := dominanceRank[r]
	if !ok {
		return false
	}
	minRank, ok := dominanceRank[minRole]
	if !ok {
		return false
	}
	return rRank >= minRank
}

// GrantableRoles returns the set of roles the actor may assign to others.
// By construction it never contains a role dominating the actor's own, which
// makes self elevation structurally impossible.
func (r Role) GrantableRoles() []Role {
	switch r {
	case RoleAdmin:
		return []Role{RoleAdmin, RoleCoach, RoleUser}
	case RoleCoach:
		return []Role{RoleCoach, RoleUser}
	default:
		return []Role{}
	}
}

// CanGrant reports whether the actor may assign target to an identity.
func (r Role) CanGrant(target Role) bool {
	for _, role := range r.GrantableRoles() {
		if role == target {
			return true
		}
	}
	return false
}

// CanCreateUser reports whether an actor with role r may create an identity
// holding targetRole.
func CanCreateUser(actor Role, targetRole Role) bool {
	return actor.CanGrant(targetRole)
}

// CanDeleteUser reports whether the actor may delete an identity holding
// targetRole. An actor may not delete a role it could not itself grant, which
// also blocks a coach deleting an admin.
func CanDeleteUser(actor Role, targetRole Role) bool {
	return actor.CanGrant(targetRole)
}

// coachPeerModification is the named policy exception allowing a coach to
// modify another coach. It is deliberately not derived from the dominance
// relation so it cannot generalize to other peer pairs.
func coachPeerModification(actor, target Role) bool {
	return actor == RoleCoach && target == RoleCoach
}

// CanModifyUser reports whether the actor identity may modify the target
// identity's non-role fields. Self modification is always permitted; beyond
// that the actor's role must strictly dominate the target's, except for the
// coach-to-coach capability.
func CanModifyUser(actorID string, actor Role, targetID string, target Role) bool {
	if actorID != "" && actorID == targetID {
		return true
	}
	if actor.Dominates(target) {
		return true
	}
	return coachPeerModification(actor, target)
}

// ValidateRoleChange authorizes a role mutation from prior to next performed
// by actor. When the role does not change, no hierarchy check applies; the
// caller's CanModifyUser check alone decides. Otherwise the actor must be
// able to grant both the prior and the requested role.
func ValidateRoleChange(actor Role, prior, next Role) error {
	if prior == next {
		return nil
	}
	if !actor.CanGrant(next) {
		return ErrUnauthorized
	}
	if !actor.CanGrant(prior) {
		return ErrUnauthorized
	}
	return nil
}

// GetAllRoles returns all predefined roles in dominance order, lowest first.
func GetAllRoles() []Role {
	return []Role{RoleUser, RoleCoach, RoleAdmin}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
