package models

import (
	"encoding/json"
	"strings"
)

// Role is a single bit in a user's Roles set.
type Role uint8

const (
	RoleStudent Role = 1 << iota
	RoleInstructor
	RoleAdmin
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleStudent, "STUDENT"},
	{RoleInstructor, "INSTRUCTOR"},
	{RoleAdmin, "ADMIN"},
}

// ParseRole accepts the upper or lower case role name.
func ParseRole(name string) (Role, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, r := range roleNames {
		if r.name == name {
			return r.role, true
		}
	}
	return 0, false
}

func (r Role) String() string {
	for _, rn := range roleNames {
		if rn.role == r {
			return rn.name
		}
	}
	return "UNKNOWN"
}

// Roles is the set of roles held by one user. A user may be both a student and an instructor.
type Roles uint8

func (rs Roles) Has(r Role) bool { return rs&Roles(r) != 0 }

func (rs Roles) With(r Role) Roles { return rs | Roles(r) }

func (rs Roles) Names() []string {
	names := make([]string, 0, len(roleNames))
	for _, r := range roleNames {
		if rs.Has(r.role) {
			names = append(names, r.name)
		}
	}
	return names
}

func (rs Roles) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.Names())
}

// Capability names an action guarded by role membership.
type Capability string

const (
	CapLearn             Capability = "learn"
	CapPurchaseCourse    Capability = "purchase-course"
	CapAuthorCourse      Capability = "author-course"
	CapViewEarnings      Capability = "view-earnings"
	CapReviewCourse      Capability = "review-course"
	CapViewRevenue       Capability = "view-revenue"
	CapRevokeCertificate Capability = "revoke-certificate"
	CapModerateComments  Capability = "moderate-comments"
)

var capabilityRoles = map[Capability]Roles{
	CapLearn:             Roles(RoleStudent),
	CapPurchaseCourse:    Roles(RoleStudent),
	CapAuthorCourse:      Roles(RoleInstructor | RoleAdmin),
	CapViewEarnings:      Roles(RoleInstructor),
	CapReviewCourse:      Roles(RoleAdmin),
	CapViewRevenue:       Roles(RoleAdmin),
	CapRevokeCertificate: Roles(RoleAdmin),
	CapModerateComments:  Roles(RoleAdmin | RoleInstructor),
}

// Can reports whether any of the held roles grants the capability.
func Can(rs Roles, c Capability) bool {
	return rs&capabilityRoles[c] != 0
}
