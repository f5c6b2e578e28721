package casework

import (
	"github.com/linesmerrill/legal-case-api/models"
)

// Role is the part a principal plays on one particular case. The set is closed; every
// authorization check switches over all of it.
type Role int

// Case roles
const (
	RoleClient Role = iota + 1
	RolePlaintiffLawyer
	RoleOpposingLawyer
	RoleJudge
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RolePlaintiffLawyer:
		return "plaintiff_lawyer"
	case RoleOpposingLawyer:
		return "opposing_lawyer"
	case RoleJudge:
		return "judge"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// Tag is the profile role tag ("user", "lawyer", "judge", "admin") for the variant.
func (r Role) Tag() string {
	switch r {
	case RoleClient:
		return models.RoleUser
	case RolePlaintiffLawyer, RoleOpposingLawyer:
		return models.RoleLawyer
	case RoleJudge:
		return models.RoleJudge
	case RoleAdmin:
		return models.RoleAdmin
	}
	return ""
}

// Participant reports whether the role belongs to someone named on the case.
func (r Role) Participant() bool {
	switch r {
	case RoleClient, RolePlaintiffLawyer, RoleOpposingLawyer, RoleJudge:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// Principal is the authenticated caller of an operation
type Principal struct {
	ID          string
	Name        string
	ProfileRole string
}

// PrincipalFromUser builds a Principal out of a stored profile
func PrincipalFromUser(u *models.User) Principal {
	return Principal{ID: u.ID, Name: u.Details.Name, ProfileRole: u.Details.Role}
}

// ResolveRole works out the role p plays on the case. Participation is decided by the
// participant ids on the case; admins who are not participants observe as RoleAdmin.
func ResolveRole(p Principal, c models.CaseDetails) (Role, bool) {
	switch {
	case p.ID == "":
		return 0, false
	case p.ID == c.UserID:
		return RoleClient, true
	case p.ID == c.LawyerID:
		return RolePlaintiffLawyer, true
	case c.OpposingLawyerID != "" && p.ID == c.OpposingLawyerID:
		return RoleOpposingLawyer, true
	case c.JudgeID != "" && p.ID == c.JudgeID:
		return RoleJudge, true
	case p.ProfileRole == models.RoleAdmin:
		return RoleAdmin, true
	}
	return 0, false
}
