package models

// Role is the closed set of actor roles. Permission checks go through the
// capability table below rather than ad-hoc string comparisons.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleGovernment Role = "government"
	RoleFinancial  Role = "financial"
	RoleUser       Role = "user"
)

// capabilities maps each role to what it may do in the review pipeline.
var capabilities = map[Role]struct {
	review   bool
	override bool
}{
	RoleAdmin:      {review: true, override: true},
	RoleGovernment: {review: true},
	RoleFinancial:  {},
	RoleUser:       {},
}

// Known reports whether r is a recognized role.
func (r Role) Known() bool {
	_, ok := capabilities[r]
	return ok
}

// CanReview reports whether the role may claim and review documents.
func (r Role) CanReview() bool { return capabilities[r].review }

// CanOverride reports whether the role may force a status change outside the
// normal reviewer flow.
func (r Role) CanOverride() bool { return capabilities[r].override }

// Actor identifies the initiator of a review action.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}
