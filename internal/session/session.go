package session

// Role represents the role the backend assigned to an authenticated user
type Role string

const (
	// RoleNone is the role of an empty session
	RoleNone Role = ""
	// RoleStudent is the default member role
	RoleStudent Role = "STUDENT"
	// RoleLead is the role of a club lead; sessions with this role carry a club affiliation
	RoleLead Role = "LEAD"
	// RoleAdmin is the administrator role
	RoleAdmin Role = "ADMIN"
)

// Storage keys the session store persists to.
// All values are plain strings; an absent key is equivalent to an empty value.
const (
	KeyToken     = "token"
	KeyRole      = "role"
	KeyUserID    = "user_id"
	KeyStudentID = "student_id"
	KeyClub      = "club"
	KeyChallenge = "otpToken"
)

// Keys lists every storage key the session store owns
var Keys = []string{KeyToken, KeyRole, KeyUserID, KeyStudentID, KeyClub, KeyChallenge}

// Session represents the authenticated identity held by the Store.
// Token and UserID are either both set or both empty.
type Session struct {
	UserID    string `json:"user_id"`
	StudentID string `json:"student_id,omitempty"`
	Token     string `json:"token"`
	Role      Role   `json:"role"`
	Club      string `json:"club,omitempty"`
}

// Authenticated returns whether the session holds an identity
func (session Session) Authenticated() bool {
	return session.Token != "" && session.UserID != ""
}

// Valid checks the no-partial-session invariant
func (session Session) Valid() bool {
	return (session.Token == "") == (session.UserID == "")
}
