package models

import (
	"strings"
	"time"
)

// Role represents user role in the institution.
type Role string

const (
	RoleLearner    Role = "aprendiz"
	RoleInstructor Role = "docente"
	RoleStaff      Role = "admin"
)

var roleAliases = map[string]Role{
	"aprendiz":   RoleLearner,
	"learner":    RoleLearner,
	"student":    RoleLearner,
	"docente":    RoleInstructor,
	"instructor": RoleInstructor,
	"admin":      RoleStaff,
	"staff":      RoleStaff,
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// User represents a registered person.
type User struct {
	ID            int64     `json:"id"`
	Document      string    `json:"documento"`
	FirstName     string    `json:"nombre"`
	LastName      string    `json:"apellido"`
	Email         string    `json:"email"`
	Role          Role      `json:"rol"`
	Shift         *string   `json:"jornada"`
	Password      string    `json:"-"`
	AcceptedTerms bool      `json:"acepta_terminos"`
	Active        bool      `json:"activo"`
	CreatedAt     time.Time `json:"fecha_registro"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        int64     `json:"id"`
	Document  string    `json:"documento"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	Email     string    `json:"email"`
	Role      Role      `json:"rol"`
	Shift     *string   `json:"jornada"`
	Active    bool      `json:"activo"`
	CreatedAt time.Time `json:"fecha_registro"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Document:  u.Document,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Shift:     u.Shift,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID int64
	Role   Role
}

// IsStaff reports whether the principal is administrative staff.
func (p Principal) IsStaff() bool { return p.Role == RoleStaff }
