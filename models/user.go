package models

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Designation string

const (
	DesignationPilot       Designation = "Pilot"
	DesignationCabinCrew   Designation = "Cabin crew"
	DesignationGroundStaff Designation = "Ground Staff"
)

var designationAliases = map[string]Designation{
	"pilot":        DesignationPilot,
	"cabin crew":   DesignationCabinCrew,
	"cabincrew":    DesignationCabinCrew,
	"cabin_crew":   DesignationCabinCrew,
	"ground staff": DesignationGroundStaff,
	"groundstaff":  DesignationGroundStaff,
	"ground_staff": DesignationGroundStaff,
}

// ParseDesignation accepts the canonical labels and their common spellings.
func ParseDesignation(s string) (Designation, bool) {
	d, ok := designationAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

type User struct {
	UserID       int64       `json:"id"`
	Name         string      `json:"name"`
	LoginID      string      `json:"login_id"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Designation  Designation `json:"designation"`
}

// Subject is the verified identity behind a request.
type Subject struct {
	UserID  int64  `json:"id"`
	Name    string `json:"name"`
	LoginID string `json:"login_id"`
	Role    Role   `json:"role"`
}

func (s *Subject) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

type SignupRequest struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Designation string `json:"designation"`
}

type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string  `json:"token"`
	ExpiresAt int64   `json:"expires_at"`
	User      Subject `json:"user"`
}
