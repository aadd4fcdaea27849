package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleProfessor UserRole = "PROFESSOR"
	RoleGestor    UserRole = "GESTOR"
)

// User represents an application user stored in the users table.
type User struct {
	ID            string         `db:"id" json:"id"`
	Nome          string         `db:"nome" json:"nome"`
	Email         string         `db:"email" json:"email"`
	Telefone      string         `db:"telefone" json:"telefone"`
	PasswordHash  string         `db:"password_hash" json:"-"`
	CampusID      *string        `db:"campus_id" json:"campus_id,omitempty"`
	NiveisEnsino  pq.StringArray `db:"niveis_ensino" json:"niveis_ensino"`
	Role          UserRole       `db:"role" json:"role"`
	Active        bool           `db:"active" json:"active"`
	LastLogin     *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// UserDetail enriches User with the campus name when one is set.
type UserDetail struct {
	User
	CampusNome *string `db:"campus_nome" json:"campus_nome,omitempty"`
}

// CreateUserRequest is the payload for registering a new user.
type CreateUserRequest struct {
	Nome         string   `json:"nome" validate:"required"`
	Email        string   `json:"email" validate:"required,email"`
	Telefone     string   `json:"telefone"`
	Password     string   `json:"password" validate:"required,min=6"`
	CampusID     *string  `json:"campus_id"`
	NiveisEnsino []string `json:"niveis_ensino"`
	Role         UserRole `json:"role" validate:"required,oneof=PROFESSOR GESTOR"`
}

// UpdateUserRequest is the payload for updating a user profile.
type UpdateUserRequest struct {
	Nome         string   `json:"nome" validate:"required"`
	Telefone     string   `json:"telefone"`
	CampusID     *string  `json:"campus_id"`
	NiveisEnsino []string `json:"niveis_ensino"`
	Role         UserRole `json:"role" validate:"required,oneof=PROFESSOR GESTOR"`
	Active       *bool    `json:"active"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	CampusID  string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
