package dto

// ── user module DTOs ──

// CreateUserRequest creates a single user.
type CreateUserRequest struct {
	Name           string `json:"name"            binding:"required,min=2,max=150"`
	Email          string `json:"email"           binding:"required,email"`
	DocumentNumber string `json:"document_number" binding:"required,min=6,max=20"`
	Role           string `json:"role"            binding:"required,oneof=administrator instructor verifier"`
}

// CreateUserResponse returns the created user and its initial password.
type CreateUserResponse struct {
	User            UserResponse `json:"user"`
	InitialPassword string       `json:"initial_password"`
}

// UpdateUserRequest partially updates a user.
type UpdateUserRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=2,max=150"`
	Email    *string `json:"email"     binding:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

// AssignRoleRequest changes a user's role.
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=administrator instructor verifier"`
}

// UserListRequest filters the user list.
type UserListRequest struct {
	Page     int    `form:"page,default=1"       binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	Role     string `form:"role"                 binding:"omitempty,oneof=administrator instructor verifier"`
	Keyword  string `form:"keyword"`
}

// UserResponse is the user view returned by every endpoint.
type UserResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	DocumentNumber string `json:"document_number"`
	Role           string `json:"role"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}
