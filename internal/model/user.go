package model

// User roles.
const (
	RoleAdministrator = "administrator"
	RoleInstructor    = "instructor"
	RoleVerifier      = "verifier"
)

// User maps to the users table.
type User struct {
	UserID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"user_id"`
	Name           string `gorm:"type:varchar(150);not null"                      json:"name"`
	Email          string `gorm:"type:varchar(255);not null"                      json:"email"`
	DocumentNumber string `gorm:"type:varchar(20);not null"                       json:"document_number"`
	PasswordHash   string `gorm:"type:varchar(255);not null"                      json:"-"`
	Role           string `gorm:"type:varchar(20);not null;default:'instructor'"  json:"role"`
	IsActive       bool   `gorm:"not null;default:true"                           json:"is_active"`
	VersionedModel
}

// TableName sets the table name.
func (User) TableName() string { return "users" }
