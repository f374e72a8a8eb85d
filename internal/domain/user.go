package domain

import "time"

// SysUser is the backing row for an authenticated principal. Credential
// verification and token issuance happen outside this service; handlers only
// consume the (id, is_admin) pair carried by the JWT.
type SysUser struct {
	ID           int64     `gorm:"primaryKey" json:"id,string"`
	Username     string    `gorm:"size:64;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;uniqueIndex" json:"email"`
	Password     string    `gorm:"size:255" json:"-"`
	FirstName    string    `gorm:"size:64" json:"first_name"`
	LastName     string    `gorm:"size:64" json:"last_name"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns table name
func (SysUser) TableName() string {
	return "sys_user"
}
