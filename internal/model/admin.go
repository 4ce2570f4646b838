package model

// Admin is a self-registered school administrator.
type Admin struct {
	Account `gorm:"embedded" bson:",inline"`
}

// Role implements Actor.
func (Admin) Role() Role {
	return RoleAdmin
}
