package model

// Teacher is created by an administrator with a well-known default password that must be
// changed once before the teacher can use any other route.
type Teacher struct {
	Account            `gorm:"embedded" bson:",inline"`
	HasDefaultPassword bool `json:"hasDefaultPassword" gorm:"not null" bson:"has_default_password"`
}

// Role implements Actor.
func (Teacher) Role() Role {
	return RoleTeacher
}
