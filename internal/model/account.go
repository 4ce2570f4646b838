package model

import "time"

// Role names an actor variant. Each variant lives in its own namespace: uniqueness of email and
// phone is enforced per role, and tokens are scoped to the role they were issued for.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

// Column names shared by every store backend (gorm columns, bson keys).
const (
	FieldID                   = "id"
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldPhone                = "phone"
	FieldPasswordHash         = "password_hash"
	FieldLastLoginAt          = "last_login_at"
	FieldLastPasswordChangeAt = "last_password_change_at"
	FieldHasDefaultPassword   = "has_default_password"
)

// UniqueFields lists the fields that must be unique within a role namespace, in reporting order.
var UniqueFields = []string{FieldEmail, FieldPhone}

// Account is the shape shared by administrators and teachers.
type Account struct {
	ID                   string    `json:"_id" gorm:"type:char(36);primaryKey" bson:"_id"`
	Name                 string    `json:"name" gorm:"size:255;not null" bson:"name"`
	Email                string    `json:"email" gorm:"uniqueIndex;size:255;not null" bson:"email"`
	Phone                string    `json:"phone" gorm:"uniqueIndex;size:32;not null" bson:"phone"`
	PasswordHash         string    `json:"-" gorm:"size:255;not null" bson:"password_hash"` // Never expose in JSON
	CreatedAt            time.Time `json:"dateCreated" gorm:"not null" bson:"created_at"`
	LastLoginAt          time.Time `json:"lastLogin" gorm:"not null" bson:"last_login_at"`
	LastPasswordChangeAt time.Time `json:"lastPasswordChange" gorm:"not null" bson:"last_password_change_at"`
}

// Identity returns the shared account fields of an actor.
func (a *Account) Identity() *Account {
	return a
}

// UniqueValue returns the value of one of the UniqueFields.
func (a *Account) UniqueValue(field string) string {
	switch field {
	case FieldEmail:
		return a.Email
	case FieldPhone:
		return a.Phone
	}
	return ""
}

// Actor is implemented by *Admin and *Teacher.
type Actor interface {
	Identity() *Account
	Role() Role
}

// ActorPtr constrains generic code to pointers of actor structs, so that stores can allocate
// a T and hand back a *T.
type ActorPtr[T any] interface {
	*T
	Actor
}
