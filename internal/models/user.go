package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxLoginHistory is the number of login events kept per account.
const MaxLoginHistory = 8

// LoginTimeLayout formats LoginEvent.DateTime.
const LoginTimeLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName string             `bson:"userName" json:"userName"`
	Password string             `bson:"password" json:"-"` // bcrypt hash
	Email    string             `bson:"email" json:"email"`

	// Most recent first, at most MaxLoginHistory entries.
	LoginHistory []LoginEvent `bson:"loginHistory" json:"loginHistory"`
}

// LoginEvent captures a single successful login.
type LoginEvent struct {
	DateTime  string `bson:"dateTime" json:"dateTime"`
	UserAgent string `bson:"userAgent" json:"userAgent"`
}

// SessionUser is the part of a User kept in the login session.
type SessionUser struct {
	UserName     string       `json:"userName"`
	Email        string       `json:"email"`
	LoginHistory []LoginEvent `json:"loginHistory"`
}

// Session returns the session snapshot of u.
func (u *User) Session() SessionUser {
	history := make([]LoginEvent, len(u.LoginHistory))
	copy(history, u.LoginHistory)
	return SessionUser{
		UserName:     u.UserName,
		Email:        u.Email,
		LoginHistory: history,
	}
}
