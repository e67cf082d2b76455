package sshtest

import "github.com/sshtest/server/internal/directory"

// User is one SSH account a Builder seeds into a Server's directory.
type User struct {
	login    string
	password string
	admin    bool
}

// NewUser creates a non-admin user with the given login and password.
func NewUser(login, password string) User {
	return User{login: login, password: password}
}

// NewAdminUser creates a user with the admin flag set. The admin flag is
// advisory: the server does not enforce any policy based on it, but a
// registered Handler can read it back via Context.CurrentUserIsAdmin.
func NewAdminUser(login, password string) User {
	return User{login: login, password: password, admin: true}
}

func (u User) toInternal() directory.User {
	if u.admin {
		return directory.NewAdmin(u.login, u.password)
	}
	return directory.New(u.login, u.password)
}
