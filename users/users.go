// Package users reads the user record the backend returns at sign-in.
package users

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User is the part of the backend user record the dashboard looks at. The
// record as received is kept in Raw so role flags the dashboard does not know
// about can still be checked.
type User struct {
	Email       string `json:"email,omitempty"`
	Username    string `json:"username,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`

	Raw map[string]any `json:"-"`
}

// Parse decodes a user record. An empty or null record is an error.
func Parse(raw json.RawMessage) (User, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return User{}, fmt.Errorf("[users Parse] invalid user record: %w", err)
	}
	if fields == nil {
		return User{}, fmt.Errorf("[users Parse] user record is empty")
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, fmt.Errorf("[users Parse] invalid user record: %w", err)
	}
	u.Raw = fields
	return u, nil
}

// ID returns the backend's identifier for the user, numeric or not
func (u User) ID() string {
	switch id := u.Raw["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// HasFlag reports whether the record carries flag set to the JSON boolean true
func (u User) HasFlag(flag string) bool {
	v, ok := u.Raw[flag].(bool)
	return ok && v
}

// DisplayName is the full name, or the first login identifier the record has
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Login()
}

// Login is the identifier the user signs in with
func (u User) Login() string {
	for _, v := range []string{u.Email, u.Username, u.PhoneNumber} {
		if v != "" {
			return v
		}
	}
	return ""
}
