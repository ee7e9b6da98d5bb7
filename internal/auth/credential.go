package auth

import "time"

type Identity struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AccountType string `json:"accountType"`
}

// Credential is everything the client keeps about a login. The tokens live
// in cookies and never appear here.
type Credential struct {
	Identity
	AccessExp time.Time
}

func (c Credential) LoggedIn() bool {
	return c.Username != ""
}

// Response is the body every auth endpoint answers with. accessExp is in
// unix milliseconds.
type Response struct {
	User      Identity `json:"user"`
	AccessExp int64    `json:"accessExp"`
}

func (r Response) Credential() Credential {
	c := Credential{Identity: r.User}
	if r.AccessExp > 0 {
		c.AccessExp = time.UnixMilli(r.AccessExp)
	}
	return c
}

func ResponseFor(c Credential) Response {
	r := Response{User: c.Identity}
	if !c.AccessExp.IsZero() {
		r.AccessExp = c.AccessExp.UnixMilli()
	}
	return r
}
