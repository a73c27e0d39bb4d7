package domain

import "fmt"

// Credentials identify a Turbonomic instance and the user to log in with
type Credentials struct {
	Target       string
	Username     string
	Password     string
	EncodedCreds string // base64("user:password")
}

type ConfigProfile struct {
	Name        string
	Credentials Credentials
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Name, c.Credentials.Target)
}
