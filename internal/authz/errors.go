package authz

import "errors"

var (
	ErrUnauthorized = errors.New("authz: unauthorized")
	ErrNoIdentity   = errors.New("authz: no identity")
)
