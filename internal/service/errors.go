package service

import "errors"

var (
	ErrPrivilege    = errors.New("must be run as root")
	ErrConfigExists = errors.New("domain configuration already exists")
	ErrDomainState  = errors.New("could not determine domain state")
)
