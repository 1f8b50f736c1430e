package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotLoggedIn = errors.New("not logged in")
	ErrBadResponse = errors.New("unexpected server response")
)
