package consumedthing

import "errors"

// ErrNoForms is returned when an interaction has no forms to select a client from
var ErrNoForms = errors.New("interaction has no forms")

// ErrNoClientFactory is returned when the host has no client for any of the form schemes
var ErrNoClientFactory = errors.New("no client factory for any of the form schemes")

// ErrClientCreation is returned when the host accepted a scheme but could not provide a
// usable client. The failed client is not cached.
var ErrClientCreation = errors.New("failed creating protocol client")

// ErrNotFound is returned when a property, action or event name is not in the TD
var ErrNotFound = errors.New("interaction not found")

// ErrNotSupported is returned when observing an interaction whose client cannot deliver
// notifications
var ErrNotSupported = errors.New("operation not supported by protocol client")
