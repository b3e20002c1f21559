package td

import "errors"

// ErrInvalidTD is returned when a Thing Description document cannot be parsed
var ErrInvalidTD = errors.New("invalid thing description")

// ErrInvalidSecurity is returned when the security metadata of a TD refers to an unknown
// definition or describes an unsupported scheme.
var ErrInvalidSecurity = errors.New("invalid security metadata")

// ErrSchemaValidation is returned when a value does not match its data schema
var ErrSchemaValidation = errors.New("value does not match data schema")
