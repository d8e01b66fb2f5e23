package decision

import "errors"

// ErrConfiguration marks malformed profiles and decision sets. It is the only
// error class that should stop a bot from starting.
var ErrConfiguration = errors.New("configuration error")
