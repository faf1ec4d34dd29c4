package child

import "errors"

var ErrChildNotFound = errors.New("child not found")
