package schedule

import "errors"

var ErrInvalidTemplate = errors.New("invalid working hours")
