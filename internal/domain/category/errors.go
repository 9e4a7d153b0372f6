package category

import "errors"

// ErrUnknownZodiac is returned by ParseZodiac for unrecognized input.
var ErrUnknownZodiac = errors.New("unknown zodiac")
