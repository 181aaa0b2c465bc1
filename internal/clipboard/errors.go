package clipboard

import "errors"

var ErrNothingToCopy = errors.New("nothing to copy")
