package form

import "errors"

var errNoCommitter = errors.New("form: no committer configured")
