package risk

import "errors"

var (
	ErrSingleExceed = errors.New("single order exceed")
	ErrRunExceed    = errors.New("run volume exceed")
	ErrNetExceed    = errors.New("net exposure exceed")
)
