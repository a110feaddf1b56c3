package gorbn

import "errors"

// Errors
var (
	ErrBadParam      = errors.New("bad config param")
	ErrResourceLimit = errors.New("state or solution limit exceeded")
	ErrSolver        = errors.New("trap space solver failed")
	ErrTranslate     = errors.New("rule cannot be rendered in solver form")
	ErrBadRuleFile   = errors.New("malformed rule file")
	ErrBadExpr       = errors.New("malformed rule expression")
	ErrModelNotFound = errors.New("model not found")
	ErrRepoClosed    = errors.New("model repo is closed")
	ErrNilNet        = errors.New("nil net")
)
