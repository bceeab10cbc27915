package supply

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindTransientFetch
	KindPersistence
	KindLogging
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransientFetch:
		return "transient_fetch"
	case KindPersistence:
		return "persistence"
	case KindLogging:
		return "logging"
	default:
		return "unknown"
	}
}

var (
	// ErrNotApplicable 当前策略不适用于该地址，继续下一个策略
	ErrNotApplicable = errors.New("strategy not applicable")
	// ErrUnresolved is returned when no strategy applied and none hit a transport error.
	ErrUnresolved = errors.New("address could not be resolved by any strategy")
)

// Error carries the failure kind so callers can branch without matching message text.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ConfigurationError 缺少必需的外部配置
func ConfigurationError(op string, err error) error {
	return newError(KindConfiguration, op, err)
}

func TransientFetchError(op string, err error) error {
	return newError(KindTransientFetch, op, err)
}

func PersistenceError(op string, err error) error {
	return newError(KindPersistence, op, err)
}

func LoggingError(op string, err error) error {
	return newError(KindLogging, op, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
