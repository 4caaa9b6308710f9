package model

// Result carries a value that is always usable, plus whether producing it
// required a fallback. Err holds the cause of the fallback and is nil when
// Fallback is false.
type Result[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

// OK wraps a value produced without any fallback.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a default value substituted because of err.
func Degraded[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Fallback: true, Err: err}
}

// Reason returns a short description of why the fallback happened.
func (r Result[T]) Reason() string {
	if !r.Fallback {
		return ""
	}
	if r.Err == nil {
		return "fallback"
	}
	return r.Err.Error()
}
