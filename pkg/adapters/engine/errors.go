package engine

import "fmt"

// ConnectionError is the typed failure reported for connection, auth, and
// query errors against a source engine. It carries the engine kind, the
// operation stage, and the engine-specific diagnostic text; the caller
// decides whether to abort or degrade.
type ConnectionError struct {
	Engine string
	Stage  string
	Err    error
}

// NewConnectionError wraps err as a ConnectionError.
func NewConnectionError(engineKind, stage string, err error) *ConnectionError {
	return &ConnectionError{Engine: engineKind, Stage: stage, Err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Stage, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
