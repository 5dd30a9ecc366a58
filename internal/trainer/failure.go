package trainer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/ChizhovVadim/churnann/internal/config"
	"github.com/pkg/errors"
)

// PanicError carries a recovered panic value and the stack where it happened.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func NewPanicError(value interface{}) *PanicError {
	return &PanicError{Value: value, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		io.WriteString(s, e.Error())
		io.WriteString(s, "\n")
		s.Write(e.Stack)
	default:
		io.WriteString(s, e.Error())
	}
}

// FailureMessage is the failure reason reported for a job: the error text
// followed by the stack traces it carries.
func FailureMessage(err error) string {
	return fmt.Sprintf("Exception during training: %s\n%+v\n", err.Error(), err)
}

// WriteFailure stores FailureMessage(err) in dir/failure.
func WriteFailure(dir string, err error) error {
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return errors.WithStack(mkErr)
	}
	var path = filepath.Join(dir, config.FailureFile)
	return errors.WithStack(os.WriteFile(path, []byte(FailureMessage(err)), 0644))
}
