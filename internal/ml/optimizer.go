package ml

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownOptimizer = errors.New("unknown optimizer")

// Optimizers lists the names accepted by NewOptimizer.
var Optimizers = []string{"adam", "rmsprop"}

func NewOptimizer(name string) (IOptimizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "adam":
		return NewAdam(), nil
	case "rmsprop":
		return NewRMSProp(), nil
	}
	return nil, errors.Wrapf(ErrUnknownOptimizer, "%q", name)
}
