package workflow

import (
	"fmt"

	"github.com/leadmatch/leadmatch/internal/model"
)

// PreconditionError reports a phase action invoked out of order. No external
// call is attempted and the session is left unchanged.
type PreconditionError struct {
	Required model.Phase
	Current  model.Phase
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("workflow: complete the previous phase first (%q requires phase %d, session is at phase %d)",
		e.Required.String(), int(e.Required), int(e.Current))
}
