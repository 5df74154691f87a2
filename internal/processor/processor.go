// Package processor holds the queue consumers of the rental workflow. Each
// processor registers its handlers on a queue.Worker and turns a job payload into
// repository writes and follow-up jobs.
package processor

import (
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
