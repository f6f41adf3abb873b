// Package llm provides interchangeable text-completion backends. The
// provider is selected once at startup and bound as a Completer; nothing
// downstream re-checks the provider name.
package llm

import "context"

type Completer interface {
	// Complete sends one prompt and returns the model's raw text reply.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the backend for logging and metrics.
	Name() string
}
