package domain

import "context"

// Completer is the port to the external generative completion service.
// Replies are free-form text that is expected, but not guaranteed, to contain
// a JSON object.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}
