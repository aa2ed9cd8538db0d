package llm

import (
	"context"
)

// Client is the minimal surface the intelligence pass needs from any
// provider: one prompt in, one text completion out.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
