package notifier

import (
	"context"

	"CycleSentinel/internal/model"
)

// Sink receives every frame the monitor produces.
type Sink interface {
	Name() string
	Render(ctx context.Context, frame *model.Frame) error
}
