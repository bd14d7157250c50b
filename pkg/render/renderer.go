package render

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/engine"
)

// Renderer converts the active screen of a session into a byte
// representation (HTML, terminal text, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, screen engine.Screen, options RenderOptions) ([]byte, error)
}
