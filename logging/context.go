package logging

import (
	"context"

	"github.com/google/uuid"
)

type debugModeKey struct{}

// EnableDebugMode marks ctx so CDebugw calls made with it are logged at any level. Such entries
// carry name in a "debug" field; an empty name gets a short random one.
func EnableDebugMode(ctx context.Context, name string) context.Context {
	if name == "" {
		name = uuid.NewString()[:8]
	}
	return context.WithValue(ctx, debugModeKey{}, name)
}

// DebugName returns the name ctx was marked with, or "" outside debug mode.
func DebugName(ctx context.Context) string {
	name, _ := ctx.Value(debugModeKey{}).(string)
	return name
}

// IsDebugMode reports whether ctx was marked with EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugName(ctx) != ""
}
