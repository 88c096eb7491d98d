package main

import (
	"context"
	"time"
)

// cmdContext bounds a single CLI request; it is not the driver's own
// watchdog, just a guard against a hung terminal. Callers must defer the
// returned cancel function.
func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
