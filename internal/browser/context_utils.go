// internal/browser/context_utils.go
package browser

import (
	"context"
)

// CombineContext returns a context that carries the values of primary (for
// chromedp, the CDP target) and is canceled when either primary or secondary
// is done. secondary usually carries the caller's deadline.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
