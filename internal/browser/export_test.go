package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Evaluate runs a JavaScript expression in the page so integration tests can
// read back page state.
func (t *Tab) Evaluate(ctx context.Context, expression string, res any) error {
	return t.run(ctx, chromedp.Evaluate(expression, res))
}
