package cli

import (
	"context"
	"fmt"
	"path"

	"github.com/matzehuels/vkmsctl/pkg/observability"
)

// stepTracker mirrors control-tree steps on a spinner line.
type stepTracker struct {
	observability.NoopTreeHooks
	spinner *Spinner
	verb    string
}

// OnStep implements observability.TreeHooks.
func (t *stepTracker) OnStep(_ context.Context, _, op, p string, index, total int, err error) {
	if err != nil {
		return
	}
	t.spinner.SetMessage(fmt.Sprintf("%s [%d/%d] %s %s", t.verb, index+1, total, op, path.Base(p)))
}

// trackSteps routes tree hooks to s until the returned function is called.
func trackSteps(s *Spinner, verb string) (restore func()) {
	prev := observability.Tree()
	observability.SetTreeHooks(&stepTracker{spinner: s, verb: verb})
	return func() { observability.SetTreeHooks(prev) }
}
