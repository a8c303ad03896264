// Package incumbent implements the Incumbent Revalidator: every run,
// re-checks the AvailableLedger's existing entries before any new
// candidate is considered.
package incumbent

import (
	"context"

	"github.com/sakha1370/openray/internal/app/stage1"
	"github.com/sakha1370/openray/internal/app/stage2"
	"github.com/sakha1370/openray/internal/app/stage3"
	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/uriparse"
)

// Checker bundles the three validation stages the revalidator drives.
type Checker struct {
	Stage1 *stage1.Prober
	Stage2 *stage2.Prober
	Stage3 *stage3.Validator
}

// Result is one ledger entry's revalidation outcome.
type Result struct {
	URI     proxy.URI
	Host    string
	Survive bool
}

// Revalidate re-runs Stages 1-3 on every entry and returns one Result
// per entry, in input order.
func (c *Checker) Revalidate(ctx context.Context, entries []proxy.URI) []Result {
	out := make([]Result, len(entries))
	for i, u := range entries {
		out[i] = c.revalidateOne(ctx, u)
	}
	return out
}

func (c *Checker) revalidateOne(ctx context.Context, u proxy.URI) Result {
	p, err := uriparse.Parse(u)
	if err != nil {
		return Result{URI: u, Survive: false}
	}

	if !c.Stage1.Reachable(ctx, p.Host) {
		return Result{URI: u, Host: p.Host, Survive: false}
	}

	if !p.Scheme.TCPNative() {
		return Result{URI: u, Host: p.Host, Survive: true}
	}
	if !c.Stage2.Probe(ctx, p) {
		return Result{URI: u, Host: p.Host, Survive: false}
	}

	if !p.Scheme.CoreSupported() || !c.Stage3.Available() {
		return Result{URI: u, Host: p.Host, Survive: true}
	}
	verdict := c.Stage3.Validate(ctx, p)
	survive := verdict.OrElse(true)
	return Result{URI: u, Host: p.Host, Survive: survive}
}

// Survivors filters results down to the URIs that survived.
func Survivors(results []Result) []proxy.URI {
	out := make([]proxy.URI, 0, len(results))
	for _, r := range results {
		if r.Survive {
			out = append(out, r.URI)
		}
	}
	return out
}

// ShouldReplace implements the outage guard: only replace the ledger
// when the original was empty, or at least one survivor emerged, or
// connectivity is confirmed present.
func ShouldReplace(originalNonEmpty bool, survivorCount int, connected bool) bool {
	if !originalNonEmpty {
		return true
	}
	if survivorCount > 0 {
		return true
	}
	return connected
}
