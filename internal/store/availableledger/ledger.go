// Package availableledger implements the AvailableLedger: the
// known-good proxy list, one URI per line, order-preserving,
// deduplicated by the URI with its remark stripped, each entry carrying a
// "[OpenRay] <flag> <CC>-<N>" remark.
package availableledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/geo"
	"github.com/sakha1370/openray/internal/uriparse"
)

// RemarkRe matches a well-formed OpenRay remark, the invariant every
// AvailableLedger entry must carry.
var RemarkRe = regexp.MustCompile(`^\[OpenRay\] .+ ([A-Z]{2})-(\d+)$`)

// Ledger owns output/all_valid_proxies.txt.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// New returns a Ledger backed by the file at path.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Load returns the ledger's lines in file order.
func (l *Ledger) Load() ([]proxy.URI, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

func (l *Ledger) loadLocked() ([]proxy.URI, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("availableledger: open: %w", err)
	}
	defer f.Close()

	var out []proxy.URI
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, proxy.URI(line))
	}
	return out, scanner.Err()
}

// canonical strips the remark so two entries for the same underlying
// endpoint compare equal regardless of their assigned counter.
func canonical(u proxy.URI) proxy.URI {
	stripped, err := uriparse.RewriteRemark(u, "")
	if err != nil {
		return u
	}
	return stripped
}

// NextCounter scans existing remarks for "[OpenRay] <flag> <CC>-<num>"
// and returns max(num)+1 for cc, the per-country counter.
func NextCounter(existing []proxy.URI, cc string) int {
	max := 0
	for _, u := range existing {
		_, remark := uriparse.StripFragment(u)
		if m := RemarkRe.FindStringSubmatch(remark); m != nil && m[1] == cc {
			if n, err := strconv.Atoi(m[2]); err == nil && n > max {
				max = n
			}
		} else if m := extractVMessRemarkCC(u); m != nil && m[1] == cc {
			if n, err := strconv.Atoi(m[2]); err == nil && n > max {
				max = n
			}
		}
	}
	return max + 1
}

// Append adds uri to the ledger with a freshly-assigned remark for cc
// (country code, or "XX" if unknown), skipping the append if an entry
// for the same underlying endpoint is already present. Returns the
// fully remarked URI that was written (or already present).
func (l *Ledger) Append(u proxy.URI, cc string) (proxy.URI, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.loadLocked()
	if err != nil {
		return "", err
	}

	target := canonical(u)
	for _, e := range existing {
		if canonical(e) == target {
			return e, nil
		}
	}

	counter := NextCounter(existing, cc)
	remark := FormatRemark(cc, counter)
	rewritten, err := uriparse.RewriteRemark(u, remark)
	if err != nil {
		return "", fmt.Errorf("availableledger: rewrite remark: %w", err)
	}

	if err := l.appendLineLocked(rewritten); err != nil {
		return "", err
	}
	return rewritten, nil
}

func (l *Ledger) appendLineLocked(u proxy.URI) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("availableledger: mkdir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("availableledger: open: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(string(u) + "\n")
	return err
}

// ReplaceAll atomically rewrites the ledger with entries, preserving
// their given order. Used by the Incumbent Revalidator to purge
// failures and by the regrouper to reorder by country.
func (l *Ledger) ReplaceAll(entries []proxy.URI) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("availableledger: mkdir: %w", err)
	}
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("availableledger: create temp: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.WriteString(string(e) + "\n"); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, l.path)
}

// FormatRemark renders the canonical OpenRay remark for a country code
// and per-country counter.
func FormatRemark(cc string, counter int) string {
	return fmt.Sprintf("[OpenRay] %s %s-%d", geo.CountryFlag(cc), cc, counter)
}

// extractVMessRemarkCC handles vmess URIs, whose remark lives in the
// decoded JSON's "ps" field rather than the URL fragment.
func extractVMessRemarkCC(u proxy.URI) []string {
	scheme, ok := u.Scheme()
	if !ok || scheme != proxy.SchemeVMess {
		return nil
	}
	p, err := uriparse.Parse(u)
	if err != nil {
		return nil
	}
	return RemarkRe.FindStringSubmatch(p.Remark)
}
