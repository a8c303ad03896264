package availableledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/uriparse"
)

// RegroupByCountry reorders entries so that all entries sharing a
// country code are contiguous, preserving the first-seen order of
// country codes and the within-country relative order of entries.
func RegroupByCountry(entries []proxy.URI) []proxy.URI {
	order := make([]string, 0)
	buckets := make(map[string][]proxy.URI)
	for _, e := range entries {
		cc := countryCodeOf(e)
		if _, ok := buckets[cc]; !ok {
			order = append(order, cc)
		}
		buckets[cc] = append(buckets[cc], e)
	}
	out := make([]proxy.URI, 0, len(entries))
	for _, cc := range order {
		out = append(out, buckets[cc]...)
	}
	return out
}

func countryCodeOf(u proxy.URI) string {
	_, remark := uriparse.StripFragment(u)
	if m := RemarkRe.FindStringSubmatch(remark); m != nil {
		return m[1]
	}
	scheme, ok := u.Scheme()
	if ok && scheme == proxy.SchemeVMess {
		if p, err := uriparse.Parse(u); err == nil {
			if m := RemarkRe.FindStringSubmatch(p.Remark); m != nil {
				return m[1]
			}
		}
	}
	return "XX"
}

// WriteGroupedViews emits output/kind/<scheme>.txt and
// output/country/<CC>.txt under outputDir, replacing any stale files
// from a prior run.
func WriteGroupedViews(outputDir string, entries []proxy.URI) error {
	kindDir := filepath.Join(outputDir, "kind")
	countryDir := filepath.Join(outputDir, "country")

	byKind := make(map[proxy.Scheme][]proxy.URI)
	byCountry := make(map[string][]proxy.URI)
	for _, e := range entries {
		if scheme, ok := e.Scheme(); ok {
			byKind[scheme] = append(byKind[scheme], e)
		}
		cc := countryCodeOf(e)
		byCountry[cc] = append(byCountry[cc], e)
	}

	if err := resetDir(kindDir); err != nil {
		return err
	}
	if err := resetDir(countryDir); err != nil {
		return err
	}

	for scheme, lines := range byKind {
		if err := writeLines(filepath.Join(kindDir, string(scheme)+".txt"), lines); err != nil {
			return err
		}
	}
	for cc, lines := range byCountry {
		if err := writeLines(filepath.Join(countryDir, cc+".txt"), lines); err != nil {
			return err
		}
	}
	return nil
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("availableledger: reset dir %s: %w", dir, err)
	}
	return os.MkdirAll(dir, 0o755)
}

func writeLines(path string, lines []proxy.URI) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("availableledger: write %s: %w", path, err)
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(string(l) + "\n"); err != nil {
			return err
		}
	}
	return nil
}
