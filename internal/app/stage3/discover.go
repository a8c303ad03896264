// Package stage3 implements the Core Validator: it delegates protocol
// correctness to an external xray/v2ray core binary, rendering a
// minimal config per candidate and probing a local HTTP inbound.
package stage3

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var coreCandidateNames = []string{"xray.exe", "xray", "v2ray.exe", "v2ray"}

// DiscoverCore locates the core binary: an explicit override, then
// PATH, then a handful of well-known local folders. Returns "" if
// nothing is found.
func DiscoverCore(override string, repoRoot string) string {
	if env := strings.TrimSpace(override); env != "" {
		p := env
		if !filepath.IsAbs(p) {
			cand := filepath.Join(repoRoot, p)
			if fileExists(cand) {
				return cand
			}
			if w, err := exec.LookPath(p); err == nil {
				return w
			}
		}
		if fileExists(p) {
			return p
		}
	}

	for _, name := range coreCandidateNames {
		if w, err := exec.LookPath(name); err == nil {
			return w
		}
	}

	for _, folder := range []string{repoRoot, filepath.Join(repoRoot, "bin"), filepath.Join(repoRoot, "tools")} {
		for _, name := range coreCandidateNames {
			p := filepath.Join(folder, name)
			if fileExists(p) {
				return p
			}
		}
	}

	return ""
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
