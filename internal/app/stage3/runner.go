package stage3

import (
	"context"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// coreProcess is one running core subprocess and the temp config file
// backing it, both released on Close.
type coreProcess struct {
	cmd        *exec.Cmd
	configPath string
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// startCore writes configJSON to a uniquely-named temp file and spawns
// the core binary against it.
func startCore(ctx context.Context, corePath, tempDir string, configJSON []byte) (*coreProcess, error) {
	configPath := tempDirJoin(tempDir, "openray-core-"+uuid.NewString()+".json")
	if err := os.WriteFile(configPath, configJSON, 0o600); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, corePath, "run", "-c", configPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		os.Remove(configPath)
		return nil, err
	}

	return &coreProcess{cmd: cmd, configPath: configPath}, nil
}

// Close terminates the core subprocess, escalating to Kill if it
// doesn't exit within the grace period, and unlinks the temp config.
func (p *coreProcess) Close() {
	defer os.Remove(p.configPath)
	if p.cmd.Process == nil {
		return
	}

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()

	_ = p.cmd.Process.Signal(os.Interrupt)
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		_ = p.cmd.Process.Kill()
		<-done
	}
}

func tempDirJoin(dir, name string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return dir + string(os.PathSeparator) + name
}
