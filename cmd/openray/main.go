package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakha1370/openray/internal/command"
	"github.com/sakha1370/openray/internal/pkg/openrayio"
)

func dataDir() (string, error) {
	if override := os.Getenv("OPENRAY_DATA_DIR"); override != "" {
		if err := os.MkdirAll(override, 0o700); err != nil {
			return "", err
		}
		return override, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, ".config", "openray")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	dir, err := dataDir()
	if err != nil {
		openrayio.PrintError(err, nil)
		return 1
	}

	rootCmd := command.NewRootCommand(dir)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	cmd, err := rootCmd.ExecuteContextC(sigCtx)
	if err != nil {
		openrayio.PrintError(err, cmd)
		return openrayio.ExitCode(err)
	}
	return 0
}
