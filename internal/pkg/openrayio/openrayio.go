// Package openrayio centralizes the CLI's stdout/stderr streams and
// standardized error printing, so tests can redirect them.
package openrayio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakha1370/openray/internal/openrayerrors"
	"github.com/sakha1370/openray/internal/pkg/styles"
	"github.com/sakha1370/openray/internal/pkg/term"
)

var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func StdoutIsTTY() bool { return term.IsTTY(Stdout) }
func StderrIsTTY() bool { return term.IsTTY(Stderr) }

// PrintError prints err in a standardized format. cmd is optional; when
// set, usage help is printed for any OpenRayError with exit code 1.
func PrintError(err error, cmd *cobra.Command) {
	var oe openrayerrors.OpenRayError
	if errors.As(err, &oe) {
		printOpenRayError(oe, cmd)
		return
	}
	fmt.Fprintln(Stderr, err.Error())
}

func printOpenRayError(err openrayerrors.OpenRayError, cmd *cobra.Command) {
	fmt.Fprintf(Stderr, "[%s]\n", styles.GlobalStyles.Danger.Render(err.Title()))
	fmt.Fprintf(Stderr, "%s\n", styles.GlobalStyles.Warning.Render(err.Error()))
	if cmd != nil && err.ExitCode() == 1 {
		_ = cmd.Usage()
	}
}

// ExitCode extracts the process exit code carried by an OpenRayError,
// defaulting to 1 for any other error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var oe openrayerrors.OpenRayError
	if errors.As(err, &oe) {
		return oe.ExitCode()
	}
	return 1
}
