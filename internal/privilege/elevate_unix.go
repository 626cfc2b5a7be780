//go:build !windows

package privilege

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"mid-go/internal/mid"
)

func isElevated() bool {
	return os.Geteuid() == 0
}

// relaunchElevated starts exe through the desktop's graphical sudo: pkexec on
// linux, an administrator AppleScript on darwin.
func relaunchElevated(exe string, args []string) (string, error) {
	var cmd *exec.Cmd
	var method string

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("do shell script %q with administrator privileges", shellCommand(exe, args))
		cmd = exec.Command("osascript", "-e", script)
		method = "osascript"
	default:
		if _, err := exec.LookPath("pkexec"); err != nil {
			return "", fmt.Errorf("pkexec not available, re-run with sudo: %w", mid.ErrUnsupported)
		}
		cmd = exec.Command("pkexec", append([]string{exe}, args...)...)
		method = "pkexec"
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting %s: %w", method, err)
	}
	if err := cmd.Process.Release(); err != nil {
		return "", fmt.Errorf("releasing %s: %w", method, err)
	}
	return method, nil
}

// shellCommand single-quotes every word for /bin/sh.
func shellCommand(exe string, args []string) string {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{exe}, args...) {
		words = append(words, "'"+strings.ReplaceAll(w, "'", `'\''`)+"'")
	}
	return strings.Join(words, " ")
}
