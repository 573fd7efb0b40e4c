//go:build linux || darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 400 * time.Millisecond

// runCommand runs a helper binary with a short timeout and returns its trimmed output
func runCommand(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

type commandNotifier struct {
	name string
	args func(title, message string) []string
}

// Notify starts the helper and returns without waiting for it
func (n commandNotifier) Notify(title, message string) error {
	cmd := exec.Command(n.name, n.args(title, message)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", n.name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
