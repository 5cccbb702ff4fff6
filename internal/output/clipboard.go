// Package output applies transcript commit side effects (clipboard and paste).
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/justwhisper/justwhisper/internal/config"
)

// Mode selects how far Emit carries a transcript past the clipboard, per
// spec.md §4.9.
type Mode int

const (
	// Paste clears+writes the clipboard, then synthesizes the paste keystroke.
	Paste Mode = iota
	// CopyOnly clears+writes the clipboard and stops there.
	CopyOnly
)

// clipboardSettleDelay is the pause spec.md §4.9 requires between the
// clipboard write and the synthesized paste keystroke.
const clipboardSettleDelay = 50 * time.Millisecond

// Committer applies transcript output side effects (clipboard + optional paste).
type Committer struct {
	config config.Config
	logger *slog.Logger
}

// NewCommitter constructs a transcript committer from runtime config.
func NewCommitter(cfg config.Config, logger *slog.Logger) *Committer {
	return &Committer{config: cfg, logger: logger}
}

// Emit implements the Output Sink's emit(text, mode) contract: always clear
// and write the clipboard; in Paste mode, wait for the clipboard to settle
// then synthesize the paste keystroke. Clipboard failures are returned to
// the caller; paste failures are logged but never fail the commit, since the
// clipboard write already succeeded.
func (c *Committer) Emit(ctx context.Context, text string, mode Mode) error {
	if text == "" {
		return nil
	}

	clipboardCtx, clipboardCancel := context.WithTimeout(ctx, 2*time.Second)
	defer clipboardCancel()
	if err := runCommandWithInput(clipboardCtx, c.config.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if mode != Paste || !c.config.Paste.Enable {
		return nil
	}

	select {
	case <-time.After(clipboardSettleDelay):
	case <-ctx.Done():
		return nil
	}

	if len(c.config.PasteCmd.Argv) > 0 {
		pasteCtx, pasteCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pasteCancel()
		if err := runCommandWithInput(pasteCtx, c.config.PasteCmd.Argv, ""); err != nil {
			c.logPasteFailure(err)
		}
		return nil
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer pasteCancel()
	if err := defaultPaste(pasteCtx, c.config.Paste.Shortcut); err != nil {
		c.logPasteFailure(err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

// logPasteFailure records paste errors while preserving clipboard success semantics.
func (c *Committer) logPasteFailure(err error) {
	if c.logger == nil || err == nil {
		return
	}
	c.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
}
