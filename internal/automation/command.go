package automation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kwdl/internal/shared"
)

// Placeholder is replaced by the title in every command argument.
const Placeholder = "{title}"

// TitleEnv carries the title to the command's environment.
const TitleEnv = "KWDL_TITLE"

// Command runs an external program once per title.
//
// A non-zero exit, a start failure or a timeout is a failure.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration // 0 means no timeout
	Logger  *log.Logger
}

// NewCommand creates a Command performer. With no args the title is passed as the only argument.
func NewCommand(name string, args []string, timeout time.Duration, logger *log.Logger) *Command {
	if len(args) == 0 {
		args = []string{Placeholder}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Command{Name: name, Args: args, Timeout: timeout, Logger: logger}
}

// Argv returns the argument list for title.
func (c *Command) Argv(title string) []string {
	argv := make([]string, len(c.Args))
	for i, arg := range c.Args {
		argv[i] = strings.ReplaceAll(arg, Placeholder, title)
	}
	return argv
}

func (c *Command) Perform(ctx context.Context, title string) error {
	if c.Name == "" {
		return fmt.Errorf("%w: command name", shared.ErrMissingArgument)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Argv(title)...)
	cmd.Env = append(os.Environ(), TitleEnv+"="+title)
	// Grandchildren can hold the output pipes open after a kill.
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	c.Logger.Debug("command finished", "command", c.Name, "title", title, "duration", time.Since(start), "stdout", strings.TrimSpace(string(out)))

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s", c.Name, c.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}
