// package automation provides the work units a batch run hands each title to.
//
// Every type here satisfies tasks.Performer. [New] builds one from the performer section of the config.
package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/desertthunder/kwdl/internal/tasks"
	"golang.org/x/time/rate"
)

// Kinds accepted by performer.kind and --performer.
const (
	KindCommand   = "command"
	KindClipboard = "clipboard"
	KindDryRun    = "dryrun"
)

var _ tasks.Performer = (*Command)(nil)
var _ tasks.Performer = (*Clipboard)(nil)
var _ tasks.Performer = (*DryRun)(nil)
var _ tasks.Performer = (*Paced)(nil)

// writeClipboard is swapped in tests; headless hosts have no clipboard.
var writeClipboard = clipboard.WriteAll

// Clipboard copies the title to the system clipboard, then runs Next if set.
//
// With Next nil the title is left on the clipboard for a person or tool to paste.
type Clipboard struct {
	Next   tasks.Performer
	Logger *log.Logger
}

func (c *Clipboard) Perform(ctx context.Context, title string) error {
	if err := writeClipboard(title); err != nil {
		return fmt.Errorf("failed to copy title to clipboard: %w", err)
	}
	if c.Logger != nil {
		c.Logger.Debug("copied title to clipboard", "title", title)
	}
	if c.Next == nil {
		return nil
	}
	return c.Next.Perform(ctx, title)
}

// DryRun logs each title and succeeds.
type DryRun struct {
	Logger *log.Logger
}

func (d *DryRun) Perform(ctx context.Context, title string) error {
	if d.Logger != nil {
		d.Logger.Info("dry run", "title", title)
	}
	return nil
}

// Paced spaces calls to Next by at least Interval.
//
// The first call runs immediately. Waiting honors ctx, so cancellation during the pause is a failure
// of that title rather than a hang.
type Paced struct {
	Next    tasks.Performer
	limiter *rate.Limiter
}

// NewPaced wraps next. An interval of 0 or less disables pacing and returns next unchanged.
func NewPaced(next tasks.Performer, interval time.Duration) tasks.Performer {
	if interval <= 0 {
		return next
	}
	return &Paced{Next: next, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *Paced) Perform(ctx context.Context, title string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing interrupted: %w", err)
	}
	return p.Next.Perform(ctx, title)
}

// New builds the performer described by cfg, wrapped by [Paced] when an interval is set.
//
// cfg.Clipboard puts the title on the clipboard before a command runs.
func New(cfg shared.PerformerConfig, logger *log.Logger) (tasks.Performer, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var p tasks.Performer
	switch cfg.Kind {
	case KindCommand:
		if cfg.Command == "" {
			return nil, fmt.Errorf("%w: performer.command is required when kind is command", shared.ErrInvalidConfig)
		}
		p = NewCommand(cfg.Command, cfg.Args, cfg.Timeout.Duration, logger)
		if cfg.Clipboard {
			p = &Clipboard{Next: p, Logger: logger}
		}
	case KindClipboard:
		p = &Clipboard{Logger: logger}
	case KindDryRun, "":
		p = &DryRun{Logger: logger}
	default:
		return nil, fmt.Errorf("%w: unknown performer %q", shared.ErrInvalidConfig, cfg.Kind)
	}

	return NewPaced(p, cfg.Interval.Duration), nil
}
