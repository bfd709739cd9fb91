package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// CommandHandler is called for every non-empty input line. quit ends the session.
type CommandHandler func(ctx context.Context, line string) (reply string, quit bool)

// Shell is a line-oriented command loop.
type Shell struct {
	in     io.Reader
	out    io.Writer
	prompt string
	logger zerolog.Logger
}

// NewShell creates a shell reading commands from in and writing replies to out.
func NewShell(in io.Reader, out io.Writer, logger zerolog.Logger) *Shell {
	return &Shell{
		in:     in,
		out:    out,
		prompt: "> ",
		logger: logger.With().Str("component", "console").Logger(),
	}
}

// Run reads commands until the input ends, the handler asks to quit, or ctx is cancelled.
func (s *Shell) Run(ctx context.Context, handler CommandHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(s.out, s.prompt)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("console stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read command: %w", err)
					}
				default:
				}
				return nil
			}

			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			s.logger.Debug().Str("command", text).Msg("received command")
			reply, quit := handler(ctx, text)
			if reply != "" {
				fmt.Fprintln(s.out, strings.TrimRight(reply, "\n"))
			}
			if quit {
				return nil
			}
		}
	}
}
