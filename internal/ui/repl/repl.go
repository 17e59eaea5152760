package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tobetutor/internal/modules/conversation/dto"
	apperrors "tobetutor/internal/platform/errors"
)

const (
	botPrefix  = "tutor> "
	userPrompt = "you> "
	quitWord   = "/quit"
)

type chatPort interface {
	Start(ctx context.Context) (dto.SessionOutput, error)
	Submit(ctx context.Context, text string) (dto.SubmitOutput, error)
}

// Run drives one conversation over line-oriented streams. Only the tutor's
// entries are written back since the terminal already shows what was typed.
// It returns when the conversation ends, input is exhausted, the user types
// /quit, or ctx is cancelled.
func Run(ctx context.Context, chat chatPort, in io.Reader, out io.Writer) error {
	if _, err := chat.Start(ctx); err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	fmt.Fprintln(out, botPrefix+"Practice the verb TO BE. Type your name to begin. ("+quitWord+" to leave)")

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := readLines(readCtx, in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, userPrompt)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return <-readErr
			}
			line = strings.TrimSpace(l)
		}
		if line == quitWord {
			return nil
		}

		res, err := chat.Submit(ctx, line)
		if errors.Is(err, apperrors.ErrSubmissionInFlight) {
			fmt.Fprintln(out, botPrefix+"still checking the previous sentence")
			continue
		}
		if err != nil {
			return err
		}
		for _, e := range res.Entries {
			if e.Speaker == "user" {
				continue
			}
			fmt.Fprintln(out, botPrefix+e.Text)
		}
		if res.Ended {
			return nil
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never delays
// cancellation. Exactly one error (nil on EOF) is sent before lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}
