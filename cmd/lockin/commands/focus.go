package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/benvon/lockin/internal/cli"
	"github.com/benvon/lockin/internal/tracker"
	"github.com/spf13/cobra"
)

func newFocusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "focus",
		Aliases: []string{"lockin"},
		Short:   "Enter lock-in mode until you type q or press Ctrl-C",
		Long: "Enter lock-in mode. Every line you type counts as activity; a second\n" +
			"without input counts as idle. Type q (or send EOF / Ctrl-C) to exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runFocus(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runFocus drives a FocusTracker from line input until q, EOF or ctx ends.
func runFocus(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	var outMu sync.Mutex
	printf := func(format string, v ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(out, format, v...)
	}

	focus := tracker.NewFocusTracker(a.backend, a.log,
		tracker.WithClock(a.now),
		tracker.WithMessages(func(m tracker.Message) {
			if m.Kind == tracker.MessageEmpowerment {
				printf("  %s\n", strings.ToLower(m.Text))
				return
			}
			printf(">> %s\n", m.Text)
		}),
	)

	if err := focus.Enter(ctx, a.owner()); err != nil {
		return err
	}
	printf("LOCKED IN. Type anything to stay active, q to exit.\n")
	if a.profile != nil && a.profile.LockInBeat != nil && *a.profile.LockInBeat != "" {
		printf("Focus beat: %s\n", *a.profile.LockInBeat)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok || strings.EqualFold(strings.TrimSpace(line), "q") {
				break loop
			}
			focus.Activity()
		}
	}

	// Exit must finalize even when the interrupt cancelled ctx.
	res, err := focus.Exit(context.WithoutCancel(ctx))
	outMu.Lock()
	defer outMu.Unlock()
	if ferr := cli.Focus(out, res.StartedAt, res.EndedAt, res.IdleSeconds); ferr != nil {
		return ferr
	}
	if res.SessionID == nil {
		fmt.Fprintln(out, "(session was not recorded)")
	}
	return err
}
