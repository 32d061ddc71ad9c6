package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/cli/formatter"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/spf13/cobra"
)

func newTimerCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timer",
		Aliases: []string{"t"},
		Short:   "Start, pause, resume and stop your timer",
	}

	cmd.AddCommand(
		newTimerStartCmd(a),
		newTimerPauseCmd(a),
		newTimerResumeCmd(a),
		newTimerStopCmd(a),
		newTimerForceStopCmd(a),
		newTimerCurrentCmd(a),
	)

	return cmd
}

func requireUser(a *App) error {
	if a.UserID == "" {
		return fmt.Errorf("no user: pass --user or set TIMEKEEP_USER")
	}
	return nil
}

// sessionArg returns the session named on the command line, or the
// caller's current session.
func sessionArg(cmd *cobra.Command, a *App, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cur, err := a.Timer.Current(cmd.Context(), a.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("no timer running for %s", a.UserID)
	}
	if err != nil {
		return "", err
	}
	return cur.ID, nil
}

func newTimerStartCmd(a *App) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "start TASK",
		Short: "Start a timer on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(a); err != nil {
				return err
			}
			s, err := a.Timer.Start(cmd.Context(), app.StartRequest{
				UserID:      a.UserID,
				TaskID:      args[0],
				Description: note,
			})
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w (see `timekeep timer current`)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession(s, a.now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "Description of the work")
	return cmd
}

func newTimerPauseCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause [SESSION]",
		Short: "Pause your running timer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(a); err != nil {
				return err
			}
			id, err := sessionArg(cmd, a, args)
			if err != nil {
				return err
			}
			s, err := a.Timer.Pause(cmd.Context(), id, a.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession(s, a.now()))
			return nil
		},
	}
}

func newTimerResumeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume [SESSION]",
		Short: "Resume your paused timer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(a); err != nil {
				return err
			}
			id, err := sessionArg(cmd, a, args)
			if err != nil {
				return err
			}
			s, err := a.Timer.Resume(cmd.Context(), id, a.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession(s, a.now()))
			return nil
		},
	}
}

// stopFlags are shared by stop and force-stop.
type stopFlags struct {
	note        string
	nonBillable bool
	interactive bool
}

func (f *stopFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.note, "note", "n", "", "Replace the description given at start")
	cmd.Flags().BoolVar(&f.nonBillable, "non-billable", false, "Record the time as non-billable")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Ask for description and billability")
}

func (f *stopFlags) request(cmd *cobra.Command, a *App, sessionID string) (app.StopRequest, error) {
	req := app.StopRequest{SessionID: sessionID, UserID: a.UserID}
	if cmd.Flags().Changed("note") {
		req.Description = &f.note
	}
	if cmd.Flags().Changed("non-billable") {
		billable := !f.nonBillable
		req.IsBillable = &billable
	}
	if f.interactive && a.IsInteractive {
		if err := runStopForm(&req); err != nil {
			return req, err
		}
	}
	return req, nil
}

// finishStop prints the outcome of a stop. A session that is already
// closed is not an error for the CLI.
func finishStop(cmd *cobra.Command, log *domain.TimeLog, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("already stopped"))
		return nil
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%w; the time log is kept and will be retried on the next stop", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTimeLog(log))
	return nil
}

func newTimerStopCmd(a *App) *cobra.Command {
	var flags stopFlags

	cmd := &cobra.Command{
		Use:   "stop [SESSION]",
		Short: "Stop your timer and record the time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(a); err != nil {
				return err
			}
			var id string
			if len(args) > 0 {
				id = args[0]
			} else {
				cur, err := a.Timer.Current(cmd.Context(), a.UserID)
				if err != nil {
					return finishStop(cmd, nil, err)
				}
				id = cur.ID
			}
			req, err := flags.request(cmd, a, id)
			if err != nil {
				return err
			}
			log, err := a.Timer.Stop(cmd.Context(), req)
			return finishStop(cmd, log, err)
		},
	}

	flags.register(cmd)
	return cmd
}

func newTimerForceStopCmd(a *App) *cobra.Command {
	var flags stopFlags

	cmd := &cobra.Command{
		Use:   "force-stop SESSION",
		Short: "Stop anyone's timer (administrative override)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd, a, args[0])
			if err != nil {
				return err
			}
			log, err := a.Timer.ForceStop(cmd.Context(), req)
			return finishStop(cmd, log, err)
		},
	}

	flags.register(cmd)
	return cmd
}

func newTimerCurrentCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show your active timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(a); err != nil {
				return err
			}
			s, err := a.Timer.Current(cmd.Context(), a.UserID)
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No timer running."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession(s, a.now()))
			return nil
		},
	}
}
