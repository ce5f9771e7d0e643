package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedx/vedx-site/internal/adminclient"
)

func (a *app) resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password with an emailed code",
	}
	cmd.AddCommand(
		a.resetStatusCmd(),
		a.resetStartCmd(),
		a.resetResendCmd(),
		a.resetVerifyCmd(),
		a.resetCompleteCmd(),
		a.resetAbandonCmd(),
	)
	return cmd
}

func (a *app) wizard() *adminclient.ResetWizard {
	return adminclient.NewResetWizard(a.client, a.session)
}

func (a *app) resetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the next reset step",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := a.wizard()
			step, err := w.Step()
			if err != nil {
				return err
			}
			email, err := w.Email()
			if err != nil {
				return err
			}
			if email != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Email: %s\n", email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Next step: %s\n", step)
			return nil
		},
	}
}

func (a *app) resetStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <email>",
		Short: "Email a one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.wizard().Start(cmd.Context(), args[0])
			if err != nil {
				return explain("send the code", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func (a *app) resetResendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend",
		Short: "Email a new code; earlier codes stop working",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.wizard().Resend(cmd.Context())
			if err != nil {
				return explain("resend the code", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func (a *app) resetVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Check the emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.wizard().Verify(cmd.Context(), args[0])
			if err != nil {
				return explain("verify the code", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func (a *app) resetCompleteCmd() *cobra.Command {
	var password, confirm string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Set the new password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.promptSecret(cmd, "New password", password)
			if err != nil {
				return err
			}
			if confirm == "" && password != "" {
				confirm = password
			}
			again, err := a.promptSecret(cmd, "Confirm password", confirm)
			if err != nil {
				return err
			}
			res, err := a.wizard().Reset(cmd.Context(), pw, again)
			if err != nil {
				return explain("reset the password", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password")
	return cmd
}

func (a *app) resetAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Forget the reset in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wizard().Abandon(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reset abandoned")
			return nil
		},
	}
}
