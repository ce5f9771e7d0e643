package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedx/vedx-site/internal/adminclient"
	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/http/response"
)

func (a *app) loginCmd() *cobra.Command {
	var identifier, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.prompt(cmd, "Email or phone", identifier)
			if err != nil {
				return err
			}
			pw, err := a.promptSecret(cmd, "Password", password)
			if err != nil {
				return err
			}
			res, err := a.client.Login(cmd.Context(), id, pw)
			if err != nil {
				return explain("log in", err)
			}
			if err := a.session.SetLogin(res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "Session valid until %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&identifier, "identifier", "u", "", "email or phone")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.session.Token()
			if err != nil {
				return err
			}
			if tok != "" {
				_, err := a.client.Logout(cmd.Context(), tok)
				var apiErr *adminclient.APIError
				if err != nil && !(errors.As(err, &apiErr) && apiErr.Code == response.CodeUnauthorized) {
					return explain("log out", err)
				}
			}
			if err := a.session.ClearLogin(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the admin profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.token()
			if err != nil {
				return err
			}
			res, err := a.client.Profile(cmd.Context(), tok)
			if err != nil {
				return explain("load the profile", err)
			}
			if err := a.session.SetProfile(res.Admin); err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), res.Admin)
			return nil
		},
	}

	var firstName, lastName, email string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update name or email; unset flags keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.token()
			if err != nil {
				return err
			}
			current, err := a.client.Profile(cmd.Context(), tok)
			if err != nil {
				return explain("load the profile", err)
			}
			req := domain.UpdateProfileRequest{
				FirstName: current.Admin.FirstName,
				LastName:  current.Admin.LastName,
				Email:     current.Admin.Email,
			}
			if cmd.Flags().Changed("first-name") {
				req.FirstName = firstName
			}
			if cmd.Flags().Changed("last-name") {
				req.LastName = lastName
			}
			if cmd.Flags().Changed("email") {
				req.Email = email
			}

			res, err := a.client.UpdateProfile(cmd.Context(), tok, req)
			if err != nil {
				return explain("update the profile", err)
			}
			if err := a.session.SetProfile(res.Admin); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			printProfile(cmd.OutOrStdout(), res.Admin)
			return nil
		},
	}
	update.Flags().StringVar(&firstName, "first-name", "", "first name")
	update.Flags().StringVar(&lastName, "last-name", "", "last name")
	update.Flags().StringVar(&email, "email", "", "email address")
	cmd.AddCommand(update)
	return cmd
}

func (a *app) changePasswordCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password; other sessions are logged out",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.token()
			if err != nil {
				return err
			}
			cur, err := a.promptSecret(cmd, "Current password", current)
			if err != nil {
				return err
			}
			pw, err := a.promptSecret(cmd, "New password", next)
			if err != nil {
				return err
			}
			if err := domain.ValidatePassword("newPassword", pw); err != nil {
				return err
			}
			res, err := a.client.ChangePassword(cmd.Context(), tok, cur, pw)
			if err != nil {
				return explain("change the password", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}
