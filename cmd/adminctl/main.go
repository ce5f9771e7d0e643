// Command adminctl is the administrator's client for the VEDX Auth API. It keeps
// the session token and in-progress password reset in a local state file.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedx/vedx-site/internal/adminclient"
	"github.com/vedx/vedx-site/internal/domain"
)

type app struct {
	apiURL    string
	statePath string

	client  *adminclient.Client
	session *adminclient.Session
	in      *bufio.Reader
}

func main() {
	if err := newRootCmd(os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	a := &app{in: bufio.NewReader(stdin)}

	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Manage the VEDX admin account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.client = adminclient.New(a.apiURL)
			a.session = adminclient.NewSession(adminclient.NewFileStore(a.statePath), nil)
		},
	}

	defaultURL := os.Getenv("VEDX_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:5000"
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", defaultURL, "API base URL")
	root.PersistentFlags().StringVar(&a.statePath, "state", "", "state file path (default ~/.vedx/admin.yaml)")

	root.AddCommand(a.loginCmd(), a.logoutCmd(), a.profileCmd(), a.changePasswordCmd(), a.resetCmd())
	return root
}

// prompt returns value when set, otherwise reads one trimmed line from stdin.
func (a *app) prompt(cmd *cobra.Command, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	line, err := a.readLine(cmd, label)
	return strings.TrimSpace(line), err
}

// promptSecret is prompt for passwords: only the line ending is stripped, so
// leading and trailing spaces stay part of the secret.
func (a *app) promptSecret(cmd *cobra.Command, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	line, err := a.readLine(cmd, label)
	return strings.TrimRight(line, "\r\n"), err
}

func (a *app) readLine(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}

func (a *app) token() (string, error) {
	tok, err := a.session.Token()
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", errors.New("not logged in; run adminctl login")
	}
	return tok, nil
}

// explain turns a failed call into the message shown to the user.
func explain(action string, err error) error {
	var apiErr *adminclient.APIError
	var verr *domain.ValidationError
	var redirect *adminclient.RedirectError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		return verr
	case errors.As(err, &redirect):
		return fmt.Errorf("no reset in progress; run adminctl reset start <email>")
	}
	return fmt.Errorf("unable to %s right now: %w", action, err)
}

func printProfile(w io.Writer, p *domain.AdminProfile) {
	if p == nil {
		return
	}
	fmt.Fprintf(w, "Name:       %s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(w, "Email:      %s\n", p.Email)
	fmt.Fprintf(w, "Identifier: %s\n", p.Identifier)
}
