package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	flagNameStatus         = "status"
	flagNameSearch         = "search"
	flagNameYes            = "yes"
	flagNameOut            = "out"
	standardOutputFileName = "-"
	exportFileMode         = 0o600
	emptyResultMessage     = "No inquiries found matching your filters."
)

var (
	errMissingCredentials = errors.New("username and password are required")
	errDeleteAborted      = errors.New("delete aborted")
)

func (application *LeadctlApplication) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the operator session",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			_, api, tokenStore, connectErr := application.connect()
			if connectErr != nil {
				return connectErr
			}
			username := strings.TrimSpace(application.configurationLoader.GetString(environmentKeyUsername))
			password := application.configurationLoader.GetString(environmentKeyPassword)
			if password == "" {
				fmt.Fprint(command.ErrOrStderr(), "Password: ")
				password = readLine(command.InOrStdin())
			}
			if username == "" || password == "" {
				return errMissingCredentials
			}

			session, loginErr := api.Login(command.Context(), username, password)
			if loginErr != nil {
				return errors.New(leads.ErrorMessage(loginErr))
			}
			if saveErr := tokenStore.Save(session); saveErr != nil {
				return saveErr
			}
			fmt.Fprintf(command.OutOrStdout(), "Logged in as %s\n", session.Username)
			return nil
		},
	}
}

func (application *LeadctlApplication) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved operator session",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			_, _, tokenStore, connectErr := application.connect()
			if connectErr != nil {
				return connectErr
			}
			if clearErr := tokenStore.Clear(); clearErr != nil {
				return clearErr
			}
			fmt.Fprintln(command.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (application *LeadctlApplication) listCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List inquiries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			operator, service, openErr := application.openService(command.Context())
			if openErr != nil {
				return openErr
			}
			filter, filterErr := filterFromFlags(command)
			if filterErr != nil {
				return filterErr
			}
			board := service.Board()
			visible := board.Filtered(filter)
			output := command.OutOrStdout()
			fmt.Fprintln(output, summaryLine(board.Stats(), operator.config.NoColor))
			if len(visible) == 0 {
				fmt.Fprintln(output, emptyResultMessage)
				return nil
			}
			fmt.Fprintln(output, renderInquiryTable(output, visible, operator.config.Location, operator.config.NoColor))
			return nil
		},
	}
	addFilterFlags(command)
	return command
}

func (application *LeadctlApplication) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <inquiry-id>",
		Short: "Show one inquiry with its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			operator, service, openErr := application.openService(command.Context())
			if openErr != nil {
				return openErr
			}
			inquiry, found := service.Board().Find(arguments[0])
			if !found {
				return leads.ErrUnknownInquiry
			}
			rendered, renderErr := renderInquiryDetail(inquiry, operator.config.Location, operator.config.NoColor)
			if renderErr != nil {
				return renderErr
			}
			fmt.Fprint(command.OutOrStdout(), rendered)
			return nil
		},
	}
}

func (application *LeadctlApplication) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <inquiry-id> <status>",
		Short: "Set the status of an inquiry (New, Contacted, In Progress, Closed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			status, statusErr := resolveStatusArgument(arguments[1])
			if statusErr != nil {
				return statusErr
			}
			operator, service, openErr := application.openService(command.Context())
			if openErr != nil {
				return openErr
			}
			if updateErr := service.UpdateStatus(command.Context(), arguments[0], status); updateErr != nil {
				return operator.mutationFailure(updateErr)
			}
			fmt.Fprintf(command.OutOrStdout(), "%s is now %s\n", arguments[0], colorizeStatus(status, operator.config.NoColor))
			return nil
		},
	}
}

func (application *LeadctlApplication) noteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "note <inquiry-id> <text>",
		Short: "Add a private note to an inquiry",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			operator, service, openErr := application.openService(command.Context())
			if openErr != nil {
				return openErr
			}
			noteContent := strings.Join(arguments[1:], " ")
			updated, noteErr := service.AddNote(command.Context(), arguments[0], noteContent)
			if noteErr != nil {
				return operator.mutationFailure(noteErr)
			}
			fmt.Fprintf(command.OutOrStdout(), "Note added to %s (%d notes)\n", updated.ID, len(updated.Notes))
			return nil
		},
	}
}

func (application *LeadctlApplication) deleteCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "delete <inquiry-id>",
		Short: "Delete an inquiry permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			operator, service, openErr := application.openService(command.Context())
			if openErr != nil {
				return openErr
			}
			inquiryID := arguments[0]
			inquiry, found := service.Board().Find(inquiryID)
			if !found {
				return leads.ErrUnknownInquiry
			}
			confirmed, _ := command.Flags().GetBool(flagNameYes)
			if !confirmed {
				fmt.Fprintf(command.ErrOrStderr(), "Delete inquiry from %s %s? This cannot be undone. [y/N] ", inquiry.FirstName, inquiry.LastName)
				answer := strings.ToLower(readLine(command.InOrStdin()))
				if answer != "y" && answer != "yes" {
					return errDeleteAborted
				}
			}
			if deleteErr := service.Delete(command.Context(), inquiryID); deleteErr != nil {
				return operator.mutationFailure(deleteErr)
			}
			fmt.Fprintf(command.OutOrStdout(), "Deleted %s\n", inquiryID)
			return nil
		},
	}
	command.Flags().Bool(flagNameYes, false, "skip the confirmation prompt")
	return command
}

func (application *LeadctlApplication) exportCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered inquiries as CSV",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			operator, service, openErr := application.openService(command.Context())
			if openErr != nil {
				return openErr
			}
			filter, filterErr := filterFromFlags(command)
			if filterErr != nil {
				return filterErr
			}
			visible := service.Board().Filtered(filter)

			outputPath, _ := command.Flags().GetString(flagNameOut)
			if outputPath == standardOutputFileName {
				return leads.WriteCSV(command.OutOrStdout(), visible, operator.config.Location)
			}
			exportFile, createErr := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, exportFileMode)
			if createErr != nil {
				return createErr
			}
			if writeErr := leads.WriteCSV(exportFile, visible, operator.config.Location); writeErr != nil {
				_ = exportFile.Close()
				return writeErr
			}
			if closeErr := exportFile.Close(); closeErr != nil {
				return closeErr
			}
			fmt.Fprintf(command.OutOrStdout(), "Exported %d inquiries to %s\n", len(visible), outputPath)
			return nil
		},
	}
	addFilterFlags(command)
	command.Flags().String(flagNameOut, leads.ExportFileName, "output file, or - for standard output")
	return command
}

func addFilterFlags(command *cobra.Command) {
	command.Flags().String(flagNameStatus, leads.StatusAll, "status to show: All, New, Contacted, In Progress or Closed")
	command.Flags().String(flagNameSearch, "", "match first name, last name, email or phone")
}

func filterFromFlags(command *cobra.Command) (leads.Filter, error) {
	rawStatus, _ := command.Flags().GetString(flagNameStatus)
	search, _ := command.Flags().GetString(flagNameSearch)
	status := leads.StatusAll
	if !strings.EqualFold(strings.TrimSpace(rawStatus), leads.StatusAll) {
		resolved, statusErr := resolveStatusArgument(rawStatus)
		if statusErr != nil {
			return leads.Filter{}, statusErr
		}
		status = resolved
	}
	return leads.NewFilter(status, search), nil
}

// resolveStatusArgument accepts statuses in any case, with dashes or underscores for spaces.
func resolveStatusArgument(raw string) (string, error) {
	normalized := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(raw))
	for _, status := range model.InquiryStatuses() {
		if strings.EqualFold(normalized, status) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", model.ErrInvalidInquiryStatus, raw)
}

// mutationFailure reports validation errors as-is and maps API failures like remoteFailure.
func (operator operatorSession) mutationFailure(err error) error {
	if model.IsInquiryValidationError(err) {
		return errors.New(model.InquiryErrorMessage(err))
	}
	if errors.Is(err, leads.ErrUnknownInquiry) {
		return err
	}
	return operator.remoteFailure(err)
}

func readLine(reader io.Reader) string {
	line, _ := bufio.NewReader(reader).ReadString('\n')
	return strings.TrimSpace(line)
}
