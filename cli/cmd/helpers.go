package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/reconciler"
	"github.com/crmarques/declarm/yamlutil"
)

type handledError struct {
	msg string
}

func (handledError) handledMarker() {}

func (e handledError) Error() string {
	return e.msg
}

type handled interface {
	handledMarker()
}

func IsHandledError(err error) bool {
	if err == nil {
		return false
	}
	var h handled
	return errors.As(err, &h)
}

// ExitCodeForError maps error categories onto stable process exit codes so
// callers can branch on the failure class.
func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	switch faults.CategoryOf(err) {
	case faults.ValidationError:
		return 2
	case faults.NotFoundError:
		return 3
	case faults.ConflictError:
		return 4
	case faults.AuthError:
		return 5
	case faults.TransportError:
		return 6
	default:
		return 1
	}
}

func usageError(cmd *cobra.Command, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "invalid command usage"
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())

	return handledError{msg: msg}
}

func successf(cmd *cobra.Command, format string, args ...any) {
	if noStatusOutput {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[OK] "+format+"\n", args...)
}

// loadRequest reads a declarative resource definition from a YAML file, or
// from standard input when path is "-". Unknown keys are rejected.
func loadRequest(cmd *cobra.Command, path string) (reconciler.Request, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return reconciler.Request{}, usageError(cmd, "a resource definition file is required (--file)")
	}

	var data []byte
	var err error
	if trimmed == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(trimmed)
	}
	if err != nil {
		return reconciler.Request{}, faults.NewTypedError(
			faults.ValidationError,
			"failed to read resource definition "+trimmed,
			err,
		)
	}

	var request reconciler.Request
	if err := yamlutil.UnmarshalStrict(data, &request); err != nil {
		return reconciler.Request{}, faults.NewTypedError(
			faults.ValidationError,
			"resource definition "+trimmed+" is not valid",
			err,
		)
	}
	return request, nil
}

// printValue renders command output as YAML (default) or JSON, optionally
// filtered through a jq expression first.
func printValue(cmd *cobra.Command, value any, format, query string) error {
	filtered, err := applyQuery(value, query)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml":
		encoded, err := yamlutil.MarshalWithIndent(filtered, 2)
		if err != nil {
			return faults.NewTypedError(faults.InternalError, "failed to render output", err)
		}
		_, _ = cmd.OutOrStdout().Write(encoded)
		return nil
	case "json":
		encoded, err := json.MarshalIndent(filtered, "", "  ")
		if err != nil {
			return faults.NewTypedError(faults.InternalError, "failed to render output", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	default:
		return usageError(cmd, fmt.Sprintf("unknown output format %q (available: yaml, json)", format))
	}
}

func addOutputFlags(cmd *cobra.Command, format, query *string) {
	cmd.Flags().StringVarP(format, "output", "o", "yaml", "Output format (yaml, json)")
	cmd.Flags().StringVar(query, "query", "", "jq expression applied to the output before rendering")
}
