// Package cli wires the cobra command tree: generate, organize, check and
// the chats group. Flags come from the config binders; values not given on
// the command line fall back to a config file, FOLDERIZE_* environment
// variables and .env files, in that order.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/backmassage/folderize/internal/selector"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // a run finished with failures, or could not start
	ExitUsage   = 2 // bad flags, or the input path is missing or not a directory
)

// exitError carries an exit code. A nil err means the failure was already
// logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: ExitUsage, err: err} }
func failed() error              { return &exitError{code: ExitFailure} }

// app holds state shared by every command of one invocation.
type app struct {
	version    string
	configFile string
	v          *viper.Viper
	stdout     io.Writer
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string, stdout io.Writer) *cobra.Command {
	a := &app{version: version, stdout: stdout}
	root := &cobra.Command{
		Use:           "folderize",
		Short:         "Give every file its own folder, README and metadata; manage bot chats",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadDotEnv()
			v, err := newViper(a.configFile)
			if err != nil {
				return usageError(err)
			}
			a.v = v
			return nil
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: ./folderize.yaml if present)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	root.AddCommand(
		newGenerateCmd(a),
		newOrganizeCmd(a),
		newCheckCmd(a),
		newChatsCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version string, args []string) int {
	root := NewRootCmd(version, os.Stdout)
	root.SetArgs(args)
	return exitCode(root.Execute(), os.Stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitOK
	}
	code := ExitFailure
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if errors.Is(err, selector.ErrNotFound) || errors.Is(err, selector.ErrNotADirectory) {
		code = ExitUsage
	}
	if err != nil {
		fmt.Fprintf(stderr, "folderize: %v\n", err)
	}
	return code
}
