package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/flowcore/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// listFlag collects every occurrence of a repeatable flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("flowcore", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Flowcore - runs node-based flow graphs.

Usage:
  flowcore [options] [PROJECT_PATH]

Arguments:
  PROJECT_PATH
    A .hcl file, a directory of .hcl files, or a saved snapshot
    (.json, .msgpack, .fcp).

Examples:
  flowcore --set name='"world"' --trigger n0 ./project
  flowcore --trigger n2.in[0] --out snapshot.fcp project.hcl

Options:
`)
		flagSet.PrintDefaults()
	}

	var triggers, sets listFlag
	projectFlag := flagSet.String("project", "", "Path to the project file or directory.")
	pFlag := flagSet.String("p", "", "Path to the project file or directory (shorthand).")
	flowFlag := flagSet.String("flow", "", "Name of the flow to run. Defaults to the first flow.")
	flagSet.Var(&triggers, "trigger", "Node (n3) or input (n3.in[0]) to trigger. Repeatable, runs in order.")
	flagSet.Var(&sets, "set", "Variable assignment name=expr, applied before triggers. Repeatable.")
	outFlag := flagSet.String("out", "", "Write a snapshot of the session here after the run.")
	functionsFlag := flagSet.String("functions-path", "", "Directory of .hcl files providing shared functions.")
	notifyFlag := flagSet.String("notify-url", "", "socket.io server that receives flow notifications.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format: text (alias console) or json.")
	logLevelFlag := flagSet.String("log-level", "info", "Log level: trace, debug, info, warn or error.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *projectFlag != "" {
		path = *projectFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Project path determined.", "path", path)

	if path == "" {
		slog.Debug("No project path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	logLevel := strings.ToLower(*logLevelFlag)

	assignments := make([]app.Assignment, 0, len(sets))
	for _, raw := range sets {
		as, err := app.ParseAssignment(raw)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		assignments = append(assignments, as)
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ProjectPath:     path,
		FunctionsPath:   *functionsFlag,
		Flow:            *flowFlag,
		Sets:            assignments,
		Triggers:        triggers,
		OutPath:         *outFlag,
		NotifyURL:       *notifyFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
