package errors

// Exit codes returned by the CLI.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitParseFailure = 3
)

// LaunchResult describes the outcome for one input of a command.
type LaunchResult struct {
	Args    interface{} `json:"args"`
	Result  interface{} `json:"result,omitempty"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
}

// LaunchesResult is the envelope a command reports, one entry per input.
type LaunchesResult struct {
	Launches []LaunchResult `json:"launches"`
}

// CommandError represents a failed command run, storing relevant results.
type CommandError struct {
	ExitCode    int
	CommonError string
	Result      LaunchesResult
	err         error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

func (e *CommandError) Unwrap() error {
	return e.err
}

// NewCommandError creates a new CommandError instance, encapsulating args, result, and the error message.
func NewCommandError(args interface{}, result interface{}, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Result: LaunchesResult{
			Launches: []LaunchResult{
				{
					Args:    args,
					Result:  result,
					Status:  "FAILED",
					Message: err.Error(),
				},
			},
		},
		err: err,
	}
}

// NewCommandErrorWithResult creates a new CommandError with a pre-formed LaunchesResult.
func NewCommandErrorWithResult(launches LaunchesResult, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Result:      launches,
		err:         err,
	}
}
