package errors

import (
	"encoding/json"
	"errors"
)

// Representation of errors surfaced by a reconciliation pass. These
// are divided into a small number of categories, essentially
// distinguished by what the caller can do about them; i.e., is this
// error:
//
//   - a legitimate absence of the thing asked about?
//   - a problem with the desired input, which no amount of retrying fixes?
//   - a failure of the external system or the tool used to reach it?
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string `json:"help"`
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Type string

const (
	// The external command or filesystem operation went wrong, for a
	// reason other than the thing being absent
	Server Type = "server"
	// The thing you mentioned, whatever it is, just doesn't exist
	Missing Type = "missing"
	// The desired input is malformed; raised before anything external
	// is attempted
	User Type = "user"
)

func is(err error, typ Type) bool {
	var e *Error
	if errors.As(err, &e) && e.Type == typ {
		return true
	}
	return false
}

func IsMissing(err error) bool {
	return is(err, Missing)
}

func IsUser(err error) bool {
	return is(err, User)
}

func IsServer(err error) bool {
	return is(err, Server)
}

// MissingError reports the legitimate absence of an object.
func MissingError(obj string, err error) *Error {
	return &Error{
		Type: Missing,
		Err:  err,
		Help: `Object ` + obj + ` not found

The object requested does not exist. This is not a failure: a
reconciliation pass treats it as empty observed state.
`,
	}
}

// ValidationError reports malformed desired input.
func ValidationError(err error) *Error {
	return &Error{
		Type: User,
		Err:  err,
		Help: `Invalid declaration: ` + err.Error() + `

The desired state could not be accepted as given. Nothing was changed;
correct the declaration and run again.
`,
	}
}

// ExecutionError reports a failure of the external boundary which is
// not a not-found condition. It aborts the pass.
func ExecutionError(what string, err error) *Error {
	return &Error{
		Type: Server,
		Err:  err,
		Help: `Failed while ` + what + `

The external command or file operation failed. The error is reported
verbatim above; the pass was aborted and no further action was taken.
`,
	}
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var errMsg string
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{
		Type: string(e.Type),
		Help: e.Help,
		Err:  errMsg,
	}
	return json.Marshal(jsonable)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{}
	if err := json.Unmarshal(data, &jsonable); err != nil {
		return err
	}
	e.Type = Type(jsonable.Type)
	e.Help = jsonable.Help
	if jsonable.Err != "" {
		e.Err = errors.New(jsonable.Err)
	}
	return nil
}

func CoverAllError(err error) *Error {
	return &Error{
		Type: Server,
		Err:  err,
		Help: `Error: ` + err.Error() + `

We don't have a specific help message for the error above.

It would help us remedy this if you log an issue at

    https://github.com/fluxcd/converge/issues

saying what you were doing when you saw this, and quoting the message
at the top.
`,
	}
}
