package kubernetes

import (
	"fmt"
	"regexp"

	fluxerr "github.com/fluxcd/converge/pkg/errors"
)

// kubectl reports an absent object as, e.g.,
//
//	Error from server (NotFound): secrets "bootstrap-token-abc" not found
//
// Anything else on stderr (unknown resource types, authentication,
// connection problems) is a failure.
var notFoundRegexp = regexp.MustCompile(`\(NotFound\)`)

func isNotFoundOutput(stderr string) bool {
	return notFoundRegexp.MatchString(stderr)
}

func ObjectMissingError(obj string, err error) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  err,
		Help: fmt.Sprintf(`Cluster object %q not found

The object requested was not found in the cluster. It will be created
if it is declared present.
`, obj)}
}

func CommandError(cmd string, err error) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Server,
		Err:  err,
		Help: fmt.Sprintf(`Running %q failed

The command failed for a reason other than the object being absent;
check that the cluster is reachable with the kubeconfig given, and that
the credentials in it are allowed to manage the object.
`, cmd),
	}
}
