package kubeconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/resource"
)

const defaultName = "default"

// Settings declare one cluster, context and user in a kubeconfig
// file. Empty strings mean "not specified": the corresponding field
// is neither checked nor written.
type Settings struct {
	Path   string
	Ensure resource.Ensure

	// Applied to the file after it is written
	Owner string
	Group string
	Mode  os.FileMode

	Cluster   string
	Context   string
	User      string
	Namespace string
	// CurrentContext, when given, is made the current context.
	CurrentContext string

	Server        string
	SkipTLSVerify *bool
	TLSServerName string

	// EmbedCerts puts the content of the certificate and key files in
	// the kubeconfig, rather than their paths.
	EmbedCerts bool
	CACert     string
	ClientCert string
	ClientKey  string

	Token     string
	TokenFile string
	Username  string
	Password  string
}

// DefaultSettings returns settings for the file at path with every
// default filled in.
func DefaultSettings(path string) Settings {
	return Settings{
		Path:       path,
		Ensure:     resource.Present,
		Cluster:    defaultName,
		Context:    defaultName,
		User:       defaultName,
		Namespace:  defaultName,
		EmbedCerts: true,
	}
}

func (s Settings) Validate() error {
	var err error
	switch {
	case s.Path == "":
		err = errors.New("path is required")
	case !filepath.IsAbs(s.Path):
		err = fmt.Errorf("file paths must be fully qualified, not %q", s.Path)
	case s.Ensure != resource.Present && s.Ensure != resource.Absent:
		err = fmt.Errorf("ensure must be %q or %q, not %q", resource.Present, resource.Absent, s.Ensure)
	case s.Cluster == "" || s.Context == "" || s.User == "":
		err = errors.New("cluster, context and user names are required")
	case s.Token != "" && s.TokenFile != "":
		err = errors.New("can't specify both token and token file for the same kubeconfig entry")
	}
	for _, path := range []string{s.CACert, s.ClientCert, s.ClientKey, s.TokenFile} {
		if err == nil && path != "" && !filepath.IsAbs(path) {
			err = fmt.Errorf("file paths must be fully qualified, not %q", path)
		}
	}
	if err != nil {
		return fluxerr.ValidationError(err)
	}
	return nil
}

// Desired is the settings with every file they name read in.
type Desired struct {
	Settings
	caData, certData, keyData []byte
	token                     string
}

func (s Settings) Resolve() (Desired, error) {
	w := Desired{Settings: s, token: s.Token}
	if s.EmbedCerts {
		for _, f := range []struct {
			path string
			into *[]byte
		}{{s.CACert, &w.caData}, {s.ClientCert, &w.certData}, {s.ClientKey, &w.keyData}} {
			if f.path == "" {
				continue
			}
			data, err := os.ReadFile(f.path)
			if err != nil {
				return Desired{}, fluxerr.ExecutionError("reading "+f.path, err)
			}
			*f.into = data
		}
	}
	if s.TokenFile != "" {
		data, err := os.ReadFile(s.TokenFile)
		if err != nil {
			return Desired{}, fluxerr.ExecutionError("reading "+s.TokenFile, err)
		}
		w.token = strings.TrimSpace(string(data))
	}
	return w, nil
}
