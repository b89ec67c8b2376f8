package manifests

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	yamlv2 "gopkg.in/yaml.v2"

	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/kubeconfig"
	"github.com/fluxcd/converge/pkg/resource"
)

//go:embed schema.json
var schemaJSON string

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(err)
	}
	return s
}()

// ConfigFile is a declarations file: the resources and kubeconfig
// files to converge, in the order they are given.
type ConfigFile struct {
	Path        string `yaml:"-"`
	Version     int
	Resources   []Resource
	Kubeconfigs []Kubeconfig
}

// Resource declares one object.
type Resource struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string
	Name       string
	Namespace  string
	Kubeconfig string
	File       string
	Ensure     string
	// Absent means true
	Update   *bool
	Recreate bool
	ShowDiff bool `yaml:"showDiff"`
	Content  interface{}
}

// Kubeconfig declares one cluster, context and user in a kubeconfig
// file. Names not given default to "default".
type Kubeconfig struct {
	Path           string
	Ensure         string
	Owner          string
	Group          string
	Mode           string
	Cluster        string
	Context        string
	User           string
	Namespace      *string
	CurrentContext string `yaml:"currentContext"`
	Server         string
	SkipTLSVerify  *bool  `yaml:"skipTLSVerify"`
	TLSServerName  string `yaml:"tlsServerName"`
	EmbedCerts     *bool  `yaml:"embedCerts"`
	CACert         string `yaml:"caCert"`
	ClientCert     string `yaml:"clientCert"`
	ClientKey      string `yaml:"clientKey"`
	Token          string
	TokenFile      string `yaml:"tokenFile"`
	Username       string
	Password       string
}

// NewConfigFile reads and checks the declarations file at path.
func NewConfigFile(path string) (*ConfigFile, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read: %s", err)
	}
	cf, err := ParseConfigFile(fileBytes)
	if err != nil {
		return nil, err
	}
	cf.Path = path
	return cf, nil
}

// ParseConfigFile checks the declarations against the schema, then
// decodes them.
func ParseConfigFile(fileBytes []byte) (*ConfigFile, error) {
	jsonBytes, err := yaml.YAMLToJSON(fileBytes)
	if err != nil {
		return nil, fluxerr.ValidationError(fmt.Errorf("cannot parse: %s", err))
	}
	validation, err := schema.Validate(gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, fluxerr.ValidationError(fmt.Errorf("cannot validate: %s", err))
	}
	if !validation.Valid() {
		var problems []string
		for _, e := range validation.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fluxerr.ValidationError(errors.New("invalid declarations: " + strings.Join(problems, "; ")))
	}

	var result ConfigFile
	if err := yamlv2.Unmarshal(fileBytes, &result); err != nil {
		return nil, fluxerr.ValidationError(fmt.Errorf("cannot parse: %s", err))
	}
	if result.Version != 1 {
		return nil, fluxerr.ValidationError(errors.New("incorrect version, only version 1 is supported for now"))
	}
	return &result, nil
}

// Spec builds the desired state of the declared resource. The default
// kubeconfig applies when the resource names none.
func (r Resource) Spec(defaultKubeconfig string) (resource.Spec, error) {
	content, err := document.FromInterface(r.Content)
	if err != nil {
		return resource.Spec{}, fluxerr.ValidationError(errors.Wrapf(err, "content of %s", r.Name))
	}
	spec := resource.NewSpec(r.APIVersion, r.Kind, r.Name, r.Namespace, content)
	spec.Kubeconfig = r.Kubeconfig
	if spec.Kubeconfig == "" {
		spec.Kubeconfig = defaultKubeconfig
	}
	spec.File = r.File
	if r.Ensure != "" {
		spec.Ensure = resource.Ensure(r.Ensure)
	}
	if r.Update != nil {
		spec.Update = *r.Update
	}
	spec.Recreate = r.Recreate
	spec.ShowDiff = r.ShowDiff
	return spec, spec.Validate()
}

func (k Kubeconfig) Settings() (kubeconfig.Settings, error) {
	s := kubeconfig.DefaultSettings(k.Path)
	if k.Ensure != "" {
		s.Ensure = resource.Ensure(k.Ensure)
	}
	s.Owner, s.Group = k.Owner, k.Group
	if k.Mode != "" {
		mode, err := strconv.ParseUint(k.Mode, 8, 32)
		if err != nil {
			return s, fluxerr.ValidationError(errors.Wrapf(err, "mode of %s", k.Path))
		}
		s.Mode = os.FileMode(mode)
	}
	for _, f := range []struct {
		from string
		into *string
	}{{k.Cluster, &s.Cluster}, {k.Context, &s.Context}, {k.User, &s.User}} {
		if f.from != "" {
			*f.into = f.from
		}
	}
	if k.Namespace != nil {
		s.Namespace = *k.Namespace
	}
	s.CurrentContext = k.CurrentContext
	s.Server = k.Server
	s.SkipTLSVerify = k.SkipTLSVerify
	s.TLSServerName = k.TLSServerName
	if k.EmbedCerts != nil {
		s.EmbedCerts = *k.EmbedCerts
	}
	s.CACert, s.ClientCert, s.ClientKey = k.CACert, k.ClientCert, k.ClientKey
	s.Token, s.TokenFile = k.Token, k.TokenFile
	s.Username, s.Password = k.Username, k.Password
	return s, s.Validate()
}
