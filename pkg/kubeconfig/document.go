package kubeconfig

import (
	"bytes"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	clientcmdv1 "k8s.io/client-go/tools/clientcmd/api/v1"
)

// Document is a kubeconfig file as loaded, with a snapshot of its
// content at load (or last save) for telling whether it has changed.
type Document struct {
	Config clientcmdv1.Config

	exists   bool
	snapshot []byte
}

func defaultConfig() clientcmdv1.Config {
	return clientcmdv1.Config{
		APIVersion: "v1",
		Kind:       "Config",
		Clusters:   []clientcmdv1.NamedCluster{},
		Contexts:   []clientcmdv1.NamedContext{},
		AuthInfos:  []clientcmdv1.NamedAuthInfo{},
	}
}

// Load reads the kubeconfig at path. A file that does not exist gives
// an empty document. Anything the file does not say is defaulted.
func Load(path string) (*Document, error) {
	doc := &Document{Config: defaultConfig()}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		doc.exists = true
		if err := yaml.Unmarshal(data, &doc.Config); err != nil {
			return nil, errors.Wrapf(err, "parsing kubeconfig %s", path)
		}
		defaults := defaultConfig()
		if doc.Config.APIVersion == "" {
			doc.Config.APIVersion = defaults.APIVersion
		}
		if doc.Config.Kind == "" {
			doc.Config.Kind = defaults.Kind
		}
		if doc.Config.Clusters == nil {
			doc.Config.Clusters = defaults.Clusters
		}
		if doc.Config.Contexts == nil {
			doc.Config.Contexts = defaults.Contexts
		}
		if doc.Config.AuthInfos == nil {
			doc.Config.AuthInfos = defaults.AuthInfos
		}
	}
	if doc.snapshot, err = doc.Marshal(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Exists says whether the document was read from a file.
func (d *Document) Exists() bool {
	return d.exists
}

func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d.Config)
}

// Changed says whether the document differs from what was loaded or
// last saved.
func (d *Document) Changed() bool {
	now, err := d.Marshal()
	return err != nil || !bytes.Equal(now, d.snapshot)
}

// saved records that the document now matches the file.
func (d *Document) saved(content []byte) {
	d.exists = true
	d.snapshot = content
}

// findOrCreate returns the entry with the given name, appending a new
// one if there is none. The pointer is valid until the list next grows.
func findOrCreate[T any](list *[]T, name string, nameOf func(*T) *string) *T {
	for i := range *list {
		if *nameOf(&(*list)[i]) == name {
			return &(*list)[i]
		}
	}
	var entry T
	*nameOf(&entry) = name
	*list = append(*list, entry)
	return &(*list)[len(*list)-1]
}

// FindOrCreateCluster returns the cluster entry with the given name,
// creating it if necessary. Calling it again with the same name never
// adds a second entry.
func (d *Document) FindOrCreateCluster(name string) *clientcmdv1.NamedCluster {
	return findOrCreate(&d.Config.Clusters, name, func(c *clientcmdv1.NamedCluster) *string { return &c.Name })
}

func (d *Document) FindOrCreateContext(name string) *clientcmdv1.NamedContext {
	return findOrCreate(&d.Config.Contexts, name, func(c *clientcmdv1.NamedContext) *string { return &c.Name })
}

func (d *Document) FindOrCreateUser(name string) *clientcmdv1.NamedAuthInfo {
	return findOrCreate(&d.Config.AuthInfos, name, func(u *clientcmdv1.NamedAuthInfo) *string { return &u.Name })
}
