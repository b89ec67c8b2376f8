package kubernetes

import (
	"k8s.io/client-go/tools/clientcmd"
)

// The namespace to presume if something doesn't have one, and we
// haven't been told what to use as a fallback. This is what
// `kubectl` uses when there's no config setting the fallback
// namespace.
const defaultFallbackNamespace = "default"

// getKubeconfigDefaultNamespace returns the namespace of the current
// context in the kubeconfig at path (or found by the usual rules, if
// path is empty); empty if it names none.
// A variable is used for mocking in tests.
var getKubeconfigDefaultNamespace = func(path string) (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = path
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{},
	).RawConfig()
	if err != nil {
		return "", err
	}

	cc := config.CurrentContext
	if c, ok := config.Contexts[cc]; ok && c.Namespace != "" {
		return c.Namespace, nil
	}
	return "", nil
}

// fallbackNamespace is the namespace a namespaced resource declared
// without one ends up in, mimicking kubectl: the namespace of the
// kubeconfig's current context, otherwise "default".
func fallbackNamespace(kubeconfig string) (string, error) {
	ns, err := getKubeconfigDefaultNamespace(kubeconfig)
	if err != nil {
		return "", err
	}
	if ns == "" {
		return defaultFallbackNamespace, nil
	}
	return ns, nil
}
