package kubeconfig

import (
	"bytes"

	clientcmdv1 "k8s.io/client-go/tools/clientcmd/api/v1"
)

// Valid says whether the document already holds everything desired.
// Only the fields that were specified are compared. Entries that do
// not yet exist are created, empty, so that a following Update fills
// them in.
func (d *Document) Valid(want Desired) bool {
	valid := clusterValid(d.FindOrCreateCluster(want.Cluster).Cluster, want) &&
		contextValid(d.FindOrCreateContext(want.Context).Context, want) &&
		userValid(d.FindOrCreateUser(want.User).AuthInfo, want)
	if want.CurrentContext != "" {
		valid = valid && d.Config.CurrentContext == want.CurrentContext
	}
	return valid
}

// Update sets every specified field, leaving the rest of each entry,
// and of the document, as it was.
func (d *Document) Update(want Desired) {
	updateCluster(&d.FindOrCreateCluster(want.Cluster).Cluster, want)
	updateContext(&d.FindOrCreateContext(want.Context).Context, want)
	updateUser(&d.FindOrCreateUser(want.User).AuthInfo, want)
	if want.CurrentContext != "" {
		d.Config.CurrentContext = want.CurrentContext
	}
}

func clusterValid(c clientcmdv1.Cluster, want Desired) bool {
	switch {
	case want.Server != "" && c.Server != want.Server:
		return false
	case want.SkipTLSVerify != nil && c.InsecureSkipTLSVerify != *want.SkipTLSVerify:
		return false
	case want.TLSServerName != "" && c.TLSServerName != want.TLSServerName:
		return false
	}
	return fileValid(want.EmbedCerts, want.CACert, c.CertificateAuthority, want.caData, c.CertificateAuthorityData)
}

func updateCluster(c *clientcmdv1.Cluster, want Desired) {
	if want.Server != "" {
		c.Server = want.Server
	}
	if want.SkipTLSVerify != nil {
		c.InsecureSkipTLSVerify = *want.SkipTLSVerify
	}
	if want.TLSServerName != "" {
		c.TLSServerName = want.TLSServerName
	}
	updateFile(want.EmbedCerts, want.CACert, &c.CertificateAuthority, want.caData, &c.CertificateAuthorityData)
}

func contextValid(c clientcmdv1.Context, want Desired) bool {
	return c.Cluster == want.Cluster &&
		c.Namespace == want.Namespace &&
		c.AuthInfo == want.User
}

func updateContext(c *clientcmdv1.Context, want Desired) {
	c.Cluster = want.Cluster
	c.Namespace = want.Namespace
	c.AuthInfo = want.User
}

func userValid(u clientcmdv1.AuthInfo, want Desired) bool {
	switch {
	case !fileValid(want.EmbedCerts, want.ClientCert, u.ClientCertificate, want.certData, u.ClientCertificateData):
		return false
	case !fileValid(want.EmbedCerts, want.ClientKey, u.ClientKey, want.keyData, u.ClientKeyData):
		return false
	case want.token != "" && u.Token != want.token:
		return false
	case want.Username != "" && u.Username != want.Username:
		return false
	case want.Password != "" && u.Password != want.Password:
		return false
	}
	return true
}

func updateUser(u *clientcmdv1.AuthInfo, want Desired) {
	updateFile(want.EmbedCerts, want.ClientCert, &u.ClientCertificate, want.certData, &u.ClientCertificateData)
	updateFile(want.EmbedCerts, want.ClientKey, &u.ClientKey, want.keyData, &u.ClientKeyData)
	if want.token != "" {
		u.Token = want.token
	}
	if want.Username != "" {
		u.Username = want.Username
	}
	if want.Password != "" {
		u.Password = want.Password
	}
}

// fileValid compares a certificate or key, either embedded (by its
// content) or referenced (by its path).
func fileValid(embed bool, path, havePath string, data, haveData []byte) bool {
	switch {
	case path == "":
		return true
	case embed:
		return bytes.Equal(data, haveData)
	}
	return havePath == path
}

func updateFile(embed bool, path string, havePath *string, data []byte, haveData *[]byte) {
	switch {
	case path == "":
	case embed:
		*haveData = data
	default:
		*havePath = path
	}
}
