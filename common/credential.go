package common

import (
	"fmt"
	"time"
)

// CredentialKind - Which credential variant is active.
type CredentialKind int

// Credential kinds.
const (
	CredentialNone CredentialKind = iota
	CredentialPassword
	CredentialKeyFile
	CredentialKeyMaterial
)

// Credential - The single credential used for every host of a scan.
// Secret fields are never rendered by String or GoString.
type Credential struct {
	Kind        CredentialKind
	Secret      string // Password
	KeyPath     string // Private key file
	KeyMaterial string // In-memory private key text
	Passphrase  string // Optional private key passphrase
}

// PasswordCredential - Authenticate with a password.
func PasswordCredential(secret string) Credential {
	return Credential{Kind: CredentialPassword, Secret: secret}
}

// KeyFileCredential - Authenticate with a private key file and optional passphrase.
func KeyFileCredential(path string, passphrase string) Credential {
	return Credential{Kind: CredentialKeyFile, KeyPath: path, Passphrase: passphrase}
}

// KeyMaterialCredential - Authenticate with in-memory private key text and optional passphrase.
func KeyMaterialCredential(material string, passphrase string) Credential {
	return Credential{Kind: CredentialKeyMaterial, KeyMaterial: material, Passphrase: passphrase}
}

// Method - SSH auth method name, for error context.
func (credential Credential) Method() string {
	switch credential.Kind {
	case CredentialPassword:
		return "password"
	case CredentialKeyFile, CredentialKeyMaterial:
		return "publickey"
	}
	return "none"
}

func (credential Credential) String() string {
	switch credential.Kind {
	case CredentialPassword:
		return "password credential"
	case CredentialKeyFile:
		return fmt.Sprintf("private key file credential (%v)", credential.KeyPath)
	case CredentialKeyMaterial:
		return "private key credential"
	}
	return "no credential"
}

// GoString - Keep %#v from dumping secrets.
func (credential Credential) GoString() string {
	return credential.String()
}

// ProbeConfig - Settings shared read-only by all probes of one scan.
type ProbeConfig struct {
	Username       string
	Port           int
	Credential     Credential
	Timeout        time.Duration // Per host
	Command        string
	KnownHostsPath string // Empty disables host key verification
}

// Probe defaults.
const (
	DefaultPort    = 22
	DefaultTimeout = 5 * time.Second
	DefaultCommand = "ip link show"
)

// WithDefaults - Fill unset fields with defaults.
func (probeConfig ProbeConfig) WithDefaults() ProbeConfig {
	if probeConfig.Port <= 0 {
		probeConfig.Port = DefaultPort
	}
	if probeConfig.Timeout <= 0 {
		probeConfig.Timeout = DefaultTimeout
	}
	if probeConfig.Command == "" {
		probeConfig.Command = DefaultCommand
	}
	return probeConfig
}
