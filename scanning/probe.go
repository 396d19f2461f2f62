package scanning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"dev.hon.one/radar/common"
)

// Prober - Reads the hardware addresses of a single host.
type Prober interface {
	Probe(ctx context.Context, address string) (common.DeviceIdentity, error)
}

// SSHProber - Probes hosts by running the interface listing command over SSH.
type SSHProber struct {
	config          common.ProbeConfig
	hostKeyCallback ssh.HostKeyCallback
}

// NewSSHProber - Create a prober for the config. Fails if the credential is missing or known_hosts can't be read.
func NewSSHProber(probeConfig common.ProbeConfig) (*SSHProber, error) {
	probeConfig = probeConfig.WithDefaults()
	if probeConfig.Credential.Kind == common.CredentialNone {
		return nil, errors.New("no credential configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if probeConfig.KnownHostsPath != "" {
		callback, err := knownhosts.New(probeConfig.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = callback
	}

	return &SSHProber{
		config:          probeConfig,
		hostKeyCallback: hostKeyCallback,
	}, nil
}

// Probe - Connect, authenticate, list interfaces and extract hardware addresses.
// Every step shares one per-host deadline. One connection and one auth attempt, no retries.
func (prober *SSHProber) Probe(ctx context.Context, address string) (common.DeviceIdentity, error) {
	identity := common.DeviceIdentity{Address: address}
	ctx, cancel := context.WithTimeout(ctx, prober.config.Timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return identity, common.NewHostError(common.ErrConnectionFailed, common.StageConnect, address, contextReason(ctx, err))
	}
	conn, err := dialSSHTransport(ctx, address, prober.config.Port)
	if err != nil {
		return identity, err
	}

	sshClient, err := prober.authenticate(ctx, conn, address)
	if err != nil {
		return identity, err
	}
	defer sshClient.Close()

	output, err := runSSHCommand(ctx, sshClient, address, prober.config.Command)
	if err != nil {
		return identity, err
	}

	identity.MACs = ExtractMACs(output)
	log.WithFields(log.Fields{
		"device":    address,
		"mac_count": len(identity.MACs),
	}).Trace("Found device hardware addresses")
	return identity, nil
}

// Handshake and authenticate. Key material only lives for the duration of this call.
func (prober *SSHProber) authenticate(ctx context.Context, conn net.Conn, address string) (*ssh.Client, error) {
	credential := prober.config.Credential
	var authMethod ssh.AuthMethod
	switch credential.Kind {
	case common.CredentialPassword:
		authMethod = ssh.Password(credential.Secret)
	case common.CredentialKeyFile, common.CredentialKeyMaterial:
		signer, err := loadSigner(credential)
		if !checkDeviceFailure(address, "Failed to load SSH private key", err) {
			conn.Close()
			return nil, &common.HostError{Kind: common.ErrAuthFailed, Stage: common.StageAuth, Address: address, Method: credential.Method(), Reason: err.Error()}
		}
		authMethod = ssh.PublicKeys(signer)
	default:
		conn.Close()
		return nil, &common.HostError{Kind: common.ErrAuthFailed, Stage: common.StageAuth, Address: address, Method: credential.Method(), Reason: "no credential"}
	}

	// No Timeout, it only applies to ssh.Dial. The context deadline on conn bounds the handshake.
	sshConfig := &ssh.ClientConfig{
		User:            prober.config.Username,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: prober.hostKeyCallback,
	}
	return openSSHClient(ctx, conn, address, sshConfig, credential.Method())
}

// Parse the private key of a key credential.
func loadSigner(credential common.Credential) (ssh.Signer, error) {
	var raw []byte
	if credential.Kind == common.CredentialKeyFile {
		data, err := os.ReadFile(credential.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		raw = data
		defer clear(raw)
	} else {
		raw = []byte(credential.KeyMaterial)
		defer clear(raw)
	}

	key := normalizeKey(raw)
	defer clear(key)
	return parsePrivateKey(key, credential.Passphrase)
}

func parsePrivateKey(key []byte, passphrase string) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(key)
	var missingErr *ssh.PassphraseMissingError
	if errors.As(err, &missingErr) {
		if passphrase == "" {
			return nil, errors.New("private key is encrypted and no passphrase was given")
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}

var (
	keyNewline        = []byte("\n")
	keyEscapedNewline = []byte(`\n`)
)

// Normalize key text to LF line endings with a single trailing newline.
// Keys pasted into environment variables often carry literal "\n" escapes instead of newlines.
// The result is written into one new buffer, raw is not modified.
func normalizeKey(raw []byte) []byte {
	key := bytes.TrimSpace(raw)
	escaped := !bytes.Contains(key, keyNewline) && bytes.Contains(key, keyEscapedNewline)

	normalized := make([]byte, 0, len(key)+1)
	for i := 0; i < len(key); i++ {
		switch {
		case escaped && key[i] == '\\' && i+1 < len(key) && key[i+1] == 'n':
			normalized = append(normalized, '\n')
			i++
		case key[i] == '\r':
			normalized = append(normalized, '\n')
			if i+1 < len(key) && key[i+1] == '\n' {
				i++
			}
		default:
			normalized = append(normalized, key[i])
		}
	}
	return append(normalized, '\n')
}
