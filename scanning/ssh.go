package scanning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"dev.hon.one/radar/common"
)

func checkDeviceFailure(address string, message string, err error) bool {
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"device": address,
		}).Tracef("Device error: %v", message)
		return false
	}
	return true
}

// Dial the host within the context deadline. The connection is closed once the context ends.
func dialSSHTransport(ctx context.Context, address string, port int) (net.Conn, error) {
	fullAddress := net.JoinHostPort(address, strconv.Itoa(port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", fullAddress)
	if !checkDeviceFailure(address, fmt.Sprintf("Failed to connect to device: %v", fullAddress), err) {
		return nil, common.NewHostError(common.ErrConnectionFailed, common.StageConnect, address, contextReason(ctx, err))
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return conn, nil
}

// Run the SSH handshake and authentication on an open transport.
func openSSHClient(ctx context.Context, conn net.Conn, address string, sshConfig *ssh.ClientConfig, method string) (*ssh.Client, error) {
	clientConn, channels, requests, err := ssh.NewClientConn(conn, conn.RemoteAddr().String(), sshConfig)
	if !checkDeviceFailure(address, "Failed to open SSH connection", err) {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, &common.HostError{Kind: common.ErrAuthFailed, Stage: common.StageAuth, Address: address, Method: method, Reason: err.Error()}
		}
		return nil, common.NewHostError(common.ErrConnectionFailed, common.StageHandshake, address, contextReason(ctx, err))
	}
	return ssh.NewClient(clientConn, channels, requests), nil
}

// Open a session and run a single command, returning its STDOUT.
func runSSHCommand(ctx context.Context, sshClient *ssh.Client, address string, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", common.NewHostError(common.ErrCommandFailed, common.StageCommand, address, contextReason(ctx, err))
	}
	session, err := sshClient.NewSession()
	if !checkDeviceFailure(address, "Failed to start session", err) {
		return "", &common.HostError{Kind: common.ErrCommandFailed, Stage: common.StageCommand, Address: address, Reason: fmt.Sprintf("failed to start session: %v", contextReason(ctx, err))}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	err = session.Run(command)
	drainStderrLines(address, stderr.String())
	if !checkDeviceFailure(address, fmt.Sprintf("Failed to run SSH command: %v", command), err) {
		reason := fmt.Sprintf("failed to run %q: %v", command, contextReason(ctx, err))
		if line := firstLine(stderr.String()); line != "" {
			reason = fmt.Sprintf("%v: %v", reason, line)
		}
		return "", &common.HostError{Kind: common.ErrCommandFailed, Stage: common.StageCommand, Address: address, Reason: reason}
	}

	return stdout.String(), nil
}

// Just prints STDERR lines to the log if anything appears.
func drainStderrLines(address string, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		log.WithFields(log.Fields{
			"device": address,
		}).Tracef("Received line on STDERR: %v", line)
	}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Prefer the context error when the context ended, the I/O error is only a symptom then.
func contextReason(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.New("timed out")
		}
		return ctxErr
	}
	return err
}
