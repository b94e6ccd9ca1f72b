// Package deployexec implements the Deploy Executor (C9):
// resolving a deploy task's hosts, rendering its plan (docker_run,
// docker_compose, or steps) into remote commands, and executing them.
// The SSH transport is grounded on Graft's internal/ssh/client.go —
// key-based auth, a session per command, sftp for file upload — the
// one example in the pack that actually talks to a remote host over
// SSH rather than through a Docker SDK call.
package deployexec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"forgecd.dev/core/model"
)

// SSHTransport is a single connection to one deploy host, used to run
// shell commands and upload small files (rendered compose manifests).
type SSHTransport struct {
	client *ssh.Client
	sftp   *sftp.Client
}

// DialSSH opens a key-authenticated SSH connection to host, the way
// Graft's ssh.NewClient does, verifying the remote host key against
// the operator's own known_hosts file. When that file does not exist,
// host key verification is skipped.
func DialSSH(host model.DeployHost) (*SSHTransport, error) {
	keyPath := expandTilde(host.KeyPath)
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, model.Wrap(model.KindRemoteExecFailed, "reading ssh private key", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, model.Wrap(model.KindRemoteExecFailed, "parsing ssh private key", err)
	}

	hostKeyCallback, err := hostKeyCallback()
	if err != nil {
		return nil, model.Wrap(model.KindRemoteExecFailed, "loading known_hosts", err)
	}

	port := host.Port
	if port == 0 {
		port = 22
	}

	config := &ssh.ClientConfig{
		User:            host.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", host.Address, port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, model.Wrap(model.KindRemoteExecFailed, "dialing "+addr, err)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, model.Wrap(model.KindRemoteExecFailed, "starting sftp subsystem", err)
	}

	return &SSHTransport{client: client, sftp: sftpClient}, nil
}

func hostKeyCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".ssh", "known_hosts")
	cb, err := knownhosts.New(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ssh.InsecureIgnoreHostKey(), nil
		}
		return nil, err
	}
	return cb, nil
}

func expandTilde(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// RunCommand executes cmd in a fresh session, writing its combined
// output to w and returning a model.Error carrying that output on
// non-zero exit, the shape spec.md §7 requires for KindRemoteExecFailed.
func (t *SSHTransport) RunCommand(cmd string, w io.Writer) error {
	session, err := t.client.NewSession()
	if err != nil {
		return model.Wrap(model.KindRemoteExecFailed, "opening ssh session", err)
	}
	defer session.Close()

	var buf strings.Builder
	out := io.MultiWriter(w, &buf)
	session.Stdout = out
	session.Stderr = out

	if err := session.Run(cmd); err != nil {
		return model.WrapBuildFailed(model.KindRemoteExecFailed, cmd, buf.String(), err)
	}
	return nil
}

// UploadFile writes content to remote via sftp, used to stage a
// rendered docker-compose.yml or script before running it.
func (t *SSHTransport) UploadFile(remote string, content []byte) error {
	f, err := t.sftp.Create(remote)
	if err != nil {
		return model.Wrap(model.KindRemoteExecFailed, "creating remote file "+remote, err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return model.Wrap(model.KindRemoteExecFailed, "writing remote file "+remote, err)
	}
	return nil
}

// Close releases the sftp and ssh client connections.
func (t *SSHTransport) Close() {
	if t.sftp != nil {
		t.sftp.Close()
	}
	if t.client != nil {
		t.client.Close()
	}
}
