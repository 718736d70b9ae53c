package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/javi11/smbvfs/internal/smbfs"
)

// promptAuthenticator asks for the password of URIs naming a user without one.
type promptAuthenticator struct {
	fd           int
	out          io.Writer
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

func newTerminalAuthenticator() *promptAuthenticator {
	return &promptAuthenticator{
		fd:           int(os.Stdin.Fd()),
		out:          os.Stderr,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

func (p *promptAuthenticator) Credentials(ctx context.Context, root *smbfs.FileName) (*smbfs.Credentials, error) {
	if root.Username() == "" || root.Password() != "" {
		return nil, nil
	}
	if !p.isTerminal(p.fd) {
		return nil, nil
	}

	user := root.Username()
	if root.Domain() != "" {
		user = root.Domain() + `\` + user
	}
	fmt.Fprintf(p.out, "Password for %s@%s/%s: ", user, root.Address(), root.Share())

	type result struct {
		password []byte
		err      error
	}
	done := make(chan result, 1)
	go func() {
		pw, err := p.readPassword(p.fd)
		done <- result{pw, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return nil, ctx.Err()
	case r := <-done:
		fmt.Fprintln(p.out)
		if r.err != nil {
			return nil, fmt.Errorf("failed to read password: %w", r.err)
		}
		return &smbfs.Credentials{
			Username: root.Username(),
			Password: string(r.password),
			Domain:   root.Domain(),
		}, nil
	}
}
