package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

// command is one pass(1) invocation: a verb, its flags, the entry name and
// optional stdin.
type command struct {
	verb  string
	flags []string
	entry string
	stdin string
}

func (c command) argv() []string {
	argv := make([]string, 0, len(c.flags)+2)
	argv = append(argv, c.verb)
	argv = append(argv, c.flags...)
	return append(argv, c.entry)
}

type executor func(ctx context.Context, c command) (stdout string, err error)

// CommandError carries the trimmed stderr of a failed pass invocation.
type CommandError struct {
	Verb   string
	Entry  string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("pass %s %q: %v", e.Verb, e.Entry, e.Err)
	}
	return fmt.Sprintf("pass %s %q: %v: %s", e.Verb, e.Entry, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) entryMissing() bool {
	return strings.Contains(e.Stderr, "is not in the password store")
}

// Store keeps the API token in the user's pass(1) password store.
type Store struct {
	exec executor
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{exec: execPass}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	_, err := s.do(ctx, command{verb: "insert", flags: []string{"-m", "-f"}, entry: key, stdin: value + "\n"})
	return err
}

// Get returns the first line of the entry, so a token stored with
// metadata lines underneath still works.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	out, err := s.do(ctx, command{verb: "show", entry: key})
	if cmdErr := (*CommandError)(nil); errors.As(err, &cmdErr) && cmdErr.entryMissing() {
		return "", fmt.Errorf("%w: %w", domain.ErrSecretNotFound, cmdErr)
	}
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// Delete treats a missing entry as already deleted.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.do(ctx, command{verb: "rm", flags: []string{"-f"}, entry: key})
	if cmdErr := (*CommandError)(nil); errors.As(err, &cmdErr) && cmdErr.entryMissing() {
		return nil
	}
	return err
}

func (s *Store) do(ctx context.Context, c command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.exec(ctx, c)
}

func execPass(ctx context.Context, c command) (string, error) {
	bin, err := exec.LookPath("pass")
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return "", ErrUnavailable
	case err != nil:
		return "", fmt.Errorf("locate pass: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, c.argv()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.stdin != "" {
		cmd.Stdin = strings.NewReader(c.stdin)
	}

	if err := cmd.Run(); err != nil {
		return "", &CommandError{Verb: c.verb, Entry: c.entry, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}
