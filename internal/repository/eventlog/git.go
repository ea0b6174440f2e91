package eventlog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/oedokumaci/dead-mans-switch/internal/domain/event"
)

// GitLog reads and appends events by shelling out to the git binary.
// One value serves one repository working directory.
type GitLog struct {
	// dir is the repository working directory.
	dir string
	// remote is the remote consulted for the owner identity and pushes.
	remote string
	// author is the commit author identity for appended events.
	author string
	// timeout bounds every git invocation.
	timeout time.Duration

	// owner caches the resolved owner identity after the first lookup.
	owner string
}

// logFormat renders subject, author name and strict ISO-8601 committer date
// separated by pipes. The line is parsed from the right so a pipe inside the
// subject does not break parsing.
const logFormat = "--pretty=format:%s|%an|%cI"

// NewGitLog creates a git-backed event log for the given working directory.
func NewGitLog(dir, remote, author string, timeout time.Duration) *GitLog {
	return &GitLog{
		dir:     dir,
		remote:  remote,
		author:  author,
		timeout: timeout,
	}
}

// FetchRecent returns the event at the given skip-offset from the newest commit.
func (g *GitLog) FetchRecent(ctx context.Context, skip int) (*event.Event, error) {
	out, err := g.run(ctx, nil, "log", "-1", "--skip="+strconv.Itoa(skip), logFormat)
	if err != nil {
		return nil, fmt.Errorf("git log at offset %d: %w", skip, err)
	}

	// git exits zero with empty output once the skip offset passes the
	// end of history.
	line := strings.TrimSpace(out)
	if line == "" {
		return nil, ErrNotFound
	}

	parsed, err := parseLogLine(line)
	if err != nil {
		return nil, fmt.Errorf("parse commit at offset %d: %w", skip, err)
	}

	return parsed, nil
}

// Append creates an empty commit carrying the event message and pushes it.
func (g *GitLog) Append(ctx context.Context, message string, when time.Time) error {
	stamp := when.UTC().Format(time.RFC3339)
	env := []string{
		"GIT_AUTHOR_DATE=" + stamp,
		"GIT_COMMITTER_DATE=" + stamp,
	}

	_, err := g.run(ctx, env,
		"-c", "user.name="+g.author,
		"-c", "user.email="+g.author+"@dead-mans-switch",
		"commit", "--allow-empty", "--message", message)
	if err != nil {
		return fmt.Errorf("commit event %q: %w", message, err)
	}

	// The event is durable only once the remote has it; an unpropagated
	// warning would be re-issued by the next scheduled run elsewhere.
	if _, err := g.run(ctx, nil, "push", g.remote); err != nil {
		return fmt.Errorf("push event %q: %w", message, err)
	}

	return nil
}

// OwnerIdentity resolves the repository owner from the remote URL.
func (g *GitLog) OwnerIdentity(ctx context.Context) (string, error) {
	if g.owner != "" {
		return g.owner, nil
	}

	out, err := g.run(ctx, nil, "config", "remote."+g.remote+".url")
	if err != nil {
		return "", fmt.Errorf("read remote %q URL: %w", g.remote, err)
	}

	owner, err := ownerFromURL(strings.TrimSpace(out))
	if err != nil {
		return "", err
	}

	g.owner = owner

	return owner, nil
}

// run executes git with the repository directory pinned and the configured
// timeout applied. Stderr is folded into the returned error for diagnostics.
func (g *GitLog) run(ctx context.Context, extraEnv []string, args ...string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", g.dir}, args...)...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, detail)
		}

		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return stdout.String(), nil
}

// parseLogLine splits "subject|author|iso-timestamp" from the right, so the
// subject may itself contain pipes.
func parseLogLine(line string) (*event.Event, error) {
	cut := strings.LastIndexByte(line, '|')
	if cut < 0 {
		return nil, fmt.Errorf("malformed log line %q", line)
	}

	head, stamp := line[:cut], line[cut+1:]

	cut = strings.LastIndexByte(head, '|')
	if cut < 0 {
		return nil, fmt.Errorf("malformed log line %q", line)
	}

	timestamp, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return nil, fmt.Errorf("commit timestamp %q: %w", stamp, err)
	}

	return &event.Event{
		Message:   head[:cut],
		Author:    head[cut+1:],
		Timestamp: timestamp.UTC(),
	}, nil
}

// ownerFromURL extracts the owner segment from a git remote URL.
// Handles both https://host/owner/repo.git and git@host:owner/repo.git forms.
func ownerFromURL(url string) (string, error) {
	trimmed := strings.TrimSuffix(url, "/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("cannot derive owner from remote URL %q", url)
	}

	owner := parts[len(parts)-2]

	// SCP-like syntax keeps "host:owner" glued together.
	if cut := strings.LastIndexByte(owner, ':'); cut >= 0 {
		owner = owner[cut+1:]
	}

	if owner == "" {
		return "", fmt.Errorf("cannot derive owner from remote URL %q", url)
	}

	return owner, nil
}
