package github

import (
	"errors"
	"strings"
)

// ErrInvalidSourceURL is returned for URLs that do not point at a GitHub
// repository.
var ErrInvalidSourceURL = errors.New("not a recognized GitHub repository URL")

// ParseSourceURL extracts the (owner, repo) identity from a repository URL.
// Accepted shapes include https://github.com/owner/repo, a trailing slash,
// a .git suffix, bare github.com/owner/repo, and URLs with deeper paths
// such as github.com/owner/repo/tree/main.
func ParseSourceURL(rawURL string) (owner, repo string, err error) {
	s := strings.TrimSpace(rawURL)

	idx := strings.Index(s, "github.com/")
	if idx == -1 {
		return "", "", ErrInvalidSourceURL
	}
	rest := s[idx+len("github.com/"):]

	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		return "", "", ErrInvalidSourceURL
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	repo = strings.TrimRight(repo, "/")

	if owner == "" || repo == "" {
		return "", "", ErrInvalidSourceURL
	}

	return owner, repo, nil
}
