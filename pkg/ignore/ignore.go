package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the per-repository ignore file at the repository root.
const FileName = ".vcsignore"

// defaultRules always apply, whatever .vcsignore says.
var defaultRules = []string{
	".vcs", // never stage repository metadata
	".git",
	".DS_Store",
	"Thumbs.db",
}

// Matcher decides whether a path should be kept out of the index.
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher compiles the default rules plus <rootPath>/.vcsignore if present.
func NewMatcher(rootPath string) (*Matcher, error) {
	ignoreFilePath := filepath.Join(rootPath, FileName)

	if _, err := os.Stat(ignoreFilePath); err == nil {
		ignorer, err := gitignore.CompileIgnoreFileAndLines(ignoreFilePath, defaultRules...)
		if err != nil {
			return nil, err
		}
		return &Matcher{ignorer: ignorer}, nil
	}
	return &Matcher{ignorer: gitignore.CompileIgnoreLines(defaultRules...)}, nil
}

// Matches reports whether path (relative to the repository root, slash
// separated) is ignored.
func (m *Matcher) Matches(path string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	return m.ignorer.MatchesPath(filepath.ToSlash(path))
}
