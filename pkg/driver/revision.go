package driver

import (
	git "github.com/go-git/go-git/v5"
)

// Revision resolves the source revision stamped into generated files: the
// abbreviated HEAD commit of the repository enclosing dir, or "unversioned"
// when dir sits outside any repository.
func Revision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "unversioned"
	}
	head, err := repo.Head()
	if err != nil {
		return "unversioned"
	}
	hash := head.Hash().String()
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash
}
