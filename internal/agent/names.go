package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const maxNameLen = 64

// IsValidName reports whether name is usable as an agent name: a
// filesystem- and container-safe identifier.
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > maxNameLen {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// DeriveName computes the agent name from a branch name: unsafe runes
// become underscores, runs collapse, leading/trailing underscores are
// trimmed. Branches that reduce to nothing usable need an explicit
// --agent-name.
func DeriveName(branch string) (string, error) {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range branch {
		if !isNameRune(r) {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}
	name := strings.Trim(b.String(), "_")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("cannot derive an agent name from branch %q; pass --agent-name", branch)
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("derived agent name %q exceeds %d characters; pass --agent-name", name, maxNameLen)
	}
	return name, nil
}

// hash8 returns the first 8 hex characters of SHA-256(s). Two distinct
// branches get distinct suffixes even when their sanitized names collide.
func hash8(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// ComposeProject returns the compose project name for an agent. Compose
// project names only allow lowercase alphanumerics, underscores and
// dashes, so the agent name is folded accordingly, and the branch hash
// keeps distinct branches apart.
func ComposeProject(name, branch string) string {
	return "agent_" + underscored(name) + "_" + hash8(branch)
}

// CachePrefix returns the docker volume name prefix for an agent's
// cache volumes.
func CachePrefix(repo, name, branch string) string {
	return repo + "-" + name + "-" + hash8(branch)
}

// NamespaceForDir returns the compose project name and cache prefix for
// a standalone directory sandbox (crew up outside agent management).
// The absolute path is hashed so two same-named directories in
// different places never collide.
func NamespaceForDir(absDir string) (project, cachePrefix string) {
	name := underscored(filepath.Base(absDir))
	if name == "" {
		name = "workspace"
	}
	h := hash8(absDir)
	return "agent_" + name + "_" + h, name + "-" + h
}

func underscored(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !ok {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "_")
}
