package preset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soyeahso/crew/internal/component"
)

const (
	workspaceTarget    = ":/workspaces/workspace"
	devcontainerTarget = "/workspaces/workspace/.devcontainer"
	stealthImageRepo   = "crew-devcontainer"
)

// StealthCompose rewrites a rendered compose descriptor for workspaces
// with no committed configuration: the primary service's workspace bind
// mount becomes ${CREW_WORKSPACE_DIR}, a read-only mount of the generated
// config directory is inserted if missing, and any build step is replaced
// with a pinned image reference so repeated invocations reuse the same
// image instead of re-resolving a build context that only exists inside
// the runtime directory.
func StealthCompose(composeText, imageSeed string) (string, error) {
	alreadyMountsConfig := strings.Contains(composeText, devcontainerTarget)
	imageLine := fmt.Sprintf("    image: ${DEVCONTAINER_IMAGE:-%s:%s}",
		stealthImageRepo, sanitizeImageTag(imageSeed))

	var (
		out              []string
		inDevService     bool
		skippingBuild    bool
		sawWorkspace     bool
		insertedConfigRO bool
	)

	for _, line := range strings.Split(strings.TrimSuffix(composeText, "\n"), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if indent == 2 && strings.HasSuffix(trimmed, ":") {
			inDevService = trimmed == "dev:"
		}

		if inDevService && skippingBuild {
			if indent > 4 {
				continue
			}
			skippingBuild = false
		}

		if inDevService && indent == 4 && trimmed == "build:" {
			out = append(out, imageLine)
			skippingBuild = true
			continue
		}

		if item, ok := strings.CutPrefix(trimmed, "- "); ok {
			if idx := strings.Index(item, workspaceTarget); idx >= 0 {
				rest := item[idx:]
				pad := strings.Repeat(" ", indent)
				out = append(out, pad+"- ${CREW_WORKSPACE_DIR}"+rest)
				sawWorkspace = true
				if !alreadyMountsConfig && !insertedConfigRO {
					out = append(out, pad+"- ${CREW_DEVCONTAINER_DIR}:"+devcontainerTarget+":ro")
					insertedConfigRO = true
				}
				continue
			}
		}

		out = append(out, line)
	}

	if !sawWorkspace {
		return "", errors.New(
			"compose.yaml does not contain a /workspaces/workspace volume mount; cannot enable stealth mode")
	}
	return strings.Join(out, "\n") + "\n", nil
}

// sanitizeImageTag maps an arbitrary seed onto a valid image tag:
// lowercase, [a-z0-9._-] kept, everything else replaced with underscore.
func sanitizeImageTag(raw string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(raw) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '.', ch == '_', ch == '-':
			b.WriteRune(ch)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "default"
	}
	return out
}

// EnsureRuntimeStealth materializes a stealth variant of the named preset
// under the runtime directory and returns the generated .devcontainer
// path. Existing files are kept unless force is set, so a stable image
// tag keeps being reused across invocations.
func (r *Resolver) EnsureRuntimeStealth(name string, force bool) (string, error) {
	dcDir := r.paths.RuntimePresetDir(name)
	if err := os.MkdirAll(dcDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dcDir, err)
	}

	files, err := r.Files(name)
	if err != nil {
		return "", err
	}

	// The pinned image tag derives from a content hash of the rendered
	// Dockerfile so a changed preset gets a fresh tag; a preset with no
	// Dockerfile falls back to its sanitized name.
	seed := name
	for _, f := range files {
		if f.RelPath == component.OutDockerfile {
			sum := sha256.Sum256(f.Bytes)
			seed = hex.EncodeToString(sum[:])[:12]
			break
		}
	}

	for _, f := range files {
		target := filepath.Join(dcDir, filepath.FromSlash(f.RelPath))
		if _, err := os.Stat(target); err == nil && !force {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		data := f.Bytes
		if f.RelPath == component.OutCompose {
			text, err := StealthCompose(string(f.Bytes), seed)
			if err != nil {
				return "", err
			}
			data = []byte(text)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", target, err)
		}
	}
	return dcDir, nil
}
