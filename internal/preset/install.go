package preset

import (
	"fmt"
	"io/fs"
	"os"
)

// InstallPreset materializes one embedded preset (pre-rendered or
// profile-backed) into the user template root so it can be edited.
func (r *Resolver) InstallPreset(name string, force bool) (string, error) {
	dir := r.paths.PresetDir(name)

	if r.embeddedPresetExists(name) {
		sub, err := fs.Sub(r.data, name)
		if err != nil {
			return "", err
		}
		files, err := readDirTree(sub)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
		return dir, WriteDir(dir, files, force)
	}

	if p, ok, err := r.embeddedProfile(name); err != nil {
		return "", err
	} else if ok {
		files, err := r.store.Render(p.Components, p.Params)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
		return dir, WriteDir(dir, files, force)
	}

	return "", &UnknownError{Name: name}
}

// InstallComponents copies the embedded component sources into the user
// override tree (.components/) for local editing.
func (r *Resolver) InstallComponents(force bool) (string, error) {
	return r.installTree("components", r.paths.Components, force)
}

// InstallProfiles copies the embedded profile sources into .profiles/.
func (r *Resolver) InstallProfiles(force bool) (string, error) {
	return r.installTree("profiles", r.paths.Profiles, force)
}

func (r *Resolver) installTree(src, dest string, force bool) (string, error) {
	sub, err := fs.Sub(r.data, src)
	if err != nil {
		return "", fmt.Errorf("embedded templates missing %s/: %w", src, err)
	}
	files, err := readDirTree(sub)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	return dest, WriteDir(dest, files, force)
}
