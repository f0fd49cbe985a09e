// Package icon provisions the placeholder application icon a packaging
// build expects to find on disk.
//
// The placeholder is a single-image ICO container holding a 1×1 32-bit
// bitmap. It only exists to satisfy build tools that refuse to run
// without an icon resource; it is never meant to be shown to a user.
package icon

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ico "github.com/sergeymakinen/go-ico"
)

// PlaceholderSize is the length of the embedded placeholder in bytes.
const PlaceholderSize = 70

// placeholder is laid out as ICONDIR, one ICONDIRENTRY, a BITMAPINFOHEADER,
// one BGRA pixel and a single padded AND-mask row.
var placeholder = [PlaceholderSize]byte{
	// ICONDIR: reserved, type=1 (icon), count=1
	0, 0, 1, 0, 1, 0,
	// ICONDIRENTRY: 1×1, no palette, 1 plane, 32bpp, 48 bytes at offset 22
	1, 1, 0, 0, 1, 0, 32, 0, 48, 0, 0, 0, 22, 0, 0, 0,
	// BITMAPINFOHEADER: height is doubled to cover the AND mask
	40, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 32, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	// XOR pixel (B, G, R, A)
	255, 0, 255, 255,
	// AND mask
	0, 0, 0, 0,
}

// Placeholder returns a copy of the embedded placeholder icon.
func Placeholder() []byte {
	b := make([]byte, PlaceholderSize)
	copy(b, placeholder[:])
	return b
}

var (
	// ErrPathEscapes is reported when the icon path is not local to its base directory.
	ErrPathEscapes = errors.New("icon path escapes base directory")
	// ErrVerify is reported when a freshly written icon does not read back intact.
	ErrVerify = errors.New("icon verification failed")
)

// Status describes what Ensure did.
type Status int

const (
	// Failed means provisioning gave up; the build should carry on regardless.
	Failed Status = iota
	// Present means something already existed at the target path and was left alone.
	Present
	// Created means the placeholder was written.
	Created
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Created:
		return "created"
	default:
		return "failed"
	}
}

// Result is the outcome of a provisioning attempt. Callers are expected to
// log it at most; a failed provisioning never stops a build.
type Result struct {
	Err    error
	Path   string
	Status Status
}

// OK reports whether the icon is known to be on disk.
func (r Result) OK() bool {
	return r.Status != Failed
}

// Provisioner writes an icon when one is missing.
type Provisioner struct {
	// Verify decodes and byte-compares the written file before it becomes visible.
	Verify bool
}

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Ensure is shorthand for a zero Provisioner's Ensure.
func Ensure(baseDir, relPath string, data []byte) Result {
	var p Provisioner
	return p.Ensure(baseDir, relPath, data)
}

// Ensure makes sure baseDir/relPath exists, writing data there if it does not.
// An existing entry at the target path is never touched, whatever it is.
func (p *Provisioner) Ensure(baseDir, relPath string, data []byte) Result {
	if !filepath.IsLocal(relPath) {
		return Result{Status: Failed, Path: relPath, Err: fmt.Errorf("%q: %w", relPath, ErrPathEscapes)}
	}
	path := filepath.Join(baseDir, relPath)

	if err := os.MkdirAll(baseDir, dirPerm); err != nil {
		return Result{Status: Failed, Path: path, Err: fmt.Errorf("create icon directory: %w", err)}
	}
	if dir := filepath.Dir(path); dir != filepath.Clean(baseDir) {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return Result{Status: Failed, Path: path, Err: fmt.Errorf("create icon directory: %w", err)}
		}
	}

	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return Result{Status: Present, Path: path}
	case !errors.Is(err, os.ErrNotExist):
		return Result{Status: Failed, Path: path, Err: fmt.Errorf("stat icon: %w", err)}
	}

	if err := p.write(path, data); err != nil {
		return Result{Status: Failed, Path: path, Err: err}
	}
	return Result{Status: Created, Path: path}
}

// write stages data in a sibling temp file and renames it into place, so a
// reader never sees a partially written icon.
func (p *Provisioner) write(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp icon: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write temp icon: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp icon: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod temp icon: %w", err)
	}

	if p.Verify {
		if err := verifyFile(tmp.Name(), data); err != nil {
			return err
		}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename icon: %w", err)
	}
	return nil
}

func verifyFile(path string, want []byte) error {
	got, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read back icon: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: wrote %d bytes, read back %d", ErrVerify, len(want), len(got))
	}
	if err := Validate(got); err != nil {
		return fmt.Errorf("%w: %w", ErrVerify, err)
	}
	return nil
}

// Validate checks that data parses as an ICO container.
func Validate(data []byte) error {
	cfg, err := ico.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode ico: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decode ico: empty image %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}
