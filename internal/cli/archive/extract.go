// Package archive unpacks source archives into a build directory.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound          = errors.New("archive not found")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
)

// Format identifies how an archive is decoded.
type Format string

const (
	FormatTar      Format = "tar"
	FormatTarGzip  Format = "tar+gzip"
	FormatTarXz    Format = "tar+xz"
	FormatTarBzip2 Format = "tar+bzip2"
	FormatTarZstd  Format = "tar+zstd"
	FormatZip      Format = "zip"
	FormatRPM      Format = "rpm"
)

// Longer suffixes come first so ".tar.gz" wins over ".gz"-like matches.
var suffixFormats = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGzip},
	{".tgz", FormatTarGzip},
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
	{".tar.bz2", FormatTarBzip2},
	{".tbz2", FormatTarBzip2},
	{".tar.zst", FormatTarZstd},
	{".tzst", FormatTarZstd},
	{".tar", FormatTar},
	{".zip", FormatZip},
	{".rpm", FormatRPM},
}

// DetectFormat picks the archive format from the file name suffix only.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(filepath.Base(name))
	for _, sf := range suffixFormats {
		if strings.HasSuffix(lower, sf.suffix) {
			return sf.format, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
}

// Extract unpacks archivePath into destDir, creating destDir when needed.
// Every write goes through an os.Root on destDir, so neither entry names
// nor links already on disk can place a file outside destDir.
func Extract(archivePath, destDir string) error {
	if archivePath == "" {
		return fmt.Errorf("%w: no archive file configured", ErrNotFound)
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, archivePath)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotFound, archivePath)
	}

	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return err
	}
	defer root.Close()

	switch format {
	case FormatZip:
		err = extractZip(archivePath, root)
	case FormatRPM:
		err = extractRPM(archivePath, root)
	default:
		err = extractTar(archivePath, format, root)
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(archivePath), err)
	}
	return nil
}

// normalizeEntryName cleans an archive member name and rejects names that
// would land outside the extraction root. It returns "" for the root itself.
func normalizeEntryName(value string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(value))
	cleaned = strings.TrimPrefix(cleaned, "."+string(filepath.Separator))
	if cleaned == "." || cleaned == "" {
		return "", nil
	}
	if filepath.IsAbs(cleaned) || escapesRoot(cleaned) {
		return "", fmt.Errorf("archive entry path escapes root: %q", value)
	}
	return cleaned, nil
}

func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// symlinkAllowed reports whether a link at rel pointing to linkname stays
// inside the root when read as text. Links through other links are caught
// by os.Root when they are followed.
func symlinkAllowed(rel, linkname string) bool {
	if linkname == "" || filepath.IsAbs(linkname) {
		return false
	}
	return !escapesRoot(filepath.Join(filepath.Dir(rel), filepath.FromSlash(linkname)))
}

func makeParent(root *os.Root, rel string) error {
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil
	}
	return root.MkdirAll(dir, 0o755)
}

// replaceable removes a non-directory entry at rel so it can be recreated.
func replaceable(root *os.Root, rel string) error {
	info, err := root.Lstat(rel)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("archive entry %q replaces a directory", rel)
	}
	return root.Remove(rel)
}

func writeDir(root *os.Root, rel string) error {
	return root.MkdirAll(rel, 0o755)
}

func writeSymlink(root *os.Root, rel, linkname string) error {
	if !symlinkAllowed(rel, linkname) {
		return fmt.Errorf("archive symlink %q escapes root", linkname)
	}
	if err := makeParent(root, rel); err != nil {
		return err
	}
	if err := replaceable(root, rel); err != nil {
		return err
	}
	return root.Symlink(filepath.FromSlash(linkname), rel)
}

func writeHardlink(root *os.Root, rel, linkname string) error {
	source, err := normalizeEntryName(linkname)
	if err != nil {
		return err
	}
	if source == "" {
		return fmt.Errorf("archive hard link %q has no target", rel)
	}
	if err := makeParent(root, rel); err != nil {
		return err
	}
	if err := replaceable(root, rel); err != nil {
		return err
	}
	return root.Link(source, rel)
}

func writeFile(root *os.Root, rel string, body io.Reader, mode os.FileMode) error {
	if err := makeParent(root, rel); err != nil {
		return err
	}
	if err := replaceable(root, rel); err != nil {
		return err
	}
	out, err := root.OpenFile(rel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm(mode))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func filePerm(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}
	// owner write bit is always set
	return perm | 0o200
}
