package archive

import (
	"io"
	"os"

	"github.com/klauspost/compress/zip"
)

func extractZip(archivePath string, root *os.Root) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := writeZipEntry(root, file); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(root *os.Root, file *zip.File) error {
	rel, err := normalizeEntryName(file.Name)
	if err != nil {
		return err
	}
	if rel == "" {
		return nil
	}

	mode := file.Mode()
	if mode.IsDir() {
		return writeDir(root, rel)
	}

	body, err := file.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	if mode&os.ModeSymlink != 0 {
		linkname, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		return writeSymlink(root, rel, string(linkname))
	}
	return writeFile(root, rel, body, mode)
}
