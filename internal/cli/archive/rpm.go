package archive

import (
	"errors"
	"io"
	"os"
	"strings"

	rpmutils "github.com/sassoftware/go-rpmutils"
	"github.com/sassoftware/go-rpmutils/cpio"
)

// extractRPM writes the payload of an rpm with its absolute file names made
// relative to root. Hard links without content are created once the entry
// carrying their inode's content has been written.
func extractRPM(archivePath string, root *os.Root) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return err
	}
	payload, err := rpm.PayloadReaderExtended()
	if err != nil {
		return err
	}

	pendingLinks := map[int][]string{}
	for {
		info, err := payload.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		rel, err := normalizeEntryName(strings.TrimPrefix(info.Name(), "/"))
		if err != nil {
			return err
		}
		if rel == "" {
			continue
		}

		switch uint32(info.Mode()) &^ 0o7777 {
		case cpio.S_ISDIR:
			err = writeDir(root, rel)
		case cpio.S_ISLNK:
			err = writeSymlink(root, rel, info.Linkname())
		case cpio.S_ISREG:
			if payload.IsLink() {
				pendingLinks[info.Inode()] = append(pendingLinks[info.Inode()], rel)
				continue
			}
			err = writeFile(root, rel, payload, os.FileMode(info.Mode()).Perm())
			for _, link := range pendingLinks[info.Inode()] {
				if err != nil {
					break
				}
				err = writeHardlink(root, link, rel)
			}
			delete(pendingLinks, info.Inode())
		}
		if err != nil {
			return err
		}
	}
}
