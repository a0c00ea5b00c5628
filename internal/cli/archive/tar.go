package archive

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

func extractTar(archivePath string, format Format, root *os.Root) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, closer, err := openTarStream(f, format)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := writeTarEntry(root, header, tarReader); err != nil {
			return err
		}
	}
}

func openTarStream(r io.Reader, format Format) (io.Reader, io.Closer, error) {
	switch format {
	case FormatTar:
		return r, nil, nil
	case FormatTarGzip:
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gzipReader, gzipReader, nil
	case FormatTarXz:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xzReader, nil, nil
	case FormatTarBzip2:
		return bzip2.NewReader(r), nil, nil
	case FormatTarZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		rc := decoder.IOReadCloser()
		return rc, rc, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeTarEntry(root *os.Root, header *tar.Header, body io.Reader) error {
	switch header.Typeflag {
	case tar.TypeXGlobalHeader, tar.TypeXHeader:
		return nil
	}

	rel, err := normalizeEntryName(header.Name)
	if err != nil {
		return err
	}
	if rel == "" {
		return nil
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return writeDir(root, rel)
	case tar.TypeSymlink:
		return writeSymlink(root, rel, header.Linkname)
	case tar.TypeLink:
		return writeHardlink(root, rel, header.Linkname)
	}

	if !header.FileInfo().Mode().IsRegular() {
		// devices and fifos are skipped
		return nil
	}
	return writeFile(root, rel, body, header.FileInfo().Mode())
}
