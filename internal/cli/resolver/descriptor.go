package resolver

import (
	"fmt"
	"path/filepath"

	"github.com/package-url/packageurl-go"
	pkgmanifest "github.com/pirakansa/depot/pkg/manifest"
)

// Descriptor is one package's acquisition and build parameters together
// with the paths derived from the run's roots. It is read-only once built.
type Descriptor struct {
	Name            string
	Version         string
	ArchiveFile     string
	HTTPDownloadURL string
	GitSourceURL    string
	BuildCommand    string
	CheckFiles      []string
	Digest          string
	SignatureURL    string
	SigningKey      string

	SourceDir   string
	DestDir     string
	ArchivePath string
}

// NewDescriptor validates pkg and derives its directories from roots.
func NewDescriptor(pkg pkgmanifest.Package, roots Roots) (Descriptor, error) {
	if err := pkgmanifest.ValidatePackage(pkg); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	archiveFile := pkg.PkgFile
	if archiveFile == "" && pkg.HTTPDownloadURL != "" {
		archiveFile = pkgmanifest.ArchiveNameFromURL(pkg.HTTPDownloadURL)
	}

	d := Descriptor{
		Name:            pkg.Name,
		Version:         pkg.Version,
		ArchiveFile:     archiveFile,
		HTTPDownloadURL: pkg.HTTPDownloadURL,
		GitSourceURL:    pkg.GitSourceURL,
		BuildCommand:    pkg.BuildCommand,
		CheckFiles:      append([]string(nil), pkg.CheckFiles...),
		Digest:          pkg.Digest,
		SignatureURL:    pkg.SignatureURL,
		SigningKey:      pkg.SigningKey,
		SourceDir:       filepath.Join(roots.Build, pkg.Name),
		DestDir:         filepath.Join(roots.Resolved, pkg.Name),
	}
	if archiveFile != "" {
		d.ArchivePath = filepath.Join(roots.Packages, archiveFile)
	}
	return d, nil
}

// NewDescriptors builds descriptors for pkgs in order, stopping at the
// first invalid package.
func NewDescriptors(pkgs []pkgmanifest.Package, roots Roots) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(pkgs))
	for _, pkg := range pkgs {
		d, err := NewDescriptor(pkg, roots)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// BuildEnv is the set of variables injected into the build command on top
// of the inherited environment.
func (d Descriptor) BuildEnv(resolvedRoot string) map[string]string {
	return map[string]string{
		"DST_PATH":      d.DestDir,
		"SRC_FILE_PATH": d.SourceDir,
		"PKG_NAME":      d.Name,
		"RESOLVED_PATH": resolvedRoot,
	}
}

// Source is the location the package is acquired from.
func (d Descriptor) Source() string {
	switch {
	case d.GitSourceURL != "":
		return d.GitSourceURL
	case d.HTTPDownloadURL != "":
		return d.HTTPDownloadURL
	default:
		return d.ArchivePath
	}
}

// PURL renders the descriptor as a generic package URL.
func (d Descriptor) PURL() string {
	var qualifiers packageurl.Qualifiers
	switch {
	case d.GitSourceURL != "":
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "vcs_url", Value: d.GitSourceURL})
	case d.HTTPDownloadURL != "":
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "download_url", Value: d.HTTPDownloadURL})
	}
	return packageurl.NewPackageURL(packageurl.TypeGeneric, "", d.Name, d.Version, qualifiers, "").ToString()
}
