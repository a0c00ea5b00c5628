package manifest

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
)

const DefaultPackageListVersion = 1

// LockFileName is the lock file kept in the resolved root next to the
// package install directories.
const LockFileName = "depot.lock"

func NormalizePackageList(cfg *PackageList) {
	if cfg.Version == 0 {
		cfg.Version = DefaultPackageListVersion
	}
	if cfg.Packages == nil {
		cfg.Packages = []Package{}
	}
	for i := range cfg.Packages {
		normalizePackage(&cfg.Packages[i])
	}
}

func normalizePackage(pkg *Package) {
	pkg.Name = strings.TrimSpace(pkg.Name)
	pkg.PkgFile = strings.TrimSpace(pkg.PkgFile)
	pkg.HTTPDownloadURL = strings.TrimSpace(pkg.HTTPDownloadURL)
	pkg.GitSourceURL = strings.TrimSpace(pkg.GitSourceURL)
	pkg.Digest = strings.TrimSpace(strings.ToLower(pkg.Digest))
	pkg.SignatureURL = strings.TrimSpace(pkg.SignatureURL)
	pkg.SigningKey = strings.TrimSpace(pkg.SigningKey)
	if pkg.PkgFile == "" && pkg.HTTPDownloadURL != "" {
		pkg.PkgFile = ArchiveNameFromURL(pkg.HTTPDownloadURL)
	}
}

func IsRemoteConfigLocation(value string) bool {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// ArchiveNameFromURL returns the last path element of rawURL, or "" when the
// URL has no usable file name.
func ArchiveNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return ""
	}
	return name
}

func ValidatePackageList(cfg *PackageList) error {
	if cfg.Version != DefaultPackageListVersion {
		return fmt.Errorf("unsupported package list version %d", cfg.Version)
	}
	seen := map[string]int{}
	for i, pkg := range cfg.Packages {
		if err := ValidatePackage(pkg); err != nil {
			return fmt.Errorf("packages[%d]: %w", i, err)
		}
		if prev, ok := seen[pkg.Name]; ok {
			return fmt.Errorf("packages[%d].name %q duplicates packages[%d]", i, pkg.Name, prev)
		}
		seen[pkg.Name] = i
	}
	return nil
}

func ValidatePackage(pkg Package) error {
	if strings.TrimSpace(pkg.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if pkg.Name == "." || pkg.Name == ".." || strings.ContainsAny(pkg.Name, `/\`) {
		return fmt.Errorf("name %q must be a single path element", pkg.Name)
	}
	if strings.EqualFold(pkg.Name, LockFileName) {
		return fmt.Errorf("name %q is reserved for the lock file", pkg.Name)
	}
	if strings.TrimSpace(pkg.BuildCommand) == "" {
		return fmt.Errorf("package %q build_command is required", pkg.Name)
	}
	if pkg.PkgFile != "" && strings.ContainsAny(pkg.PkgFile, `/\`) {
		return fmt.Errorf("package %q pkg_file %q must be a file name", pkg.Name, pkg.PkgFile)
	}
	for i, f := range pkg.CheckFiles {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("package %q check_files[%d] is empty", pkg.Name, i)
		}
		if path.IsAbs(f) {
			return fmt.Errorf("package %q check_files[%d] %q must be relative", pkg.Name, i, f)
		}
	}
	if pkg.Digest != "" {
		if _, _, err := ParseDigest(pkg.Digest); err != nil {
			return fmt.Errorf("package %q: %w", pkg.Name, err)
		}
	}
	if (pkg.SignatureURL == "") != (pkg.SigningKey == "") {
		return fmt.Errorf("package %q signature_url and signing_key must be set together", pkg.Name)
	}
	if pkg.SignatureURL != "" && pkg.GitSourceURL != "" {
		return fmt.Errorf("package %q signature_url is not supported with git_source_url", pkg.Name)
	}
	return nil
}

// ParseDigest splits an "algorithm:hex" digest into its parts.
func ParseDigest(value string) (string, string, error) {
	raw := strings.TrimSpace(strings.ToLower(value))
	algorithm, digest, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(algorithm) == "" || strings.TrimSpace(digest) == "" {
		return "", "", fmt.Errorf("invalid digest format %q", value)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", "", fmt.Errorf("invalid digest hex %q", value)
	}
	switch algorithm {
	case DigestAlgorithmBLAKE3, DigestAlgorithmSHA256, DigestAlgorithmMD5:
	default:
		return "", "", fmt.Errorf("unsupported digest algorithm %q", algorithm)
	}
	return algorithm, digest, nil
}
