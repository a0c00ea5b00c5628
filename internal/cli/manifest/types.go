package manifest

import pkgmanifest "github.com/pirakansa/depot/pkg/manifest"

type PackageList = pkgmanifest.PackageList
type Package = pkgmanifest.Package

const (
	DigestAlgorithmBLAKE3 = pkgmanifest.DigestAlgorithmBLAKE3
	DigestAlgorithmSHA256 = pkgmanifest.DigestAlgorithmSHA256
	DigestAlgorithmMD5    = pkgmanifest.DigestAlgorithmMD5
)
