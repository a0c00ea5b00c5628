package manifest

// PackageList is the top-level document of depot.yaml.
type PackageList struct {
	Version  int       `yaml:"version" json:"version"`
	Packages []Package `yaml:"packages" json:"packages"`
}

// Package describes how to acquire and build one third-party library.
type Package struct {
	Name            string   `yaml:"name" json:"name"`
	Version         string   `yaml:"version" json:"version,omitempty"`
	PkgFile         string   `yaml:"pkg_file" json:"pkg_file,omitempty"`
	HTTPDownloadURL string   `yaml:"http_download_url" json:"http_download_url,omitempty"`
	GitSourceURL    string   `yaml:"git_source_url" json:"git_source_url,omitempty"`
	BuildCommand    string   `yaml:"build_command" json:"build_command"`
	CheckFiles      []string `yaml:"check_files" json:"check_files,omitempty"`
	Digest          string   `yaml:"digest" json:"digest,omitempty"`
	SignatureURL    string   `yaml:"signature_url" json:"signature_url,omitempty"`
	SigningKey      string   `yaml:"signing_key" json:"signing_key,omitempty"`
}

const (
	DigestAlgorithmBLAKE3 = "blake3"
	DigestAlgorithmSHA256 = "sha256"
	DigestAlgorithmMD5    = "md5"
)
