package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/pirakansa/depot/internal/cli/fetch"
	pkgmanifest "github.com/pirakansa/depot/pkg/manifest"
	"gopkg.in/yaml.v3"
)

const DefaultConfigName = "depot.yaml"

// LoadPackageList reads depot.yaml from a local path or an http(s) URL and
// returns the normalized, validated package list. ctx bounds the remote read.
func LoadPackageList(ctx context.Context, location string) (*PackageList, error) {
	content, err := readConfig(ctx, location)
	if err != nil {
		return nil, err
	}
	return ParsePackageList(content)
}

func ParsePackageList(content []byte) (*PackageList, error) {
	if err := pkgmanifest.ValidateDocument(content); err != nil {
		return nil, err
	}
	var cfg PackageList
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}
	pkgmanifest.NormalizePackageList(&cfg)
	if err := pkgmanifest.ValidatePackageList(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func IsRemoteConfigLocation(value string) bool {
	return pkgmanifest.IsRemoteConfigLocation(value)
}

// Select keeps the packages whose names are in names, preserving list order.
// An empty names slice selects everything.
func Select(cfg *PackageList, names []string) ([]Package, error) {
	if len(names) == 0 {
		return cfg.Packages, nil
	}
	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = false
	}
	var selected []Package
	for _, pkg := range cfg.Packages {
		if _, ok := wanted[pkg.Name]; ok {
			wanted[pkg.Name] = true
			selected = append(selected, pkg)
		}
	}
	for _, name := range names {
		if !wanted[name] {
			return nil, fmt.Errorf("package %q is not defined", name)
		}
	}
	return selected, nil
}

func readConfig(ctx context.Context, path string) ([]byte, error) {
	if IsRemoteConfigLocation(path) {
		content, err := fetch.NewDownloader().Fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load config failed: %w", err)
		}
		return content, nil
	}
	return os.ReadFile(path)
}
