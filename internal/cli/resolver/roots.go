package resolver

import "path/filepath"

// Roots are the directories shared by every package of one run.
type Roots struct {
	// Packages holds downloaded or provided archive files.
	Packages string
	// Resolved holds one install directory per package.
	Resolved string
	// Build holds one extracted or cloned source tree per package.
	Build string
}

// DefaultRoots lays the roots out under base/depends.
func DefaultRoots(base string) (Roots, error) {
	return Roots{
		Packages: filepath.Join(base, "depends", "pkgs"),
		Resolved: filepath.Join(base, "depends", "resolved"),
		Build:    filepath.Join(base, "depends", "build"),
	}.Abs()
}

// Abs returns a copy of r with every root made absolute.
func (r Roots) Abs() (Roots, error) {
	var err error
	if r.Packages, err = filepath.Abs(r.Packages); err != nil {
		return Roots{}, err
	}
	if r.Resolved, err = filepath.Abs(r.Resolved); err != nil {
		return Roots{}, err
	}
	if r.Build, err = filepath.Abs(r.Build); err != nil {
		return Roots{}, err
	}
	return r, nil
}
