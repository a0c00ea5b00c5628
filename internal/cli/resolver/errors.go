package resolver

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDescriptor        = errors.New("invalid package descriptor")
	ErrMissingSourceArchive     = errors.New("missing source archive")
	ErrUnsupportedArchiveFormat = errors.New("unsupported archive format")
	ErrExtractionFailure        = errors.New("extraction failed")
	ErrDownloadFailure          = errors.New("download failed")
	ErrCloneFailure             = errors.New("clone failed")
	ErrChecksumMismatch         = errors.New("archive checksum mismatch")
	ErrSignatureFailure         = errors.New("archive signature check failed")
	ErrBuildCommandFailure      = errors.New("build command failed")
)

// Step names one stage of a package's lifecycle.
type Step string

const (
	StepClone    Step = "clone"
	StepDownload Step = "download"
	StepVerify   Step = "verify"
	StepExtract  Step = "extract"
	StepBuild    Step = "build"
)

// StepError attributes a failure to a package and the step that failed.
// It matches both its Kind and the underlying cause with errors.Is.
type StepError struct {
	Package string
	Step    Step
	Kind    error
	Err     error
}

func newStepError(pkg string, step Step, kind, err error) *StepError {
	return &StepError{Package: pkg, Step: step, Kind: kind, Err: err}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v: %v", e.Package, e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
