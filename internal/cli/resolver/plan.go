package resolver

import (
	"os"
)

// Action is what a resolve run would do with a package.
type Action string

const (
	ActionSkip            Action = "skip"
	ActionClone           Action = "clone"
	ActionDownloadExtract Action = "download+extract"
	ActionExtract         Action = "extract"
	ActionMissingArchive  Action = "missing-archive"
)

// Plan describes the action a resolve run would take for one package
// without touching the network or running any command.
type Plan struct {
	Name   string
	Action Action
	Detail string
}

func (e *Engine) Plan(d Descriptor) Plan {
	p := Plan{Name: d.Name}
	switch {
	case e.CanSkip(d):
		p.Action = ActionSkip
		p.Detail = d.DestDir
	case d.GitSourceURL != "":
		p.Action = ActionClone
		p.Detail = d.GitSourceURL
	case d.ArchivePath != "" && fileExists(d.ArchivePath):
		p.Action = ActionExtract
		p.Detail = d.ArchivePath
	case d.HTTPDownloadURL != "" && d.ArchivePath != "":
		p.Action = ActionDownloadExtract
		p.Detail = d.HTTPDownloadURL
	default:
		p.Action = ActionMissingArchive
		p.Detail = d.ArchivePath
	}
	return p
}

func (e *Engine) PlanAll(descriptors []Descriptor) []Plan {
	plans := make([]Plan, 0, len(descriptors))
	for _, d := range descriptors {
		plans = append(plans, e.Plan(d))
	}
	return plans
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
