package models

import (
	"fmt"
	"io"
	"strings"
)

// SourceKind is where an upload item comes from.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceURL    SourceKind = "url"
	SourceCamera SourceKind = "camera"
)

// AllSources is the source set offered for both slots.
var AllSources = []SourceKind{SourceLocal, SourceURL, SourceCamera}

// UploadSource is one item handed to the upload capability.
//
// Local sources read Data when set, otherwise the file at Path. URL sources are fetched by the capability.
type UploadSource struct {
	Kind SourceKind
	Path string
	URL  string
	Name string
	Data io.Reader
}

// ParseSource builds a source from a CLI or form argument: http(s) URLs become [SourceURL],
// "camera" becomes [SourceCamera], anything else is a local path.
func ParseSource(arg string) UploadSource {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)
	switch {
	case lower == string(SourceCamera):
		return UploadSource{Kind: SourceCamera}
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return UploadSource{Kind: SourceURL, URL: arg}
	default:
		return UploadSource{Kind: SourceLocal, Path: arg}
	}
}

// Label names the source in logs and messages.
func (s UploadSource) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Kind == SourceURL:
		return s.URL
	case s.Kind == SourceLocal:
		return s.Path
	default:
		return string(s.Kind)
	}
}

// UploadOptions configures one invocation of the upload capability.
type UploadOptions struct {
	CloudName    string
	UploadPreset string
	Sources      []SourceKind
	Multiple     bool
	MaxFiles     int
}

// Allows reports whether kind is in the permitted source set.
func (o UploadOptions) Allows(kind SourceKind) bool {
	for _, k := range o.Sources {
		if k == kind {
			return true
		}
	}
	return false
}

// UploadOutcome is the capability's report for one item: either a resulting reference or an error.
type UploadOutcome struct {
	Source UploadSource
	Ref    ImageReference
	Err    error
}

func (o UploadOutcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s: %v", o.Source.Label(), o.Err)
	}
	return fmt.Sprintf("%s: %s", o.Source.Label(), o.Ref)
}
