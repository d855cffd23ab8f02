package langsync

import (
	"encoding/json"

	"github.com/wI2L/jsondiff"
)

// FileReport describes what a sync did to one target file.
type FileReport struct {
	Lang string
	// File is the path relative to the language directory, slash-separated.
	File string
	// Path is the target file on disk.
	Path string

	// Created is set when the target did not exist or could not be parsed.
	Created    bool
	Unreadable bool
	// Changed is set when the content differs from what was on disk.
	Changed bool
	// Written is set when the new content was saved. Never set on dry runs.
	Written bool

	Added    int
	Removed  int
	Replaced int

	// Translated and Reverted count string leaves; Retried counts leaves
	// translated again because they were blank or their source changed.
	Translated int
	Reverted   int
	Retried    int
	// Failed counts fragments left untranslated after a batch failure.
	Failed int

	// Patch is the RFC 6902 patch from the old content to the new one,
	// filled in when Options.Diff is set.
	Patch json.RawMessage

	// Err is the error that stopped this file, if any.
	Err error
}

// Report is the outcome of Run: one FileReport per language and file, in
// language order then file order.
type Report struct {
	Files []FileReport
	// Pruned lists the lock keys dropped because their source file is gone.
	Pruned []string
}

// Changed returns the reports of files whose content changed.
func (r *Report) Changed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Changed {
			out = append(out, f)
		}
	}
	return out
}

// Totals sums the counters of every file.
func (r *Report) Totals() FileReport {
	var t FileReport
	for _, f := range r.Files {
		t.Added += f.Added
		t.Removed += f.Removed
		t.Replaced += f.Replaced
		t.Translated += f.Translated
		t.Reverted += f.Reverted
		t.Retried += f.Retried
		t.Failed += f.Failed
	}
	return t
}

// diffJSON returns the RFC 6902 patch turning before into after.
func diffJSON(before, after []byte) (json.RawMessage, error) {
	patch, err := jsondiff.CompareJSON(before, after)
	if err != nil {
		return nil, err
	}
	return json.Marshal(patch)
}
