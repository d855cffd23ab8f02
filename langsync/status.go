package langsync

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hashicorp/go-multierror"

	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/tree"
)

// LangStatus summarizes how far one target language is from the source.
type LangStatus struct {
	Lang string
	// Files is the number of source files; Missing how many of them the
	// language does not have yet.
	Files   int
	Missing int
	// Unreadable counts target files that are not valid JSON.
	Unreadable int
	// MissingNodes and ObsoleteNodes are what a sync would add and remove.
	MissingNodes  int
	ObsoleteNodes int
	// Strings is the number of non-blank source strings; Translated how
	// many of them have a non-blank counterpart in the target.
	Strings    int
	Translated int
}

// Percent returns the translated share of strings, 0 to 100.
func (s LangStatus) Percent() float64 {
	if s.Strings == 0 {
		return 100
	}
	return float64(s.Translated) * 100 / float64(s.Strings)
}

// Status reports, per target language, what a sync would do. Nothing is
// written and nothing is translated.
func Status(opts Options) ([]LangStatus, error) {
	files, err := opts.SourceFiles()
	if err != nil {
		return nil, err
	}

	sources := make(map[string]*tree.Node, len(files))
	var errs *multierror.Error
	for _, file := range files {
		n, err := tree.ParseFile(opts.sourcePath(file))
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		sources[file] = n
	}

	var out []LangStatus
	for _, lang := range opts.targets() {
		st := LangStatus{Lang: lang}
		for _, file := range files {
			source, ok := sources[file]
			if !ok {
				continue
			}
			st.Files++
			_, filled := tree.Stats(source)
			st.Strings += filled

			target, err := tree.ParseFile(opts.TargetPath(lang, file))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					st.Missing++
				} else {
					st.Unreadable++
				}
				continue
			}

			var rec event.Recorder
			res, _ := merge.Trees(source, target, &rec)
			st.MissingNodes += rec.Count(event.NodeAdded)
			st.ObsoleteNodes += rec.Count(event.NodeRemoved)
			st.Translated += filled - len(merge.Untranslated(source, res.Node, nil))
		}
		out = append(out, st)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return out, fmt.Errorf("reading source files: %w", err)
	}
	return out, nil
}
