// Package langsync keeps per-language JSON resource files in structural
// lockstep with the source language.
//
// For every file of the source language directory and every target language,
// the target file is merged into the shape of the source file. Content the
// merge adds is machine translated when a translator is configured, and
// written back into the merged tree at the path it was added at.
package langsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/translate"
	"github.com/minios-linux/locsync/tree"
	"github.com/minios-linux/locsync/treepath"
)

// ErrSourceDir is returned when the source language directory cannot be
// read. Nothing can be synced without it.
var ErrSourceDir = errors.New("source language directory is not readable")

// Options controls Run.
type Options struct {
	// LocalesDir holds one directory per language.
	LocalesDir string
	// SourceLang names the source language directory.
	SourceLang string
	// Languages are the target languages. The source language is skipped.
	Languages []string
	// Include and Exclude select files of the source language directory.
	// Default include: **/*.json.
	Include []string
	Exclude []string
	// Indent is the indentation of written files. Default: two spaces.
	Indent string

	// Translator fills new content. Nil leaves new strings blank.
	Translator translate.Translator
	// BatchSize is the number of strings per translation request.
	BatchSize int

	// Lock tracks source strings between runs so that strings whose source
	// text changed are translated again. Nil disables tracking.
	Lock *lockfile.LockFile
	// LockRoot is the directory lock keys are relative to. Default: LocalesDir.
	LockRoot string

	// DryRun computes everything but writes neither files nor the lock.
	DryRun bool
	// Diff fills FileReport.Patch.
	Diff bool
	// Parallel is the number of files synced at once. Default: 1.
	Parallel int

	// Observer receives every event, stamped with language and file.
	Observer event.Observer
	// OnProgress is called after each translation batch.
	OnProgress func(lang, file string, done, total int)
}

func (o *Options) indent() string {
	if o.Indent == "" {
		return tree.DefaultIndent
	}
	return o.Indent
}

func (o *Options) include() []string {
	if len(o.Include) == 0 {
		return []string{"**/*.json"}
	}
	return o.Include
}

// SourceDir returns the source language directory.
func (o *Options) SourceDir() string {
	return filepath.Join(o.LocalesDir, o.SourceLang)
}

// TargetPath returns the path of file in the directory of lang.
func (o *Options) TargetPath(lang, file string) string {
	return filepath.Join(o.LocalesDir, lang, filepath.FromSlash(file))
}

func (o *Options) sourcePath(file string) string {
	return filepath.Join(o.SourceDir(), filepath.FromSlash(file))
}

func (o *Options) lockKey(lang, file string) string {
	root := o.LockRoot
	if root == "" {
		root = o.LocalesDir
	}
	path := o.TargetPath(lang, file)
	if rel, err := filepath.Rel(root, path); err == nil {
		path = rel
	}
	return lockfile.TargetKey(path)
}

func (o *Options) targets() []string {
	var langs []string
	for _, lang := range o.Languages {
		if lang != o.SourceLang {
			langs = append(langs, lang)
		}
	}
	return langs
}

// SourceFiles lists the files of the source language directory selected by
// Include and Exclude. Failing to read the directory wraps ErrSourceDir.
func (o *Options) SourceFiles() ([]string, error) {
	dir := o.SourceDir()
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceDir, dir)
	}
	files, err := ListFiles(dir, o.include(), o.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceDir, err)
	}
	return files, nil
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

type job struct {
	lang string
	file string
}

// Run syncs every file of the source language into every target language.
//
// A file that cannot be processed is reported and skipped; the errors of all
// such files are returned together once every other file is done. A missing
// source directory stops the run before any file is touched.
func Run(ctx context.Context, opts Options) (*Report, error) {
	files, err := opts.SourceFiles()
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, lang := range opts.targets() {
		for _, file := range files {
			jobs = append(jobs, job{lang: lang, file: file})
		}
	}

	report := &Report{Files: make([]FileReport, len(jobs))}
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	var g errgroup.Group
	g.SetLimit(max(opts.Parallel, 1))
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if ctx.Err() != nil {
				report.Files[i] = FileReport{Lang: j.lang, File: j.file, Path: opts.TargetPath(j.lang, j.file), Err: ctx.Err()}
				return nil
			}
			rep, err := syncFile(ctx, &opts, j.lang, j.file)
			rep.Err = err
			report.Files[i] = rep
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s/%s: %w", j.lang, j.file, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if opts.Lock != nil && !opts.DryRun {
		if ctx.Err() == nil {
			report.Pruned = pruneLock(&opts, files)
		}
		if err := opts.Lock.Save(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return report, errs.ErrorOrNil()
}

// pruneLock forgets the lock entries of target files whose source file is
// gone from the source language directory.
func pruneLock(opts *Options, files []string) []string {
	var pruned []string
	for _, lang := range opts.targets() {
		keep := make(map[string]bool, len(files))
		for _, file := range files {
			keep[opts.lockKey(lang, file)] = true
		}
		removed := opts.Lock.Prune(opts.lockKey(lang, ""), func(target string) bool {
			return keep[target]
		})
		pruned = append(pruned, removed...)
	}
	return pruned
}

// ---------------------------------------------------------------------------
// One file
// ---------------------------------------------------------------------------

// tally counts structural events of one file on their way to the observer.
type tally struct {
	next     event.Observer
	removed  int
	replaced int
}

func (t *tally) Observe(e event.Event) {
	switch e.Kind {
	case event.NodeRemoved:
		t.removed++
	case event.BranchReplaced:
		t.replaced++
	}
	event.Emit(t.next, e)
}

func syncFile(ctx context.Context, opts *Options, lang, file string) (FileReport, error) {
	rep := FileReport{Lang: lang, File: file, Path: opts.TargetPath(lang, file)}
	counts := &tally{next: opts.Observer}
	obs := event.WithFile(counts, lang, file)

	fail := func(err error) (FileReport, error) {
		event.Emit(obs, event.Event{Kind: event.FileFailed, Level: event.Error, Message: err.Error()})
		return rep, err
	}

	source, err := tree.ParseFile(opts.sourcePath(file))
	if err != nil {
		return fail(err)
	}

	s := &fileSync{opts: opts, lang: lang, file: file, obs: obs, rep: &rep}

	before, err := os.ReadFile(rep.Path)
	var result *tree.Node
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rep.Created = true
		result = s.create(ctx, source)
	case err != nil:
		return fail(err)
	default:
		target, perr := tree.Parse(before)
		if perr != nil {
			event.Emit(obs, event.Event{
				Kind:    event.TargetUnreadable,
				Level:   event.Warn,
				Message: perr.Error(),
			})
			rep.Created = true
			rep.Unreadable = true
			result = s.create(ctx, source)
		} else {
			result = s.update(ctx, source, target)
		}
	}
	rep.Removed = counts.removed
	rep.Replaced = counts.replaced
	rep.Changed = rep.Created || s.changed

	if rep.Changed {
		after, err := tree.MarshalIndent(result, opts.indent())
		if err != nil {
			return fail(err)
		}
		if opts.Diff {
			old := before
			if rep.Created {
				old = emptyDocument(source)
			}
			if rep.Patch, err = diffJSON(old, after); err != nil {
				return fail(fmt.Errorf("computing patch: %w", err))
			}
		}
		if !opts.DryRun {
			if err := tree.WriteFile(rep.Path, result, opts.indent()); err != nil {
				return fail(err)
			}
			rep.Written = true
			kind := event.FileWritten
			if rep.Created {
				kind = event.FileCreated
			}
			event.Emit(obs, event.Event{Kind: kind, Level: event.Info, Message: rep.Path})
		}
	}

	s.record(source)
	return rep, nil
}

// emptyDocument is the document a created file is diffed against.
func emptyDocument(source *tree.Node) []byte {
	switch source.Kind() {
	case tree.KindObject:
		return []byte("{}")
	case tree.KindArray:
		return []byte("[]")
	}
	return []byte("null")
}

type fileSync struct {
	opts *Options
	lang string
	file string
	obs  event.Observer
	rep  *FileReport

	changed bool
	// unsettled is set when a retranslation failed and the lock must keep
	// the old checksums so the next run tries again.
	unsettled bool
}

// create builds a target for a file that does not exist yet: a translation
// of the whole source, or an empty copy of it.
func (s *fileSync) create(ctx context.Context, source *tree.Node) *tree.Node {
	tr := s.opts.Translator
	if tr == nil {
		return tree.Empty(source)
	}
	if _, filled := tree.Stats(source); filled == 0 {
		return tree.Empty(source)
	}

	fallback := func(msg string) *tree.Node {
		event.Emit(s.obs, event.Event{Kind: event.TreeFailed, Level: event.Warn, Message: msg})
		s.rep.Failed++
		return tree.Empty(source)
	}

	if err := ctx.Err(); err != nil {
		return fallback(err.Error())
	}
	out, err := tr.TranslateTree(ctx, source, s.opts.SourceLang, s.lang)
	if err != nil {
		return fallback(err.Error())
	}
	if !tree.SameShape(source, out) {
		return fallback("translated document does not match the source structure")
	}

	_, filled := tree.Stats(source)
	_, restored := translate.GuardValues(source, out, s.obs)
	reverted := translate.GuardPlaceholders(source, out, s.obs)
	s.rep.Translated += filled - reverted - restored
	s.rep.Reverted += reverted + restored
	return out
}

// update merges target into the shape of source and translates what the
// merge added.
func (s *fileSync) update(ctx context.Context, source, target *tree.Node) *tree.Node {
	res, added := merge.Trees(source, target, s.obs)
	merged := res.Node
	s.changed = res.Changed
	s.rep.Added = len(added)

	tr := s.opts.Translator
	if tr == nil {
		return merged
	}

	for _, a := range added {
		frag, st := translate.TranslateFragment(ctx, a.Source, s.opts.SourceLang, s.lang, tr, s.fragmentOptions(a.Path.String()))
		s.count(st)
		if st.Failed || st.Strings == 0 {
			continue
		}
		treepath.Inject(merged, a.Path, frag, s.obs)
	}

	var outdated func(treepath.Path, string) bool
	if lock := s.opts.Lock; lock != nil {
		key := s.opts.lockKey(s.lang, s.file)
		outdated = func(p treepath.Path, text string) bool {
			return lock.IsStale(key, p.String(), text)
		}
	}
	s.retry(ctx, merged, merge.Stale(source, merged, added, outdated))
	return merged
}

// retry translates string leaves that are blank in merged or whose source
// text changed, as a single fragment.
func (s *fileSync) retry(ctx context.Context, merged *tree.Node, stale []merge.Added) {
	if len(stale) == 0 {
		return
	}

	items := make([]*tree.Node, len(stale))
	for i, a := range stale {
		items[i] = a.Source
	}
	frag, st := translate.TranslateFragment(ctx, tree.Array(items...), s.opts.SourceLang, s.lang, s.opts.Translator, s.fragmentOptions(""))
	s.count(st)
	if st.Failed {
		s.unsettled = true
		return
	}

	for i, a := range stale {
		item, _ := frag.Index(i)
		if cur, ok := treepath.Get(merged, a.Path); ok && tree.Equal(cur, item) {
			continue
		}
		if treepath.Inject(merged, a.Path, item, s.obs) {
			s.changed = true
			s.rep.Retried++
		}
	}
}

func (s *fileSync) count(st translate.FragmentStats) {
	if st.Failed {
		s.rep.Failed++
		return
	}
	s.rep.Translated += st.Translated
	s.rep.Reverted += st.Reverted
}

func (s *fileSync) fragmentOptions(path string) translate.FragmentOptions {
	fo := translate.FragmentOptions{
		BatchSize: s.opts.BatchSize,
		Observer:  s.obs,
		Path:      path,
	}
	if s.opts.OnProgress != nil {
		fo.OnProgress = func(done, total int) {
			s.opts.OnProgress(s.lang, s.file, done, total)
		}
	}
	return fo
}

// record stores the checksums of the source strings now synced into the
// target. Without a translator nothing is recorded, so changed sources are
// still picked up by the first run that translates.
func (s *fileSync) record(source *tree.Node) {
	lock := s.opts.Lock
	if lock == nil || s.opts.DryRun || s.opts.Translator == nil || s.unsettled {
		return
	}
	entries := make(map[string]string)
	treepath.Walk(source, func(p treepath.Path, n *tree.Node) bool {
		if n.Kind() == tree.KindString && strings.TrimSpace(n.Str()) != "" {
			entries[p.String()] = n.Str()
		}
		return true
	})
	lock.Record(s.opts.lockKey(s.lang, s.file), entries)
}
