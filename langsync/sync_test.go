package langsync

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/tree"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fakeTranslator struct {
	mu      sync.Mutex
	batches int
	trees   int
	fail    error
	treeFn  func(*tree.Node) (*tree.Node, error)
}

func (f *fakeTranslator) TranslateBatch(ctx context.Context, texts []string, src, tgt string) ([]string, error) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = "[" + tgt + "] " + s
	}
	return out, nil
}

func (f *fakeTranslator) TranslateTree(ctx context.Context, n *tree.Node, src, tgt string) (*tree.Node, error) {
	f.mu.Lock()
	f.trees++
	f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	if f.treeFn != nil {
		return f.treeFn(n)
	}
	out := tree.Clone(n)
	for _, s := range tree.Strings(out) {
		if strings.TrimSpace(s.Str()) != "" {
			s.SetStr("[" + tgt + "] " + s.Str())
		}
	}
	return out, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readCompact(t *testing.T, path string) string {
	t.Helper()
	n, err := tree.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	data, err := n.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newProject(t *testing.T, source map[string]string) (string, Options) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range source {
		writeFile(t, filepath.Join(dir, "en", name), content)
	}
	return dir, Options{
		LocalesDir: dir,
		SourceLang: "en",
		Languages:  []string{"ru"},
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRunCreatesMissingTargetWithoutTranslator(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"common.json": `{"a":"hi","n":1,"b":{"c":"x"},"l":["y",true]}`,
	})
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := readCompact(t, filepath.Join(dir, "ru", "common.json"))
	if got != `{"a":"","n":1,"b":{"c":""},"l":["",true]}` {
		t.Fatalf("created = %s", got)
	}
	if len(report.Files) != 1 {
		t.Fatalf("reports = %d, want 1", len(report.Files))
	}
	rep := report.Files[0]
	if !rep.Created || !rep.Changed || !rep.Written {
		t.Fatalf("report = %+v", rep)
	}
	if rec.Count(event.FileCreated) != 1 {
		t.Fatalf("events = %v", rec.Events())
	}
}

func TestRunMergesAndTranslatesAddedContent(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"common.json": `{"a":"hi","b":{"c":"yo","n":2},"list":["x","y"]}`,
	})
	writeFile(t, filepath.Join(dir, "ru", "common.json"), `{"a":"привет","old":"gone","list":["икс"]}`)
	tr := &fakeTranslator{}
	opts.Translator = tr

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := readCompact(t, filepath.Join(dir, "ru", "common.json"))
	want := `{"a":"привет","list":["икс","[ru] y"],"b":{"c":"[ru] yo","n":2}}`
	if got != want {
		t.Fatalf("merged = %s\nwant     %s", got, want)
	}

	rep := report.Files[0]
	if rep.Created || !rep.Changed || !rep.Written {
		t.Fatalf("report flags = %+v", rep)
	}
	if rep.Added != 2 || rep.Removed != 1 || rep.Translated != 2 {
		t.Fatalf("report counts = %+v", rep)
	}
	if tr.trees != 0 {
		t.Fatalf("existing file should not be translated as a whole")
	}
}

func TestRunUnchangedFileIsNotWritten(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"common.json": `{"a":"hi","n":1}`,
	})
	target := filepath.Join(dir, "ru", "common.json")
	writeFile(t, target, `{"a":"привет","n":5}`)

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep := report.Files[0]; rep.Changed || rep.Written {
		t.Fatalf("report = %+v", rep)
	}
	data, _ := os.ReadFile(target)
	if string(data) != `{"a":"привет","n":5}` {
		t.Fatalf("file was rewritten: %s", data)
	}
}

func TestRunDryRunPatch(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"common.json": `{"k":"v","nested":{"x":"1","y":"2"},"arr":["a"]}`,
	})
	target := filepath.Join(dir, "ru", "common.json")
	original := `{"k":"в","old":1,"nested":"oops","arr":["а","б","в"]}`
	writeFile(t, target, original)
	opts.DryRun = true
	opts.Diff = true

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != original {
		t.Fatalf("dry run modified the file: %s", data)
	}
	rep := report.Files[0]
	if !rep.Changed || rep.Written || len(rep.Patch) == 0 {
		t.Fatalf("report = %+v", rep)
	}

	patch, err := jsonpatch.DecodePatch(rep.Patch)
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}
	applied, err := patch.Apply([]byte(original))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var got, want any
	json.Unmarshal(applied, &got)
	json.Unmarshal([]byte(`{"k":"в","nested":{"x":"","y":""},"arr":["а"]}`), &want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patched document mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDryRunCreatesNothing(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"x":"y"}`})
	opts.DryRun = true
	opts.Diff = true
	opts.Lock = lockfile.New(dir)

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ru", "a.json")); !os.IsNotExist(err) {
		t.Fatalf("dry run created the target, stat err = %v", err)
	}
	if _, err := os.Stat(opts.Lock.Path()); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote the lock, stat err = %v", err)
	}

	rep := report.Files[0]
	patch, err := jsonpatch.DecodePatch(rep.Patch)
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}
	applied, err := patch.Apply([]byte("{}"))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(applied) != `{"x":""}` {
		t.Fatalf("patched = %s", applied)
	}
}

func TestRunUnreadableTargetIsRecreated(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"x":"y","n":[1]}`})
	target := filepath.Join(dir, "ru", "a.json")
	writeFile(t, target, `{"x": "broken`)
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readCompact(t, target); got != `{"x":"","n":[1]}` {
		t.Fatalf("recreated = %s", got)
	}
	if rep := report.Files[0]; !rep.Unreadable || !rep.Written {
		t.Fatalf("report = %+v", rep)
	}
	if rec.Count(event.TargetUnreadable) != 1 {
		t.Fatalf("events = %v", rec.Events())
	}
}

func TestRunCreatesTranslatedTarget(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"a.json": `{"greet":"Hello {{name}}","bye":"Bye","n":3}`,
	})
	tr := &fakeTranslator{treeFn: func(n *tree.Node) (*tree.Node, error) {
		return tree.Parse([]byte(`{"greet":"Привет","bye":"Пока","n":3}`))
	}}
	opts.Translator = tr
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := readCompact(t, filepath.Join(dir, "ru", "a.json"))
	if got != `{"greet":"Hello {{name}}","bye":"Пока","n":3}` {
		t.Fatalf("created = %s", got)
	}
	rep := report.Files[0]
	if rep.Translated != 1 || rep.Reverted != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rec.Count(event.PlaceholderMismatch) != 1 {
		t.Fatalf("events = %v", rec.Events())
	}
}

func TestRunCreatedTargetKeepsSourceValues(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"a.json": `{"title":"Hello","count":3,"on":true,"none":null,"sub":"Bye"}`,
	})
	opts.Translator = &fakeTranslator{treeFn: func(n *tree.Node) (*tree.Node, error) {
		return tree.Parse([]byte(`{"title":"Bonjour","count":"trois","on":"oui","none":0,"sub":7}`))
	}}
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	path := filepath.Join(dir, "ru", "a.json")
	want := `{"title":"Bonjour","count":3,"on":true,"none":null,"sub":"Bye"}`
	if got := readCompact(t, path); got != want {
		t.Fatalf("created = %s, want %s", got, want)
	}
	rep := report.Files[0]
	if rep.Translated != 1 || rep.Reverted != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if n := rec.Count(event.ValueRestored); n != 4 {
		t.Fatalf("value-restored = %d, want 4; events = %v", n, rec.Events())
	}

	report, err = Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Files[0].Changed {
		t.Fatalf("second run changed the file: %+v", report.Files[0])
	}
	if got := readCompact(t, path); got != want {
		t.Fatalf("after second run = %s", got)
	}
}

func TestRunTreeFailureFallsBackToEmpty(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"x":"y"}`})
	opts.Translator = &fakeTranslator{fail: errors.New("offline")}
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readCompact(t, filepath.Join(dir, "ru", "a.json")); got != `{"x":""}` {
		t.Fatalf("created = %s", got)
	}
	if report.Files[0].Failed != 1 || rec.Count(event.TreeFailed) != 1 {
		t.Fatalf("report = %+v, events = %v", report.Files[0], rec.Events())
	}
}

func TestRunRetriesUntranslatedStrings(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"a":"one","b":{"c":"two"}}`})
	target := filepath.Join(dir, "ru", "a.json")
	writeFile(t, target, `{"a":"один"}`)

	tr := &fakeTranslator{fail: errors.New("quota exceeded")}
	opts.Translator = tr
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readCompact(t, target); got != `{"a":"один","b":{"c":""}}` {
		t.Fatalf("after failed run = %s", got)
	}
	if report.Files[0].Failed != 1 || rec.Count(event.BatchFailed) != 1 {
		t.Fatalf("report = %+v", report.Files[0])
	}

	tr.fail = nil
	report, err = Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readCompact(t, target); got != `{"a":"один","b":{"c":"[ru] two"}}` {
		t.Fatalf("after retry = %s", got)
	}
	if rep := report.Files[0]; rep.Retried != 1 || rep.Added != 0 || !rep.Written {
		t.Fatalf("retry report = %+v", rep)
	}
}

func TestRunLockRetranslatesChangedSource(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"a":"Hello","b":"Stay"}`})
	source := filepath.Join(dir, "en", "a.json")
	target := filepath.Join(dir, "ru", "a.json")
	opts.Translator = &fakeTranslator{}
	opts.Lock = lockfile.New(dir)

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if got := readCompact(t, target); got != `{"a":"[ru] Hello","b":"[ru] Stay"}` {
		t.Fatalf("first run = %s", got)
	}
	if _, err := os.Stat(opts.Lock.Path()); err != nil {
		t.Fatalf("lock not saved: %v", err)
	}

	writeFile(t, source, `{"a":"Hello world","b":"Stay"}`)
	lock, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts.Lock = lock

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := readCompact(t, target); got != `{"a":"[ru] Hello world","b":"[ru] Stay"}` {
		t.Fatalf("second run = %s", got)
	}
	if report.Files[0].Retried != 1 {
		t.Fatalf("report = %+v", report.Files[0])
	}
	if lock.IsStale("ru/a.json", "root.a", "Hello world") {
		t.Fatal("lock should hold the new source checksum")
	}
}

func TestRunLockFirstRunDoesNotRetranslate(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"a":"new text"}`})
	target := filepath.Join(dir, "ru", "a.json")
	writeFile(t, target, `{"a":"старый текст"}`)
	tr := &fakeTranslator{}
	opts.Translator = tr
	opts.Lock = lockfile.New(dir)

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Files[0].Changed || tr.batches != 0 {
		t.Fatalf("report = %+v, batches = %d", report.Files[0], tr.batches)
	}
	if targets := opts.Lock.Targets(); len(targets) != 1 || targets[0] != "ru/a.json" {
		t.Fatalf("lock targets = %v", targets)
	}
}

func TestRunLockForgetsRemovedSourceFiles(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"a.json": `{"a":"A"}`,
		"b.json": `{"b":"B"}`,
	})
	opts.Translator = &fakeTranslator{}
	opts.Lock = lockfile.New(dir)
	opts.Lock.Record("other/x.json", map[string]string{"root.x": "X"})

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "en", "b.json")); err != nil {
		t.Fatal(err)
	}

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if diff := cmp.Diff([]string{"ru/b.json"}, report.Pruned); diff != "" {
		t.Fatalf("pruned mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"other/x.json", "ru/a.json"}, opts.Lock.Targets()); diff != "" {
		t.Fatalf("lock targets mismatch (-want +got):\n%s", diff)
	}

	// Dry runs leave the lock alone.
	opts.Lock.Record("ru/c.json", map[string]string{"root.c": "C"})
	opts.DryRun = true
	report, err = Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("dry Run: %v", err)
	}
	if len(report.Pruned) != 0 {
		t.Fatalf("dry run pruned %v", report.Pruned)
	}
}

func TestRunMissingSourceDir(t *testing.T) {
	opts := Options{LocalesDir: t.TempDir(), SourceLang: "en", Languages: []string{"ru"}}
	_, err := Run(context.Background(), opts)
	if !errors.Is(err, ErrSourceDir) {
		t.Fatalf("err = %v, want ErrSourceDir", err)
	}
}

func TestRunContinuesPastBrokenSourceFile(t *testing.T) {
	dir, opts := newProject(t, map[string]string{
		"bad.json":  `{"x":`,
		"good.json": `{"x":"y"}`,
	})
	var rec event.Recorder
	opts.Observer = &rec

	report, err := Run(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "bad.json") {
		t.Fatalf("err = %v, want an error naming bad.json", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ru", "good.json")); err != nil {
		t.Fatalf("good.json not synced: %v", err)
	}
	if report.Files[0].File != "bad.json" || report.Files[0].Err == nil {
		t.Fatalf("report = %+v", report.Files[0])
	}
	if rec.Count(event.FileFailed) != 1 {
		t.Fatalf("events = %v", rec.Events())
	}
}

func TestRunParallelKeepsOrder(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a.json", "b.json", "c/d.json", "e.json"} {
		files[name] = `{"k":"v"}`
	}
	dir, opts := newProject(t, files)
	opts.Languages = []string{"en", "de", "ru"}
	opts.Parallel = 4
	opts.Translator = &fakeTranslator{}

	report, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var order []string
	for _, f := range report.Files {
		order = append(order, f.Lang+"/"+f.File)
	}
	want := []string{
		"de/a.json", "de/b.json", "de/c/d.json", "de/e.json",
		"ru/a.json", "ru/b.json", "ru/c/d.json", "ru/e.json",
	}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("report order mismatch (-want +got):\n%s", diff)
	}
	if got := readCompact(t, filepath.Join(dir, "de", "c", "d.json")); got != `{"k":"[de] v"}` {
		t.Fatalf("de/c/d.json = %s", got)
	}
}

func TestRunCancelled(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"x":"y"}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ru", "a.json")); !os.IsNotExist(err) {
		t.Fatal("cancelled run wrote a file")
	}
}

func TestRunIndent(t *testing.T) {
	dir, opts := newProject(t, map[string]string{"a.json": `{"x":{"y":"z"}}`})
	opts.Indent = "\t"

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "ru", "a.json"))
	if string(data) != "{\n\t\"x\": {\n\t\t\"y\": \"\"\n\t}\n}\n" {
		t.Fatalf("written = %q", data)
	}
}
