// locsync keeps per-language JSON resource files in sync with the source
// language, with AI translation of new strings.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/event"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/langsync"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

var (
	blue   = color.New(color.FgBlue)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
)

// logMu serializes log lines written by parallel syncs.
var logMu sync.Mutex

func logLine(c *color.Color, label, format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(os.Stderr, "%s %s\n", c.Sprint(label), fmt.Sprintf(format, args...))
}

func logInfo(format string, args ...any) {
	logLine(blue, "[INFO]", format, args...)
}

func logSuccess(format string, args ...any) {
	logLine(green, "[OK]", format, args...)
}

func logWarning(format string, args ...any) {
	logLine(yellow, "[WARN]", format, args...)
}

func logError(format string, args ...any) {
	logLine(red, "[ERROR]", format, args...)
}

// stderrIsTerminal reports whether stderr is an interactive terminal.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	localesDir string
	sourceLang string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locsync",
		Short: "Keep JSON translation files in sync with the source language",
		Long: `locsync keeps per-language JSON resource files in structural lockstep
with the source language, and fills new strings with AI translation.

Project layout: one directory per language under a locales directory
(public/locales/en/common.json, public/locales/ru/common.json, ...).
Settings are read from .locsync.yaml in the project root when present.

Commands:
  sync        Add missing keys, remove obsolete ones, translate new strings
  status      Show per-language sync and translation statistics
  auth        Manage provider API keys

AI Providers:
  google         Google AI (Gemini) — API key
  groq           Groq — API key
  openai         OpenAI — API key
  anthropic      Anthropic — API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&localesDir, "locales-dir", "", "Directory with one subdirectory per language (default: from .locsync.yaml or auto-detected)")
	root.PersistentFlags().StringVar(&sourceLang, "source-lang", "", "Source language code (default: from .locsync.yaml or en)")

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	color.NoColor = !stderrIsTerminal() || os.Getenv("NO_COLOR") != ""
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locsync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Project loading
// ---------------------------------------------------------------------------

// project is the resolved configuration of one run.
type project struct {
	root       string
	file       *config.File
	env        config.Env
	localesDir string
	languages  []string
}

// loadProject reads .locsync.yaml and the environment, then applies the
// global flags. Flags override env, env overrides file.
func loadProject(langFilter string) (*project, error) {
	f, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if f == nil {
		f = config.Default()
		lang := sourceLang
		if lang == "" {
			lang = f.SourceLang
		}
		if dir := config.DetectLocalesDir(rootDir, lang); dir != "" {
			f.LocalesDir = dir
		}
	}
	if sourceLang != "" {
		f.SourceLang = sourceLang
	}
	if localesDir != "" {
		f.LocalesDir = localesDir
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	env.Apply(f)

	p := &project{root: rootDir, file: f, env: env}
	p.localesDir = f.LocalesDir
	if !filepath.IsAbs(p.localesDir) {
		p.localesDir = filepath.Join(rootDir, p.localesDir)
	}

	switch {
	case langFilter != "":
		p.languages = splitLangs(langFilter)
	case len(f.Languages) > 0:
		p.languages = f.Languages
	default:
		p.languages = config.DetectLanguages(p.localesDir, f.SourceLang)
	}
	p.languages = filterOutLang(p.languages, f.SourceLang)
	return p, nil
}

// splitLangs splits a comma-separated language list.
func splitLangs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// filterOutLang removes every occurrence of lang from langs.
func filterOutLang(langs []string, lang string) []string {
	var out []string
	for _, l := range langs {
		if l != lang {
			out = append(out, l)
		}
	}
	return out
}

func (p *project) syncOptions() langsync.Options {
	return langsync.Options{
		LocalesDir: p.localesDir,
		SourceLang: p.file.SourceLang,
		Languages:  p.languages,
		Include:    p.file.Include,
		Exclude:    p.file.Exclude,
		Indent:     p.file.IndentString(),
		BatchSize:  p.file.BatchSize,
		Parallel:   p.file.Parallel,
		LockRoot:   p.root,
	}
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

type syncArgs struct {
	langs       string
	dryRun      bool
	noTranslate bool
	noLock      bool
	showDiff    bool
	provider    string
	model       string
	apiKey      string
	baseURL     string
	proxy       string
	timeout     time.Duration
	batchSize   int
	parallel    int
	verbose     bool
}

func newSyncCmd() *cobra.Command {
	var a syncArgs

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync target languages with the source language",
		Long: `Merge every target language file into the shape of its source file.

Missing keys are added and translated, obsolete keys are removed, and
existing translations are kept. A key whose type changed between a string
and an object or array is rebuilt from the source. Missing files are
created by translating the whole source file.

With the lock file enabled (locsync.lock), strings whose source text changed
since the last sync are translated again.

Examples:
  locsync sync                                 Sync all languages
  locsync sync --lang ru,de                    Sync selected languages
  locsync sync --dry-run --show-diff           Show what would change
  locsync sync --no-translate                  Only fix the structure
  locsync sync --provider ollama --model qwen2.5`,
		Run: func(cmd *cobra.Command, args []string) {
			runSync(a)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&a.langs, "lang", "l", "", "Comma-separated target languages (default: all)")
	f.BoolVar(&a.dryRun, "dry-run", false, "Compute changes without writing files")
	f.BoolVar(&a.noTranslate, "no-translate", false, "Leave new strings empty instead of translating them")
	f.BoolVar(&a.noLock, "no-lock", false, "Do not read or update locsync.lock")
	f.BoolVar(&a.showDiff, "show-diff", false, "Print the JSON patch of every changed file")
	f.StringVarP(&a.provider, "provider", "p", "", "AI provider (default: from .locsync.yaml or google)")
	f.StringVarP(&a.model, "model", "m", "", "Model name")
	f.StringVar(&a.apiKey, "api-key", "", "API key (default: LOCSYNC_API_KEY or stored key)")
	f.StringVar(&a.baseURL, "base-url", "", "Custom API endpoint")
	f.StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	f.DurationVar(&a.timeout, "timeout", 0, "Request timeout (e.g. 90s, 2m)")
	f.IntVar(&a.batchSize, "batch-size", 0, "Strings per translation request (default: 30)")
	f.IntVar(&a.parallel, "parallel", 0, "Files synced at once (default: 1)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "Show every added and removed node")

	_ = cmd.RegisterFlagCompletionFunc("provider", completeProviders)

	return cmd
}

func runSync(a syncArgs) {
	proj, err := loadProject(a.langs)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	if len(proj.languages) == 0 {
		logWarning("%s", i18n.T("Nothing to sync: no target languages found"))
		return
	}

	opts := proj.syncOptions()
	opts.DryRun = a.dryRun
	opts.Diff = a.showDiff
	if a.batchSize > 0 {
		opts.BatchSize = a.batchSize
	}
	if a.parallel > 0 {
		opts.Parallel = a.parallel
	}

	logInfo(i18n.T("Source language: %s, locales: %s"), proj.file.SourceLang, proj.localesDir)
	logInfo(i18n.T("Languages: %s"), strings.Join(proj.languages, ", "))

	if proj.file.TranslateEnabled() && !a.noTranslate {
		prov := resolveProvider(proj, a)
		if err := validateProvider(prov); err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		logInfo(i18n.T("Provider: %s (%s), Model: %s"), prov.Name, prov.ID, prov.Model)

		ai := translate.NewAI(translate.Options{
			Provider:     prov,
			SystemPrompt: proj.file.Prompt,
			OnLog:        logInfo,
			Verbose:      a.verbose,
		})
		opts.Translator = translate.Cached(ai, translate.DefaultCacheSize)
	}

	if proj.file.LockEnabled() && !a.noLock {
		lf, err := lockfile.Load(proj.root)
		if err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		opts.Lock = lf
	}

	opts.Observer = newPrinter(a.verbose)
	if opts.Translator != nil && stderrIsTerminal() && !a.verbose {
		opts.OnProgress = (&progress{}).update
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("%s", i18n.T("Interrupted, stopping..."))
		cancel()
	}()

	report, err := langsync.Run(ctx, opts)
	if report != nil {
		printReport(report, a.dryRun, a.showDiff)
	}
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// printReport prints one line per changed file and a summary.
func printReport(report *langsync.Report, dryRun, showDiff bool) {
	changed := report.Changed()
	for _, f := range changed {
		logSuccess("%s", fileLine(f, dryRun))
		if showDiff && len(f.Patch) > 0 {
			var v any
			if err := json.Unmarshal(f.Patch, &v); err == nil {
				if pretty, err := json.MarshalIndent(v, "    ", "  "); err == nil {
					fmt.Fprintf(os.Stderr, "    %s\n", pretty)
				}
			}
		}
	}

	t := report.Totals()
	switch {
	case len(changed) == 0:
		logSuccess("%s", i18n.T("All files are up to date"))
	case dryRun:
		logInfo(i18n.N("Dry run: %d file would change", "Dry run: %d files would change", len(changed)), len(changed))
	default:
		logSuccess(i18n.N("%d file changed", "%d files changed", len(changed)), len(changed))
	}
	if len(report.Pruned) > 0 {
		logInfo(i18n.N("Forgot lock entries of %d removed file", "Forgot lock entries of %d removed files", len(report.Pruned)), len(report.Pruned))
	}
	if t.Translated > 0 || t.Reverted > 0 || t.Failed > 0 {
		logInfo(i18n.T("Translated: %d, kept source text: %d, failed fragments: %d"), t.Translated, t.Reverted, t.Failed)
	}
}

// fileLine describes what happened to one file.
func fileLine(f langsync.FileReport, dryRun bool) string {
	var action string
	switch {
	case f.Created && dryRun:
		action = i18n.T("would create")
	case f.Created:
		action = i18n.T("created")
	case dryRun:
		action = i18n.T("would update")
	default:
		action = i18n.T("updated")
	}

	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(f.Added, "added")
	add(f.Removed, "removed")
	add(f.Replaced, "replaced")
	add(f.Translated, "translated")
	add(f.Retried, "retranslated")

	line := fmt.Sprintf("%s/%s: %s", f.Lang, f.File, action)
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	return line
}

// newPrinter returns an observer that logs events. Per-node events are only
// shown in verbose mode; file events are summarized by printReport instead.
func newPrinter(verbose bool) event.Observer {
	return event.Func(func(e event.Event) {
		msg := eventLine(e)
		switch e.Level {
		case event.Error:
			logError("%s", msg)
		case event.Warn:
			logWarning("%s", msg)
		default:
			if verbose && e.Kind != event.FileCreated && e.Kind != event.FileWritten {
				logInfo("%s", msg)
			}
		}
	})
}

func eventLine(e event.Event) string {
	var b strings.Builder
	if e.Lang != "" {
		b.WriteString(e.Lang + "/" + e.File + ": ")
	}
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// progress shows one progress bar per translated fragment.
type progress struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	key  string
	last int
}

func (p *progress) update(lang, file string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := lang + "/" + file
	if p.bar == nil || key != p.key || done <= p.last {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(key),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		p.key = key
	}
	p.last = done
	_ = p.bar.Set(done)
	if done >= total {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-language sync and translation statistics",
		Long: `Show the detected project layout and, for every target language, how
many files and keys are missing or obsolete and how much is translated.
Does not modify any files.`,
		Run: func(cmd *cobra.Command, args []string) {
			runStatus(langs)
		},
	}
	cmd.Flags().StringVarP(&langs, "lang", "l", "", "Comma-separated target languages (default: all)")

	return cmd
}

func runStatus(langs string) {
	proj, err := loadProject(langs)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	cfg := proj.file.Path()
	if cfg == "" {
		cfg = i18n.T("none (using defaults)")
	}
	fmt.Fprintf(os.Stderr, "%s\n", blue.Sprint(i18n.T("Project")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Config:", cfg)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Locales:", proj.localesDir)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Source:", langLabel(proj.file.SourceLang))
	if lf, err := lockfile.Load(proj.root); err == nil && proj.file.LockEnabled() {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Lock:", lf.Summary())
	}
	fmt.Fprintln(os.Stderr)

	if len(proj.languages) == 0 {
		logWarning("%s", i18n.T("Nothing to sync: no target languages found"))
		return
	}

	stats, err := langsync.Status(proj.syncOptions())
	if err != nil && stats == nil {
		logError("%v", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "%s\n", blue.Sprint(i18n.T("Translation Statistics")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 72))
	fmt.Fprintf(os.Stderr, "%-24s %-8s %-8s %-8s %-8s %s\n", "Lang", "Files", "Missing", "New", "Obsolete", "Translated")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 72))
	for _, s := range stats {
		fmt.Fprintf(os.Stderr, "%-24s %-8d %-8d %-8d %-8d %s\n",
			langLabel(s.Lang), s.Files, s.Missing, s.MissingNodes, s.ObsoleteNodes, percentCell(s))
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 72))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		logWarning("%v", err)
	}
}

// langLabel returns "ru (Russian)" with a flag when one is known.
func langLabel(lang string) string {
	m := langmeta.Resolve(lang)
	label := lang
	if m.Name != "" && m.Name != lang {
		label += " (" + m.Name + ")"
	}
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	return label
}

func percentCell(s langsync.LangStatus) string {
	p := s.Percent()
	text := fmt.Sprintf("%3.0f%% (%d/%d)", p, s.Translated, s.Strings)
	switch {
	case p >= 100:
		return green.Sprint(text)
	case p >= 50:
		return yellow.Sprint(text)
	default:
		return red.Sprint(text)
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func completeProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	defaults := translate.DefaultProviders()
	var out []string
	for _, id := range translate.ProviderIDs() {
		out = append(out, fmt.Sprintf("%s\t%s", id, defaults[id].Name))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// maskedEnvKey describes LOCSYNC_API_KEY for display.
func maskedEnvKey(env config.Env) string {
	if env.APIKey == "" {
		return red.Sprint(i18n.T("not set"))
	}
	return green.Sprint(settings.MaskKey(env.APIKey)) + " " + i18n.T("(overrides stored keys)")
}
