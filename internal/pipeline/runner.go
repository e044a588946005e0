package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/content"
	"github.com/backmassage/folderize/internal/describe"
	"github.com/backmassage/folderize/internal/metrics"
	"github.com/backmassage/folderize/internal/naming"
	"github.com/backmassage/folderize/internal/readme"
	"github.com/backmassage/folderize/internal/selector"
)

// snippetChars bounds the text quoted in organize prompts and fallback READMEs.
const snippetChars = 5000

// Logger is the subset of logging.Logger the runner needs.
type Logger interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Deps are the collaborators of a run. Zero fields get defaults: the
// template describer, no-op metrics and time.Now.
type Deps struct {
	Describer describe.Describer
	Metrics   metrics.Metrics
	Now       func() time.Time
}

func (d *Deps) setDefaults() {
	if d.Describer == nil {
		d.Describer = describe.Template{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// runner carries per-run state shared by processFile calls.
type runner struct {
	cfg       *config.Config
	log       Logger
	deps      Deps
	style     naming.Style
	allocator *naming.Allocator
	useAI     bool
	stats     RunStats
}

// Run is the batch entry point. It returns an error only for problems that
// prevent the batch from starting: a missing or non-directory input
// (selector.ErrNotFound, selector.ErrNotADirectory), an output directory
// nested in a recursive input, or an output root that cannot be created.
// Per-file failures are reported through RunStats.
func Run(ctx context.Context, cfg *config.Config, log Logger, deps Deps) (RunStats, error) {
	deps.setDefaults()

	sel, err := selector.New(cfg.InputDir, selector.Options{
		Recursive: cfg.Recursive,
		Include:   cfg.IncludeExts,
		Exclude:   cfg.ExcludeExts,
	})
	if err != nil {
		return RunStats{}, err
	}
	if cfg.Recursive {
		if err := checkNesting(cfg); err != nil {
			return RunStats{}, err
		}
	}

	style, numbering := naming.GenerateStyle, naming.DashFrom2
	if cfg.Variant == config.VariantOrganize {
		style, numbering = naming.OrganizeStyle, naming.UnderscoreFrom1
	}
	_, isTemplate := deps.Describer.(describe.Template)

	r := &runner{
		cfg:   cfg,
		log:   log,
		deps:  deps,
		style: style,
		allocator: naming.NewAllocator(cfg.OutputDir, numbering, naming.AllocatorOptions{
			DryRun: cfg.DryRun,
			Reuse:  cfg.Variant == config.VariantOrganize && cfg.Overwrite,
		}),
		useAI: !isTemplate,
	}

	r.logBatchHeader()

	// Select everything up front so folders created below can never be
	// rediscovered by a lazy recursive walk.
	var items []selector.Item
	for it, err := range sel.All() {
		if err != nil {
			log.Warn("Cannot read entry: %v", err)
			r.stats.Failed++
			continue
		}
		items = append(items, it)
	}
	r.stats.Total = len(items)

	if len(items) == 0 {
		log.Info("No files to process.")
		return r.stats, nil
	}

	if cfg.DryRun {
		log.Info("[DRY] Would create output directory %s", cfg.OutputDir)
	} else if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return r.stats, errors.Wrap(err, "create output directory")
	}

	for i, it := range items {
		if ctx.Err() != nil {
			log.Warn("Interrupted, %d file(s) left unprocessed", len(items)-i)
			r.stats.Skipped += len(items) - i
			r.observeSkipped(items[i:])
			break
		}
		r.stats.Current = i + 1
		r.processFile(ctx, it)
	}

	r.logSummary()
	return r.stats, nil
}

// checkNesting rejects an output directory at or below the input directory.
func checkNesting(cfg *config.Config) error {
	in, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		return errors.Wrap(err, "resolve input directory")
	}
	if resolved, err := filepath.EvalSymlinks(in); err == nil {
		in = resolved
	}
	out, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return errors.Wrap(err, "resolve output directory")
	}
	if resolved, err := filepath.EvalSymlinks(out); err == nil {
		out = resolved
	}
	return cfg.ValidatePaths(in, out)
}

// processFile handles one file: name -> allocate -> transfer -> describe -> write.
func (r *runner) processFile(ctx context.Context, it selector.Item) {
	cfg, log, dry := r.cfg, r.log, r.cfg.DryRun
	log.Info("[%d/%d] %s", r.stats.Current, r.stats.Total, it.Name)

	// --- Name and allocate ---
	safe := r.style.Sanitize(it.Stem)
	if safe != it.Stem {
		log.Debug("Sanitized name: '%s' -> '%s'", it.Stem, safe)
	}
	dir, err := r.allocator.Allocate(safe)
	if err != nil {
		r.fail(it, "Cannot create folder for %s: %v", it.Name, err)
		return
	}
	if dry {
		log.Info("[DRY] Would create folder %s", dir)
	} else {
		log.Debug("Created folder %s", dir)
	}

	// --- Artifact names ---
	// A transferred file keeps its name; artifacts move aside rather than
	// replace it.
	readmeName, metaName := cfg.ReadmeFilename, readme.MetadataFilename
	placed := ""
	if cfg.Transfer != config.TransferNone {
		placed = it.Name
	}
	readmeName = readme.Avoid(readmeName, placed)
	metaName = readme.Avoid(metaName, placed, readmeName)
	if readmeName != cfg.ReadmeFilename {
		log.Warn("%s would be replaced by the README; writing %s instead", it.Name, readmeName)
	}
	if metaName != readme.MetadataFilename {
		log.Warn("%s would be replaced by the metadata record; writing %s instead", it.Name, metaName)
	}

	// --- Transfer ---
	dest := filepath.Join(dir, it.Name)
	samplePath, moved := it.Path, ""
	switch cfg.Transfer {
	case config.TransferCopy, config.TransferMove:
		verb, op := "copy", copyFile
		if cfg.Transfer == config.TransferMove {
			verb, op = "move", moveFile
		}
		if dry {
			log.Info("[DRY] Would %s %s -> %s", verb, it.Path, dest)
			break
		}
		if err := op(it.Path, dest); err != nil {
			r.fail(it, "Cannot %s %s: %v", verb, it.Name, err)
			r.discard(it, dir, "")
			return
		}
		log.Debug("%s -> %s (%s)", it.Path, dest, verb)
		samplePath = dest
		if cfg.Transfer == config.TransferMove {
			moved = dest
		}
	}

	// --- Describe ---
	src := readme.Source{Name: it.Name, Stem: it.Stem, Ext: it.Ext, RelPath: it.Path, Size: it.Size}
	sample := r.sample(samplePath)
	text, described := r.describe(ctx, it, sample)

	// --- README ---
	var doc string
	switch {
	case cfg.Variant == config.VariantGenerate:
		doc = readme.Generated(src, text)
	case described:
		doc = text
	default:
		doc = readme.Fallback(src, r.snippet(sample))
	}
	if dry {
		log.Info("[DRY] Would write %s in %s", readmeName, dir)
	} else if err := readme.Write(dir, readmeName, doc); err != nil {
		r.fail(it, "Cannot write README for %s: %v", it.Name, err)
		r.discard(it, dir, moved)
		return
	}

	// --- Metadata ---
	meta := readme.NewMetadata(src, r.deps.Now(), described, r.deps.Describer.Source())
	if dry {
		log.Info("[DRY] Would write %s in %s", metaName, dir)
	} else if err := readme.WriteMetadata(dir, metaName, meta); err != nil {
		r.fail(it, "Cannot write metadata for %s: %v", it.Name, err)
		r.discard(it, dir, moved)
		return
	}

	r.stats.Processed++
	r.stats.TotalBytes += it.Size
	if described {
		r.stats.Described++
	}
	r.deps.Metrics.ObserveItem(string(cfg.Variant), metrics.OutcomeProcessed, it.Size)
	if !dry {
		log.Success("-> %s", dir)
	}
}

// sample reads the head of path when something will use it: organize
// always quotes a snippet, generate only when a describer is configured.
func (r *runner) sample(path string) content.Sample {
	if r.cfg.Variant == config.VariantGenerate && !r.useAI {
		return content.Sample{}
	}
	s, err := content.Read(path, r.cfg.MaxBytes)
	if err != nil {
		r.log.Debug("No content sample for %s: %v", filepath.Base(path), err)
		return content.Sample{}
	}
	return s
}

// snippet is the organize view of a sample: text only for textual media types.
func (r *runner) snippet(s content.Sample) string {
	if !s.Textual() {
		return ""
	}
	return s.Snippet(snippetChars)
}

func (r *runner) describe(ctx context.Context, it selector.Item, sample content.Sample) (string, bool) {
	if !r.useAI {
		return "", false
	}
	req := describe.Request{
		Name:    it.Name,
		Ext:     it.Ext,
		RelPath: it.Path,
		Size:    it.Size,
		Text:    sample.Text,
		IsText:  sample.IsText,
		Now:     r.deps.Now(),
	}
	if r.cfg.Variant == config.VariantOrganize {
		req.Text, req.IsText = r.snippet(sample), sample.Textual()
	}
	start := time.Now()
	text, ok := r.deps.Describer.Describe(ctx, req)
	r.deps.Metrics.ObserveDescribe(r.deps.Describer.Source(), ok, time.Since(start).Seconds())
	return text, ok
}

func (r *runner) fail(it selector.Item, format string, args ...interface{}) {
	r.log.Warn(format, args...)
	r.stats.Failed++
	r.deps.Metrics.ObserveItem(string(r.cfg.Variant), metrics.OutcomeFailed, it.Size)
}

// discard undoes a half-built folder after a failure: a moved file goes back
// to its source, then the folder is removed if this run created it. A file
// that cannot be moved back stays where it is, folder included.
func (r *runner) discard(it selector.Item, dir, moved string) {
	if r.cfg.DryRun {
		return
	}
	if moved != "" {
		if err := moveFile(moved, it.Path); err != nil {
			r.log.Error("Cannot restore %s, it remains at %s: %v", it.Path, moved, err)
			return
		}
	}
	if err := r.allocator.Release(dir); err != nil {
		r.log.Warn("Cannot remove incomplete folder: %v", err)
	}
}

func (r *runner) observeSkipped(items []selector.Item) {
	for _, it := range items {
		r.deps.Metrics.ObserveItem(string(r.cfg.Variant), metrics.OutcomeSkipped, it.Size)
	}
}

// --- Logging helpers ---

func (r *runner) logBatchHeader() {
	cfg, log := r.cfg, r.log
	log.Info("Input:     %s", cfg.InputDir)
	log.Info("Output:    %s", cfg.OutputDir)
	log.Info("Recursive: %t", cfg.Recursive)
	log.Info("Action:    %s", strings.ToUpper(string(cfg.Transfer)))
	if r.useAI {
		log.Info("AI:        ON (%s via %s)", r.deps.Describer.Source(), cfg.Provider)
	} else {
		log.Info("AI:        OFF")
	}
	if len(cfg.IncludeExts) > 0 {
		log.Info("Include extensions: %s", strings.Join(cfg.IncludeExts, ", "))
	}
	if len(cfg.ExcludeExts) > 0 {
		log.Info("Exclude extensions: %s", strings.Join(cfg.ExcludeExts, ", "))
	}
	if cfg.DryRun {
		log.Warn("Dry run: no files or folders will be written")
	}
}

func (r *runner) logSummary() {
	s := &r.stats
	log := r.log
	log.Info("Processed files: %d", s.Processed)
	log.Info("AI-generated READMEs: %d", s.Described)
	if s.Failed > 0 {
		log.Warn("Failed: %d", s.Failed)
	}
	if s.Skipped > 0 {
		log.Warn("Not processed: %d", s.Skipped)
	}
	if s.OK() {
		log.Success("Done.")
	}
}
