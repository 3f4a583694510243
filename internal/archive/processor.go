package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/archiveloader/internal/logging"
)

// OutcomeKind classifies what happened to one physical file.
type OutcomeKind string

const (
	OutcomeAccepted   OutcomeKind = "accepted"
	OutcomeIneligible OutcomeKind = "ineligible"
	OutcomeDuplicate  OutcomeKind = "duplicate"
	OutcomeOrphan     OutcomeKind = "orphan"
	OutcomeUnresolved OutcomeKind = "unresolved"
)

// Outcome records the fate of one physical file of an archive.
type Outcome struct {
	File   string
	Kind   OutcomeKind
	Reason SkipReason
	Detail string
}

// ResolveFailure is a file whose metadata could not be turned into a record.
type ResolveFailure struct {
	File string
	Err  error
}

// Result is what the processor leaves behind for one archive.
type Result struct {
	Accepted map[string]*FileRecord
	Outcomes []Outcome
	Orphans  []string
	Failures []ResolveFailure
}

// AcceptedNames returns the accepted file names sorted.
func (r *Result) AcceptedNames() []string {
	names := make([]string, 0, len(r.Accepted))
	for name := range r.Accepted {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of outcomes of kind k.
func (r *Result) Count(k OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// Processor decides the fate of every file in an extracted archive.
type Processor struct {
	dedup  *Deduplicator
	logger logging.Logger
}

func NewProcessor(dedup *Deduplicator, logger logging.Logger) *Processor {
	return &Processor{dedup: dedup, logger: logger}
}

// Process decides every indexed record against policy and level, resolves
// each physical file in dir, and then removes from dir everything that was
// not accepted. On return dir holds exactly the accepted files.
func (p *Processor) Process(ctx context.Context, dir string, index *Index, policy ExclusionPolicy, level string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list archive dir: %w", err)
	}

	var physical []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			physical = append(physical, e.Name())
		}
	}
	sort.Strings(physical)

	res := &Result{Accepted: make(map[string]*FileRecord)}

	res.Orphans = index.Orphans(physical)
	if len(res.Orphans) > 0 {
		p.logger.Warn(ctx, "files only in the archive, not in metadata", "files", strings.Join(res.Orphans, ","))
	}

	// Every record is decided, present on disk or not, so stale upload
	// markers are cleared across the whole archive.
	decisions := make(map[string]Decision, index.Len())
	for _, rec := range index.Records() {
		decisions[rec.FileName] = Decide(rec, policy, level)
	}

	for _, name := range physical {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, p.resolve(ctx, name, index, decisions, res))
	}

	if err := p.prune(dir, res.Accepted); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Processor) resolve(ctx context.Context, name string, index *Index, decisions map[string]Decision, res *Result) Outcome {
	r, ok := index.Lookup(name)
	if !ok {
		return Outcome{File: name, Kind: OutcomeOrphan}
	}
	if r.Err != nil {
		p.logger.Error(ctx, "problem looking up file in metadata", "file", name, "error", r.Err)
		res.Failures = append(res.Failures, ResolveFailure{File: name, Err: r.Err})
		return Outcome{File: name, Kind: OutcomeUnresolved}
	}

	d := decisions[name]
	if !d.Upload {
		p.logger.Info(ctx, "skipping file", "file", name, "reason", string(d.Reason), "detail", d.Detail)
		return Outcome{File: name, Kind: OutcomeIneligible, Reason: d.Reason, Detail: d.Detail}
	}

	if !p.dedup.Admit(ctx, name) {
		return Outcome{File: name, Kind: OutcomeDuplicate}
	}

	p.logger.Info(ctx, "uploading file", "file", name)
	res.Accepted[name] = r.Record
	return Outcome{File: name, Kind: OutcomeAccepted}
}

// prune removes every entry of dir that is not in keep.
func (p *Processor) prune(dir string, keep map[string]*FileRecord) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list archive dir: %w", err)
	}
	for _, e := range entries {
		if _, ok := keep[e.Name()]; ok && e.Type().IsRegular() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
