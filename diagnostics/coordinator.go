// Package diagnostics owns the lifecycle of check runs: at most one logical
// current check per workspace, generation-tagged so a superseded run's
// output can never be published, with results correlated back onto the set
// of documents open at publish time.
package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tack-ls/tack/checker"
	"github.com/tack-ls/tack/document"
	"github.com/tack-ls/tack/protocol"
)

// PublishFunc delivers one publishDiagnostics notification to the client.
type PublishFunc func(ctx context.Context, params *protocol.PublishDiagnosticsParams) error

// Coordinator decides when checks run, cancels superseded ones, and maps
// parsed checker records onto open-document URIs before publication.
// Cancellation is "stop trusting results below the current generation": a
// trigger bumps the generation and signals the old run, and late completions
// are discarded by generation comparison. It never blocks the caller.
type Coordinator struct {
	docs    *document.Store
	publish PublishFunc
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewCoordinator creates a coordinator publishing through publish.
func NewCoordinator(docs *document.Store, publish PublishFunc, logger *slog.Logger) *Coordinator {
	return &Coordinator{docs: docs, publish: publish, logger: logger}
}

// Trigger starts a new check run at generation g+1, cancelling any run in
// flight (best-effort, without waiting for process death). Returns
// immediately; results arrive as publishDiagnostics notifications.
func (c *Coordinator) Trigger(root string, command []string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Debug("check triggered", "generation", gen, "command", strings.Join(command, " "))

	runner := checker.NewRunner(command, root, c.logger)
	go func() {
		defer cancel()
		report, err := runner.Run(ctx)
		c.finish(gen, root, command, report, err)
	}()
}

// Cancel aborts any in-flight run and bumps the generation so its eventual
// completion is discarded. Used at shutdown.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

// Retract publishes an empty diagnostics set for a closed document: a
// well-defined retraction, distinct from never having published. Taking the
// mutex serializes the retraction behind any publication in flight in
// finish, so the empty set is always the document's last word.
func (c *Coordinator) Retract(uri protocol.DocumentURI) {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := &protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: []protocol.Diagnostic{}}
	if err := c.publish(context.Background(), params); err != nil {
		c.logger.Warn("failed to retract diagnostics", "uri", uri, "error", err)
	}
}

// finish handles one run's completion. The mutex is held through
// publication so results from two generations can never interleave; only
// the highest generation ever reaches the client.
func (c *Coordinator) finish(gen uint64, root string, command []string, report *checker.Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding superseded check", "generation", gen, "current", c.generation)
		return
	}
	c.cancel = nil

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			// Cancelled without supersession (shutdown); publish nothing.
		case errors.Is(err, checker.ErrSpawn), errors.Is(err, checker.ErrEmptyCommand):
			// Last-known-good diagnostics stay put; not retried until the
			// next save.
			c.logger.Error("checker could not run", "generation", gen, "error", err)
		default:
			c.logger.Error("check failed", "generation", gen, "error", err)
		}
		return
	}

	open := c.docs.Snapshot()
	byURI := c.correlate(root, command, report.Records, open)

	// Every open document gets a publication: matched subsets where the
	// checker reported, empty sets everywhere else so a clean run clears
	// stale diagnostics.
	for _, doc := range open {
		diags := byURI[doc.URI]
		if diags == nil {
			diags = []protocol.Diagnostic{}
		}
		version := doc.Version
		params := &protocol.PublishDiagnosticsParams{URI: doc.URI, Diagnostics: diags, Version: &version}
		if perr := c.publish(context.Background(), params); perr != nil {
			c.logger.Warn("failed to publish diagnostics", "uri", doc.URI, "error", perr)
		}
	}
	c.logger.Debug("check completed", "generation", gen, "records", len(report.Records), "published", len(open))
}

// correlate resolves checker-reported paths against the workspace root and
// buckets records by open-document URI. Records for files not open, outside
// the root, or unresolvable are dropped.
func (c *Coordinator) correlate(root string, command []string, records []checker.Record, open []document.OpenDocument) map[protocol.DocumentURI][]protocol.Diagnostic {
	openSet := make(map[protocol.DocumentURI]bool, len(open))
	for _, doc := range open {
		openSet[doc.URI] = true
	}

	source := "checker"
	if len(command) > 0 {
		source = filepath.Base(command[0])
	}

	byURI := make(map[protocol.DocumentURI][]protocol.Diagnostic)
	for _, rec := range records {
		uri, ok := resolveURI(root, rec.File)
		if !ok {
			c.logger.Debug("dropping diagnostic outside workspace", "file", rec.File)
			continue
		}
		if !openSet[uri] {
			continue
		}
		byURI[uri] = append(byURI[uri], protocol.Diagnostic{
			Range:    rec.Range,
			Severity: rec.Severity,
			Code:     rec.Code,
			Source:   source,
			Message:  rec.Message,
		})
	}
	return byURI
}

// resolveURI turns a checker-reported path into a file URI, rejecting paths
// that escape the workspace root.
func resolveURI(root, file string) (protocol.DocumentURI, bool) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	uri, err := document.PathToURI(path)
	if err != nil {
		return "", false
	}
	return uri, true
}
