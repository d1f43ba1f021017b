package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/mapmend/internal/cache"
	"github.com/roach88/mapmend/internal/feature"
	"github.com/roach88/mapmend/internal/revert"
)

// IterateOptions controls the read phase.
type IterateOptions struct {
	// FailFast aborts the whole run on the first entity whose inverse
	// cannot be computed. The default skips the entity, logs the failure,
	// and keeps streaming.
	FailFast bool

	// StrictVersions is passed through to history validation.
	StrictVersions bool

	// Logger receives per-entity skip reports. Nil means slog.Default().
	Logger *slog.Logger
}

// Summary reports what one iteration pass produced.
type Summary struct {
	Written int // inverse records appended to the sink
	Skipped int // entities skipped because their inverse failed
}

// Iterate streams every cached entity through the inverse calculator and
// appends one JSON-serialized inverse record per line to sink. Entries are
// processed one at a time; memory use does not grow with the cache size.
//
// Sink write errors always abort: losing output lines silently would make
// the emitted stream unusable for replay.
func Iterate(ctx context.Context, store *cache.Store, sink io.Writer, opts IterateOptions) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	revertOpts := revert.Options{StrictVersions: opts.StrictVersions}

	sc, err := store.ScanAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer sc.Close()

	enc := json.NewEncoder(sink)
	enc.SetEscapeHTML(false)

	var sum Summary
	for sc.Next() {
		entry, err := sc.Entry()
		if err != nil {
			return sum, err
		}

		inv, err := revert.Invert(feature.Unwrap(entry.History), entry.Version, revertOpts)
		if err != nil {
			if opts.FailFast {
				return sum, fmt.Errorf("invert entity %d: %w", entry.ID, err)
			}
			log.Warn("skipping entity", "entity", entry.ID, "version", entry.Version, "reason", err)
			sum.Skipped++
			continue
		}

		// Encode writes the record and a trailing newline: one line per entity.
		if err := enc.Encode(inv); err != nil {
			return sum, fmt.Errorf("write inverse for entity %d: %w", entry.ID, err)
		}
		sum.Written++
	}
	if err := sc.Err(); err != nil {
		return sum, err
	}

	return sum, nil
}
