package driver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shadec/internal/observ"
)

// FileResult is the outcome of one manifest of a batch. Err is set when the
// manifest could not be loaded or checked at all.
type FileResult struct {
	Path   string
	Report *Report
	Err    error
}

// CheckFiles loads and checks every manifest in paths, in order, reporting
// progress to sink. Per-file failures land in the results; the returned
// error is only for cancellation.
func CheckFiles(ctx context.Context, paths []string, opts Options, sink ProgressSink) ([]FileResult, error) {
	for _, p := range paths {
		emit(sink, Event{File: p, Phase: PhaseLoad, State: StateQueued})
	}
	out := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			emit(sink, Event{Phase: PhaseResolve, State: StateError, Err: err})
			return out, err
		}
		start := time.Now()
		res := FileResult{Path: p}

		emit(sink, Event{File: p, Phase: PhaseLoad, State: StateWorking})
		m, err := LoadManifest(p)
		if err != nil {
			res.Err = err
			emit(sink, Event{File: p, Phase: PhaseLoad, State: StateError, Err: err, Elapsed: time.Since(start)})
			out = append(out, res)
			continue
		}

		emit(sink, Event{File: p, Phase: PhaseResolve, State: StateWorking})
		fileOpts := opts
		if len(paths) > 1 || fileOpts.Timer == nil {
			fileOpts.Timer = observ.NewTimer()
		}
		res.Report, res.Err = Check(ctx, m, fileOpts)
		state := StateDone
		if res.Err != nil || res.Report.HasErrors() {
			state = StateError
		}
		emit(sink, Event{File: p, Phase: PhaseResolve, State: state, Err: res.Err, Elapsed: time.Since(start)})
		if res.Err != nil {
			Logger().Warn("manifest failed", zap.String("manifest", p), zap.Error(res.Err))
			if ctx.Err() != nil {
				return append(out, res), ctx.Err()
			}
		}
		out = append(out, res)
	}
	emit(sink, Event{Phase: PhaseResolve, State: StateDone})
	return out, nil
}
