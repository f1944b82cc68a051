package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/hlzconv/internal/convert"
	"github.com/dgallion1/hlzconv/internal/failure"
)

// Archiver persists the reports of a finished conversion.
type Archiver interface {
	Save(ctx context.Context, rec ArchiveRecord) error
}

// ArchiveRecord is what gets archived for one job.
type ArchiveRecord struct {
	JobID       string
	Filename    string
	ContentHash string
	Result      *convert.Result
}

// Worker processes a single conversion job.
type Worker struct {
	opts    convert.Options
	archive Archiver
	log     *slog.Logger
}

func NewWorker(opts convert.Options, archive Archiver, log *slog.Logger) *Worker {
	return &Worker{opts: opts, archive: archive, log: log}
}

// Process converts the job's document and records the outcome on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusConverting, "converting")
	opts := w.opts
	opts.Logger = log
	res, err := convert.Convert(ctx, job.FileData(), job.Filename, opts)
	if err != nil {
		if kind := failure.KindOf(err); kind != "" {
			log.Error("conversion failed", "kind", kind, "error", err)
		} else {
			log.Error("conversion aborted", "error", err)
		}
		job.Fail(err, "converting")
		return
	}
	job.SetResult(res)

	if w.archive != nil {
		job.SetStatus(StatusArchiving, "archiving")
		err := w.archive.Save(ctx, ArchiveRecord{
			JobID:       job.ID,
			Filename:    job.Filename,
			ContentHash: job.ContentHash,
			Result:      res,
		})
		if err != nil {
			// The bundle is still downloadable; only the archive copy is lost.
			log.Warn("archive failed", "error", err)
			job.AddError("archive: " + err.Error())
		}
	}

	job.SetStatus(StatusCompleted, "done")
}
