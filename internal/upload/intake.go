// Package upload turns a batch of submitted files into playlist tracks.
package upload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cwhit/musicvault/internal/playlist"
)

const mp3MimeType = "audio/mpeg"

// Uploader persists raw file bytes and returns the stored file path.
// Both the remote and the fallback stores satisfy it.
type Uploader interface {
	Prepare(ctx context.Context, fileName string, r io.Reader, size int64, contentType string) (string, error)
}

// Appender is the slice of the playlist machine the intake needs.
type Appender interface {
	Append(ctx context.Context, track playlist.Track) (playlist.Track, error)
}

// File is one submitted file from a multipart form.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Result reports the outcome for one accepted file.
type Result struct {
	Name  string
	Track playlist.Track
	Err   error
}

// Intake filters and ingests uploaded files one at a time.
type Intake struct {
	uploader Uploader
	appender Appender
	logger   *log.Logger
}

func NewIntake(uploader Uploader, appender Appender, logger *log.Logger) *Intake {
	return &Intake{uploader: uploader, appender: appender, logger: logger.With("component", "upload")}
}

// accepted reports whether a file looks like an MP3. Anything else is
// dropped without an error, so mixed selections still go through.
func accepted(f File) bool {
	return f.ContentType == mp3MimeType || strings.HasSuffix(strings.ToLower(f.Name), ".mp3")
}

// Ingest processes the batch sequentially. Non-MP3 files are skipped
// entirely; accepted files that fail to store or append get a Result
// with Err set and the batch continues.
func (in *Intake) Ingest(ctx context.Context, files []File) []Result {
	var results []Result
	for _, f := range files {
		if !accepted(f) {
			in.logger.Debug("skipping non-mp3 file", "name", f.Name, "type", f.ContentType)
			continue
		}
		results = append(results, in.ingestOne(ctx, f))
	}
	return results
}

func (in *Intake) ingestOne(ctx context.Context, f File) Result {
	r, err := f.Open()
	if err != nil {
		return Result{Name: f.Name, Err: fmt.Errorf("open %s: %w", f.Name, err)}
	}
	defer r.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = mp3MimeType
	}

	path, err := in.uploader.Prepare(ctx, f.Name, r, f.Size, contentType)
	if err != nil {
		return Result{Name: f.Name, Err: fmt.Errorf("store %s: %w", f.Name, err)}
	}

	track := playlist.Track{
		Title:    strings.TrimSuffix(f.Name, ".mp3"),
		FileName: f.Name,
		FilePath: path,
		Duration: 0,
		FileSize: f.Size,
		MimeType: contentType,
	}
	track, err = in.appender.Append(ctx, track)
	if err != nil {
		return Result{Name: f.Name, Err: fmt.Errorf("append %s: %w", f.Name, err)}
	}
	in.logger.Info("ingested track", "title", track.Title, "position", track.Position)
	return Result{Name: f.Name, Track: track}
}
