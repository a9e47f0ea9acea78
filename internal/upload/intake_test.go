package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/cwhit/musicvault/internal/playlist"
)

type fakeUploader struct {
	prepared []string
	failOn   string
}

func (u *fakeUploader) Prepare(_ context.Context, fileName string, r io.Reader, _ int64, _ string) (string, error) {
	if fileName == u.failOn {
		return "", errors.New("bucket unavailable")
	}
	io.Copy(io.Discard, r)
	u.prepared = append(u.prepared, fileName)
	return "user-1/" + fileName, nil
}

type fakeAppender struct {
	tracks []playlist.Track
}

func (a *fakeAppender) Append(_ context.Context, track playlist.Track) (playlist.Track, error) {
	track.Position = len(a.tracks)
	a.tracks = append(a.tracks, track)
	return track, nil
}

func readable(name, contentType string) File {
	return File{
		Name:        name,
		Size:        4,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data")), nil
		},
	}
}

func TestIngestFiltersNonMP3(t *testing.T) {
	uploader := &fakeUploader{}
	appender := &fakeAppender{}
	in := NewIntake(uploader, appender, log.New(io.Discard))

	results := in.Ingest(context.Background(), []File{
		readable("valid.mp3", "audio/mpeg"),
		readable("invalid.txt", "text/plain"),
		readable("valid2.mp3", ""),
	})

	if len(results) != 2 {
		t.Fatalf("Ingest() returned %d results, want 2", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("Ingest() %s: unexpected error %v", res.Name, res.Err)
		}
	}
	if len(appender.tracks) != 2 {
		t.Fatalf("appended %d tracks, want 2", len(appender.tracks))
	}
	if got := appender.tracks[0].Title; got != "valid" {
		t.Errorf("track title = %q, want %q", got, "valid")
	}
	if got := appender.tracks[1].MimeType; got != "audio/mpeg" {
		t.Errorf("defaulted mime type = %q, want audio/mpeg", got)
	}
}

func TestIngestAcceptsByExtensionAlone(t *testing.T) {
	uploader := &fakeUploader{}
	appender := &fakeAppender{}
	in := NewIntake(uploader, appender, log.New(io.Discard))

	results := in.Ingest(context.Background(), []File{
		readable("Song.MP3", "application/octet-stream"),
	})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Ingest() = %+v, want one success", results)
	}
}

func TestIngestContinuesPastFailures(t *testing.T) {
	uploader := &fakeUploader{failOn: "bad.mp3"}
	appender := &fakeAppender{}
	in := NewIntake(uploader, appender, log.New(io.Discard))

	results := in.Ingest(context.Background(), []File{
		readable("good.mp3", "audio/mpeg"),
		readable("bad.mp3", "audio/mpeg"),
		readable("also-good.mp3", "audio/mpeg"),
	})

	if len(results) != 3 {
		t.Fatalf("Ingest() returned %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("surrounding files should succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("expected error for bad.mp3")
	}
	if len(appender.tracks) != 2 {
		t.Errorf("appended %d tracks, want 2", len(appender.tracks))
	}
	if appender.tracks[1].Position != 1 {
		t.Errorf("second track position = %d, want 1", appender.tracks[1].Position)
	}
}
