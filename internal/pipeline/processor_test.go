package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"solea/internal/layout"
	"solea/internal/logging"
	"solea/internal/manifest"
	"solea/internal/media/audio"
	"solea/internal/metrics"
	"solea/internal/notes"
	"solea/internal/pipeline"
	"solea/internal/services"
)

type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (d *fakeDownloader) Download(_ context.Context, remoteID, dir string) (string, error) {
	d.mu.Lock()
	d.calls = append(d.calls, remoteID)
	d.mu.Unlock()
	if d.fail[remoteID] {
		return "", services.Wrap(services.ErrDownload, "download", "fetch", remoteID, errors.New("video unavailable"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, remoteID+".flac")
	return path, os.WriteFile(path, []byte("full song"), 0o644)
}

func (d *fakeDownloader) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type encodeCall struct {
	path   string
	rate   int
	frames int
}

type fakeCodec struct {
	mu         sync.Mutex
	track      audio.Track
	decodeErr  error
	// failOnCall makes the n-th Encode call (1-based) fail.
	failOnCall int
	decoded    []string
	encoded    []encodeCall
}

func (c *fakeCodec) Decode(_ context.Context, path string) (audio.Track, error) {
	c.mu.Lock()
	c.decoded = append(c.decoded, path)
	c.mu.Unlock()
	if c.decodeErr != nil {
		return audio.Track{}, c.decodeErr
	}
	if _, err := os.Stat(path); err != nil {
		return audio.Track{}, err
	}
	return c.track, nil
}

func (c *fakeCodec) Encode(_ context.Context, path string, track audio.Track) error {
	c.mu.Lock()
	c.encoded = append(c.encoded, encodeCall{path: path, rate: track.Rate, frames: track.Frames()})
	n := len(c.encoded)
	c.mu.Unlock()
	if c.failOnCall == n {
		return errors.New("encoder crashed")
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("rate=%d frames=%d", track.Rate, track.Frames())), 0o644)
}

func monoTrack(rate int, seconds float64) audio.Track {
	return audio.Track{Rate: rate, Channels: 1, Samples: make([]float32, int(float64(rate)*seconds))}
}

func record(song, remote, chunk string, start, end float64) manifest.Record {
	return manifest.Record{
		SongID:   manifest.ID(song),
		RemoteID: manifest.ID(remote),
		ChunkID:  manifest.ID(chunk),
		Start:    start,
		End:      end,
		Notes:    []manifest.NoteEvent{{start + 0.1, start + 0.5, 60}},
	}
}

func group(song, remote string, records ...manifest.Record) manifest.Group {
	return manifest.Group{SongID: song, RemoteID: remote, Records: records}
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			tree[rel+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return tree
}

func newProcessor(root string, overwrite bool, dl pipeline.Downloader, codec pipeline.Codec) *pipeline.Processor {
	return pipeline.NewProcessor(pipeline.Options{Root: root, SampleRate: 16000, Overwrite: overwrite}, dl, codec, logging.NewNop())
}

func TestScenarioResamplesAndSlices(t *testing.T) {
	root := t.TempDir()
	dl := &fakeDownloader{}
	codec := &fakeCodec{track: monoTrack(44100, 4)}
	proc := newProcessor(root, false, dl, codec)

	g := group("song", "YT123", record("song", "YT123", "0", 0, 2), record("song", "YT123", "1", 2, 4))
	outcome := proc.ProcessGroup(context.Background(), g)

	if outcome.Status != pipeline.StatusSucceeded {
		t.Fatalf("unexpected status %s: %v", outcome.Status, outcome.Err)
	}
	if !outcome.Downloaded || outcome.ChunksWritten != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(codec.encoded) != 2 {
		t.Fatalf("expected 2 encodes, got %d", len(codec.encoded))
	}
	for _, call := range codec.encoded {
		if call.rate != 16000 || call.frames != 32000 {
			t.Fatalf("unexpected chunk %+v", call)
		}
	}
	for _, chunk := range []string{"0", "1"} {
		if _, err := os.Stat(layout.AudioPath(root, "song", chunk)); err != nil {
			t.Fatalf("chunk %s audio missing: %v", chunk, err)
		}
		events, err := notes.Read(layout.NotesPath(root, "song", chunk))
		if err != nil || len(events) != 1 || events[0].Pitch != 60 {
			t.Fatalf("chunk %s notes = %+v err=%v", chunk, events, err)
		}
	}
	if _, err := os.Stat(layout.TransientPath(root, "song", "YT123")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected transient audio removed, stat err=%v", err)
	}
}

func TestDownloadFailureCreatesNoChunks(t *testing.T) {
	root := t.TempDir()
	dl := &fakeDownloader{fail: map[string]bool{"BAD": true}}
	codec := &fakeCodec{track: monoTrack(16000, 2)}
	proc := newProcessor(root, false, dl, codec)

	summary, err := proc.Run(context.Background(), []manifest.Group{
		group("broken", "BAD", record("broken", "BAD", "0", 0, 1), record("broken", "BAD", "1", 1, 2)),
		group("fine", "GOOD", record("fine", "GOOD", "0", 0, 1)),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	first := summary.Outcomes[0]
	if first.Status != pipeline.StatusDownloadFailed || !errors.Is(first.Err, services.ErrDownload) {
		t.Fatalf("unexpected first outcome: %+v", first)
	}
	for _, chunk := range []string{"0", "1"} {
		if _, err := os.Stat(layout.ChunkDir(root, "broken", chunk)); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("chunk dir %s should not exist", chunk)
		}
	}
	if summary.Outcomes[1].Status != pipeline.StatusSucceeded {
		t.Fatalf("second group should continue, got %+v", summary.Outcomes[1])
	}
	if len(summary.Failures()) != 1 {
		t.Fatalf("expected one failure, got %d", len(summary.Failures()))
	}
}

func TestExistingChunkUntouchedWithoutOverwrite(t *testing.T) {
	root := t.TempDir()
	existing := layout.ChunkDir(root, "song", "0")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sentinel := filepath.Join(existing, layout.AudioFile)
	if err := os.WriteFile(sentinel, []byte("original"), 0o644); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}

	codec := &fakeCodec{track: monoTrack(16000, 4)}
	proc := newProcessor(root, false, &fakeDownloader{}, codec)
	outcome := proc.ProcessGroup(context.Background(),
		group("song", "YT", record("song", "YT", "0", 0, 2), record("song", "YT", "1", 2, 4)))

	if outcome.Status != pipeline.StatusSucceeded || outcome.ChunksSkipped != 1 || outcome.ChunksWritten != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	data, _ := os.ReadFile(sentinel)
	if string(data) != "original" {
		t.Fatalf("existing chunk modified: %q", data)
	}
	if _, err := os.Stat(filepath.Join(existing, notes.FileName)); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("existing chunk gained a notes file")
	}
}

func TestAllChunksPresentSkipsDownload(t *testing.T) {
	root := t.TempDir()
	for _, chunk := range []string{"0", "1"} {
		if err := os.MkdirAll(layout.ChunkDir(root, "song", chunk), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	dl := &fakeDownloader{}
	proc := newProcessor(root, false, dl, &fakeCodec{})
	outcome := proc.ProcessGroup(context.Background(),
		group("song", "YT", record("song", "YT", "0", 0, 1), record("song", "YT", "1", 1, 2)))

	if outcome.Status != pipeline.StatusSkipped || outcome.ChunksSkipped != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if dl.callCount() != 0 {
		t.Fatalf("expected no downloads, got %d", dl.callCount())
	}
}

func TestOverwriteRewritesBothFiles(t *testing.T) {
	root := t.TempDir()
	dir := layout.ChunkDir(root, "song", "0")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{layout.AudioFile, notes.FileName} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stale"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	dl := &fakeDownloader{}
	proc := newProcessor(root, true, dl, &fakeCodec{track: monoTrack(16000, 2)})
	outcome := proc.ProcessGroup(context.Background(), group("song", "YT", record("song", "YT", "0", 0, 1)))

	if outcome.Status != pipeline.StatusSucceeded || outcome.ChunksWritten != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if dl.callCount() != 1 {
		t.Fatalf("expected a download with overwrite on, got %d", dl.callCount())
	}
	for _, name := range []string{layout.AudioFile, notes.FileName} {
		data, _ := os.ReadFile(filepath.Join(dir, name))
		if string(data) == "stale" {
			t.Fatalf("%s was not rewritten", name)
		}
	}
}

func TestFailedOverwriteKeepsExistingChunk(t *testing.T) {
	root := t.TempDir()
	dir := layout.ChunkDir(root, "song", "0")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{layout.AudioFile, notes.FileName} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("previous run"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	before := snapshot(t, root)

	codec := &fakeCodec{track: monoTrack(16000, 2), failOnCall: 1}
	proc := newProcessor(root, true, &fakeDownloader{}, codec)
	outcome := proc.ProcessGroup(context.Background(), group("song", "YT", record("song", "YT", "0", 0, 1)))

	if outcome.Status != pipeline.StatusProcessingFailed || outcome.FailedChunk != "0" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	after := snapshot(t, root)
	if len(after) != len(before) {
		t.Fatalf("tree changed after failed overwrite:\nbefore %v\nafter  %v", before, after)
	}
	for path, data := range before {
		if after[path] != data {
			t.Fatalf("%s changed after failed overwrite: %q", path, after[path])
		}
	}
}

func TestProcessingFailureStopsGroupAndCleansUp(t *testing.T) {
	root := t.TempDir()
	codec := &fakeCodec{track: monoTrack(16000, 6), failOnCall: 2}
	proc := newProcessor(root, false, &fakeDownloader{}, codec)

	outcome := proc.ProcessGroup(context.Background(), group("song", "YT",
		record("song", "YT", "0", 0, 2),
		record("song", "YT", "1", 2, 4),
		record("song", "YT", "2", 4, 6),
	))

	if outcome.Status != pipeline.StatusProcessingFailed || outcome.FailedChunk != "1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.ChunksWritten != 1 {
		t.Fatalf("expected first chunk written, got %d", outcome.ChunksWritten)
	}
	if _, err := os.Stat(layout.ChunkDir(root, "song", "1")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("failed chunk directory should not exist")
	}
	if _, err := os.Stat(layout.StagingDir(root, "song", "1")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("staging directory should be removed after failure")
	}
	if _, err := os.Stat(layout.ChunkDir(root, "song", "2")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("chunks after the failure should not be attempted")
	}
	if _, err := os.Stat(layout.TransientPath(root, "song", "YT")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("transient audio should be removed after failure")
	}
}

func TestDecodeFailureRemovesTransient(t *testing.T) {
	root := t.TempDir()
	codec := &fakeCodec{decodeErr: errors.New("invalid data found")}
	proc := newProcessor(root, false, &fakeDownloader{}, codec)

	outcome := proc.ProcessGroup(context.Background(), group("song", "YT", record("song", "YT", "0", 0, 1)))
	if outcome.Status != pipeline.StatusProcessingFailed || !errors.Is(outcome.Err, services.ErrDecode) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if _, err := os.Stat(layout.TransientPath(root, "song", "YT")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("transient audio should be removed after decode failure")
	}
}

func TestExistingTransientIsUsedWithoutDownload(t *testing.T) {
	root := t.TempDir()
	transient := layout.TransientPath(root, "song", "YT")
	if err := os.MkdirAll(filepath.Dir(transient), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(transient, []byte("cached"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	dl := &fakeDownloader{}
	codec := &fakeCodec{track: monoTrack(16000, 1)}
	proc := newProcessor(root, false, dl, codec)

	outcome := proc.ProcessGroup(context.Background(), group("song", "YT", record("song", "YT", "0", 0, 1)))
	if outcome.Status != pipeline.StatusSucceeded || outcome.Downloaded {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if dl.callCount() != 0 {
		t.Fatal("downloader should not run when full audio is present")
	}
	if len(codec.decoded) != 1 || codec.decoded[0] != transient {
		t.Fatalf("unexpected decode paths: %v", codec.decoded)
	}
	if _, err := os.Stat(transient); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("transient audio should be removed")
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	root := t.TempDir()
	groups := []manifest.Group{
		group("a", "YA", record("a", "YA", "0", 0, 1), record("a", "YA", "1", 1, 2)),
		group("b", "YB", record("b", "YB", "x", 0.5, 1.5)),
	}
	dl := &fakeDownloader{}
	codec := &fakeCodec{track: monoTrack(22050, 2)}

	if _, err := newProcessor(root, false, dl, codec).Run(context.Background(), groups); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := snapshot(t, root)

	summary, err := newProcessor(root, false, dl, codec).Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := snapshot(t, root)

	if len(first) != len(second) {
		t.Fatalf("tree changed: %d vs %d entries", len(first), len(second))
	}
	for path, content := range first {
		if second[path] != content {
			t.Fatalf("entry %s changed", path)
		}
	}
	if summary.Count(pipeline.StatusSkipped) != 2 {
		t.Fatalf("expected both groups skipped on rerun, got %+v", summary.Outcomes)
	}
	if dl.callCount() != 2 {
		t.Fatalf("expected downloads only on the first run, got %d", dl.callCount())
	}
}

func TestRunParallelKeepsOrder(t *testing.T) {
	root := t.TempDir()
	var groups []manifest.Group
	for i := 0; i < 6; i++ {
		song := fmt.Sprintf("song%d", i)
		remote := fmt.Sprintf("R%d", i)
		groups = append(groups, group(song, remote, record(song, remote, "0", 0, 1)))
	}
	dl := &fakeDownloader{fail: map[string]bool{"R3": true}}
	codec := &fakeCodec{track: monoTrack(16000, 1)}
	proc := pipeline.NewProcessor(pipeline.Options{Root: root, SampleRate: 16000, Workers: 3}, dl, codec, nil)
	recorder := metrics.NewRecorder()
	proc.WithMetrics(recorder)
	var done []string
	proc.OnGroupDone(func(o pipeline.Outcome) { done = append(done, o.SongID) })

	summary, err := proc.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, o := range summary.Outcomes {
		if o.SongID != groups[i].SongID {
			t.Fatalf("outcome %d is %s, want %s", i, o.SongID, groups[i].SongID)
		}
	}
	if len(done) != 6 {
		t.Fatalf("expected 6 progress callbacks, got %d", len(done))
	}
	if summary.Count(pipeline.StatusSucceeded) != 5 || summary.Count(pipeline.StatusDownloadFailed) != 1 {
		t.Fatalf("unexpected counts: %+v", summary.Outcomes)
	}
	if written, _ := summary.Chunks(); written != 5 {
		t.Fatalf("expected 5 chunks written, got %d", written)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dl := &fakeDownloader{}
	proc := newProcessor(t.TempDir(), false, dl, &fakeCodec{})

	summary, err := proc.Run(ctx, []manifest.Group{group("a", "YA", record("a", "YA", "0", 0, 1))})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Outcomes[0].Status != pipeline.StatusCancelled {
		t.Fatalf("unexpected status %s", summary.Outcomes[0].Status)
	}
	if dl.callCount() != 0 {
		t.Fatal("no downloads expected after cancellation")
	}
}

func TestResamplerOverride(t *testing.T) {
	root := t.TempDir()
	codec := &fakeCodec{track: monoTrack(8000, 1)}
	proc := newProcessor(root, false, &fakeDownloader{}, codec)
	var calls int
	proc.WithResampler(func(track audio.Track, rate int) audio.Track {
		calls++
		return audio.Track{Rate: rate, Channels: 1, Samples: make([]float32, rate)}
	})
	outcome := proc.ProcessGroup(context.Background(), group("s", "Y", record("s", "Y", "0", 0, 1)))
	if outcome.Status != pipeline.StatusSucceeded || calls != 1 {
		t.Fatalf("outcome=%+v resample calls=%d", outcome, calls)
	}
	if codec.encoded[0].frames != 16000 {
		t.Fatalf("unexpected frames %d", codec.encoded[0].frames)
	}
}
