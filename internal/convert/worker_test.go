package convert

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Gradipoo/tui-jxl-converter/internal/debuglog"
)

// fakeRunner scripts external-process outcomes so tests need no cjxl binary.
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	handle func(name string, args []string) RunResult
}

func (f *fakeRunner) Run(name string, args ...string) RunResult {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	return f.handle(name, args)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRunner) call(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func writeBytes(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testLogger(t *testing.T) *debuglog.Logger {
	t.Helper()
	return debuglog.New(filepath.Join(t.TempDir(), "debug.txt"))
}

func newTestWorker(t *testing.T, runner Runner, cjxl, magick string) (*Worker, chan Update) {
	t.Helper()
	updates := make(chan Update, 32)
	w := newWorker(NewQueue(), updates, runner, testLogger(t), cjxl, magick)
	w.tempDir = t.TempDir()
	return w, updates
}

func collect(updates chan Update) []Update {
	var out []Update
	for {
		select {
		case u := <-updates:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestLosslessFallbackToQuality(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.jpg")
	target := filepath.Join(dir, "a.jxl")
	writeBytes(t, input, 512000)

	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		if hasArg(args, "--lossless_jpeg") && hasArg(args, "1") {
			return RunResult{Err: errors.New("exit status 1"), Stderr: "JPEG bitstream reconstruction data could not be created\n"}
		}
		writeBytes(t, args[1], 312000)
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: target, Quality: 90, Effort: 7})

	got := collect(updates)
	if len(got) != 2 || got[0].Status != StatusConverting || got[1].Status != StatusSuccess {
		t.Fatalf("updates: %+v", got)
	}
	if got[1].SizeBefore != 512000 || got[1].SizeAfter != 312000 {
		t.Fatalf("sizes: %+v", got[1])
	}

	if runner.callCount() != 2 {
		t.Fatalf("want lossless attempt plus fallback, got %d calls", runner.callCount())
	}
	fallback := runner.call(1)
	if !hasArg(fallback, "-q") || !hasArg(fallback, "90") {
		t.Fatalf("fallback must carry the configured quality: %v", fallback)
	}
	if hasArg(fallback, "--lossless_jpeg") {
		t.Fatalf("JPEG fallback keeps the plain quality command: %v", fallback)
	}
	if !hasArg(fallback, "--effort") || !hasArg(fallback, "7") {
		t.Fatalf("fallback must carry effort: %v", fallback)
	}

	// Original is kept when delete-originals is off.
	if _, err := os.Stat(input); err != nil {
		t.Fatalf("input removed without delete-originals: %v", err)
	}
}

func TestNonJPEGDisablesLossless(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pic.png")
	writeBytes(t, input, 1000)

	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		writeBytes(t, args[1], 400)
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 3, InputPath: input, TargetPath: filepath.Join(dir, "pic.jxl"), Quality: 80, Effort: 5})

	if runner.callCount() != 1 {
		t.Fatalf("non-JPEG input must encode in one call, got %d", runner.callCount())
	}
	args := runner.call(0)
	if !hasArg(args, "--lossless_jpeg") || !hasArg(args, "0") {
		t.Fatalf("lossless path must be explicitly disabled: %v", args)
	}
	got := collect(updates)
	if got[len(got)-1].Status != StatusSuccess {
		t.Fatalf("updates: %+v", got)
	}
}

func TestEncodeFailureReportsLastStderrLine(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pic.png")
	target := filepath.Join(dir, "pic.jxl")
	writeBytes(t, input, 1000)

	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		// Simulate a partial output left behind by the failed encoder.
		writeBytes(t, args[1], 12)
		return RunResult{Err: errors.New("exit status 1"), Stderr: "warning: something\nfailed to decode input\n"}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: target, Quality: 90, Effort: 7})

	got := collect(updates)
	final := got[len(got)-1]
	if final.Status != StatusFailed || final.Message != "failed to decode input" {
		t.Fatalf("final update: %+v", final)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("partial output must be removed on failure")
	}
}

func TestEncodeFailureGenericMessage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pic.gif")
	writeBytes(t, input, 100)

	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		return RunResult{Err: errors.New("exit status 2")}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: filepath.Join(dir, "pic.jxl"), Quality: 90, Effort: 7})

	got := collect(updates)
	if final := got[len(got)-1]; final.Message != "cjxl error" {
		t.Fatalf("want generic fallback message, got %q", final.Message)
	}
}

func TestSanitizeTaskCleansUpTempFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.jpg")
	writeBytes(t, input, 2000)

	var tempSeen string
	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		if name == "magick" {
			tempSeen = args[len(args)-1]
			writeBytes(t, tempSeen, 1500)
			return RunResult{}
		}
		// Sanitize retries must feed the intermediate file to cjxl and
		// disable the lossless path even for JPEG inputs.
		if args[0] != tempSeen {
			t.Errorf("cjxl source = %q, want sanitized temp %q", args[0], tempSeen)
		}
		if !hasArg(args, "--lossless_jpeg") || !hasArg(args, "0") {
			t.Errorf("sanitize retry must disable lossless: %v", args)
		}
		writeBytes(t, args[1], 900)
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "magick")
	w.process(Task{Index: 7, InputPath: input, TargetPath: filepath.Join(dir, "bad.jxl"), Sanitize: true, Quality: 90, Effort: 7})

	got := collect(updates)
	if len(got) != 3 || got[0].Status != StatusSanitizing || got[1].Status != StatusConverting || got[2].Status != StatusSuccess {
		t.Fatalf("updates: %+v", got)
	}
	if tempSeen == "" {
		t.Fatal("sanitizer was never invoked")
	}
	if !strings.Contains(filepath.Base(tempSeen), "7") {
		t.Fatalf("temp name must embed the task index: %q", tempSeen)
	}
	if _, err := os.Stat(tempSeen); !os.IsNotExist(err) {
		t.Fatal("temp file must not survive the task")
	}
}

func TestSanitizeFailureCleansUpTempFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.png")
	writeBytes(t, input, 2000)

	var tempSeen string
	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		tempSeen = args[len(args)-1]
		writeBytes(t, tempSeen, 10)
		return RunResult{Err: errors.New("exit status 1"), Stderr: "magick: corrupt image\n"}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "magick")
	w.process(Task{Index: 0, InputPath: input, TargetPath: filepath.Join(dir, "bad.jxl"), Sanitize: true, Quality: 90, Effort: 7})

	got := collect(updates)
	final := got[len(got)-1]
	if final.Status != StatusFailed || final.Message != "Sanitize failed" {
		t.Fatalf("final update: %+v", final)
	}
	if _, err := os.Stat(tempSeen); !os.IsNotExist(err) {
		t.Fatal("temp file must be removed after a failed sanitize")
	}
	if runner.callCount() != 1 {
		t.Fatal("encoder must not run after a failed sanitize")
	}
}

func TestSanitizeWithoutImageMagick(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.png")
	writeBytes(t, input, 100)

	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		t.Error("no process should run when ImageMagick is missing")
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: filepath.Join(dir, "bad.jxl"), Sanitize: true, Quality: 90, Effort: 7})

	got := collect(updates)
	final := got[len(got)-1]
	if final.Status != StatusFailed || final.Message != "ImageMagick not found" {
		t.Fatalf("final update: %+v", final)
	}
}

func TestDeleteOriginalOnSuccess(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pic.png")
	writeBytes(t, input, 1000)

	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		writeBytes(t, args[1], 500)
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: filepath.Join(dir, "pic.jxl"), Quality: 90, Effort: 7, DeleteOriginal: true})

	got := collect(updates)
	if got[len(got)-1].Status != StatusSuccess {
		t.Fatalf("updates: %+v", got)
	}
	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Fatal("original must be deleted when the toggle is on")
	}
}

func TestSourceVanishedRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pic.png")
	target := filepath.Join(dir, "pic.jxl")
	writeBytes(t, input, 1000)

	// Encoder succeeds, but the source disappears before the worker can
	// stat it for the size report.
	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		writeBytes(t, args[1], 500)
		if err := os.Remove(input); err != nil {
			t.Fatal(err)
		}
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: target, Quality: 90, Effort: 7})

	got := collect(updates)
	final := got[len(got)-1]
	if final.Status != StatusFailed || final.Message != "source vanished during conversion" {
		t.Fatalf("final update: %+v", final)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("output must not survive a failed task")
	}
}

func TestWorkerSurvivesPanic(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pic.png")
	writeBytes(t, input, 100)

	boom := true
	runner := &fakeRunner{handle: func(name string, args []string) RunResult {
		if boom {
			boom = false
			panic("runner exploded")
		}
		writeBytes(t, args[1], 50)
		return RunResult{}
	}}

	w, updates := newTestWorker(t, runner, "cjxl", "")
	w.process(Task{Index: 0, InputPath: input, TargetPath: filepath.Join(dir, "a.jxl"), Quality: 90, Effort: 7})
	w.process(Task{Index: 1, InputPath: input, TargetPath: filepath.Join(dir, "b.jxl"), Quality: 90, Effort: 7})

	got := collect(updates)
	if len(got) < 3 {
		t.Fatalf("updates: %+v", got)
	}
	crash := got[1]
	if crash.Status != StatusFailed || !strings.Contains(crash.Message, "worker crash") {
		t.Fatalf("panic must surface as FAILED: %+v", crash)
	}
	if got[len(got)-1].Status != StatusSuccess {
		t.Fatalf("worker must keep processing after a panic: %+v", got)
	}
}
