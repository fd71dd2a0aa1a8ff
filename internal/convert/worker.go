package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Gradipoo/tui-jxl-converter/internal/debuglog"
	"github.com/Gradipoo/tui-jxl-converter/pkg/imgutil"
)

// pollInterval bounds how long the worker waits on an empty queue before
// re-checking its stop flag. It is not a per-task timeout; external
// processes always run to completion.
const pollInterval = 100 * time.Millisecond

// Worker serially executes conversion tasks pulled from the queue and
// reports every outcome on the update channel. It is the only goroutine
// that touches the filesystem and the only producer on the channel.
type Worker struct {
	queue   *Queue
	updates chan<- Update
	stop    chan struct{}
	done    chan struct{}
	runner  Runner
	log     *debuglog.Logger
	tempDir string

	cjxlPath   string
	magickPath string
}

func newWorker(queue *Queue, updates chan<- Update, runner Runner, log *debuglog.Logger, cjxlPath, magickPath string) *Worker {
	return &Worker{
		queue:      queue,
		updates:    updates,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		runner:     runner,
		log:        log,
		tempDir:    os.TempDir(),
		cjxlPath:   cjxlPath,
		magickPath: magickPath,
	}
}

// Run is the worker loop. It exits only when the stop channel closes, and
// only between tasks.
func (w *Worker) Run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		task, ok := w.queue.Pop()
		if !ok {
			select {
			case <-w.stop:
				return
			case <-time.After(pollInterval):
			}
			continue
		}
		w.process(task)
	}
}

// Stop signals cancellation and waits for the worker to finish its current
// task, up to the given bound. Queued tasks are discarded.
func (w *Worker) Stop(wait time.Duration) {
	close(w.stop)
	select {
	case <-w.done:
	case <-time.After(wait):
	}
}

// process handles one task end to end. A panic anywhere inside is converted
// into a FAILED update so the worker loop survives.
func (w *Worker) process(task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Logf("worker panic on %s: %v", task.InputPath, r)
			w.emit(Update{Index: task.Index, Status: StatusFailed, Message: fmt.Sprintf("worker crash: %v", r)})
		}
	}()

	w.log.Logf("pulled task: idx=%d target=%s sanitize=%v", task.Index, filepath.Base(task.TargetPath), task.Sanitize)

	source := task.InputPath
	if task.Sanitize {
		cleaned, ok := w.sanitize(task)
		if !ok {
			return
		}
		defer os.Remove(cleaned)
		source = cleaned
	}

	w.emit(Update{Index: task.Index, Status: StatusConverting})

	result := w.encode(task, source)
	if result.OK() && exists(task.TargetPath) {
		w.finishSuccess(task)
		return
	}

	_ = os.Remove(task.TargetPath)
	msg := lastStderrLine(result.Stderr, "cjxl error")
	w.log.Logf("encode failed: idx=%d msg=%s", task.Index, msg)
	w.emit(Update{Index: task.Index, Status: StatusFailed, Message: msg})
}

// sanitize runs the ImageMagick strip pass and returns the intermediate
// file to feed the encoder. On any failure it reports FAILED itself, cleans
// up, and returns ok=false.
func (w *Worker) sanitize(task Task) (string, bool) {
	w.emit(Update{Index: task.Index, Status: StatusSanitizing})

	if w.magickPath == "" {
		w.emit(Update{Index: task.Index, Status: StatusFailed, Message: "ImageMagick not found"})
		return "", false
	}

	// Temp name embeds the task index so same-named inputs cannot collide.
	temp := filepath.Join(w.tempDir, fmt.Sprintf("sanitized-%d-%s.png", task.Index, imgutil.Stem(task.InputPath)))
	result := w.runner.Run(w.magickPath, task.InputPath, "-strip", temp)
	w.log.Logf("sanitize: idx=%d ok=%v stderr=%s", task.Index, result.OK(), lastStderrLine(result.Stderr, ""))

	if !result.OK() || !nonEmpty(temp) {
		_ = os.Remove(temp)
		w.emit(Update{Index: task.Index, Status: StatusFailed, Message: "Sanitize failed"})
		return "", false
	}
	return temp, true
}

// encode runs cjxl. Fresh JPEG batches try a lossless transcode first and
// fall back to a quality encode; everything else (including every sanitize
// retry) goes straight to quality with the lossless path switched off.
func (w *Worker) encode(task Task, source string) RunResult {
	base := []string{source, task.TargetPath, "--effort", strconv.Itoa(task.Effort)}

	if imgutil.JPEGFamily(task.InputPath) && !task.Sanitize {
		lossless := append(append([]string{}, base...), "--lossless_jpeg", "1", "--quiet")
		w.log.Logf("exec lossless: cjxl %v", lossless)
		result := w.runner.Run(w.cjxlPath, lossless...)
		if result.OK() {
			return result
		}
		w.log.Logf("lossless failed, falling back to quality: %s", lastStderrLine(result.Stderr, ""))
		quality := append(append([]string{}, base...), "-q", strconv.Itoa(task.Quality), "--quiet")
		return w.runner.Run(w.cjxlPath, quality...)
	}

	quality := append(append([]string{}, base...), "--lossless_jpeg", "0", "-q", strconv.Itoa(task.Quality), "--quiet")
	w.log.Logf("exec quality: cjxl %v", quality)
	return w.runner.Run(w.cjxlPath, quality...)
}

func (w *Worker) finishSuccess(task Task) {
	srcInfo, err := os.Stat(task.InputPath)
	if err != nil {
		_ = os.Remove(task.TargetPath)
		w.emit(Update{Index: task.Index, Status: StatusFailed, Message: "source vanished during conversion"})
		return
	}

	// Carry timestamps and permissions over to the output.
	_ = os.Chmod(task.TargetPath, srcInfo.Mode().Perm())
	_ = os.Chtimes(task.TargetPath, srcInfo.ModTime(), srcInfo.ModTime())

	outInfo, err := os.Stat(task.TargetPath)
	if err != nil {
		w.emit(Update{Index: task.Index, Status: StatusFailed, Message: "output vanished after conversion"})
		return
	}

	w.emit(Update{
		Index:      task.Index,
		Status:     StatusSuccess,
		SizeBefore: srcInfo.Size(),
		SizeAfter:  outInfo.Size(),
	})

	if task.DeleteOriginal {
		// Best effort; a leftover original is not a conversion failure.
		_ = os.Remove(task.InputPath)
	}
}

// emit sends one update without wedging shutdown: if the session is already
// stopping, the update is dropped along with the rest of the batch.
func (w *Worker) emit(u Update) {
	select {
	case w.updates <- u:
	case <-w.stop:
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func nonEmpty(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}
