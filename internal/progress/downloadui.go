package progress

import (
	"os"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// IsTerminal reports whether stderr is attached to a terminal. Progress bars
// degrade to plain logs when it is not.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// DownloadUI renders one mpb progress bar per in-flight download. The API
// client reports byte progress through Callback; bars are keyed by the
// download's display name.
type DownloadUI struct {
	mu   sync.Mutex
	prog *mpb.Progress
	bars map[string]*mpb.Bar
}

// NewDownloadUI creates a download progress display writing to stderr.
func NewDownloadUI() *DownloadUI {
	return &DownloadUI{
		prog: mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(48)),
		bars: make(map[string]*mpb.Bar),
	}
}

// Callback returns a transport progress function. read == total marks the
// bar complete; a bar is created lazily on the first report for a name.
func (ui *DownloadUI) Callback() func(name string, read, total int64) {
	return func(name string, read, total int64) {
		ui.mu.Lock()
		bar, ok := ui.bars[name]
		if !ok {
			bar = ui.prog.AddBar(total,
				mpb.PrependDecorators(
					decor.Name(name, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
					decor.CountersKibiByte("% .1f / % .1f"),
				),
				mpb.AppendDecorators(decor.Percentage()),
				mpb.BarRemoveOnComplete(),
			)
			ui.bars[name] = bar
		}
		ui.mu.Unlock()

		bar.SetCurrent(read)
	}
}

// Abandon marks the bar for name as aborted after a failed download.
func (ui *DownloadUI) Abandon(name string) {
	ui.mu.Lock()
	bar, ok := ui.bars[name]
	ui.mu.Unlock()
	if ok {
		bar.Abort(true)
	}
}

// Wait blocks until all bars have completed or aborted.
func (ui *DownloadUI) Wait() {
	ui.prog.Wait()
}
