package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/openplace/launchpad/internal/download"
)

// progressPrinter renders download progress on a single terminal line.
type progressPrinter struct {
	out     io.Writer
	lastLen int
}

func (p *progressPrinter) update(info download.ProgressInfo) {
	if info.IsRetrying {
		p.clear()
		color.New(color.FgYellow).Fprintf(p.out, "Retry %d: %s\n", info.RetryCount, info.RetryReason)
		return
	}

	var line string
	if info.Total > 0 {
		line = fmt.Sprintf("Downloading  %5.1f%%  %s / %s  (%.2f MB/s)",
			info.Percentage,
			humanize.Bytes(uint64(info.Downloaded)),
			humanize.Bytes(uint64(info.Total)),
			info.Speed)
	} else {
		line = fmt.Sprintf("Downloading  %s  (%.2f MB/s)",
			humanize.Bytes(uint64(info.Downloaded)), info.Speed)
	}

	pad := p.lastLen - len(line)
	fmt.Fprintf(p.out, "\r%s", line)
	for i := 0; i < pad; i++ {
		fmt.Fprint(p.out, " ")
	}
	p.lastLen = len(line)
}

func (p *progressPrinter) clear() {
	if p.lastLen > 0 {
		fmt.Fprintf(p.out, "\r%*s\r", p.lastLen, "")
		p.lastLen = 0
	}
}

// finish terminates the in-place line so following output starts clean.
func (p *progressPrinter) finish() {
	if p.lastLen > 0 {
		fmt.Fprintln(p.out)
		p.lastLen = 0
	}
}

// progressRenderer decouples terminal painting from the transfer hot path:
// the engine pushes into a bounded sink and a drain goroutine paints at
// whatever pace the terminal sustains, shedding samples when it lags.
type progressRenderer struct {
	sink    *download.Sink
	printer *progressPrinter
	done    chan struct{}
}

func startProgressRenderer() *progressRenderer {
	return startProgressRendererTo(os.Stdout)
}

func startProgressRendererTo(out io.Writer) *progressRenderer {
	r := &progressRenderer{
		sink:    download.NewSink(64),
		printer: &progressPrinter{out: out},
		done:    make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for info := range r.sink.Samples() {
			r.printer.update(info)
		}
	}()
	return r
}

// callback is what the download manager invokes; it never blocks.
func (r *progressRenderer) callback() download.ProgressFunc {
	return r.sink.Callback()
}

// stop closes the sink, waits for the drain goroutine to paint the backlog
// and terminates the in-place line.
func (r *progressRenderer) stop() {
	r.sink.Close()
	<-r.done
	r.printer.finish()
}
