package main

import (
	"fmt"
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/moffa90/go-flexfx/programmer"
)

// progressView draws one mpb bar per transfer phase. Without bars, batch
// property records are echoed to echo as they are acknowledged.
type progressView struct {
	p    *mpb.Progress
	bars map[programmer.Phase]*mpb.Bar
	echo io.Writer
}

func newProgressView(out, echo io.Writer, enabled bool) *progressView {
	if !enabled {
		return &progressView{echo: echo}
	}
	return &progressView{
		p: mpb.New(
			mpb.WithOutput(out),
			mpb.WithAutoRefresh(),
		),
		bars: make(map[programmer.Phase]*mpb.Bar),
	}
}

// Update is the programmer's progress callback.
func (v *progressView) Update(p programmer.Progress) {
	if v.p == nil {
		if v.echo != nil && p.Phase == programmer.PhaseSendingProperties {
			fmt.Fprintln(v.echo, p.Record)
		}
		return
	}
	if p.Total <= 0 {
		return
	}

	switch p.Phase {
	case programmer.PhaseWriting, programmer.PhaseSendingSamples,
		programmer.PhaseSendingRAMData, programmer.PhaseSendingProperties:
	default:
		return
	}

	bar, ok := v.bars[p.Phase]
	if !ok {
		bar = v.p.AddBar(int64(p.Total),
			mpb.PrependDecorators(
				decor.Name(string(p.Phase), decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.AverageETA(decor.ET_STYLE_GO),
				decor.Name(" "),
				decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
			),
		)
		v.bars[p.Phase] = bar
	}
	bar.SetCurrent(int64(p.Current))
}

// Finish stops any bar left incomplete by a failed transfer and waits for
// the final render.
func (v *progressView) Finish(err error) {
	if v.p == nil {
		return
	}
	for _, bar := range v.bars {
		if err != nil || !bar.Completed() {
			bar.Abort(false)
		}
	}
	v.p.Wait()
}
