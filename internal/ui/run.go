package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"xclower/internal/pipeline"
)

// RunWithProgress runs work with a progress view on out. work receives the
// sink to report through; the view closes once work returns.
func RunWithProgress[T any](title string, out io.Writer, work func(pipeline.ProgressSink) (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan outcome, 1)

	go func() {
		val, err := work(pipeline.ChannelSink{Ch: events})
		outcomeCh <- outcome{val: val, err: err}
		close(events)
	}()

	program := tea.NewProgram(NewProgressModel(title, events), tea.WithOutput(out))
	_, uiErr := program.Run()
	res := <-outcomeCh
	if uiErr != nil {
		return res.val, uiErr
	}
	return res.val, res.err
}
