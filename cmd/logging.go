package main

import (
	"io"
	"log"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// chanLineWriter forwards log lines to the on-screen log pane. Writes never
// block: when the UI falls behind, lines are dropped rather than stalling the
// tick path.
type chanLineWriter struct {
	ch chan string
}

func newChanLineWriter(buffer int) *chanLineWriter {
	return &chanLineWriter{ch: make(chan string, buffer)}
}

func (w *chanLineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.SplitAfter(string(p), "\n") {
		if line == "" {
			continue
		}
		select {
		case w.ch <- line:
		default:
		}
	}
	return len(p), nil
}

// newLogger builds the application logger: a size-capped rotating file plus
// the UI log pane. The returned channel feeds the AppModel.
func newLogger(logPath string) (*log.Logger, <-chan string) {
	fileWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
		MaxAge:     28, // days
	}
	uiWriter := newChanLineWriter(256)

	logger := log.New(io.MultiWriter(fileWriter, uiWriter), "", log.Ltime)
	return logger, uiWriter.ch
}
