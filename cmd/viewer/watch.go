package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Domenick1991/expertbooking/internal/availability"
)

// viewSource is the part of the availability controller the watch loop needs.
type viewSource interface {
	View() availability.View
	Retry() error
}

// watchLoop renders every view until ctx ends. An "r" line on input reloads
// the snapshot; with retryEvery set a failed load is retried on that interval.
func watchLoop(ctx context.Context, out io.Writer, src viewSource, views <-chan availability.View, input <-chan string, retryEvery time.Duration) error {
	render(out, src.View())

	var retryTick <-chan time.Time
	if retryEvery > 0 {
		ticker := time.NewTicker(retryEvery)
		defer ticker.Stop()
		retryTick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-views:
			render(out, v)
		case line, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if strings.TrimSpace(line) != "r" {
				continue
			}
			fmt.Fprintln(out, "reloading...")
			if err := src.Retry(); err != nil {
				return err
			}
		case <-retryTick:
			if src.View().State != availability.StateFailed {
				continue
			}
			fmt.Fprintln(out, "retrying...")
			if err := src.Retry(); err != nil {
				return err
			}
		}
	}
}

// lines feeds r line by line into the returned channel, closing it at EOF.
// The reader goroutine ends with the process when r never reaches EOF.
func lines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}
