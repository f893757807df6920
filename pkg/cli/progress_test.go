package cli

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "contexts")

	progress.Start(4)
	progress.Update(2)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Progress:") {
		t.Error("Expected progress output to contain 'Progress:'")
	}
	if !strings.Contains(output, "(4/4)") {
		t.Errorf("Expected finished progress (4/4), got %q", output)
	}
	if !strings.Contains(output, "contexts/s") {
		t.Errorf("Expected rate in contexts/s, got %q", output)
	}
	if !strings.Contains(output, "50.0% (2/4)") {
		t.Errorf("Expected half-way line, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("Finish should end the line, got %q", output)
	}
}

func TestSimpleProgressOvershoot(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "records")

	progress.Start(2)
	progress.Update(5)

	if !strings.Contains(buf.String(), "100.0% (5/2)") {
		t.Errorf("percentage should be capped, got %q", buf.String())
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "")

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if buf.Len() != 0 {
		t.Errorf("Expected no output for zero total, got %q", buf.String())
	}
}

func TestSimpleProgressIgnoresBackwards(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "records").(*SimpleProgress)

	progress.Start(10)
	progress.Update(5)
	progress.Update(3)

	if progress.current != 5 {
		t.Errorf("current = %d, want 5", progress.current)
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "records")

	progress.Start(100)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "Error:") || !strings.Contains(output, "test error") {
		t.Errorf("Expected error output, got %q", output)
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "contexts")
	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Update(int64(start*100 + j))
			}
		}(i)
	}
	wg.Wait()
	progress.Finish()

	if buf.Len() == 0 {
		t.Error("Expected some progress output")
	}
}
