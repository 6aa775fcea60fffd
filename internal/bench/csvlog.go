package bench

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

const (
	fileHeader       = "# groundplane benchmark results"
	runSummaryPrefix = "# RUNSUMMARY,"
	cumulativeMarker = "# === CUMULATIVE"
)

// WriteRun writes one run block: per-frame rows, a per-section summary, a
// machine-readable RUNSUMMARY line and a human-readable overall summary.
func WriteRun(w io.Writer, run int, label string, f *Flythrough) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Run %d\n", run)
	if label != "" {
		fmt.Fprintf(bw, "# Label: %s\n", label)
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write([]string{"Timestamp(ms)", "FrameTime(ms)", "FPS", "Section"}); err != nil {
		return err
	}
	var ts float32
	for _, fr := range f.Frames() {
		rec := []string{
			ftoa(ts, 2),
			ftoa(fr.TimeMs, 2),
			ftoa(fps(fr.TimeMs), 1),
			f.path.SectionName(fr.Section),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
		ts += fr.TimeMs
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	fmt.Fprintf(bw, "# --- Run %d Section Summary ---\n", run)
	fmt.Fprintln(bw, "# Section, Frames, AvgMS, AvgFPS, MinMS, MaxMS, 1%LowFPS, 0.1%LowFPS")
	for i, name := range f.path.Sections {
		s := f.SectionSummary(i)
		if s.Frames == 0 {
			continue
		}
		fmt.Fprintf(bw, "# %s, %d, %s, %s, %s, %s, %s, %s\n", name, s.Frames,
			ftoa(s.AvgMs, 1), ftoa(fps(s.AvgMs), 1), ftoa(s.MinMs, 1), ftoa(s.MaxMs, 1),
			ftoa(fps(s.P1Ms), 1), ftoa(fps(s.P01Ms), 1))
	}

	s := f.Summary()
	fmt.Fprintf(bw, "%s%d,%s,%s,%s,%s,%s,%s\n", runSummaryPrefix, s.Frames,
		ftoa(s.TotalMs, 1), ftoa(s.AvgMs, 2), ftoa(s.MinMs, 2), ftoa(s.MaxMs, 2),
		ftoa(s.P1Ms, 2), ftoa(s.P01Ms, 2))

	fmt.Fprintf(bw, "# --- Run %d Overall ---\n", run)
	fmt.Fprintf(bw, "# Frames: %d | Duration: %sms\n", s.Frames, ftoa(s.TotalMs, 1))
	fmt.Fprintf(bw, "# Avg: %sms (%s FPS)\n", ftoa(s.AvgMs, 2), ftoa(fps(s.AvgMs), 1))
	fmt.Fprintf(bw, "# Min: %sms (%s FPS) | Max: %sms (%s FPS)\n",
		ftoa(s.MinMs, 1), ftoa(fps(s.MinMs), 1), ftoa(s.MaxMs, 1), ftoa(fps(s.MaxMs), 1))
	fmt.Fprintf(bw, "# 1%% Low: %s FPS | 0.1%% Low: %s FPS\n", ftoa(fps(s.P1Ms), 1), ftoa(fps(s.P01Ms), 1))
	fmt.Fprintf(bw, "# === END RUN %d ===\n", run)
	return bw.Flush()
}

// ParseRuns reads the RUNSUMMARY lines of an existing log. cumulative is the
// byte offset of the cumulative block, or -1 if there is none.
func ParseRuns(r io.Reader) (runs []Summary, cumulative int64, err error) {
	cumulative = -1
	br := bufio.NewReader(r)
	var offset int64
	for {
		line, rerr := br.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(trimmed, runSummaryPrefix):
			s, perr := parseRunSummary(strings.TrimPrefix(trimmed, runSummaryPrefix))
			if perr != nil {
				return nil, -1, fmt.Errorf("offset %d: %w", offset, perr)
			}
			runs = append(runs, s)
		case strings.HasPrefix(trimmed, cumulativeMarker) && cumulative < 0:
			cumulative = offset
		}

		offset += int64(len(line))
		if rerr == io.EOF {
			return runs, cumulative, nil
		}
		if rerr != nil {
			return nil, -1, rerr
		}
	}
}

func parseRunSummary(fields string) (Summary, error) {
	parts := strings.Split(fields, ",")
	if len(parts) != 7 {
		return Summary{}, fmt.Errorf("run summary has %d fields, want 7", len(parts))
	}
	frames, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Summary{}, fmt.Errorf("run summary frames: %w", err)
	}
	vals := make([]float32, 6)
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return Summary{}, fmt.Errorf("run summary field %d: %w", i+1, err)
		}
		vals[i] = float32(v)
	}
	return Summary{
		Frames:  frames,
		TotalMs: vals[0],
		AvgMs:   vals[1],
		MinMs:   vals[2],
		MaxMs:   vals[3],
		P1Ms:    vals[4],
		P01Ms:   vals[5],
	}, nil
}

// Cumulative merges run summaries, weighting averages by frame count.
func Cumulative(runs []Summary) Summary {
	var c Summary
	var avg, p1, p01 float32
	for i, r := range runs {
		if i == 0 || r.MinMs < c.MinMs {
			c.MinMs = r.MinMs
		}
		if r.MaxMs > c.MaxMs {
			c.MaxMs = r.MaxMs
		}
		n := float32(r.Frames)
		c.Frames += r.Frames
		c.TotalMs += r.TotalMs
		avg += r.AvgMs * n
		p1 += r.P1Ms * n
		p01 += r.P01Ms * n
	}
	if c.Frames > 0 {
		n := float32(c.Frames)
		c.AvgMs, c.P1Ms, c.P01Ms = avg/n, p1/n, p01/n
	}
	return c
}

// WriteCumulative writes the cumulative block for runs.
func WriteCumulative(w io.Writer, runs []Summary) error {
	c := Cumulative(runs)
	noun := "runs"
	if len(runs) == 1 {
		noun = "run"
	}
	_, err := fmt.Fprintf(w, "%s AVERAGE (%d %s) ===\n"+
		"# Avg: %sms (%s FPS)\n"+
		"# Min: %sms | Max: %sms\n"+
		"# 1%% Low: %s FPS | 0.1%% Low: %s FPS\n"+
		"# === END CUMULATIVE ===\n",
		cumulativeMarker, len(runs), noun,
		ftoa(c.AvgMs, 2), ftoa(fps(c.AvgMs), 1),
		ftoa(c.MinMs, 1), ftoa(c.MaxMs, 1),
		ftoa(fps(c.P1Ms), 1), ftoa(fps(c.P01Ms), 1))
	return err
}

// AppendLog adds the finished run to the log at path, replacing the previous
// cumulative block with one covering every run. It returns the run number.
func AppendLog(path, label string, f *Flythrough) (int, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("reading benchmark log: %w", err)
	}

	runs, cumulative, err := ParseRuns(bytes.NewReader(existing))
	if err != nil {
		return 0, fmt.Errorf("parsing benchmark log %s: %w", path, err)
	}
	if cumulative >= 0 {
		existing = existing[:cumulative]
	}

	var buf bytes.Buffer
	if len(existing) == 0 {
		fmt.Fprintln(&buf, fileHeader)
	} else {
		buf.Write(existing)
	}

	run := len(runs) + 1
	if err := WriteRun(&buf, run, label, f); err != nil {
		return 0, err
	}
	if err := WriteCumulative(&buf, append(runs, f.Summary())); err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("writing benchmark log: %w", err)
	}
	return run, nil
}

func ftoa(v float32, prec int) string {
	return strconv.FormatFloat(float64(v), 'f', prec, 32)
}
