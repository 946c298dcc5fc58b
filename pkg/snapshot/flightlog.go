package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alcionai/clues"
)

// FlightLog appends per-drone position rows to a session CSV, matching the
// format physical drones produce over the message bus:
// timestamp, drone_id, x, y, intensity, rssi.
type FlightLog struct {
	path string
	file *os.File
	w    *csv.Writer
}

// NewFlightLog opens flight_logs/session_<stamp>.csv under dir and writes
// the header.
func NewFlightLog(dir, stamp string) (*FlightLog, error) {
	logDir := filepath.Join(dir, "flight_logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, clues.Wrap(err, "creating flight log dir")
	}

	path := filepath.Join(logDir, fmt.Sprintf("session_%s.csv", stamp))

	f, err := os.Create(path)
	if err != nil {
		return nil, clues.Wrap(err, "creating flight log").With("path", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "drone_id", "x", "y", "intensity", "rssi"}); err != nil {
		f.Close()
		return nil, clues.Wrap(err, "writing flight log header")
	}
	w.Flush()

	return &FlightLog{path: path, file: f, w: w}, nil
}

// Path returns the session file location.
func (l *FlightLog) Path() string {
	return l.path
}

// Record appends one row and flushes immediately so a crash loses at most
// the current row.
func (l *FlightLog) Record(ts float64, droneID string, x, y, intensity, rssi int) error {
	row := []string{
		fmt.Sprintf("%.2f", ts),
		droneID,
		fmt.Sprintf("%d", x),
		fmt.Sprintf("%d", y),
		fmt.Sprintf("%d", intensity),
		fmt.Sprintf("%d", rssi),
	}
	if err := l.w.Write(row); err != nil {
		return clues.Wrap(err, "writing flight log row")
	}
	l.w.Flush()

	return l.w.Error()
}

// Close flushes and closes the session file.
func (l *FlightLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return clues.Wrap(err, "flushing flight log")
	}
	return l.file.Close()
}
