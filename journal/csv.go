package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

// CSVJournal appends audit rows to two flat CSV files, one for fills
// and one for rejections. Handy for quick inspection with standard
// tools when a database is overkill.
type CSVJournal struct {
	mu      sync.Mutex
	fills   *csv.Writer
	rejects *csv.Writer

	fillsFile   *os.File
	rejectsFile *os.File
}

func NewCSV(fillsPath, rejectsPath string) (*CSVJournal, error) {
	fillsFile, fillsW, err := openCSV(fillsPath,
		[]string{"fill_id", "order_id", "symbol", "side", "qty", "price", "commission", "time"})
	if err != nil {
		return nil, err
	}

	rejectsFile, rejectsW, err := openCSV(rejectsPath,
		[]string{"order_id", "symbol", "side", "qty", "kind", "reason", "time"})
	if err != nil {
		fillsFile.Close()
		return nil, err
	}

	return &CSVJournal{
		fills:       fillsW,
		rejects:     rejectsW,
		fillsFile:   fillsFile,
		rejectsFile: rejectsFile,
	}, nil
}

func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	info, statErr := os.Stat(path)
	empty := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if empty {
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("write journal header: %w", err)
		}
		w.Flush()
	}
	return f, w, nil
}

func (j *CSVJournal) RecordFill(f FillRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.fills.Write([]string{
		f.FillID, f.OrderID, f.Symbol, string(f.Side),
		f.Qty.String(), f.Price.String(), f.Commission.String(),
		f.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) RecordRejection(r RejectionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.rejects.Write([]string{
		r.OrderID, r.Symbol, string(r.Side), r.Qty.String(),
		string(r.Kind), r.Reason,
		r.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.rejects.Flush()
	return j.rejects.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.fills.Flush()
	j.rejects.Flush()

	err1 := j.fillsFile.Close()
	err2 := j.rejectsFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
