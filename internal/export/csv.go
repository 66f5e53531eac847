package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"telemetry-gen/internal/models"
)

// Header заголовок CSV выгрузки
var Header = []string{"DeviceId", "Timestamp", "AmbientTemperature", "DeviceTemperature"}

// Sink получатель записей телеметрии
type Sink interface {
	Write(rec models.TelemetryRecord) error
	Close() error
}

// CSVSink пишет записи в CSV
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
	row    []string
}

// NewCSVSink создает CSV sink поверх writer и сразу пишет заголовок
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	s := &CSVSink{
		w:   csv.NewWriter(w),
		row: make([]string, len(Header)),
	}
	if err := s.w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return s, nil
}

// CreateCSVFile создает (или перезаписывает) файл выгрузки
func CreateCSVFile(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	s, err := NewCSVSink(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Write записывает одну строку
func (s *CSVSink) Write(rec models.TelemetryRecord) error {
	s.row[0] = rec.DeviceID
	s.row[1] = rec.TimestampString()
	s.row[2] = rec.AmbientString()
	s.row[3] = rec.DeviceString()

	if err := s.w.Write(s.row); err != nil {
		return fmt.Errorf("failed to write record %s: %w", s.row[1], err)
	}
	return nil
}

// Close сбрасывает буфер и закрывает файл, если sink им владеет
func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	if err != nil {
		return fmt.Errorf("failed to close csv sink: %w", err)
	}
	return nil
}

// Drain пишет последовательность во все sinks и возвращает число записей.
// Останавливается на первой ошибке записи.
func Drain(records iter.Seq[models.TelemetryRecord], sinks ...Sink) (int, error) {
	written := 0
	for rec := range records {
		for _, s := range sinks {
			if err := s.Write(rec); err != nil {
				return written, err
			}
		}
		written++
	}
	return written, nil
}
