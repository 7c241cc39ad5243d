// Package store persists the channel record set in a flat CSV file.
package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Column names required in the backing file header.
const (
	ColumnChannelURL = "channel_url"
	ColumnEmail      = "email_id"
)

// ErrMalformed indicates the backing file is missing a required column.
var ErrMalformed = errors.New("malformed record store")

// Record is one unit of work: a channel page and its resolved contact
// value. An empty Email means the record is still pending.
type Record struct {
	ChannelURL string
	Email      string
}

// CSVStore reads and rewrites the backing CSV file. Every MarkResolved
// call rewrites the whole file; concurrent external edits between calls
// are silently overwritten. Record counts are expected to be small.
type CSVStore struct {
	path   string
	logger *zap.Logger
}

// NewCSVStore creates a store backed by the CSV file at path.
func NewCSVStore(path string, logger *zap.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logger}
}

// Load parses the backing file into an ordered record set.
func (s *CSVStore) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header, rows, err := s.read()
	if err != nil {
		return nil, err
	}

	urlIdx, emailIdx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ChannelURL: row[urlIdx],
			Email:      row[emailIdx],
		})
	}

	s.logger.Info("Loaded record store",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// MarkResolved sets the email value for the record with the given
// channel URL and rewrites the whole file, preserving row and column
// order. An unknown channel URL leaves the record set unchanged.
func (s *CSVStore) MarkResolved(ctx context.Context, channelURL, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	header, rows, err := s.read()
	if err != nil {
		return err
	}

	urlIdx, emailIdx, err := columnIndexes(header)
	if err != nil {
		return err
	}

	matched := false
	for _, row := range rows {
		if row[urlIdx] == channelURL {
			row[emailIdx] = email
			matched = true
		}
	}
	if !matched {
		s.logger.Warn("No record matched for resolution",
			zap.String("channel_url", channelURL),
		)
	}

	if err := s.write(header, rows); err != nil {
		return err
	}

	s.logger.Info("Record store rewritten",
		zap.String("channel_url", channelURL),
		zap.Bool("matched", matched),
	)
	return nil
}

func (s *CSVStore) read() ([]string, [][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read store file: %w", err)
	}

	all, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse store file: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file %q", ErrMalformed, s.path)
	}
	return all[0], all[1:], nil
}

func (s *CSVStore) write(header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write store header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write store rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush store rows: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("rewrite store file: %w", err)
	}
	return nil
}

func columnIndexes(header []string) (int, int, error) {
	urlIdx, emailIdx := -1, -1
	for i, name := range header {
		switch name {
		case ColumnChannelURL:
			urlIdx = i
		case ColumnEmail:
			emailIdx = i
		}
	}
	if urlIdx < 0 {
		return 0, 0, fmt.Errorf("%w: missing column %q", ErrMalformed, ColumnChannelURL)
	}
	if emailIdx < 0 {
		return 0, 0, fmt.Errorf("%w: missing column %q", ErrMalformed, ColumnEmail)
	}
	return urlIdx, emailIdx, nil
}
