package file

import (
	"bufio"
	"encoding/csv"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
)

// CSVFileOutput writes a single CSV file with an optional header row.
// It counts the rows and bytes written so callers can report stats.
type CSVFileOutput struct {
	csvWriter     *csv.Writer
	fWriter       *bufio.Writer
	file          *os.File
	log           logger.Logger
	directory     string
	ownsDirectory bool // true if we created the directory in temp space
	name          string
	headerRecord  []string
	rowCount      int
	bytesCount    int
	closed        bool
}

// NewCSVFileOutput creates fileName in outputDirectory.
// Supply an empty outputDirectory to use a new directory in OS temp space, which Remove() also deletes.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileName string) (*CSVFileOutput, error) {
	f := &CSVFileOutput{log: log}
	if outputDirectory == "" {
		var err error
		f.directory, err = ioutil.TempDir("", constants.ServiceName+"-csv-")
		if err != nil {
			return nil, errors.Wrap(err, "error creating temp directory for CSV file")
		}
		f.ownsDirectory = true
	} else {
		f.directory = outputDirectory
	}
	f.name = path.Join(f.directory, fileName)
	log.Debug("Creating new CSV file '", f.name, "'")
	var err error
	f.file, err = os.Create(f.name)
	if err != nil {
		f.removeDirectory()
		return nil, errors.Wrapf(err, "unable to create OS file with name %q", f.name)
	}
	f.fWriter = bufio.NewWriter(f.file)
	f.csvWriter = csv.NewWriter(f)
	f.csvWriter.Comma = constants.CsvDelimiter
	return f, nil
}

// Write implements io.Writer over the buffered OS file and maintains the byte count.
func (f *CSVFileOutput) Write(p []byte) (n int, err error) {
	n, err = f.fWriter.Write(p)
	f.bytesCount += n
	return n, err
}

// WriteHeader writes record as the first row of the file.
func (f *CSVFileOutput) WriteHeader(record []string) error {
	if f.rowCount > 0 || f.headerRecord != nil {
		return errors.New("CSV header must be written once before any rows")
	}
	f.headerRecord = record
	f.log.Trace("Writing file header: ", record)
	if err := f.csvWriter.Write(record); err != nil {
		return errors.Wrap(err, "unable to write header to CSV file")
	}
	return nil
}

// WriteRecord writes a row of strings to the CSV file.
func (f *CSVFileOutput) WriteRecord(record []string) error {
	if err := f.csvWriter.Write(record); err != nil {
		return errors.Wrap(err, "unable to write to CSV file")
	}
	f.rowCount++
	return nil
}

// WriteValues converts values scanned from database/sql and writes them as a row.
func (f *CSVFileOutput) WriteValues(values []interface{}) error {
	record := make([]string, len(values))
	for idx, v := range values {
		s, err := helper.GetCsvStringFromInterface(v)
		if err != nil {
			return errors.Wrapf(err, "column %v", idx+1)
		}
		record[idx] = s
	}
	return f.WriteRecord(record)
}

// Close flushes the CSV writer and closes the OS file.
// It is safe to call more than once.
func (f *CSVFileOutput) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		_ = f.file.Close()
		return errors.Wrap(err, "error flushing CSV writer")
	}
	if err := f.fWriter.Flush(); err != nil {
		_ = f.file.Close()
		return errors.Wrap(err, "error flushing CSV file")
	}
	if err := f.file.Close(); err != nil {
		return errors.Wrapf(err, "unable to close OS file %q", f.name)
	}
	return nil
}

// Open re-opens the closed file for reading.
func (f *CSVFileOutput) Open() (*os.File, error) {
	if !f.closed {
		return nil, errors.New("CSV file must be closed before it is read")
	}
	return os.Open(f.name)
}

// Remove closes and deletes the file, plus its directory if it was created in temp space.
func (f *CSVFileOutput) Remove() error {
	if err := f.Close(); err != nil {
		f.log.Warn("error closing CSV file before removal: ", err)
	}
	if err := os.Remove(f.name); err != nil && !os.IsNotExist(err) {
		return err
	}
	f.removeDirectory()
	return nil
}

func (f *CSVFileOutput) removeDirectory() {
	if f.ownsDirectory {
		if err := os.RemoveAll(f.directory); err != nil {
			f.log.Warn("unable to remove temp directory ", f.directory, ": ", err)
		}
	}
}

// Name returns the full path of the file.
func (f *CSVFileOutput) Name() string {
	return f.name
}

// Rows returns the number of rows written excluding the header.
func (f *CSVFileOutput) Rows() int {
	return f.rowCount
}

// Bytes returns the number of bytes written so far, including the header.
func (f *CSVFileOutput) Bytes() int {
	return f.bytesCount
}
