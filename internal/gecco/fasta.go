package gecco

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// FastaRecord is one record of a FASTA file.
type FastaRecord struct {
	// ID is the first token of the header line
	ID string

	// Desc is the rest of the header line
	Desc string

	// Seq is the record sequence with whitespace removed
	Seq string
}

// ReadFASTA reads every record of a FASTA file.
func ReadFASTA(path string) ([]FastaRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FASTA file %s: %w", path, err)
	}
	defer f.Close()

	var records []FastaRecord
	var current *FastaRecord
	var seq strings.Builder

	flush := func() {
		if current != nil {
			current.Seq = seq.String()
			records = append(records, *current)
			seq.Reset()
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimPrefix(line, ">")
			id, desc := header, ""
			if i := strings.IndexAny(header, " \t"); i >= 0 {
				id, desc = header[:i], strings.TrimSpace(header[i+1:])
			}
			current = &FastaRecord{ID: id, Desc: desc}
		} else if current != nil {
			seq.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no FASTA records in %s", path)
	}
	return records, nil
}

// WriteFASTA writes records with sequence lines wrapped at 80 characters.
func WriteFASTA(w io.Writer, records []FastaRecord) error {
	for _, r := range records {
		header := r.ID
		if r.Desc != "" {
			header += " " + r.Desc
		}
		if _, err := fmt.Fprintf(w, ">%s\n", header); err != nil {
			return err
		}
		for i := 0; i < len(r.Seq); i += 80 {
			end := i + 80
			if end > len(r.Seq) {
				end = len(r.Seq)
			}
			if _, err := fmt.Fprintln(w, r.Seq[i:end]); err != nil {
				return err
			}
		}
	}
	return nil
}
