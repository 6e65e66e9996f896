package v1

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/kubescape/imagedb/core/ports"
)

const (
	// keySpaceEscape replaces runs of whitespace inside keys, since the first
	// whitespace on a line separates the key from its value
	keySpaceEscape = "____"
	// emptyValue is written for keys with no value
	emptyValue = "none"
)

var whitespace = regexp.MustCompile(`\s+`)

// KVFile reads and writes line-oriented "key value" files
type KVFile struct{}

var _ ports.KVCodec = (*KVFile)(nil)

func NewKVFile() *KVFile {
	return &KVFile{}
}

// ReadKV parses path; a missing file is an error, blank lines are skipped.
func (KVFile) ReadKV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ret := map[string]string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value := line, ""
		if i := strings.IndexFunc(line, isSpace); i >= 0 {
			key = line[:i]
			value = strings.TrimLeftFunc(line[i:], isSpace)
		}
		ret[strings.ReplaceAll(key, keySpaceEscape, " ")] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read kv file %s: %w", path, err)
	}
	return ret, nil
}

// WriteKV overwrites path with one sorted "key value" line per entry.
func (KVFile) WriteKV(path string, data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		v := data[k]
		if v == "" {
			v = emptyValue
		}
		// values are single-line
		v = strings.ReplaceAll(v, "\n", " ")
		buf.WriteString(whitespace.ReplaceAllString(k, keySpaceEscape))
		buf.WriteByte(' ')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
