package trace

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ftrace text format:
//	<task>-<pid> [<cpu>] <flags> <secs>.<usecs>: <event>: <key>=<value> ...
var traceLineRegex = regexp.MustCompile(`^\s*(.+?)\s+\[(\d+)\]\s+\S+\s+(\d+\.\d+):\s+(\w+):\s*(.*)$`)

// ParseFile reads an ftrace text capture into an event table. Lines that do
// not match the record format (headers, comments) are skipped. Timestamps
// are rebased to the first record of the capture.
func ParseFile(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace %s: %w", path, err)
	}
	defer file.Close()

	var table Table
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		event, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		table = append(table, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace %s: %w", path, err)
	}

	sort.SliceStable(table, func(i, j int) bool { return table[i].Timestamp < table[j].Timestamp })

	if len(table) > 0 {
		base := table[0].Timestamp
		for i := range table {
			table[i].Timestamp -= base
		}
	}

	return table, nil
}

func parseLine(line string) (Event, bool) {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return Event{}, false
	}

	groups := traceLineRegex.FindStringSubmatch(line)
	if groups == nil {
		return Event{}, false
	}

	secs, err := strconv.ParseFloat(groups[3], 64)
	if err != nil {
		return Event{}, false
	}

	fields := map[string]string{}
	for _, token := range strings.Fields(groups[5]) {
		key, value, found := strings.Cut(token, "=")
		if !found || key == "" {
			continue
		}
		fields[key] = value
	}

	return Event{
		Timestamp: time.Duration(secs * float64(time.Second)),
		Name:      groups[4],
		Fields:    fields,
	}, true
}

// FileSource is a Source backed by one ftrace text file. The file is parsed
// on first query and the table cached for subsequent ones.
type FileSource struct {
	path string

	once  sync.Once
	table Table
	err   error
}

// NewFileSource returns a Source reading the capture at the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Events(name string) (Table, error) {
	s.once.Do(func() {
		s.table, s.err = ParseFile(s.path)
	})
	if s.err != nil {
		return nil, s.err
	}

	return s.table.Filter(func(e Event) bool { return e.Name == name }), nil
}
