package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"menutree/internal/domain"
	menusvc "menutree/internal/service/menu"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the file format from the path extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot detect format of %q, expected .csv, .yaml or .yml", path)
	}
}

// ParseFormat validates an explicit format name.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", v)
	}
}

type MenuCreator interface {
	Create(ctx context.Context, in menusvc.CreateInput) (*domain.MenuNode, error)
}

// Importer creates menu nodes from flat CSV exports or nested YAML documents.
// Parents are always created before their children.
type Importer struct {
	creator MenuCreator
	logger  *log.Logger
}

func New(creator MenuCreator, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Importer{creator: creator, logger: logger}
}

// Run imports r in the given format and returns the number of nodes created.
func (i *Importer) Run(ctx context.Context, r io.Reader, format Format) (int, error) {
	switch format {
	case FormatCSV:
		return i.ImportCSV(ctx, r)
	case FormatYAML:
		return i.ImportYAML(ctx, r)
	default:
		return 0, fmt.Errorf("unsupported format %q", format)
	}
}

type csvRow struct {
	line      int
	key       string
	name      string
	parentKey string
	order     *int
}

// ImportCSV reads rows with the columns key, name, parent.key and order.
// Rows may appear in any order; a row waits until its parent key exists.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may have trailing commas

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing required column \"name\"")
	}

	var rows []csvRow
	seen := map[string]int{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		row, err := parseRow(record, index, line)
		if err != nil {
			return 0, err
		}
		if row == nil {
			continue
		}
		if row.key != "" {
			if prev, dup := seen[row.key]; dup {
				return 0, fmt.Errorf("line %d: duplicate key %q (first on line %d)", line, row.key, prev)
			}
			seen[row.key] = line
		}
		rows = append(rows, *row)
	}

	return i.createRows(ctx, rows)
}

func (i *Importer) createRows(ctx context.Context, rows []csvRow) (int, error) {
	ids := map[string]string{}
	pending := rows
	created := 0
	for len(pending) > 0 {
		var waiting []csvRow
		for _, row := range pending {
			in := menusvc.CreateInput{Name: row.name, Order: row.order}
			if row.parentKey != "" {
				parentID, ok := ids[row.parentKey]
				if !ok {
					waiting = append(waiting, row)
					continue
				}
				in.ParentID = &parentID
			}
			node, err := i.creator.Create(ctx, in)
			if err != nil {
				return created, fmt.Errorf("line %d: create %q: %w", row.line, row.name, err)
			}
			if row.key != "" {
				ids[row.key] = node.ID
			}
			created++
		}
		if len(waiting) == len(pending) {
			return created, fmt.Errorf("line %d: unknown parent key %q", waiting[0].line, waiting[0].parentKey)
		}
		pending = waiting
	}
	i.logger.Printf("importer: created %d menus from csv", created)
	return created, nil
}

// yamlMenu is one entry of a nested menu document.
type yamlMenu struct {
	Name     string     `yaml:"name"`
	Order    *int       `yaml:"order"`
	Children []yamlMenu `yaml:"children"`
}

// ImportYAML reads a list of menus whose children are nested under each
// entry, walking the document parent first without recursion.
func (i *Importer) ImportYAML(ctx context.Context, r io.Reader) (int, error) {
	var roots []yamlMenu
	if err := yaml.NewDecoder(r).Decode(&roots); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("decode yaml: %w", err)
	}

	type pendingMenu struct {
		item     yamlMenu
		parentID *string
		path     string
	}
	queue := make([]pendingMenu, 0, len(roots))
	for _, m := range roots {
		queue = append(queue, pendingMenu{item: m, path: m.Name})
	}

	created := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		node, err := i.creator.Create(ctx, menusvc.CreateInput{Name: p.item.Name, ParentID: p.parentID, Order: p.item.Order})
		if err != nil {
			return created, fmt.Errorf("create %q: %w", p.path, err)
		}
		created++
		for _, child := range p.item.Children {
			queue = append(queue, pendingMenu{item: child, parentID: &node.ID, path: p.path + " > " + child.Name})
		}
	}
	i.logger.Printf("importer: created %d menus from yaml", created)
	return created, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{
		line:      line,
		key:       pick(record, index, "key"),
		name:      pick(record, index, "name"),
		parentKey: pick(record, index, "parent.key"),
	}
	orderStr := pick(record, index, "order")
	if row.key == "" && row.name == "" && row.parentKey == "" && orderStr == "" {
		return nil, nil
	}
	if orderStr != "" {
		order, err := strconv.Atoi(orderStr)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid order %q", line, orderStr)
		}
		row.order = &order
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
