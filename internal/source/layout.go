package source

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocollider/internal/config"
	"github.com/sells-group/geocollider/internal/model"
	"github.com/sells-group/geocollider/internal/spatial"
)

// selector addresses one column. pos is set for positional layouts, name
// for header-keyed ones.
type selector struct {
	name string
	pos  int
	set  bool
}

// layout is the column selection resolved from a SourceConfig before any
// row is read.
type layout struct {
	byName    bool
	id        selector
	lat       selector
	lon       selector
	precision selector
	names     []selector
	idTrim    string
}

func newLayout(cfg config.SourceConfig, byName bool) (layout, error) {
	l := layout{byName: byName, idTrim: strings.TrimSpace(cfg.IDTrimPrefix)}
	sel := func(raw string) (selector, error) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return selector{}, nil
		}
		if byName {
			return selector{name: raw, set: true}, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return selector{}, eris.Errorf("source: selector %q is not a column index", raw)
		}
		return selector{pos: n, set: true}, nil
	}

	var err error
	if l.id, err = sel(cfg.IDField); err != nil {
		return l, err
	}
	if !l.id.set {
		return l, eris.New("source: id field is required")
	}
	if cfg.HasPoint() {
		if l.lat, err = sel(cfg.LatField); err != nil {
			return l, err
		}
		if l.lon, err = sel(cfg.LonField); err != nil {
			return l, err
		}
	}
	if l.precision, err = sel(cfg.PrecisionField); err != nil {
		return l, err
	}
	for _, f := range cfg.NameFields {
		s, err := sel(f)
		if err != nil {
			return l, err
		}
		if s.set {
			l.names = append(l.names, s)
		}
	}
	return l, nil
}

func (l layout) hasPoint() bool {
	return l.lat.set && l.lon.set
}

// columns maps the layout onto concrete row indexes; -1 means absent.
type columns struct {
	id, lat, lon, precision int
	names                   []int
	idTrim                  string
}

// bind resolves the layout against a header row. Header names match
// exactly first, then case-insensitively. Unknown names bind to -1 so the
// field reads as absent on every row.
func (l layout) bind(header []string) columns {
	exact := make(map[string]int, len(header))
	folded := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		if _, ok := folded[strings.ToLower(h)]; !ok {
			folded[strings.ToLower(h)] = i
		}
	}
	resolve := func(s selector) int {
		switch {
		case !s.set:
			return -1
		case !l.byName:
			return s.pos
		}
		if i, ok := exact[s.name]; ok {
			return i
		}
		if i, ok := folded[strings.ToLower(s.name)]; ok {
			return i
		}
		return -1
	}

	c := columns{
		id:        resolve(l.id),
		lat:       resolve(l.lat),
		lon:       resolve(l.lon),
		precision: resolve(l.precision),
		idTrim:    l.idTrim,
	}
	for _, s := range l.names {
		c.names = append(c.names, resolve(s))
	}
	return c
}

// bindHeader is bind for a header row that must carry the id column. A
// file without it would otherwise decode to no records at all.
func (l layout) bindHeader(header []string) (columns, error) {
	c := l.bind(header)
	if c.id < 0 {
		return c, eris.Errorf("source: id field %q not found in header", l.id.name)
	}
	return c, nil
}

// positional returns the column mapping for header-less input.
func (l layout) positional() columns {
	return l.bind(nil)
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseCoord parses a coordinate, reporting false for blank or malformed
// values.
func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// record maps one row. Missing or short fields read as absent. A row
// without an id yields ok == false.
func (c columns) record(row []string) (model.RawRecord, bool) {
	id := strings.TrimSpace(field(row, c.id))
	if c.idTrim != "" {
		id = strings.TrimSpace(strings.TrimPrefix(id, c.idTrim))
	}
	rec := model.RawRecord{ID: id}
	if rec.ID == "" {
		return rec, false
	}

	lat, latOK := parseCoord(field(row, c.lat))
	lon, lonOK := parseCoord(field(row, c.lon))
	if latOK && lonOK {
		rec.Point = spatial.NewPoint(lat, lon)
	}

	if len(c.names) > 0 {
		raw := make([]string, 0, len(c.names))
		for _, i := range c.names {
			raw = append(raw, field(row, i))
		}
		rec.Names = model.CleanNames(raw)
	}

	rec.Precision = model.ParsePrecision(field(row, c.precision))
	return rec, true
}
