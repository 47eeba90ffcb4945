package gridshift

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
)

// GridPathEnv overrides the grid root of every loaded definition.
const GridPathEnv = "GRIDSHIFT_PATH"

// Definition describes a family of grids (for example all horizontal or all
// vertical shift grids): where they live, how their files are named and the
// constants needed to read them. It is built once and not modified
// afterwards.
type Definition struct {
	Name       string    `toml:"name"`
	Version    string    `toml:"version"`
	GridPath   string    `toml:"grid_path"`
	FilePrefix string    `toml:"file_prefix"`
	HeaderLen  int       `toml:"header_length"`
	Tolerance  float64   `toml:"tolerance"` // degrees
	Bounds     []float64 `toml:"bounds"`
	Parms      []string  `toml:"parms"`
	Types      []string  `toml:"types"`
	InterpRows int       `toml:"interp_rows"`
	InterpCols int       `toml:"interp_cols"`
	Regions    []Region  `toml:"region"`
}

// Region is one geographic area covered by its own set of grids.
type Region struct {
	Name     string   `toml:"name"`
	Datums   []string `toml:"datums"`
	GridDate string   `toml:"grid_date"`
}

// GridID names one grid file: the shift of parameter Parm (for example
// "lat", "lon", "eht") from datum From to datum To in Region. Type
// distinguishes the transformation grid from its error grid.
type GridID struct {
	Region string
	From   string
	To     string
	Parm   string
	Type   string
}

// LoadDefinition reads a grid definition from a .properties or .toml file.
func LoadDefinition(path string) (*Definition, error) {
	var (
		def *Definition
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		def, err = loadTOML(path)
	case ".properties":
		def, err = loadProperties(path)
	default:
		return nil, fmt.Errorf("definition %s: unsupported file type (want .toml or .properties)", path)
	}
	if err != nil {
		return nil, err
	}
	def.GridPath = os.ExpandEnv(def.GridPath)
	if p := os.Getenv(GridPathEnv); p != "" {
		def.GridPath = p
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("definition %s: %w", path, err)
	}
	return def, nil
}

func loadTOML(path string) (*Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", path, err)
	}
	def := new(Definition)
	if _, err := toml.Decode(string(b), def); err != nil {
		return nil, fmt.Errorf("definition %s: parsing: %w", path, err)
	}
	return def, nil
}

// loadProperties reads the key set used by the published grid
// definitions: regions=a,b and per-region "<region>.datum" and
// "<region>.grid.date" keys. The files are ISO-8859-1.
func loadProperties(path string) (*Definition, error) {
	p, err := properties.LoadFile(path, properties.ISO_8859_1)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", path, err)
	}
	def := &Definition{
		Name:       p.GetString("name", ""),
		GridPath:   p.GetString("gridfile.path", ""),
		FilePrefix: p.GetString("gridfile.prefix", ""),
		HeaderLen:  p.GetInt("grid.headerlen", 0),
		Tolerance:  p.GetFloat64("grid.tolerance", 0),
		Parms:      splitList(p.GetString("grid.parms", "")),
		Types:      splitList(p.GetString("grid.types", "")),
		InterpRows: p.GetInt("intpGrid.rows", 0),
		InterpCols: p.GetInt("intpGrid.cols", 0),
	}
	for _, k := range p.Keys() {
		if name, ok := strings.CutSuffix(k, ".version"); ok && !strings.Contains(name, ".") {
			def.Version = p.GetString(k, "")
			if def.Name == "" {
				def.Name = name
			}
		}
	}
	for _, s := range splitList(p.GetString("bounds", "")) {
		var f float64
		if _, err := fmt.Sscan(s, &f); err != nil {
			return nil, fmt.Errorf("definition %s: bounds value %q: %w", path, s, err)
		}
		def.Bounds = append(def.Bounds, f)
	}
	for _, name := range splitList(p.GetString("regions", "")) {
		def.Regions = append(def.Regions, Region{
			Name:     name,
			Datums:   splitList(p.GetString(name+".datum", "")),
			GridDate: p.GetString(name+".grid.date", ""),
		})
	}
	return def, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the definition and fills defaults for the interpolation
// window.
func (d *Definition) Validate() error {
	if d.HeaderLen < MinHeaderLen {
		return fmt.Errorf("header length %d below minimum %d", d.HeaderLen, MinHeaderLen)
	}
	if d.Tolerance < 0 {
		return fmt.Errorf("negative tolerance %g", d.Tolerance)
	}
	if d.FilePrefix == "" {
		return fmt.Errorf("no grid file prefix")
	}
	if len(d.Regions) == 0 {
		return fmt.Errorf("no regions")
	}
	if d.InterpRows == 0 {
		d.InterpRows = 3
	}
	if d.InterpCols == 0 {
		d.InterpCols = 3
	}
	if d.InterpRows != 3 || d.InterpCols != 3 {
		return fmt.Errorf("interpolation window %dx%d (only 3x3 is supported)", d.InterpRows, d.InterpCols)
	}
	return nil
}

// Region returns the region named name, ignoring case.
func (d *Definition) Region(name string) (Region, bool) {
	for _, r := range d.Regions {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Region{}, false
}

// RegionNames returns the region names in definition order.
func (d *Definition) RegionNames() []string {
	names := make([]string, len(d.Regions))
	for i, r := range d.Regions {
		names[i] = r.Name
	}
	return names
}

// Datums returns the datums available in region, or nil for an unknown
// region.
func (d *Definition) Datums(region string) []string {
	r, ok := d.Region(region)
	if !ok {
		return nil
	}
	return r.Datums
}

// AllDatums returns every datum of every region, once each, in first-seen
// order.
func (d *Definition) AllDatums() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Regions {
		for _, dt := range r.Datums {
			if !seen[dt] {
				seen[dt] = true
				out = append(out, dt)
			}
		}
	}
	return out
}

// IsValidDatum reports whether any region offers datum, ignoring case.
func (d *Definition) IsValidDatum(datum string) bool {
	for _, dt := range d.AllDatums() {
		if strings.EqualFold(dt, datum) {
			return true
		}
	}
	return false
}

// FileName returns the grid file name for id:
// prefix.from.to.region.parm.type.date.b
func (d *Definition) FileName(id GridID) (string, error) {
	r, ok := d.Region(id.Region)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, id.Region)
	}
	parts := []string{
		d.FilePrefix,
		fileDatum(id.From),
		fileDatum(id.To),
		strings.ToLower(r.Name),
		id.Parm,
		id.Type,
		r.GridDate,
	}
	return strings.Join(parts, ".") + ".b", nil
}

// fileDatum converts a datum name to its file-name form:
// "NAD83(2011)" becomes "nad83_2011" and "NSRS" tags are dropped.
func fileDatum(datum string) string {
	s := strings.ReplaceAll(datum, "(", "_")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.ReplaceAll(s, "NSRS", "")
	return strings.ToLower(s)
}
