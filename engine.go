package gridshift

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/singleflight"
	"github.com/sirupsen/logrus"
)

// Engine looks up corrections in the grids of one Definition.
//
// Headers are parsed once per grid file and cached for the life of the
// Engine; concurrent first lookups of the same file share one parse. Block
// reads open their own handle, so an Engine is safe for concurrent use.
type Engine struct {
	def      *Definition
	store    Store
	log      logrus.FieldLogger
	parallel int

	headers sync.Map // file name -> *Header
	flight  singleflight.Group
	parses  atomic.Int64 // header reads that reached the store
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithParallelism bounds the concurrent lookups of InterpolateAll.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallel = n
		}
	}
}

// NewEngine returns an engine reading grids of def from store. def must
// have passed Validate and must not be modified afterwards.
func NewEngine(def *Definition, store Store, opts ...Option) *Engine {
	e := &Engine{
		def:      def,
		store:    store,
		log:      logrus.StandardLogger(),
		parallel: 8,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Definition returns the engine's grid definition.
func (e *Engine) Definition() *Definition { return e.def }

// Coord is a geodetic query point in degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Neighborhood is a block read around a query point.
type Neighborhood struct {
	File   string
	Header *Header
	Cell   Cell
	Point  Point
	Block  *Block
}

// Result is the outcome of one interpolation.
//
// OutOfBounds means the grid has no data at the point; Value is then NaN and
// Rank is zero. Otherwise Rank tells how the value was obtained, and Value
// is NoCorrection when Rank is RankUnusable.
type Result struct {
	Value       float64
	Rank        Rank
	Cell        Cell
	Point       Point
	OutOfBounds bool
}

// Header returns the parsed header of the named grid file. Concurrent
// callers share one parse, which ignores the cancellation of whichever
// caller started it.
func (e *Engine) Header(ctx context.Context, name string) (*Header, error) {
	if h, ok := e.headers.Load(name); ok {
		return h.(*Header), nil
	}
	v, err := e.flight.Do(name, func() (interface{}, error) {
		if h, ok := e.headers.Load(name); ok {
			return h, nil
		}
		h, err := e.parseHeader(context.WithoutCancel(ctx), name)
		if err != nil {
			return nil, err
		}
		e.headers.Store(name, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Header), nil
}

func (e *Engine) parseHeader(ctx context.Context, name string) (*Header, error) {
	f, err := e.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer e.close(f, name)
	e.parses.Add(1)
	h, err := ReadHeader(f, e.def.HeaderLen)
	if err != nil {
		e.log.WithFields(logrus.Fields{"file": name}).WithError(err).Error("unable to read grid header")
		return nil, fmt.Errorf("grid %s: %w", name, err)
	}
	e.log.WithFields(logrus.Fields{
		"file":  name,
		"order": h.Order.String(),
		"rows":  h.Rows,
		"cols":  h.Cols,
		"kind":  h.Kind,
	}).Debug("parsed grid header")
	return &h, nil
}

// Block reads a rows x cols neighbourhood around (lat, lon) from the grid id.
// The neighbourhood's south-west node is one row and one column below the
// resolved cell. It returns an error wrapping ErrOutOfBounds when the point
// is outside the grid plus tolerance.
func (e *Engine) Block(ctx context.Context, id GridID, lat, lon float64, rows, cols int) (*Neighborhood, error) {
	name, err := e.def.FileName(id)
	if err != nil {
		return nil, err
	}
	h, err := e.Header(ctx, name)
	if err != nil {
		return nil, err
	}
	if h.Rows < 3 || h.Cols < 3 {
		e.log.WithFields(logrus.Fields{"file": name, "rows": h.Rows, "cols": h.Cols}).Warn("grid has no 3x3 neighbourhood")
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrGridTooSmall, name, h.Rows, h.Cols)
	}
	cell, p, ok := h.Locate(lat, lon, e.def.Tolerance)
	if !ok {
		e.log.WithFields(logrus.Fields{"file": name, "lat": lat, "lon": lon}).Debug("point outside grid")
		return nil, fmt.Errorf("%w: (%g, %g) in %s", ErrOutOfBounds, lat, lon, name)
	}
	row, col := cell.Row-1, cell.Col-1
	if rows < 1 || cols < 1 || row > h.Rows-rows || col > h.Cols-cols {
		e.log.WithFields(logrus.Fields{"file": name, "rows": rows, "cols": cols}).Debug("window does not fit grid")
		return nil, fmt.Errorf("%dx%d window at (%d,%d) outside %dx%d grid %s: %w",
			rows, cols, row, col, h.Rows, h.Cols, name, ErrOutOfRange)
	}
	blk, err := e.readBlock(ctx, name, h, row, col, rows, cols)
	if err != nil {
		return nil, err
	}
	return &Neighborhood{File: name, Header: h, Cell: cell, Point: p, Block: blk}, nil
}

// Interpolate returns the correction at (lat, lon) from the grid id. Only
// missing or unreadable grids are errors; see Result for the other outcomes.
func (e *Engine) Interpolate(ctx context.Context, id GridID, lat, lon float64) (Result, error) {
	nb, err := e.Block(ctx, id, lat, lon, e.def.InterpRows, e.def.InterpCols)
	if errors.Is(err, ErrOutOfBounds) {
		return Result{Value: math.NaN(), Cell: NoCell, OutOfBounds: true}, nil
	}
	if err != nil {
		return Result{}, err
	}
	v, rank, err := Interpolate(nb.Point, nb.Block.Values)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, Rank: rank, Cell: nb.Cell, Point: nb.Point}, nil
}

// InterpolateAll interpolates every point, running up to the engine's
// parallelism at once. Results are in input order. Failed points are left
// zero and their errors are joined into the returned error.
func (e *Engine) InterpolateAll(ctx context.Context, id GridID, pts []Coord) ([]Result, error) {
	results := make([]Result, len(pts))
	errs := make([]error, len(pts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.parallel)
	for i, pt := range pts {
		wg.Add(1)
		go func(i int, pt Coord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			r, err := e.Interpolate(ctx, id, pt.Lat, pt.Lon)
			if err != nil {
				errs[i] = fmt.Errorf("point %d (%g, %g): %w", i, pt.Lat, pt.Lon, err)
				return
			}
			results[i] = r
		}(i, pt)
	}
	wg.Wait()
	return results, errors.Join(errs...)
}

// Regions returns the regions whose id grid covers (lat, lon) within the
// definition's tolerance. id.Region is ignored. Regions without that grid
// are skipped.
func (e *Engine) Regions(ctx context.Context, id GridID, lat, lon float64) ([]string, error) {
	var out []string
	for _, r := range e.def.Regions {
		id.Region = r.Name
		name, err := e.def.FileName(id)
		if err != nil {
			return nil, err
		}
		h, err := e.Header(ctx, name)
		if errors.Is(err, ErrGridNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if h.Covers(lat, lon, e.def.Tolerance) {
			out = append(out, r.Name)
		}
	}
	return out, nil
}

func (e *Engine) readBlock(ctx context.Context, name string, h *Header, row, col, rows, cols int) (*Block, error) {
	f, err := e.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer e.close(f, name)
	blk, err := ReadBlock(f, h, row, col, rows, cols)
	if err != nil {
		e.log.WithFields(logrus.Fields{"file": name, "row": row, "col": col}).WithError(err).Error("unable to read grid cells")
		return nil, fmt.Errorf("grid %s: %w", name, err)
	}
	return blk, nil
}

func (e *Engine) open(ctx context.Context, name string) (File, error) {
	f, err := e.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, ErrGridNotFound) {
			e.log.WithFields(logrus.Fields{"file": name}).Error("grid file does not exist")
		}
		return nil, err
	}
	return f, nil
}

// close logs close failures; the data already read is still good.
func (e *Engine) close(f File, name string) {
	if err := f.Close(); err != nil {
		e.log.WithFields(logrus.Fields{"file": name}).WithError(err).Warn("unable to close grid file")
	}
}
