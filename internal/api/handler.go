package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/geal-ai/gridshift"
	"github.com/gin-gonic/gin"
)

const (
	maxBlockDim    = 64
	maxBatchPoints = 10000
)

// Handler serves lookups against one engine.
type Handler struct {
	engine *gridshift.Engine
}

// NewHandler returns a handler for engine.
func NewHandler(engine *gridshift.Engine) *Handler {
	return &Handler{engine: engine}
}

// gridQuery selects a grid and a point. Coordinates are pointers so that
// zero is accepted and absence is not.
type gridQuery struct {
	From string   `form:"from" json:"from" binding:"required"`
	To   string   `form:"to" json:"to" binding:"required"`
	Parm string   `form:"parm" json:"parm" binding:"required"`
	Type string   `form:"type" json:"type" binding:"required"`
	Lat  *float64 `form:"lat" json:"lat" binding:"required"`
	Lon  *float64 `form:"lon" json:"lon" binding:"required"`
}

func (q gridQuery) id(region string) gridshift.GridID {
	return gridshift.GridID{Region: region, From: q.From, To: q.To, Parm: q.Parm, Type: q.Type}
}

type blockDims struct {
	Rows int `form:"rows"`
	Cols int `form:"cols"`
}

type batchRequest struct {
	From   string            `json:"from" binding:"required"`
	To     string            `json:"to" binding:"required"`
	Parm   string            `json:"parm" binding:"required"`
	Type   string            `json:"type" binding:"required"`
	Points []gridshift.Coord `json:"points" binding:"required"`
}

// Result is the JSON form of one interpolation. Value is null when the
// point is outside the grid.
type Result struct {
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Value       *float64 `json:"value"`
	Rank        string   `json:"rank"`
	Row         int      `json:"row"`
	Col         int      `json:"col"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	OutOfBounds bool     `json:"out_of_bounds"`
}

// NewResult converts an engine result for the query point (lat, lon).
func NewResult(lat, lon float64, r gridshift.Result) Result {
	return Result{
		Lat:         lat,
		Lon:         lon,
		Value:       finite(r.Value),
		Rank:        r.Rank.String(),
		Row:         r.Cell.Row,
		Col:         r.Cell.Col,
		X:           r.Point.X,
		Y:           r.Point.Y,
		OutOfBounds: r.OutOfBounds,
	}
}

// Block is the JSON form of a neighbourhood. Values are row-major from
// south to north.
type Block struct {
	File   string     `json:"file"`
	Row    int        `json:"row"`
	Col    int        `json:"col"`
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Values []*float64 `json:"values"`
}

// RegionInfo describes one region of the definition.
type RegionInfo struct {
	Name     string   `json:"name"`
	Datums   []string `json:"datums"`
	GridDate string   `json:"grid_date,omitempty"`
}

// finite returns nil for values JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Interpolate handles GET /api/v1/grids/:region/interpolate
func (h *Handler) Interpolate(c *gin.Context) {
	var q gridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	r, err := h.engine.Interpolate(c.Request.Context(), q.id(c.Param("region")), *q.Lat, *q.Lon)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	success(c, NewResult(*q.Lat, *q.Lon, r))
}

// InterpolateBatch handles POST /api/v1/grids/:region/interpolate
func (h *Handler) InterpolateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Points) > maxBatchPoints {
		badRequest(c, "too many points")
		return
	}
	id := gridshift.GridID{Region: c.Param("region"), From: req.From, To: req.To, Parm: req.Parm, Type: req.Type}
	rs, err := h.engine.InterpolateAll(c.Request.Context(), id, req.Points)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = NewResult(req.Points[i].Lat, req.Points[i].Lon, r)
	}
	success(c, gin.H{"results": out, "count": len(out)})
}

// Block handles GET /api/v1/grids/:region/block
func (h *Handler) Block(c *gin.Context) {
	var q gridQuery
	var dims blockDims
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if err := c.ShouldBindQuery(&dims); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if dims.Rows == 0 {
		dims.Rows = 3
	}
	if dims.Cols == 0 {
		dims.Cols = 3
	}
	if dims.Rows < 1 || dims.Cols < 1 || dims.Rows > maxBlockDim || dims.Cols > maxBlockDim {
		badRequest(c, "rows and cols must be between 1 and 64")
		return
	}
	nb, err := h.engine.Block(c.Request.Context(), q.id(c.Param("region")), *q.Lat, *q.Lon, dims.Rows, dims.Cols)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	vals := make([]*float64, len(nb.Block.Values))
	for i, v := range nb.Block.Values {
		vals[i] = finite(v)
	}
	success(c, Block{
		File:   nb.File,
		Row:    nb.Block.Row,
		Col:    nb.Block.Col,
		Rows:   nb.Block.Rows,
		Cols:   nb.Block.Cols,
		X:      nb.Point.X,
		Y:      nb.Point.Y,
		Values: vals,
	})
}

// Coverage handles GET /api/v1/coverage
func (h *Handler) Coverage(c *gin.Context) {
	var q gridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	regions, err := h.engine.Regions(c.Request.Context(), q.id(""), *q.Lat, *q.Lon)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	if regions == nil {
		regions = []string{}
	}
	success(c, gin.H{"regions": regions})
}

// Regions handles GET /api/v1/regions
func (h *Handler) Regions(c *gin.Context) {
	def := h.engine.Definition()
	out := make([]RegionInfo, len(def.Regions))
	for i, r := range def.Regions {
		out[i] = RegionInfo{Name: r.Name, Datums: r.Datums, GridDate: r.GridDate}
	}
	success(c, out)
}

// Datums handles GET /api/v1/datums
func (h *Handler) Datums(c *gin.Context) {
	def := h.engine.Definition()
	region := c.Query("region")
	if region == "" {
		success(c, def.AllDatums())
		return
	}
	if _, ok := def.Region(region); !ok {
		notFound(c, "unknown region "+region)
		return
	}
	success(c, def.Datums(region))
}

func (h *Handler) lookupError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, gridshift.ErrUnknownRegion), errors.Is(err, gridshift.ErrGridNotFound):
		notFound(c, err.Error())
	case errors.Is(err, gridshift.ErrOutOfBounds):
		notFound(c, err.Error())
	case errors.Is(err, gridshift.ErrOutOfRange):
		badRequest(c, err.Error())
	case errors.Is(err, gridshift.ErrGridTooSmall):
		fail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		internalError(c, "grid lookup failed")
	}
}
