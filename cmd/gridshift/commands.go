package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/geal-ai/gridshift"
	"github.com/geal-ai/gridshift/internal/api"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	headerLen int

	region   string
	fromDtm  string
	toDtm    string
	parm     string
	gridType string

	blockRows int
	blockCols int

	addr string
)

// addGridFlags registers the flags that select one grid file.
func addGridFlags(f *pflag.FlagSet, withRegion bool) {
	if withRegion {
		f.StringVar(&region, "region", "", "grid region")
	}
	f.StringVar(&fromDtm, "from", "", "source datum")
	f.StringVar(&toDtm, "to", "", "target datum")
	f.StringVar(&parm, "parm", "", "grid parameter, e.g. lat, lon, eht")
	f.StringVar(&gridType, "type", "", "grid type, e.g. trn or err")
}

func gridID() gridshift.GridID {
	return gridshift.GridID{Region: region, From: fromDtm, To: toDtm, Parm: parm, Type: gridType}
}

// fileHeaderLen returns --header-len, else the definition's header length
// when --def is set, else the minimum.
func fileHeaderLen() (int, error) {
	if headerLen > 0 {
		return headerLen, nil
	}
	if defPath != "" {
		def, err := loadDefinition()
		if err != nil {
			return 0, err
		}
		return def.HeaderLen, nil
	}
	return gridshift.MinHeaderLen, nil
}

// readLocalHeader opens path and parses its header.
func readLocalHeader(path string) (*os.File, gridshift.Header, error) {
	n, err := fileHeaderLen()
	if err != nil {
		return nil, gridshift.Header{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, gridshift.Header{}, err
	}
	h, err := gridshift.ReadHeader(f, n)
	if err != nil {
		f.Close()
		return nil, gridshift.Header{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, h, nil
}

// headerInfo is the JSON form of a header.
type headerInfo struct {
	File      string  `json:"file"`
	Order     string  `json:"byte_order"`
	MinLat    float64 `json:"min_lat"`
	MinLon    float64 `json:"min_lon"`
	MaxLat    float64 `json:"max_lat"`
	MaxLon    float64 `json:"max_lon"`
	DLat      float64 `json:"dlat"`
	DLon      float64 `json:"dlon"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Kind      int     `json:"kind"`
	HeaderLen int     `json:"header_length"`
	CellSize  int     `json:"cell_size"`
	RecordLen int     `json:"record_length"`
	Size      int64   `json:"expected_size"`
	Coverage  bounds  `json:"coverage"`
}

// bounds is a coverage rectangle in degrees with longitudes in [-180, 180].
// West is greater than East when the grid crosses the antimeridian.
type bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

var headerCmd = &cobra.Command{
	Use:   "header <file>",
	Short: "Print the header of a local grid file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, h, err := readLocalHeader(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		cov := h.Coverage(0)
		sw, ne := cov.Lo(), cov.Hi()
		return printJSON(cmd.OutOrStdout(), headerInfo{
			File:      args[0],
			Order:     h.Order.String(),
			MinLat:    h.MinLat,
			MinLon:    h.MinLon,
			MaxLat:    h.MaxLat,
			MaxLon:    h.MaxLon,
			DLat:      h.DLat,
			DLon:      h.DLon,
			Rows:      h.Rows,
			Cols:      h.Cols,
			Kind:      h.Kind,
			HeaderLen: h.HeaderLen,
			CellSize:  h.CellSize,
			RecordLen: h.RecordLen,
			Size:      h.Size(),
			Coverage: bounds{
				South: sw.Lat.Degrees(),
				West:  sw.Lng.Degrees(),
				North: ne.Lat.Degrees(),
				East:  ne.Lng.Degrees(),
			},
		})
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <lat> <lon>",
	Short: "Interpolate the correction at a point.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		eng, release, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		r, err := eng.Interpolate(cmd.Context(), gridID(), lat, lon)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), api.NewResult(lat, lon, r))
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <lat> <lon>",
	Short: "Print the grid nodes around a point.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		eng, release, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		nb, err := eng.Block(cmd.Context(), gridID(), lat, lon, blockRows, blockCols)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(cmd.OutOrStdout())
		defer w.Flush()
		fmt.Fprintf(w, "%s  cell (%d,%d)  x=%.6f y=%.6f\n", nb.File, nb.Cell.Row, nb.Cell.Col, nb.Point.X, nb.Point.Y)
		// North at the top.
		for r := nb.Block.Rows - 1; r >= 0; r-- {
			fmt.Fprintf(w, "%6d", nb.Block.Row+r)
			for c := 0; c < nb.Block.Cols; c++ {
				fmt.Fprintf(w, " %12.5f", nb.Block.At(r, c))
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions [<lat> <lon>]",
	Short: "List regions, or the regions whose grid covers a point.",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return fmt.Errorf("need both lat and lon")
		}
		eng, release, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		if len(args) == 0 {
			return printJSON(cmd.OutOrStdout(), eng.Definition().RegionNames())
		}
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		regions, err := eng.Regions(cmd.Context(), gridID(), lat, lon)
		if err != nil {
			return err
		}
		if regions == nil {
			regions = []string{}
		}
		return printJSON(cmd.OutOrStdout(), regions)
	},
}

var datumsCmd = &cobra.Command{
	Use:   "datums",
	Short: "List the datums of a region, or of every region.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition()
		if err != nil {
			return err
		}
		if region == "" {
			return printJSON(cmd.OutOrStdout(), def.AllDatums())
		}
		if _, ok := def.Region(region); !ok {
			return fmt.Errorf("%w: %q", gridshift.ErrUnknownRegion, region)
		}
		return printJSON(cmd.OutOrStdout(), def.Datums(region))
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap <in> <out>",
	Short: "Rewrite a grid file in the other byte order.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, h, err := readLocalHeader(args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		g, err := gridshift.ReadGrid(in, &h)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		h.Order = h.Order.Other()
		if h.Order == gridshift.LittleEndian && h.Kind == gridshift.KindFloat {
			log.WithField("file", args[1]).Warn("little-endian grids of kind 0 are read back as big-endian")
		}

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		w := bufio.NewWriter(out)
		if err := gridshift.WriteGrid(w, h, g.Values); err != nil {
			out.Close()
			return err
		}
		if err := w.Flush(); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"in": args[0], "out": args[1], "order": h.Order.String()}).Info("grid rewritten")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grid lookups over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, release, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		r := api.SetupRouter(eng, log)
		log.WithField("addr", addr).Info("server starting")
		return r.Run(addr)
	},
}

func init() {
	headerCmd.Flags().IntVar(&headerLen, "header-len", 0, "header length in bytes (default: from --def, else 48)")
	swapCmd.Flags().IntVar(&headerLen, "header-len", 0, "header length in bytes (default: from --def, else 48)")

	addGridFlags(lookupCmd.Flags(), true)
	addGridFlags(blockCmd.Flags(), true)
	blockCmd.Flags().IntVar(&blockRows, "rows", 3, "neighbourhood rows")
	blockCmd.Flags().IntVar(&blockCols, "cols", 3, "neighbourhood columns")
	addGridFlags(regionsCmd.Flags(), false)

	datumsCmd.Flags().StringVar(&region, "region", "", "region (default: all regions)")

	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
}
