package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/geotoolbox/geotree"
	"github.com/geotoolbox/geotree/geom"
	"github.com/geotoolbox/geotree/internal/dataset"
	"github.com/geotoolbox/geotree/internal/render"
	"github.com/peterh/liner"
	"github.com/tidwall/btree"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var historyFile = filepath.Join(userHomeDir(), ".geotree_history")

var commands = []string{
	"gen", "load", "save", "build", "info", "search", "nearest",
	"render", "keys", "del", "help", "exit", "quit",
}

// session holds one named dataset and, after `build`, its index. The key
// kind is fixed when the dataset is created.
type session struct {
	name    string
	kind    string // "point" or "box"
	points  []dataset.Feature[geom.Point]
	boxes   []dataset.Feature[geom.Rect]
	ptTree  *geotree.Tree[geom.Point, dataset.Feature[geom.Point]]
	boxTree *geotree.Tree[geom.Rect, dataset.Feature[geom.Rect]]
}

func (s *session) size() int {
	if s.kind == "point" {
		return len(s.points)
	}
	return len(s.boxes)
}

func (s *session) built() bool {
	return s.ptTree != nil || s.boxTree != nil
}

var sessions btree.Map[string, *session]

func userHomeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}

func main() {
	fmt.Printf("geotree-cli: type \"help\" for a list of commands\n")
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) (c []string) {
		for _, n := range commands {
			if strings.HasPrefix(n, strings.ToLower(line)) {
				c = append(c, n)
			}
		}
		return
	})
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt("geotree> ")
		if err != nil {
			if err != liner.ErrPromptAborted {
				fmt.Fprintln(os.Stderr, err)
			}
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		args := strings.Fields(input)
		cmd := strings.ToLower(args[0])
		if cmd == "exit" || cmd == "quit" {
			return
		}
		out, err := dispatch(cmd, args[1:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "(error) %v\n", err)
			continue
		}
		if out != "" {
			os.Stdout.Write(pretty.Pretty([]byte(out)))
		}
	}
}

func dispatch(cmd string, args []string) (string, error) {
	switch cmd {
	case "help":
		printHelp()
		return "", nil
	case "gen":
		return cmdGen(args)
	case "load":
		return cmdLoad(args)
	case "save":
		return cmdSave(args)
	case "build":
		return cmdBuild(args)
	case "info":
		return cmdInfo(args)
	case "search":
		return cmdSearch(args)
	case "nearest":
		return cmdNearest(args)
	case "render":
		return cmdRender(args)
	case "keys":
		return cmdKeys()
	case "del":
		return cmdDel(args)
	}
	return "", fmt.Errorf("unknown command '%s'", cmd)
}

func printHelp() {
	fmt.Print(`
  gen <name> <count> [point|box] [extent] [maxsize]   generate a uniform dataset
  load <name> <path> [point|box]                      load a GeoJSON file
  save <name> <path>                                  write a dataset as GeoJSON
  build <name> [maxnodeelems]                         build the index
  info <name>                                         dataset and tree stats
  search <name> <minx> <miny> <maxx> <maxy>           window query
  nearest <name> <x> <y> [count] [radius]             nearest-neighbor query
  render <name> <out.png> [width] [height]            draw dataset and node boxes
  keys                                                list datasets
  del <name>                                          drop a dataset
  exit                                                bye

`)
}

func getSession(name string) (*session, error) {
	s, ok := sessions.Get(name)
	if !ok {
		return nil, fmt.Errorf("no such dataset '%s'", name)
	}
	return s, nil
}

func getBuilt(name string) (*session, error) {
	s, err := getSession(name)
	if err != nil {
		return nil, err
	}
	if !s.built() {
		return nil, fmt.Errorf("dataset '%s' is not built, run: build %s", name, name)
	}
	return s, nil
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, errors.New("wrong number of arguments")
	}
	return strconv.ParseFloat(args[i], 64)
}

func intArg(args []string, i, fallback int) (int, error) {
	if i >= len(args) {
		return fallback, nil
	}
	return strconv.Atoi(args[i])
}

func kindArg(args []string, i int) (string, error) {
	if i >= len(args) {
		return "box", nil
	}
	kind := strings.ToLower(args[i])
	if kind != "point" && kind != "box" {
		return "", fmt.Errorf("invalid key kind '%s'", args[i])
	}
	return kind, nil
}

func cmdGen(args []string) (string, error) {
	if len(args) < 2 {
		return "", errors.New("usage: gen <name> <count> [point|box] [extent] [maxsize]")
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return "", err
	}
	kind, err := kindArg(args, 2)
	if err != nil {
		return "", err
	}
	extent := 10.0
	if len(args) > 3 {
		if extent, err = floatArg(args, 3); err != nil {
			return "", err
		}
	}
	maxSize := 0.1
	if len(args) > 4 {
		if maxSize, err = floatArg(args, 4); err != nil {
			return "", err
		}
	}
	s := &session{name: args[0], kind: kind}
	if kind == "point" {
		s.points = dataset.UniformPoints(count, extent, 0)
	} else {
		s.boxes = dataset.UniformBoxes(count, extent, maxSize, 0)
	}
	sessions.Set(args[0], s)
	return statusJSON(s), nil
}

func cmdLoad(args []string) (string, error) {
	if len(args) < 2 {
		return "", errors.New("usage: load <name> <path> [point|box]")
	}
	kind, err := kindArg(args, 2)
	if err != nil {
		return "", err
	}
	s := &session{name: args[0], kind: kind}
	if kind == "point" {
		s.points, err = dataset.LoadGeoJSONPoints(args[1])
	} else {
		s.boxes, err = dataset.LoadGeoJSON(args[1])
	}
	if err != nil {
		return "", err
	}
	sessions.Set(args[0], s)
	return statusJSON(s), nil
}

func cmdSave(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: save <name> <path>")
	}
	s, err := getSession(args[0])
	if err != nil {
		return "", err
	}
	if s.kind == "point" {
		err = dataset.SaveGeoJSON(args[1], s.points)
	} else {
		err = dataset.SaveGeoJSON(args[1], s.boxes)
	}
	if err != nil {
		return "", err
	}
	return `{"ok":true}`, nil
}

func cmdBuild(args []string) (string, error) {
	if len(args) < 1 {
		return "", errors.New("usage: build <name> [maxnodeelems]")
	}
	s, err := getSession(args[0])
	if err != nil {
		return "", err
	}
	maxElems, err := intArg(args, 1, 0)
	if err != nil {
		return "", err
	}
	if s.kind == "point" {
		s.ptTree = geotree.Build(s.points, dataset.Key[geom.Point], maxElems)
	} else {
		s.boxTree = geotree.Build(s.boxes, dataset.Key[geom.Rect], maxElems)
	}
	return statusJSON(s), nil
}

func cmdInfo(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: info <name>")
	}
	s, err := getSession(args[0])
	if err != nil {
		return "", err
	}
	return statusJSON(s), nil
}

func statusJSON(s *session) string {
	out := "{}"
	out, _ = sjson.Set(out, "name", s.name)
	out, _ = sjson.Set(out, "kind", s.kind)
	out, _ = sjson.Set(out, "count", s.size())
	out, _ = sjson.Set(out, "built", s.built())
	if s.ptTree != nil {
		out, _ = sjson.Set(out, "nodes", s.ptTree.NumNodes())
	} else if s.boxTree != nil {
		out, _ = sjson.Set(out, "nodes", s.boxTree.NumNodes())
	}
	return out
}

func cmdSearch(args []string) (string, error) {
	if len(args) != 5 {
		return "", errors.New("usage: search <name> <minx> <miny> <maxx> <maxy>")
	}
	s, err := getBuilt(args[0])
	if err != nil {
		return "", err
	}
	var coords [4]float64
	for i := range coords {
		if coords[i], err = floatArg(args, i+1); err != nil {
			return "", err
		}
	}
	query := geom.R(coords[0], coords[1], coords[2], coords[3])
	var ids []int64
	if s.kind == "point" {
		s.ptTree.Search(query, func(_ int, f dataset.Feature[geom.Point]) bool {
			ids = append(ids, f.ID)
			return true
		})
	} else {
		s.boxTree.Search(query, func(_ int, f dataset.Feature[geom.Rect]) bool {
			ids = append(ids, f.ID)
			return true
		})
	}
	out := "{}"
	out, _ = sjson.Set(out, "count", len(ids))
	out, _ = sjson.Set(out, "ids", ids)
	return out, nil
}

func cmdNearest(args []string) (string, error) {
	if len(args) < 3 {
		return "", errors.New("usage: nearest <name> <x> <y> [count] [radius]")
	}
	s, err := getBuilt(args[0])
	if err != nil {
		return "", err
	}
	x, err := floatArg(args, 1)
	if err != nil {
		return "", err
	}
	y, err := floatArg(args, 2)
	if err != nil {
		return "", err
	}
	count, err := intArg(args, 3, 0)
	if err != nil {
		return "", err
	}
	radius := 0.0
	if len(args) > 4 {
		if radius, err = floatArg(args, 4); err != nil {
			return "", err
		}
	}
	if count <= 0 && radius <= 0 {
		count = 1
	}
	var results []geotree.Candidate
	var ids []int64
	target := geom.P(x, y)
	if s.kind == "point" {
		results = s.ptTree.Nearest(target, count, radius)
		for _, c := range results {
			ids = append(ids, s.ptTree.Elements()[c.Index].ID)
		}
	} else {
		results = s.boxTree.Nearest(target, count, radius)
		for _, c := range results {
			ids = append(ids, s.boxTree.Elements()[c.Index].ID)
		}
	}
	out := "{}"
	out, _ = sjson.Set(out, "count", len(results))
	for i, c := range results {
		out, _ = sjson.Set(out, fmt.Sprintf("results.%d.id", i), ids[i])
		out, _ = sjson.Set(out, fmt.Sprintf("results.%d.dist_sq", i), c.DistSq)
	}
	return out, nil
}

func cmdRender(args []string) (string, error) {
	if len(args) < 2 {
		return "", errors.New("usage: render <name> <out.png> [width] [height]")
	}
	s, err := getBuilt(args[0])
	if err != nil {
		return "", err
	}
	width, err := intArg(args, 2, 1024)
	if err != nil {
		return "", err
	}
	height, err := intArg(args, 3, 1024)
	if err != nil {
		return "", err
	}
	var world geom.Rect
	var nodeBoxes []geom.Rect
	if s.kind == "point" {
		world = s.ptTree.Bounds()
		for i := 0; i < s.ptTree.NumNodes(); i++ {
			nodeBoxes = append(nodeBoxes, s.ptTree.Node(i).Box)
		}
	} else {
		world = s.boxTree.Bounds()
		for i := 0; i < s.boxTree.NumNodes(); i++ {
			nodeBoxes = append(nodeBoxes, s.boxTree.Node(i).Box)
		}
	}
	img := render.New(width, height, world)
	img.Boxes(nodeBoxes, render.Gray)
	if s.kind == "point" {
		for _, f := range s.ptTree.Elements() {
			img.DrawPoint(f.Key, render.Blue)
		}
	} else {
		for _, f := range s.boxTree.Elements() {
			img.DrawRect(f.Key, render.Blue)
		}
	}
	if err := img.Encode(args[1]); err != nil {
		return "", err
	}
	return `{"ok":true}`, nil
}

func cmdKeys() (string, error) {
	var names []string
	sessions.Scan(func(name string, _ *session) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	out := "{}"
	out, _ = sjson.Set(out, "keys", names)
	return out, nil
}

func cmdDel(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: del <name>")
	}
	if _, ok := sessions.Delete(args[0]); !ok {
		return "", fmt.Errorf("no such dataset '%s'", args[0])
	}
	return `{"ok":true}`, nil
}
