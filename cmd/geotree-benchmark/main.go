package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/geotoolbox/geotree"
	"github.com/geotoolbox/geotree/geom"
	"github.com/geotoolbox/geotree/internal/config"
	"github.com/geotoolbox/geotree/internal/dataset"
	"github.com/geotoolbox/geotree/internal/log"
	"github.com/tidwall/rtree"
)

var (
	configPath string
	count      int
	kind       string
	extent     float64
	maxSize    float64
	queries    int
	nearestK   int
	maxElems   int
	seed       int64
)

func showHelp() bool {
	fmt.Fprintf(os.Stdout, "geotree-benchmark\n\n")
	fmt.Fprintf(os.Stdout, "Usage: geotree-benchmark [options]\n")
	fmt.Fprintf(os.Stdout, " -c <path>      config file path\n")
	fmt.Fprintf(os.Stdout, " -n <count>     number of elements (default: 100000)\n")
	fmt.Fprintf(os.Stdout, " -kind <kind>   key kind, point, box, or all (default: all)\n")
	fmt.Fprintf(os.Stdout, " -extent <v>    side length of the square data extent (default: 10)\n")
	fmt.Fprintf(os.Stdout, " -maxsize <v>   maximum box edge length (default: 0.1)\n")
	fmt.Fprintf(os.Stdout, " -q <count>     number of queries per batch (default: 1000)\n")
	fmt.Fprintf(os.Stdout, " -k <count>     neighbors per nearest query (default: 10)\n")
	fmt.Fprintf(os.Stdout, " -m <count>     max elements per leaf node (default: %d)\n",
		geotree.DefaultMaxNodeElements)
	fmt.Fprintf(os.Stdout, " -seed <v>      random seed (default: 13)\n")
	return false
}

func parseArgs() bool {
	flag.Usage = func() { showHelp() }
	flag.StringVar(&configPath, "c", "", "")
	flag.IntVar(&count, "n", 0, "")
	flag.StringVar(&kind, "kind", "", "")
	flag.Float64Var(&extent, "extent", 0, "")
	flag.Float64Var(&maxSize, "maxsize", 0, "")
	flag.IntVar(&queries, "q", 0, "")
	flag.IntVar(&nearestK, "k", 0, "")
	flag.IntVar(&maxElems, "m", 0, "")
	flag.Int64Var(&seed, "seed", 0, "")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if count <= 0 {
		count = cfg.Int(config.DatasetSize, 100000)
	}
	if kind == "" {
		kind = cfg.String(config.KeyKind, "all")
	}
	if kind != "point" && kind != "box" && kind != "all" {
		log.Errorf("invalid key kind '%s'", kind)
		return false
	}
	if extent <= 0 {
		extent = cfg.Float(config.Extent, 10)
	}
	if maxSize <= 0 {
		maxSize = cfg.Float(config.MaxBoxSize, 0.1)
	}
	if queries <= 0 {
		queries = cfg.Int(config.QueryCount, 1000)
	}
	if nearestK <= 0 {
		nearestK = cfg.Int(config.NearestCount, 10)
	}
	if maxElems <= 0 {
		maxElems = cfg.Int(config.MaxNodeElements, geotree.DefaultMaxNodeElements)
	}
	if seed == 0 {
		seed = int64(cfg.Int(config.Seed, 13))
	}
	return true
}

func main() {
	if !parseArgs() {
		os.Exit(1)
	}
	if err := log.Build(""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Infof("dataset: n=%d kind=%s extent=%g maxsize=%g seed=%d",
		count, kind, extent, maxSize, seed)
	if kind == "point" || kind == "all" {
		log.Infof("-- point keys --")
		run(dataset.UniformPoints(count, extent, seed), dataset.Key[geom.Point])
	}
	if kind == "box" || kind == "all" {
		log.Infof("-- box keys --")
		run(dataset.UniformBoxes(count, extent, maxSize, seed), dataset.Key[geom.Rect])
	}
}

func keyRect[K geotree.Key](k K) geom.Rect {
	switch v := any(k).(type) {
	case geom.Point:
		return geom.Rect{Min: v, Max: v}
	case geom.Rect:
		return v
	}
	panic("unreachable")
}

func timed(name string, fn func()) {
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	log.Infof("%-24s %v", name, elapsed)
}

func run[K geotree.Key](feats []dataset.Feature[K], keyOf func(dataset.Feature[K]) K) {
	// Index build.
	var tree *geotree.Tree[K, dataset.Feature[K]]
	timed("build geotree", func() {
		tree = geotree.Build(feats, keyOf, maxElems)
	})
	log.Infof("%-24s %d nodes, bounds %v", "", tree.NumNodes(), tree.Bounds())

	var baseline rtree.RTreeG[int]
	timed("build rtree", func() {
		for i, f := range feats {
			r := keyRect(f.Key)
			baseline.Insert([2]float64{r.Min[0], r.Min[1]}, [2]float64{r.Max[0], r.Max[1]}, i)
		}
	})

	windows := queryWindows()
	rangeBatch(tree, &baseline, windows)
	nearestBatch(tree, feats)
}

func queryWindows() []geom.Rect {
	rng := rand.New(rand.NewSource(seed + 1))
	windows := make([]geom.Rect, queries)
	for i := range windows {
		cx := rng.Float64() * extent
		cy := rng.Float64() * extent
		w := rng.Float64() * extent / 8
		h := rng.Float64() * extent / 8
		windows[i] = geom.R(cx-w, cy-h, cx+w, cy+h)
	}
	return windows
}

func rangeBatch[K geotree.Key](tree *geotree.Tree[K, dataset.Feature[K]], baseline *rtree.RTreeG[int], windows []geom.Rect) {
	var treeHits, rtreeHits, scanHits int
	timed("range geotree", func() {
		for _, w := range windows {
			tree.Search(w, func(int, dataset.Feature[K]) bool {
				treeHits++
				return true
			})
		}
	})
	timed("range rtree", func() {
		for _, w := range windows {
			baseline.Search(
				[2]float64{w.Min[0], w.Min[1]}, [2]float64{w.Max[0], w.Max[1]},
				func(_, _ [2]float64, _ int) bool {
					rtreeHits++
					return true
				})
		}
	})
	timed("range scan", func() {
		elems := tree.Elements()
		for _, w := range windows {
			for i := range elems {
				if w.Intersects(keyRect(elems[i].Key)) {
					scanHits++
				}
			}
		}
	})
	if treeHits != rtreeHits || treeHits != scanHits {
		log.Fatalf("range result mismatch: geotree=%d rtree=%d scan=%d",
			treeHits, rtreeHits, scanHits)
	}
	log.Infof("range queries agree: %d total hits over %d windows", treeHits, len(windows))
}

func nearestBatch[K geotree.Key](tree *geotree.Tree[K, dataset.Feature[K]], feats []dataset.Feature[K]) {
	rng := rand.New(rand.NewSource(seed + 2))
	targets := make([]geom.Point, queries)
	for i := range targets {
		targets[i] = geom.P(rng.Float64()*extent, rng.Float64()*extent)
	}

	var treeDist, scanDist float64
	timed("nearest geotree", func() {
		for _, target := range targets {
			for _, c := range tree.Nearest(target, nearestK, 0) {
				treeDist += c.DistSq
			}
		}
	})
	timed("nearest scan", func() {
		dists := make([]float64, len(feats))
		for _, target := range targets {
			for i := range feats {
				dists[i] = keyRect(feats[i].Key).DistSquaredToPoint(target)
			}
			sort.Float64s(dists)
			k := nearestK
			if k > len(dists) {
				k = len(dists)
			}
			for _, d := range dists[:k] {
				scanDist += d
			}
		}
	})
	// Distance sums match when both sides return a true k-nearest set,
	// regardless of tie ordering. Summation order differs, so compare with
	// a relative tolerance.
	tol := 1e-9 * (1 + scanDist)
	if diff := treeDist - scanDist; diff > tol || diff < -tol {
		log.Fatalf("nearest result mismatch: geotree=%v scan=%v", treeDist, scanDist)
	}
	log.Infof("nearest queries agree over %d targets (k=%d)", len(targets), nearestK)
}
