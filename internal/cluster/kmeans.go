// Package cluster partitions recipe embeddings with seeded k-means++ over
// several restarts, keeping the lowest-inertia fit.
package cluster

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Options tunes a k-means fit. Zero values pick the defaults.
type Options struct {
	// Restarts is the number of independent seedings (default 10).
	Restarts int
	// MaxIter bounds Lloyd iterations per restart (default 100).
	MaxIter int
	// Seed makes the fit reproducible (default 42).
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.Restarts <= 0 {
		o.Restarts = 10
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 100
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	return o
}

// Result is a fitted partition. Labels[i] is the cluster of points[i].
type Result struct {
	Labels    []int
	Centroids [][]float32
	Inertia   float64
}

// ChooseK caps a requested cluster count for n samples: never more than n-1,
// and sqrt(n) when the request is far beyond what the data supports.
func ChooseK(requested, n int) int {
	if n <= 2 {
		return max(1, n)
	}
	ub := max(2, n-1)
	sqrtK := max(2, int(math.Round(math.Sqrt(float64(n)))))
	k := min(requested, ub)
	if k > sqrtK && requested > ub {
		k = sqrtK
	}
	return max(1, min(k, ub))
}

// KMeans fits k clusters to points. All points must share one dimension. k is
// lowered to the number of distinct points, so every returned cluster has at
// least one member; len(Result.Centroids) is the k actually fitted.
func KMeans(ctx context.Context, points [][]float32, k int, opts Options) (*Result, error) {
	if len(points) == 0 {
		return nil, errors.New("no points to cluster")
	}
	if k < 1 || k > len(points) {
		return nil, errors.New("k must be between 1 and the number of points")
	}
	dim := len(points[0])
	data := make([][]float64, len(points))
	for i, p := range points {
		if len(p) != dim {
			return nil, errors.New("points have mixed dimensions")
		}
		data[i] = make([]float64, dim)
		for j, x := range p {
			data[i][j] = float64(x)
		}
	}

	k = min(k, distinctAtMost(data, k))

	opts = opts.withDefaults()
	results := make([]*fit, opts.Restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for r := 0; r < opts.Restarts; r++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(opts.Seed, uint64(r)))
			f, err := lloyd(gctx, data, seed(data, k, rng), opts.MaxIter)
			if err != nil {
				return err
			}
			results[r] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, f := range results[1:] {
		if f.inertia < best.inertia {
			best = f
		}
	}

	centroids := make([][]float32, k)
	for c, ctr := range best.centroids {
		centroids[c] = make([]float32, dim)
		for j, x := range ctr {
			centroids[c][j] = float32(x)
		}
	}
	return &Result{Labels: best.labels, Centroids: centroids, Inertia: best.inertia}, nil
}

type fit struct {
	labels    []int
	centroids [][]float64
	inertia   float64
}

// seed picks k initial centroids with k-means++.
func seed(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(data[rng.IntN(len(data))]))

	dist := make([]float64, len(data))
	for i, p := range data {
		dist[i] = sqDist(p, centroids[0])
	}
	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		} else {
			next = rng.IntN(len(data))
		}
		c := clone(data[next])
		centroids = append(centroids, c)
		for i, p := range data {
			dist[i] = min(dist[i], sqDist(p, c))
		}
	}
	return centroids
}

func lloyd(ctx context.Context, data [][]float64, centroids [][]float64, maxIter int) (*fit, error) {
	k, dim := len(centroids), len(data[0])
	labels := make([]int, len(data))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i, p := range data {
			c := nearest(p, centroids)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range data {
			c := labels[i]
			counts[c]++
			for j, x := range p {
				sums[c][j] += x
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Move the farthest point that its cluster can spare.
				far := farthest(data, labels, centroids, counts)
				if far < 0 {
					continue
				}
				counts[labels[far]]--
				for j, x := range data[far] {
					sums[labels[far]][j] -= x
				}
				centroids[c] = clone(data[far])
				labels[far] = c
				counts[c] = 1
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, p := range data {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return &fit{labels: labels, centroids: centroids, inertia: inertia}, nil
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, ctr := range centroids {
		if d := sqDist(p, ctr); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// farthest returns the point farthest from its centroid among clusters with
// more than one member, or -1 when every candidate sits on its centroid.
func farthest(data [][]float64, labels []int, centroids [][]float64, counts []int) int {
	far, farDist := -1, 0.0
	for i, p := range data {
		if counts[labels[i]] < 2 {
			continue
		}
		if d := sqDist(p, centroids[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

// distinctAtMost counts distinct points, stopping once limit is reached.
func distinctAtMost(data [][]float64, limit int) int {
	seen := make(map[string]struct{}, limit)
	buf := make([]byte, 8*len(data[0]))
	for _, p := range data {
		for j, x := range p {
			binary.LittleEndian.PutUint64(buf[8*j:], math.Float64bits(x))
		}
		seen[string(buf)] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
