package spatial

import (
	"github.com/firecat2d/firecat/vector"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/constraints"
)

const (
	partitionLabel = "partition"
	queryLabel     = "query"
	opLabel        = "op"

	queryAABB     = "aabb"
	queryPosition = "position"
	queryEntity   = "entity"
	queryLine     = "line"

	opInsert = "insert"
	opRemove = "remove"
)

var (
	spatialQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spatial_queries",
		Help: "The number of spatial partition queries.",
	}, []string{
		partitionLabel,
		queryLabel,
	})

	spatialQueryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spatial_query_results",
		Help:    "The number of entities returned by spatial partition queries.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{
		partitionLabel,
		queryLabel,
	})

	spatialUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spatial_updates",
		Help: "The number of entity inserts and removals in spatial partitions.",
	}, []string{
		partitionLabel,
		opLabel,
	})
)

// PartitionWithMetrics wraps a partition to count its queries and updates.
func PartitionWithMetrics[ID constraints.Unsigned](p Partition[ID], name string) Partition[ID] {
	return &partitionWithMetrics[ID]{
		Partition: p,
		queries: map[string]queryCollectors{
			queryAABB:     newQueryCollectors(name, queryAABB),
			queryPosition: newQueryCollectors(name, queryPosition),
			queryEntity:   newQueryCollectors(name, queryEntity),
			queryLine:     newQueryCollectors(name, queryLine),
		},
		inserts: spatialUpdates.With(prometheus.Labels{
			partitionLabel: name,
			opLabel:        opInsert,
		}),
		removes: spatialUpdates.With(prometheus.Labels{
			partitionLabel: name,
			opLabel:        opRemove,
		}),
	}
}

type queryCollectors struct {
	count   prometheus.Counter
	results prometheus.Observer
}

func newQueryCollectors(partition, query string) queryCollectors {
	labels := prometheus.Labels{
		partitionLabel: partition,
		queryLabel:     query,
	}

	return queryCollectors{
		count:   spatialQueries.With(labels),
		results: spatialQueryResults.With(labels),
	}
}

func (c queryCollectors) observe(n int) {
	c.count.Inc()
	c.results.Observe(float64(n))
}

type partitionWithMetrics[ID constraints.Unsigned] struct {
	Partition[ID]

	queries map[string]queryCollectors
	inserts prometheus.Counter
	removes prometheus.Counter
}

func (p *partitionWithMetrics[ID]) Insert(id ID, min, max vector.Vec2) {
	p.Partition.Insert(id, min, max)
	p.inserts.Inc()
}

func (p *partitionWithMetrics[ID]) Remove(id ID) {
	p.Partition.Remove(id)
	p.removes.Inc()
}

func (p *partitionWithMetrics[ID]) QueryAABB(min, max vector.Vec2) []ID {
	res := p.Partition.QueryAABB(min, max)
	p.queries[queryAABB].observe(len(res))
	return res
}

func (p *partitionWithMetrics[ID]) QueryPosition(pos vector.Vec2) []ID {
	res := p.Partition.QueryPosition(pos)
	p.queries[queryPosition].observe(len(res))
	return res
}

func (p *partitionWithMetrics[ID]) QueryEntity(id ID) []ID {
	res := p.Partition.QueryEntity(id)
	p.queries[queryEntity].observe(len(res))
	return res
}

func (p *partitionWithMetrics[ID]) QueryLine(start, end vector.Vec2) []ID {
	res := p.Partition.QueryLine(start, end)
	p.queries[queryLine].observe(len(res))
	return res
}
