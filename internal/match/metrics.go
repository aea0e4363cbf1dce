// metrics.go

package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shuttle",
		Name:      "matches_created_total",
		Help:      "按选人策略统计的已创建比赛数",
	}, []string{"strategy"})

	resultsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle",
		Name:      "results_recorded_total",
		Help:      "已录入的比赛结果数",
	})

	matchesReverted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle",
		Name:      "matches_reverted_total",
		Help:      "回退删除的比赛数",
	})

	autoNextFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle",
		Name:      "auto_next_failures_total",
		Help:      "自动创建下一场失败的次数",
	})
)
