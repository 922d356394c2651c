package questionnaire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var questionnairesCompleted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "questionnaire_completed_total",
		Help: "Questionnaires that reached 100% on save",
	},
	[]string{"kind"},
)

func recordCompleted(kind AnswerKind) {
	questionnairesCompleted.WithLabelValues(string(kind)).Inc()
}
