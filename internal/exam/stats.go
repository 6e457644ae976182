package exam

import (
	"sort"

	"github.com/minhph/diem10tin/internal/model"
)

// weakTopicThreshold marks a topic as weak below 60% accuracy.
const weakTopicThreshold = 0.6

// TopicStats computes per-topic accuracy over the quiz history. A
// single-choice question counts as one unit; a true/false group counts as
// one unit that is correct only when all four statements match.
func TopicStats(results []model.ExamResult) []model.TopicStat {
	type agg struct{ total, correct int }
	byTopic := make(map[string]*agg)

	for _, r := range results {
		for _, q := range r.Questions {
			a := byTopic[q.Topic]
			if a == nil {
				a = &agg{}
				byTopic[q.Topic] = a
			}
			a.total++
			if questionCorrect(q, r.Answers[q.ID]) {
				a.correct++
			}
		}
	}

	stats := make([]model.TopicStat, 0, len(byTopic))
	for topic, a := range byTopic {
		stats = append(stats, model.TopicStat{
			Topic:    topic,
			Total:    a.total,
			Correct:  a.correct,
			Accuracy: float64(a.correct) / float64(a.total),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Accuracy != stats[j].Accuracy {
			return stats[i].Accuracy < stats[j].Accuracy
		}
		return stats[i].Topic < stats[j].Topic
	})
	return stats
}

// WeakTopics lists topics whose accuracy falls below the threshold, weakest
// first. The list feeds the advisory study-plan request.
func WeakTopics(results []model.ExamResult) []string {
	var topics []string
	for _, s := range TopicStats(results) {
		if s.Accuracy < weakTopicThreshold {
			topics = append(topics, s.Topic)
		}
	}
	return topics
}

func questionCorrect(q model.Question, a model.Answer) bool {
	switch q.Type {
	case model.TypeSingleChoice:
		return a.Choice != "" && a.Choice == q.CorrectOption
	case model.TypeTrueFalseGroup:
		for _, sq := range q.SubQuestions {
			if v, ok := a.TrueFalse[sq.ID]; !ok || v != sq.Correct {
				return false
			}
		}
		return len(q.SubQuestions) > 0
	}
	return false
}
