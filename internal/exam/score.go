// Package exam holds the scoring engine and the exam-taking state machines.
package exam

import (
	"fmt"
	"math"

	"github.com/minhph/diem10tin/internal/model"
)

// trueFalseTable maps the number of matching sub-items of a true/false
// group to its score. This is the official grading table, not a formula;
// do not interpolate.
var trueFalseTable = [5]float64{0, 0.1, 0.25, 0.5, 1.0}

// TrueFalseScore returns the score for a true/false group in which
// matchCount of the 4 statements were answered correctly.
func TrueFalseScore(matchCount int) float64 {
	if matchCount < 0 || matchCount > 4 {
		panic(fmt.Sprintf("exam: match count %d out of range", matchCount))
	}
	return trueFalseTable[matchCount]
}

// ScoreQuiz grades a finalized quiz attempt on the 0-10 scale. Every
// question weighs 1.0 point: a single-choice question earns its full point
// only for the correct letter, a true/false group earns matchCount/4.
// An empty question list is a validation error, never a division by zero.
func ScoreQuiz(questions []model.Question, answers map[string]model.Answer) (model.QuizScore, error) {
	if len(questions) == 0 {
		return model.QuizScore{}, fmt.Errorf("score quiz: no questions presented")
	}

	var earned float64
	correct := 0

	for _, q := range questions {
		ans, answered := answers[q.ID]
		switch q.Type {
		case model.TypeSingleChoice:
			if answered && ans.Choice == q.CorrectOption {
				earned++
				correct++
			}
		case model.TypeTrueFalseGroup:
			matches := 0
			for _, sq := range q.SubQuestions {
				// An unanswered sub-item never matches.
				if v, ok := ans.TrueFalse[sq.ID]; answered && ok && v == sq.Correct {
					matches++
				}
			}
			earned += float64(matches) / 4
			if matches == len(q.SubQuestions) {
				correct++
			}
		default:
			return model.QuizScore{}, fmt.Errorf("score quiz: question %s has unknown type %q", q.ID, q.Type)
		}
	}

	total := float64(len(questions))
	return model.QuizScore{
		Score:          earned / total * 10,
		TotalQuestions: len(questions),
		CorrectCount:   correct,
		EarnedPoints:   earned,
		TotalPossible:  total,
	}, nil
}

// ScoreExam grades a finalized mock-exam attempt. Part one awards 0.25 per
// correct letter (max 6.0); parts two and three use the true/false table
// per question (max 2.0 each). Part three counts only the chosen pair; with
// no pair chosen it scores 0 with an empty detail list.
func ScoreExam(exam model.ExamStructure, answers model.ExamAnswers) model.ExamScore {
	score := model.ExamScore{
		Part2Details: []model.TrueFalseDetail{},
		Part3Details: []model.TrueFalseDetail{},
	}

	for _, q := range exam.Part1 {
		if answers.Part1[q.Number] == q.CorrectOption {
			score.Part1Correct++
		}
	}
	score.Part1Score = float64(score.Part1Correct) * 0.25

	for _, q := range exam.Part2 {
		d := gradeTrueFalse(q, answers.Part2[q.Number])
		score.Part2Details = append(score.Part2Details, d)
		score.Part2Score += d.Score
	}

	if answers.Part3Choice != model.Part3Unchosen {
		part3 := exam.Part3Option1
		if answers.Part3Choice == model.Part3Option2 {
			part3 = exam.Part3Option2
		}
		for _, q := range part3 {
			d := gradeTrueFalse(q, answers.Part3[q.Number])
			score.Part3Details = append(score.Part3Details, d)
			score.Part3Score += d.Score
		}
	}

	score.TotalScore = round2(score.Part1Score + score.Part2Score + score.Part3Score)
	return score
}

func gradeTrueFalse(q model.TrueFalseQuestion, answer map[string]bool) model.TrueFalseDetail {
	matches := 0
	for _, opt := range q.Options {
		if v, ok := answer[opt.ID]; ok && v == opt.Correct {
			matches++
		}
	}
	return model.TrueFalseDetail{
		Number:       q.Number,
		CorrectCount: matches,
		Score:        TrueFalseScore(matches),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
