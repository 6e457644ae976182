package advisory

import (
	"fmt"
	"strings"

	"github.com/minhph/diem10tin/internal/model"
)

// explainPrompt asks for an explanation of one question in either shape.
func explainPrompt(q model.Question) string {
	var sb strings.Builder
	sb.WriteString("Tôi đang ôn thi THPTQG môn Tin học. Hãy giải thích chi tiết câu hỏi sau giúp tôi:\n\n")
	sb.WriteString("Câu hỏi: " + q.Prompt + "\n")

	switch q.Type {
	case model.TypeSingleChoice:
		sb.WriteString("Các lựa chọn:\n")
		for _, o := range q.Options {
			sb.WriteString(fmt.Sprintf("%s. %s\n", o.ID, o.Text))
		}
		sb.WriteString("Đáp án đúng là: " + q.CorrectOption + "\n")
	case model.TypeTrueFalseGroup:
		sb.WriteString("Các phát biểu con:\n")
		for _, sq := range q.SubQuestions {
			verdict := "Sai"
			if sq.Correct {
				verdict = "Đúng"
			}
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", sq.Text, verdict))
		}
	}

	sb.WriteString("\nHãy giải thích ngắn gọn, dễ hiểu tại sao đáp án lại như vậy và cung cấp thêm kiến thức liên quan nếu cần.")
	return sb.String()
}

// studyPlanPrompt asks for a one-week study plan over the weak topics.
func studyPlanPrompt(weakTopics []string) string {
	return fmt.Sprintf(
		"Tôi là học sinh lớp 12 đang ôn thi Tin học. Dựa trên kết quả thi thử, tôi đang yếu các phần sau: %s.\n"+
			"Hãy gợi ý cho tôi một lộ trình ôn tập ngắn gọn trong 1 tuần để cải thiện các phần này.",
		strings.Join(weakTopics, ", "),
	)
}
