package progress

import (
	"math"

	courseModels "studysync/models/course"
)

// Result of grading one set of answers.
type Result struct {
	Correct   int
	Total     int
	Score     int
	Responses []courseModels.MCQResponse
}

// Grade scores answers against questions in order. answers[i] is the chosen
// option index for mcqs[i]; an index outside the options counts as wrong.
// Score is round(100 * correct / total).
func Grade(mcqs []courseModels.MCQ, answers []int) Result {
	r := Result{Total: len(mcqs), Responses: make([]courseModels.MCQResponse, len(mcqs))}
	for i, q := range mcqs {
		selected := -1
		if i < len(answers) {
			selected = answers[i]
		}
		resp := courseModels.MCQResponse{MCQID: q.ID, SelectedOption: selected}
		if selected >= 0 && selected < len(q.Options) {
			resp.SelectedText = q.Options[selected]
			resp.IsCorrect = selected == q.CorrectOption
		}
		if resp.IsCorrect {
			r.Correct++
		}
		r.Responses[i] = resp
	}
	r.Score = Percent(r.Correct, r.Total)
	return r
}

// Percent returns round(100 * part / whole), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
