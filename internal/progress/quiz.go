package progress

import (
	"fmt"
	"math"

	"vmp-edtech-backend/internal/domain"
)

// Unanswered is the chosen option reported for a question the learner skipped.
const Unanswered = -1

// ValidateQuestion checks that a question has at least two options and a
// correct option inside them.
func ValidateQuestion(q domain.Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: question prompt is required", domain.ErrInvalidInput)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question %q needs at least two options", domain.ErrInvalidInput, q.Prompt)
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return fmt.Errorf("%w: question %q correct option %d out of range", domain.ErrInvalidInput, q.Prompt, q.CorrectOption)
	}
	return nil
}

// GradeQuiz scores answers (question id -> chosen option index) against the
// questions. Score is 100 * correct / total rounded to two decimals and the
// quiz passes when the score reaches threshold.
func GradeQuiz(questions []domain.Question, answers map[string]int, threshold float64) domain.QuizResult {
	res := domain.QuizResult{
		Total:    len(questions),
		Feedback: make([]domain.QuestionFeedback, 0, len(questions)),
	}

	for _, q := range questions {
		chosen, ok := answers[q.ID]
		if !ok {
			chosen = Unanswered
		}
		correct := ok && chosen == q.CorrectOption
		if correct {
			res.Correct++
		}
		res.Feedback = append(res.Feedback, domain.QuestionFeedback{
			QuestionID:    q.ID,
			Correct:       correct,
			ChosenOption:  chosen,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		})
	}

	if res.Total > 0 {
		res.Score = math.Round(10000*float64(res.Correct)/float64(res.Total)) / 100
	}
	res.Passed = res.Total > 0 && res.Score >= threshold

	if res.Passed {
		res.Message = fmt.Sprintf("¡Felicitaciones! Aprobaste con %.0f%%", res.Score)
	} else {
		res.Message = fmt.Sprintf("Obtuviste %.0f%%. Necesitas %.0f%% para aprobar", res.Score, threshold)
	}
	return res
}

// PracticeComplete reports whether every task that requires a photo has its
// latest evidence approved. latest maps task id to the newest evidence.
func PracticeComplete(tasks []domain.PracticalTask, latest map[string]domain.Evidence) bool {
	for _, t := range tasks {
		if !t.RequiresPhoto {
			continue
		}
		ev, ok := latest[t.ID]
		if !ok || ev.Status != domain.EvidenceApproved {
			return false
		}
	}
	return true
}

// LatestByTask keeps the newest evidence per task. Ties on UploadedAt are
// broken by the higher id.
func LatestByTask(evidence []domain.Evidence) map[string]domain.Evidence {
	latest := make(map[string]domain.Evidence, len(evidence))
	for _, ev := range evidence {
		cur, ok := latest[ev.TaskID]
		if !ok || ev.UploadedAt.After(cur.UploadedAt) ||
			(ev.UploadedAt.Equal(cur.UploadedAt) && ev.ID > cur.ID) {
			latest[ev.TaskID] = ev
		}
	}
	return latest
}
