package quiz

// Score computes the automatic score in [0, 100] for an attempt's answers.
//
// Each multiple choice question is worth an equal share of 100; an answer
// earns its share when its text exactly matches the option marked correct.
// Essay questions require manual grading and are excluded from the share
// count, as are unanswered questions from the tally. A quiz with no
// multiple choice questions scores 0.
func Score(questions []Question, answers []Answer) float32 {
	byQuestion := make(map[string]string, len(answers))
	for _, ans := range answers {
		if _, ok := byQuestion[ans.QuestionID]; !ok { // first write wins
			byQuestion[ans.QuestionID] = ans.Text
		}
	}

	var scored, correct int
	for _, q := range questions {
		if q.Type != QuestionMultipleChoice {
			continue
		}
		scored++
		opt, ok := q.CorrectOption()
		if !ok {
			continue
		}
		if text, ok := byQuestion[q.ID]; ok && text == opt.Text {
			correct++
		}
	}

	if scored == 0 {
		return 0
	}
	return float32(100*correct) / float32(scored)
}
