package quiz

import "testing"

func TestScore(t *testing.T) {
	mc := func(id, correct string, distractors ...string) Question {
		opts := []Option{{Text: correct, IsCorrect: true}}
		for _, d := range distractors {
			opts = append(opts, Option{Text: d})
		}
		return Question{ID: id, Type: QuestionMultipleChoice, Options: opts}
	}
	essay := func(id string) Question {
		return Question{ID: id, Type: QuestionEssay}
	}
	ans := func(qid, text string) Answer {
		return Answer{QuestionID: qid, Text: text}
	}

	tests := []struct {
		name      string
		questions []Question
		answers   []Answer
		want      float32
	}{
		{name: "no questions", want: 0},
		{
			name:      "all correct",
			questions: []Question{mc("q1", "a", "b"), mc("q2", "c", "d")},
			answers:   []Answer{ans("q1", "a"), ans("q2", "c")},
			want:      100,
		},
		{
			name:      "half correct",
			questions: []Question{mc("q1", "a", "b"), mc("q2", "c", "d"), mc("q3", "e", "f"), mc("q4", "g", "h")},
			answers:   []Answer{ans("q1", "a"), ans("q2", "d"), ans("q3", "e")},
			want:      50,
		},
		{
			name:      "unanswered questions count against the score",
			questions: []Question{mc("q1", "a", "b"), mc("q2", "c", "d")},
			answers:   []Answer{ans("q1", "a")},
			want:      50,
		},
		{
			name:      "essays are excluded from the share count",
			questions: []Question{mc("q1", "a", "b"), essay("q2")},
			answers:   []Answer{ans("q1", "a"), ans("q2", "a very long story")},
			want:      100,
		},
		{
			name:      "essay only quiz scores zero",
			questions: []Question{essay("q1")},
			answers:   []Answer{ans("q1", "lorem ipsum")},
			want:      0,
		},
		{
			name:      "exact text match only",
			questions: []Question{mc("q1", "Paris", "London")},
			answers:   []Answer{ans("q1", "paris")},
			want:      0,
		},
		{
			name:      "first answer wins on duplicates",
			questions: []Question{mc("q1", "a", "b")},
			answers:   []Answer{ans("q1", "b"), ans("q1", "a")},
			want:      0,
		},
		{
			name:      "third of three",
			questions: []Question{mc("q1", "a", "b"), mc("q2", "c", "d"), mc("q3", "e", "f")},
			answers:   []Answer{ans("q1", "a"), ans("q2", "x"), ans("q3", "y")},
			want:      float32(100) / 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.questions, tt.answers); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}
