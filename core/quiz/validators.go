package quiz

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	mcOptionsTag  = "mcoptions"
	mcOptionsText = "multiple choice questions require at least 2 options with exactly one marked correct"

	essayOptionsTag  = "essayoptions"
	essayOptionsText = "essay questions cannot have options"
)

func init() {
	core.Validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(mcOptionsTag, mcOptionsText)
	core.RegisterCustomTranslation(essayOptionsTag, essayOptionsText)
}

// questionStructValidation enforces the option set invariant per question type:
// exactly one correct option for multiple choice, no options for essays.
func questionStructValidation(sl validator.StructLevel) {
	nq, ok := sl.Current().Interface().(NewQuestion)
	if !ok {
		return
	}

	switch nq.Type {
	case QuestionMultipleChoice:
		var correct int
		for _, opt := range nq.Options {
			if opt.IsCorrect {
				correct++
			}
		}
		if len(nq.Options) < 2 || correct != 1 {
			sl.ReportError(nq.Options, "options", "Options", mcOptionsTag, "")
		}
	case QuestionEssay:
		if len(nq.Options) > 0 {
			sl.ReportError(nq.Options, "options", "Options", essayOptionsTag, "")
		}
	}
}
