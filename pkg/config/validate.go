package config

import (
	"fmt"
	"regexp"
)

func validate(s *Schema) error {
	invalid := func(path, format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidValue, path, fmt.Sprintf(format, args...))
	}

	if s.FP16Opt < 0 || s.FP16Opt > 2 {
		return invalid("FP16_OPT", "must be one of 0, 1, 2, got %d", s.FP16Opt)
	}

	if s.Data.MaxCaptionLength <= 0 {
		return invalid("DATA.MAX_CAPTION_LENGTH", "must be greater than 0")
	}

	if s.Data.UsePercentage <= 0 || s.Data.UsePercentage > 100 {
		return invalid("DATA.USE_PERCENTAGE", "must be in (0, 100], got %g", s.Data.UsePercentage)
	}

	wm := s.Data.WordMasking
	if wm.MaskProportion < 0 || wm.MaskProportion >= 1 {
		return invalid("DATA.WORD_MASKING.MASK_PROPORTION", "must be in [0, 1), got %g", wm.MaskProportion)
	}
	if wm.MaskProbability < 0 || wm.ReplaceProbability < 0 {
		return invalid("DATA.WORD_MASKING", "probabilities must not be negative")
	}
	if wm.MaskProbability+wm.ReplaceProbability > 1 {
		return invalid("DATA.WORD_MASKING", "MASK_PROBABILITY + REPLACE_PROBABILITY must be at most 1, got %g",
			wm.MaskProbability+wm.ReplaceProbability)
	}

	if !contains(ModelNames, s.Model.Name) {
		return invalid("MODEL.NAME", "unknown model %q", s.Model.Name)
	}

	if _, err := ParseVisualName(s.Model.Visual.Name); err != nil {
		return invalid("MODEL.VISUAL.NAME", "%v", err)
	}

	if s.Model.Textual.Name != "none" {
		if _, err := ParseTextualName(s.Model.Textual.Name); err != nil {
			return invalid("MODEL.TEXTUAL.NAME", "%v", err)
		}
	}

	if s.Model.Textual.Dropout < 0 || s.Model.Textual.Dropout > 1 {
		return invalid("MODEL.TEXTUAL.DROPOUT", "must be in [0, 1], got %g", s.Model.Textual.Dropout)
	}

	if !contains(OptimizerNames, s.Optim.OptimizerName) {
		return invalid("OPTIM.OPTIMIZER_NAME", "unknown optimizer %q", s.Optim.OptimizerName)
	}

	if _, err := regexp.Compile(s.Optim.NoDecay); err != nil {
		return invalid("OPTIM.NO_DECAY", "%v", err)
	}

	if s.Optim.BatchSize <= 0 {
		return invalid("OPTIM.BATCH_SIZE", "must be greater than 0")
	}

	if !contains(LRDecayNames, s.Optim.LRDecayName) {
		return invalid("OPTIM.LR_DECAY_NAME", "unknown schedule %q", s.Optim.LRDecayName)
	}

	return nil
}
