package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/suvrajeet01/virtex/pkg/config"
)

// NewFromConfig builds the embedding of the textual head: hidden size from
// MODEL.TEXTUAL.NAME, max length from DATA.MAX_CAPTION_LENGTH and dropout
// from MODEL.TEXTUAL.DROPOUT. Token id 0 is padding.
func NewFromConfig(cfg *config.Config, vocabSize int, src rand.Source) (*WordAndPositionEmbedding, error) {
	textual := cfg.Model().Textual
	if textual.Name == "none" {
		return nil, fmt.Errorf("model %q has no textual head", cfg.Model().Name)
	}

	arch, err := textual.Arch()
	if err != nil {
		return nil, fmt.Errorf("failed to parse textual head: %w", err)
	}

	return New(Options{
		VocabSize:         vocabSize,
		HiddenSize:        arch.HiddenSize,
		MaxSequenceLength: cfg.Data().MaxCaptionLength,
		Dropout:           textual.Dropout,
		PaddingIdx:        0,
	}, src)
}

// ReadVocabSize counts the pieces in a sentencepiece .vocab file, one
// "piece<TAB>score" entry per line.
func ReadVocabSize(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open vocab file: %w", err)
	}
	defer file.Close()

	size := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		size++
	}

	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading vocab file: %w", err)
	}

	if size == 0 {
		return 0, fmt.Errorf("no vocabulary entries found in %s", path)
	}

	return size, nil
}
