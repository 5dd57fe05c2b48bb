package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pdevine/tensor"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/suvrajeet01/virtex/pkg/embedding"
	"github.com/suvrajeet01/virtex/pkg/experiment"
)

var (
	embedVocabSize int
	embedVocabFile string
	embedTokens    string
	embedTrain     bool
	embedOutDir    string
	embedPreview   int
)

var embedCmd = &cobra.Command{
	Use:   "embed [KEY VALUE]...",
	Short: "Embed a batch of caption token ids",
	Long: `Build the word and position embedding of the configured textual head and
run it over a batch of token ids. Sequences are separated by ';' and ids by ',':

  virtex embed --vocab-size 10000 --tokens "1,5,9,2;1,7,2,0"`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().IntVar(&embedVocabSize, "vocab-size", 0, "vocabulary size")
	embedCmd.Flags().StringVar(&embedVocabFile, "vocab", "", "sentencepiece .vocab file to size the vocabulary from (default: DATA.TOKENIZER_VOCAB)")
	embedCmd.Flags().StringVarP(&embedTokens, "tokens", "t", "", "token ids, e.g. \"1,5,9,2;1,7,2,0\"")
	embedCmd.Flags().BoolVar(&embedTrain, "train", false, "apply dropout")
	embedCmd.Flags().StringVarP(&embedOutDir, "out", "o", "", "serialization directory (default: <cache dir>/runs/<timestamp>)")
	embedCmd.Flags().IntVar(&embedPreview, "preview", 4, "number of features printed per position")
	embedCmd.MarkFlagRequired("tokens")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	tokens, err := parseTokens(embedTokens)
	if err != nil {
		return err
	}

	exp, err := experiment.Setup(experiment.Options{
		ConfigFile:       resolveConfigFile(),
		Overrides:        args,
		SerializationDir: embedOutDir,
		DSN:              dsn,
		Verbose:          verbose,
	})
	if err != nil {
		return err
	}
	defer exp.Close()

	vocabSize := embedVocabSize
	if vocabSize == 0 {
		path := embedVocabFile
		if path == "" {
			path = exp.Config().Data().TokenizerVocab
		}
		if vocabSize, err = embedding.ReadVocabSize(path); err != nil {
			return err
		}
	}

	emb, err := exp.NewTextualEmbedding(vocabSize)
	if err != nil {
		return err
	}
	if embedTrain {
		emb.Train(rand.NewSource(exp.Seed()))
	}

	out, err := emb.Forward(tokens)
	if err != nil {
		return err
	}

	color.Green("Output shape: %v", out.Shape())
	return printEmbedding(cmd.OutOrStdout(), tokens, out, embedPreview)
}

func parseTokens(s string) ([][]int, error) {
	var tokens [][]int
	for _, seq := range strings.Split(s, ";") {
		seq = strings.TrimSpace(seq)
		if seq == "" {
			continue
		}

		var row []int
		for _, field := range strings.Split(seq, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q: %w", field, err)
			}
			row = append(row, id)
		}
		tokens = append(tokens, row)
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("no token ids given")
	}
	return tokens, nil
}

func printEmbedding(w io.Writer, tokens [][]int, out *tensor.Dense, preview int) error {
	shape := out.Shape()
	hidden := shape[2]
	if preview <= 0 || preview > hidden {
		preview = hidden
	}

	for b, row := range tokens {
		for i, id := range row {
			values := make([]string, 0, preview)
			for h := 0; h < preview; h++ {
				v, err := out.At(b, i, h)
				if err != nil {
					return err
				}
				values = append(values, strconv.FormatFloat(v.(float64), 'f', 4, 64))
			}
			suffix := ""
			if preview < hidden {
				suffix = " ..."
			}
			fmt.Fprintf(w, "[%d,%d] %6d  %s%s\n", b, i, id, strings.Join(values, " "), suffix)
		}
	}
	return nil
}
