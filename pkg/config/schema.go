package config

import "slices"

// Schema is the full set of recognized configuration keys. Field order is
// the key order of a dumped file.
type Schema struct {
	// Random seed for every RNG in the process.
	RandomSeed int `yaml:"RANDOM_SEED"`
	// Mixed precision opt level, one of {0, 1, 2}.
	FP16Opt int `yaml:"FP16_OPT"`

	Data  Data  `yaml:"DATA"`
	Model Model `yaml:"MODEL"`
	Optim Optim `yaml:"OPTIM"`
}

// Data holds dataset paths and dataloading parameters.
type Data struct {
	// Dataset root, relative to the project root.
	Root string `yaml:"ROOT"`
	// Sentencepiece .vocab and .model files.
	TokenizerVocab string `yaml:"TOKENIZER_VOCAB"`
	TokenizerModel string `yaml:"TOKENIZER_MODEL"`

	ImageCropSize int `yaml:"IMAGE_CROP_SIZE"`
	// Longer captions are truncated to this many tokens.
	MaxCaptionLength int `yaml:"MAX_CAPTION_LENGTH"`

	// Use one random caption per image instead of all five.
	UseSingleCaption bool    `yaml:"USE_SINGLE_CAPTION"`
	UsePercentage    float64 `yaml:"USE_PERCENTAGE"`

	// Named image transforms, applied in order.
	ImageTransformTrain []string `yaml:"IMAGE_TRANSFORM_TRAIN"`
	ImageTransformVal   []string `yaml:"IMAGE_TRANSFORM_VAL"`

	WordMasking WordMasking `yaml:"WORD_MASKING"`
}

// WordMasking is only read when MODEL.NAME is "word_masking".
type WordMasking struct {
	MaskProportion     float64 `yaml:"MASK_PROPORTION"`
	MaskProbability    float64 `yaml:"MASK_PROBABILITY"`
	ReplaceProbability float64 `yaml:"REPLACE_PROBABILITY"`
}

type Model struct {
	Name    string  `yaml:"NAME"`
	Visual  Visual  `yaml:"VISUAL"`
	Textual Textual `yaml:"TEXTUAL"`
}

type Visual struct {
	// "blind" or "torchvision::<arch>".
	Name        string `yaml:"NAME"`
	FeatureSize int    `yaml:"FEATURE_SIZE"`
	Pretrained  bool   `yaml:"PRETRAINED"`
	Frozen      bool   `yaml:"FROZEN"`
}

type Textual struct {
	// "none" or "{variant}::L{layers}_H{hidden}_A{heads}_F{ffn}".
	Name    string  `yaml:"NAME"`
	Dropout float64 `yaml:"DROPOUT"`
}

// Optim holds optimization hyperparameters. Both learning rates follow the
// same warmup and decay schedule.
type Optim struct {
	OptimizerName string  `yaml:"OPTIMIZER_NAME"`
	SGDMomentum   float64 `yaml:"SGD_MOMENTUM"`
	WeightDecay   float64 `yaml:"WEIGHT_DECAY"`
	// Parameters matching this pattern get no weight decay.
	NoDecay      string  `yaml:"NO_DECAY"`
	ClipGradNorm float64 `yaml:"CLIP_GRAD_NORM"`

	UseLookahead   bool    `yaml:"USE_LOOKAHEAD"`
	LookaheadAlpha float64 `yaml:"LOOKAHEAD_ALPHA"`
	LookaheadSteps int     `yaml:"LOOKAHEAD_STEPS"`

	// Total batch size across all workers.
	BatchSize     int     `yaml:"BATCH_SIZE"`
	CNNLR         float64 `yaml:"CNN_LR"`
	LR            float64 `yaml:"LR"`
	NumIterations int     `yaml:"NUM_ITERATIONS"`

	WarmupSteps int    `yaml:"WARMUP_STEPS"`
	LRDecayName string `yaml:"LR_DECAY_NAME"`
	// Only used by the "multistep" schedule.
	LRSteps []int   `yaml:"LR_STEPS"`
	LRGamma float64 `yaml:"LR_GAMMA"`
}

// Defaults returns the schema populated with default values.
func Defaults() Schema {
	return Schema{
		RandomSeed: 0,
		FP16Opt:    2,
		Data: Data{
			Root:             "datasets/coco",
			TokenizerVocab:   "datasets/vocab/coco_10k.vocab",
			TokenizerModel:   "datasets/vocab/coco_10k.model",
			ImageCropSize:    224,
			MaxCaptionLength: 30,
			UseSingleCaption: false,
			UsePercentage:    100.0,
			ImageTransformTrain: []string{
				"random_resized_crop",
				"horizontal_flip",
				"color_jitter",
				"normalize",
			},
			ImageTransformVal: []string{
				"smallest_resize",
				"center_crop",
				"normalize",
			},
			WordMasking: WordMasking{
				MaskProportion:     0.15,
				MaskProbability:    0.85,
				ReplaceProbability: 0.10,
			},
		},
		Model: Model{
			Name: "bicaptioning",
			Visual: Visual{
				Name:        "torchvision::resnet50",
				FeatureSize: 2048,
				Pretrained:  false,
				Frozen:      false,
			},
			Textual: Textual{
				Name:    "transformer_postnorm::L1_H1024_A16_F4096",
				Dropout: 0.1,
			},
		},
		Optim: Optim{
			OptimizerName:  "sgd",
			SGDMomentum:    0.9,
			WeightDecay:    0.0001,
			NoDecay:        ".*textual.*(norm.*|bias)",
			ClipGradNorm:   10,
			UseLookahead:   false,
			LookaheadAlpha: 0.5,
			LookaheadSteps: 5,
			BatchSize:      256,
			CNNLR:          0.2,
			LR:             0.001,
			NumIterations:  500000,
			WarmupSteps:    10000,
			LRDecayName:    "cosine",
			LRSteps:        []int{},
			LRGamma:        0.1,
		},
	}
}

func (s Schema) clone() Schema {
	out := s
	out.Data = s.Data.clone()
	out.Optim = s.Optim.clone()
	return out
}

func (d Data) clone() Data {
	out := d
	out.ImageTransformTrain = slices.Clone(d.ImageTransformTrain)
	out.ImageTransformVal = slices.Clone(d.ImageTransformVal)
	return out
}

func (o Optim) clone() Optim {
	out := o
	out.LRSteps = slices.Clone(o.LRSteps)
	return out
}
