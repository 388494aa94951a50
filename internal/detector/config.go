package detector

import "fmt"

// Config holds the post-processing parameters for DB detection geometry.
type Config struct {
	// BinaryThreshold binarizes the probability map (value > threshold).
	BinaryThreshold float32 `mapstructure:"binary_threshold" yaml:"binary_threshold" json:"binary_threshold"`
	// BoxScoreThreshold rejects candidate boxes whose masked mean
	// probability falls below it.
	BoxScoreThreshold float64 `mapstructure:"box_score_threshold" yaml:"box_score_threshold" json:"box_score_threshold"`
	// UnclipRatio controls how far tight boxes are expanded outward.
	UnclipRatio float64 `mapstructure:"unclip_ratio" yaml:"unclip_ratio" json:"unclip_ratio"`
	// MinBoxSide rejects boxes whose shortest side is below this many pixels.
	MinBoxSide float64 `mapstructure:"min_box_side" yaml:"min_box_side" json:"min_box_side"`
	// LineTolerance groups boxes into text lines when their top edges are
	// within this many pixels.
	LineTolerance float64 `mapstructure:"line_tolerance" yaml:"line_tolerance" json:"line_tolerance"`
	// MaxComponents caps the number of candidate components processed per
	// map, protecting against pathological inputs.
	MaxComponents int `mapstructure:"max_components" yaml:"max_components" json:"max_components"`
	// Workers sets the number of goroutines processing components in
	// parallel. 0 or 1 means sequential.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// DefaultConfig returns the default post-processing parameters.
func DefaultConfig() Config {
	return Config{
		BinaryThreshold:   0.3,
		BoxScoreThreshold: 0.6,
		UnclipRatio:       1.5,
		MinBoxSide:        3,
		LineTolerance:     10,
		MaxComponents:     1000,
		Workers:           0,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.BinaryThreshold < 0 || c.BinaryThreshold > 1 {
		return fmt.Errorf("invalid binary threshold: %.2f (must be between 0.0 and 1.0)", c.BinaryThreshold)
	}
	if c.BoxScoreThreshold < 0 || c.BoxScoreThreshold > 1 {
		return fmt.Errorf("invalid box score threshold: %.2f (must be between 0.0 and 1.0)", c.BoxScoreThreshold)
	}
	if c.UnclipRatio < 0 {
		return fmt.Errorf("invalid unclip ratio: %.2f (must be non-negative)", c.UnclipRatio)
	}
	if c.MinBoxSide < 0 {
		return fmt.Errorf("invalid min box side: %.2f (must be non-negative)", c.MinBoxSide)
	}
	if c.LineTolerance < 0 {
		return fmt.Errorf("invalid line tolerance: %.2f (must be non-negative)", c.LineTolerance)
	}
	if c.MaxComponents < 0 {
		return fmt.Errorf("invalid max components: %d (must be non-negative)", c.MaxComponents)
	}
	return nil
}
